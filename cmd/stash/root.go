package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/stash"
	"github.com/aretw0/stash/internal/logging"
	"github.com/aretw0/stash/pkg/config"
	"github.com/aretw0/stash/pkg/mapping"
	"github.com/aretw0/stash/pkg/session"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "stash",
	Short:         "Stash is a persistence session layer over key/value datastores",
	Long:          `Stash opens sessions against Redis (or an in-memory store) to inspect keys, take entity locks and serve finders over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "stash.yaml", "Configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().String("addr", "", "Redis address, overrides the configuration")
	rootCmd.PersistentFlags().String("backend", "", "Backend to use: redis or memory")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// record stands in for entities the CLI only knows by name. Every name shares
// the type, so the CLI only addresses entities by name (LockKey, finders).
type record struct {
	ID string `mapstructure:"id" json:"id"`
}

// env is what every command needs: settings, a logger and a session factory.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	factory session.Factory
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.Backend = backend
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

func newMapping(entities []string) (*mapping.Registry, error) {
	m := mapping.NewRegistry()
	for _, name := range entities {
		if _, err := m.Register(record{}, mapping.WithName(name)); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func setup(cmd *cobra.Command, opts ...stash.Option) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.New(level)

	m, err := newMapping(cfg.Entities)
	if err != nil {
		return nil, err
	}
	factory, err := stash.Open(cfg, m, append([]stash.Option{stash.WithLogger(logger)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, factory: factory}, nil
}

// withSession runs fn in a fresh session and tears everything down afterwards.
func withSession(cmd *cobra.Command, fn session.VoidSessionCallback) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.factory.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := e.factory.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Disconnect(ctx); err != nil {
			e.logger.Warn("Disconnect failed", "error", err)
		}
	}()
	return s.ExecuteVoid(ctx, fn)
}
