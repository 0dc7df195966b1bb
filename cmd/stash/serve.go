package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aretw0/stash"
	httpAdapter "github.com/aretw0/stash/pkg/adapters/http"
	"github.com/aretw0/stash/pkg/finder"
	"github.com/aretw0/stash/pkg/observability"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves the key/value view, the configured finders and Prometheus metrics over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd, stash.WithMetrics(observability.NewMetrics()))
		if err != nil {
			return err
		}
		defer e.factory.Close()

		finders := finder.NewRegistry()
		for _, f := range e.cfg.Finders {
			entity, method, _ := strings.Cut(f, ".")
			if _, err := finders.Register(entity, method); err != nil {
				return err
			}
		}

		addr := e.cfg.HTTPAddr
		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			addr = listen
		}
		srv := &http.Server{
			Addr:              addr,
			Handler:           httpAdapter.NewHandler(e.factory, finders, httpAdapter.WithLogger(e.logger)),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			e.logger.Info("Starting stash server", "addr", srv.Addr, "backend", e.cfg.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			e.logger.Info("Shutting down", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				e.logger.Warn("Graceful shutdown did not complete", "error", err)
				return srv.Close()
			}
			e.logger.Info("Stash server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "Address to listen on, overrides http_addr")
}
