package stash

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/stash/internal/logging"
	"github.com/aretw0/stash/pkg/adapters/memory"
	"github.com/aretw0/stash/pkg/adapters/redis"
	"github.com/aretw0/stash/pkg/config"
	"github.com/aretw0/stash/pkg/observability"
	"github.com/aretw0/stash/pkg/persister"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/aretw0/stash/pkg/session"
	backend "github.com/redis/go-redis/v9"
)

// Version is the current stash release.
const Version = "0.1.0"

type openOptions struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	store   *memory.Store
}

// Option configures Open.
type Option func(*openOptions)

// WithLogger sets the logger handed to datastores and sessions.
func WithLogger(logger *slog.Logger) Option {
	return func(o *openOptions) {
		o.logger = logger
	}
}

// WithMetrics records session activity on metrics.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(o *openOptions) {
		o.metrics = metrics
	}
}

// WithMemoryStore shares store between factories of the memory backend.
func WithMemoryStore(store *memory.Store) Option {
	return func(o *openOptions) {
		o.store = store
	}
}

// Open returns a session factory for the backend named in cfg.
func Open(cfg *config.Config, mapping ports.MappingContext, opts ...Option) (session.Factory, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &openOptions{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	persistOpts := []persister.Option{
		persister.WithPrefix(cfg.KeyPrefix),
		persister.WithLockTTL(cfg.Lock.TTL),
		persister.WithLockWait(cfg.Lock.Wait),
	}
	sessionOpts := []session.Option{
		session.WithLogger(o.logger),
		session.WithMetrics(o.metrics),
	}

	switch cfg.Backend {
	case config.BackendMemory:
		o.logger.Debug("Using in-memory backend")
		return memory.NewDatastore(o.store, mapping,
			memory.WithPersisterOptions(persistOpts...),
			memory.WithSessionOptions(sessionOpts...),
		), nil
	case config.BackendRedis:
		o.logger.Debug("Using redis backend", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
		client := backend.NewClient(&backend.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			ReadTimeout:  cfg.Redis.Timeout,
			WriteTimeout: cfg.Redis.Timeout,
			PoolSize:     cfg.Redis.PoolSize,
		})
		return redis.NewFromClient(client, mapping,
			redis.WithLogger(o.logger),
			redis.WithPersisterOptions(persistOpts...),
			redis.WithSessionOptions(sessionOpts...),
		), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
