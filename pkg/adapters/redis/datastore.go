package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/stash/internal/logging"
	"github.com/aretw0/stash/pkg/persister"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/aretw0/stash/pkg/session"
	backend "github.com/redis/go-redis/v9"
)

// Datastore is the session factory for Redis.
// Every session gets its own dedicated connection from the client pool.
type Datastore struct {
	client      *backend.Client
	mapping     ports.MappingContext
	persistOpts []persister.Option
	sessionOpts []session.Option
	logger      *slog.Logger
}

var _ session.Factory = (*Datastore)(nil)

// Option configures a Datastore.
type Option func(*Datastore)

// WithPersisterOptions configures the key layout and locking of every persister.
func WithPersisterOptions(opts ...persister.Option) Option {
	return func(d *Datastore) {
		d.persistOpts = append(d.persistOpts, opts...)
	}
}

// WithSessionOptions applies opts to every session the datastore opens.
func WithSessionOptions(opts ...session.Option) Option {
	return func(d *Datastore) {
		d.sessionOpts = append(d.sessionOpts, opts...)
	}
}

// WithLogger sets the logger for connection events. Sessions get it too.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Datastore) {
		d.logger = logger
		d.sessionOpts = append(d.sessionOpts, session.WithLogger(logger))
	}
}

// New creates a Redis datastore with options.
func New(address, password string, db int, mapping ports.MappingContext, opts ...Option) *Datastore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, mapping, opts...)
}

// NewFromClient creates a Redis datastore from an existing client.
// The datastore takes ownership of client and closes it in Close.
func NewFromClient(client *backend.Client, mapping ports.MappingContext, opts ...Option) *Datastore {
	d := &Datastore{
		client:  client,
		mapping: mapping,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Connect opens a session over a fresh, exclusively owned connection.
func (d *Datastore) Connect(ctx context.Context) (*session.Session, error) {
	conn := d.client.Conn()
	if err := conn.Ping(ctx).Err(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	d.logger.Debug("Session connected", "addr", d.client.Options().Addr)
	return session.New(NewClient(conn), d.mapping, persister.Factory(d.persistOpts...), d.sessionOpts...), nil
}

// Close closes the underlying client pool.
func (d *Datastore) Close() error {
	return d.client.Close()
}
