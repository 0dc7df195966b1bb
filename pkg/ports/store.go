package ports

import (
	"context"
	"time"
)

// Client is the request/response surface a session consumes from its backend.
// All calls may block on network I/O and may fail with a backend-specific error.
type Client interface {
	// Exists reports whether the key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Get returns the value stored at key.
	// Returns domain.ErrKeyNotFound if the key does not exist.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key without expiration.
	Set(ctx context.Context, key, value string) error

	// GetSet stores value at key and returns the previous value.
	// Returns domain.ErrKeyNotFound (after storing) if there was no previous value.
	GetSet(ctx context.Context, key, value string) (string, error)

	// Del removes the keys and returns how many existed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// MSet stores every pair in a single round trip.
	MSet(ctx context.Context, values map[string]string) error

	// Keys enumerates keys matching a glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// DBSize returns the number of keys in the selected database.
	DBSize(ctx context.Context) (int64, error)

	// FlushDB removes every key in the selected database.
	FlushDB(ctx context.Context) error

	// SetNX stores value at key only if the key does not exist, expiring after ttl.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// DelIfValue removes key only if it currently holds value.
	DelIfValue(ctx context.Context, key, value string) (bool, error)

	// Multi starts a multi-operation unit of work on this connection.
	// Writes issued until Exec or Discard are queued by the backend.
	Multi(ctx context.Context) (TxHandle, error)

	// Close releases the connection.
	Close() error
}

// TxHandle is the backend side of a begun unit of work.
type TxHandle interface {
	Exec(ctx context.Context) error
	Discard(ctx context.Context) error
}
