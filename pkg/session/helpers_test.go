package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/stash/pkg/adapters/memory"
	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/mapping"
	"github.com/aretw0/stash/pkg/persister"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/aretw0/stash/pkg/session"
)

type Book struct {
	ID    string `mapstructure:"id"`
	Title string `mapstructure:"title"`
}

type Unmapped struct {
	ID string `mapstructure:"id"`
}

var errBackend = errors.New("ERR backend unavailable")

// faultyClient wraps a memory connection and fails selected calls.
type faultyClient struct {
	ports.Client
	fail      bool
	failMulti bool
	closes    int
}

func (c *faultyClient) Exists(ctx context.Context, key string) (bool, error) {
	if c.fail {
		return false, errBackend
	}
	return c.Client.Exists(ctx, key)
}

func (c *faultyClient) Get(ctx context.Context, key string) (string, error) {
	if c.fail {
		return "", errBackend
	}
	return c.Client.Get(ctx, key)
}

func (c *faultyClient) GetSet(ctx context.Context, key, value string) (string, error) {
	if c.fail {
		return "", errBackend
	}
	return c.Client.GetSet(ctx, key, value)
}

func (c *faultyClient) Del(ctx context.Context, keys ...string) (int64, error) {
	if c.fail {
		return 0, errBackend
	}
	return c.Client.Del(ctx, keys...)
}

func (c *faultyClient) MSet(ctx context.Context, values map[string]string) error {
	if c.fail {
		return errBackend
	}
	return c.Client.MSet(ctx, values)
}

func (c *faultyClient) Keys(ctx context.Context, pattern string) ([]string, error) {
	if c.fail {
		return nil, errBackend
	}
	return c.Client.Keys(ctx, pattern)
}

func (c *faultyClient) DBSize(ctx context.Context) (int64, error) {
	if c.fail {
		return 0, errBackend
	}
	return c.Client.DBSize(ctx)
}

func (c *faultyClient) FlushDB(ctx context.Context) error {
	if c.fail {
		return errBackend
	}
	return c.Client.FlushDB(ctx)
}

func (c *faultyClient) Multi(ctx context.Context) (ports.TxHandle, error) {
	if c.failMulti {
		return nil, errBackend
	}
	return c.Client.Multi(ctx)
}

func (c *faultyClient) Close() error {
	c.closes++
	return c.Client.Close()
}

// stubbornPersister cannot release its locks.
type stubbornPersister struct {
	*persister.KV
}

func (p *stubbornPersister) Unlock(ctx context.Context, lock *domain.LockedObject) error {
	return errBackend
}

// plainPersister has no locking capability.
type plainPersister struct {
	ports.Persister
}

type fixture struct {
	session  *session.Session
	client   *faultyClient
	store    *memory.Store
	registry *mapping.Registry
	created  int
}

type fixtureOption func(*fixture, *ports.PersisterFactory)

func withStubbornUnlock() fixtureOption {
	return func(f *fixture, factory *ports.PersisterFactory) {
		*factory = func(e *domain.Entity, o ports.Owner, c ports.Client) ports.Persister {
			return &stubbornPersister{KV: persister.New(e, o, c, lockOptions())}
		}
	}
}

func withoutLocking() fixtureOption {
	return func(f *fixture, factory *ports.PersisterFactory) {
		*factory = func(e *domain.Entity, o ports.Owner, c ports.Client) ports.Persister {
			return plainPersister{Persister: persister.New(e, o, c, lockOptions())}
		}
	}
}

func lockOptions() persister.Options {
	return persister.Options{
		LockTTL:      time.Minute,
		LockWait:     100 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
	}
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.NewStore(),
		registry: mapping.NewRegistry(),
	}
	f.registry.MustRegister(Book{})
	f.client = &faultyClient{Client: f.store.Connect()}

	var factory ports.PersisterFactory = func(e *domain.Entity, o ports.Owner, c ports.Client) ports.Persister {
		return persister.New(e, o, c, lockOptions())
	}
	for _, opt := range opts {
		opt(f, &factory)
	}
	counting := func(e *domain.Entity, o ports.Owner, c ports.Client) ports.Persister {
		f.created++
		return factory(e, o, c)
	}

	f.session = session.New(f.client, f.registry, counting)
	t.Cleanup(func() { _ = f.session.Disconnect(context.Background()) })
	return f
}
