package memory

import (
	"context"

	"github.com/aretw0/stash/pkg/persister"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/aretw0/stash/pkg/session"
)

// Datastore is the session factory for an in-memory Store.
type Datastore struct {
	store       *Store
	mapping     ports.MappingContext
	persistOpts []persister.Option
	sessionOpts []session.Option
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

// NewDatastore creates a datastore over store. A nil store gets a fresh one.
func NewDatastore(store *Store, mapping ports.MappingContext, opts ...Option) *Datastore {
	if store == nil {
		store = NewStore()
	}
	d := &Datastore{
		store:   store,
		mapping: mapping,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Store returns the shared in-memory database.
func (d *Datastore) Store() *Store {
	return d.store
}

// Connect opens a session over a new connection to the store.
func (d *Datastore) Connect(ctx context.Context) (*session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return session.New(d.store.Connect(), d.mapping, persister.Factory(d.persistOpts...), d.sessionOpts...), nil
}

// Close is a no-op; the store lives as long as it is referenced.
func (d *Datastore) Close() error {
	return nil
}
