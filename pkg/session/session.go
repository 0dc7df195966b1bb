package session

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/aretw0/stash/internal/logging"
	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/observability"
	"github.com/aretw0/stash/pkg/ports"
)

// Session owns one backend connection for the duration of a unit of work.
type Session struct {
	client  ports.Client
	mapping ports.MappingContext
	factory ports.PersisterFactory

	persisters map[string]ports.Persister  // Entity name -> persister, built at most once
	locked     map[any]*domain.LockedObject // Locked reference (by identity) -> handle
	tx         *Transaction
	state      domain.SessionState

	logger  *slog.Logger
	metrics *observability.Metrics
}

var _ ports.Owner = (*Session)(nil)

// New creates a connected session that exclusively owns client.
// Session factories (datastores) call this once the connection is established.
func New(client ports.Client, mapping ports.MappingContext, factory ports.PersisterFactory, opts ...Option) *Session {
	s := &Session{
		client:     client,
		mapping:    mapping,
		factory:    factory,
		persisters: make(map[string]ports.Persister),
		locked:     make(map[any]*domain.LockedObject),
		state:      domain.StateConnected,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics.SessionOpened()
	return s
}

// State returns the lifecycle position of the session.
func (s *Session) State() domain.SessionState {
	return s.state
}

// IsConnected reports whether the session has not been disconnected.
func (s *Session) IsConnected() bool {
	return s.state != domain.StateDisconnected
}

// InTransaction reports whether a transaction is active.
func (s *Session) InTransaction() bool {
	return s.state == domain.StateTransacting
}

// Transaction returns the active transaction, or nil.
func (s *Session) Transaction() *Transaction {
	return s.tx
}

// Client returns the backend connection owned by the session.
func (s *Session) Client() ports.Client {
	return s.client
}

// Mapping returns the mapping context the session resolves entities with.
func (s *Session) Mapping() ports.MappingContext {
	return s.mapping
}

func (s *Session) ensureOpen() error {
	if s.state == domain.StateDisconnected {
		return domain.ErrSessionClosed
	}
	return nil
}

// PersisterFor returns the persister for the entity name, creating and caching it on first use.
// It returns false, not an error, when the mapping context does not know the name
// or the session is disconnected.
func (s *Session) PersisterFor(name string) (ports.Persister, bool) {
	if s.state == domain.StateDisconnected {
		return nil, false
	}
	if p, ok := s.persisters[name]; ok {
		return p, true
	}
	entity, ok := s.mapping.PersistentEntity(name)
	if !ok {
		return nil, false
	}
	p := s.factory(entity, s, s.client)
	if p == nil {
		return nil, false
	}
	s.persisters[name] = p
	return p, true
}

// persisterOf resolves the persister for a runtime value or a lock handle.
func (s *Session) persisterOf(v any) (ports.Persister, string, bool) {
	name := s.mapping.EntityName(v)
	if lock, ok := v.(*domain.LockedObject); ok {
		name = lock.Entity
	}
	p, ok := s.PersisterFor(name)
	return p, name, ok
}

// Disconnect rolls back any open transaction, releases every remaining lock and closes
// the connection. Failures along the way are logged and never stop the sequence.
// Calling Disconnect again is a no-op.
func (s *Session) Disconnect(ctx context.Context) error {
	if s.state == domain.StateDisconnected {
		return nil
	}

	if s.tx != nil {
		if err := s.tx.Rollback(ctx); err != nil {
			s.logger.Warn("Failed to roll back transaction on disconnect", "error", err)
		}
	}

	for ref, lock := range s.locked {
		if err := s.release(ctx, lock); err != nil {
			s.logger.Warn("Failed to release lock on disconnect (will expire via TTL)",
				"lock", lock.String(),
				"error", err,
			)
		}
		delete(s.locked, ref)
	}

	err := s.client.Close()
	s.state = domain.StateDisconnected
	s.persisters = make(map[string]ports.Persister)
	s.metrics.SessionClosed()
	if err != nil {
		s.logger.Warn("Failed to close backend connection", "error", err)
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

// isNil reports whether v is nil or a typed nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
