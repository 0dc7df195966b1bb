package session

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports"
)

// Lock pessimistically locks a persistent instance. entity must be a pointer: the session
// tracks locks by the identity of the reference it was handed.
// Transient instances (no id yet) are silently skipped.
func (s *Session) Lock(ctx context.Context, entity any) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	target := fmt.Sprintf("object [%T]", entity)
	if isNil(entity) {
		return &domain.LockError{Target: target, Err: domain.ErrNotPersistent}
	}

	p, name, ok := s.persisterOf(entity)
	if !ok {
		return &domain.LockError{Target: target, Err: domain.ErrNotPersistent}
	}
	if reflect.ValueOf(entity).Kind() != reflect.Pointer {
		return &domain.LockError{Target: target, Err: errors.New("locked entities must be passed by pointer")}
	}
	if _, held := s.locked[entity]; held {
		return nil
	}

	id, ok := p.ObjectIdentifier(entity)
	if !ok {
		return nil
	}
	lock, err := s.acquire(ctx, p, name, id)
	if err != nil {
		return err
	}
	s.locked[entity] = lock
	return nil
}

// LockKey pessimistically locks the entity of the given name and id without loading it.
// The returned handle is tracked by the session and can be passed to Unlock.
func (s *Session) LockKey(ctx context.Context, name, id string) (*domain.LockedObject, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	p, ok := s.PersisterFor(name)
	if !ok {
		return nil, &domain.LockError{Target: "key [" + id + "]", Err: domain.ErrNotPersistent}
	}
	lock, err := s.acquire(ctx, p, name, id)
	if err != nil {
		return nil, err
	}
	s.locked[lock] = lock
	return lock, nil
}

func (s *Session) acquire(ctx context.Context, p ports.Persister, name, id string) (*domain.LockedObject, error) {
	lockable, ok := p.(ports.Lockable)
	if !ok {
		s.metrics.Lock(name, "failed")
		return nil, &domain.LockError{Target: "key [" + id + "]", Err: domain.ErrLockingUnsupported}
	}
	lock, err := lockable.Lock(ctx, id)
	if err != nil {
		s.metrics.Lock(name, "failed")
		return nil, err
	}
	s.metrics.Lock(name, "acquired")
	s.logger.Debug("Lock acquired", "lock", lock.String())
	return lock, nil
}

// Unlock releases a lock taken by Lock (pass the same pointer) or LockKey (pass the handle).
// Unlocking nil, an unmapped value, or something this session does not hold is a no-op.
func (s *Session) Unlock(ctx context.Context, entity any) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if isNil(entity) || reflect.ValueOf(entity).Kind() != reflect.Pointer {
		return nil
	}
	if _, _, ok := s.persisterOf(entity); !ok {
		return nil
	}
	lock, held := s.locked[entity]
	if !held {
		return nil
	}
	if err := s.release(ctx, lock); err != nil {
		return err
	}
	delete(s.locked, entity)
	return nil
}

func (s *Session) release(ctx context.Context, lock *domain.LockedObject) error {
	p, ok := s.PersisterFor(lock.Entity)
	if !ok {
		return nil
	}
	lockable, ok := p.(ports.Lockable)
	if !ok {
		return nil
	}
	if err := lockable.Unlock(ctx, lock); err != nil {
		return err
	}
	s.metrics.Lock(lock.Entity, "released")
	return nil
}

// IsLocked reports whether the session holds a lock for the reference.
func (s *Session) IsLocked(entity any) bool {
	if isNil(entity) || reflect.ValueOf(entity).Kind() != reflect.Pointer {
		return false
	}
	_, held := s.locked[entity]
	return held
}

// Locks returns the handles currently held, in no particular order.
func (s *Session) Locks() []*domain.LockedObject {
	out := make([]*domain.LockedObject, 0, len(s.locked))
	for _, lock := range s.locked {
		out = append(out, lock)
	}
	return out
}
