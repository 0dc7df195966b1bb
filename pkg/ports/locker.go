package ports

import (
	"context"

	"github.com/aretw0/stash/pkg/domain"
)

// Lockable is the capability of persisters that support pessimistic locking.
// Sessions query for it with a type assertion; persisters without it cannot be locked.
type Lockable interface {
	// Lock acquires the lock for the entity id.
	// It blocks until the lock is acquired, the context is canceled, or the wait expires.
	Lock(ctx context.Context, id string) (*domain.LockedObject, error)

	// Unlock releases a lock previously returned by Lock.
	// Handles without a token were never acquired and are ignored.
	Unlock(ctx context.Context, lock *domain.LockedObject) error
}
