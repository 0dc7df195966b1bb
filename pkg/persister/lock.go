package persister

import (
	"context"
	"time"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/google/uuid"
)

// Lock acquires the lock for id using SET NX with a TTL, polling while it is held elsewhere.
func (p *KV) Lock(ctx context.Context, id string) (*domain.LockedObject, error) {
	target := "key [" + id + "]"
	if p.inTransaction() {
		return nil, &domain.LockError{Target: target, Err: domain.ErrReadInTransaction}
	}

	waitCtx := ctx
	if p.opts.LockWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.opts.LockWait)
		defer cancel()
	}

	lock := &domain.LockedObject{
		Entity: p.entity.Name,
		ID:     id,
		Token:  uuid.NewString(),
	}
	lockKey := p.lockKey(id)

	poll := p.opts.PollInterval
	if poll <= 0 {
		poll = defaultOptions().PollInterval
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		ok, err := p.client.SetNX(waitCtx, lockKey, lock.Token, p.opts.LockTTL)
		if err != nil && waitCtx.Err() == nil {
			return nil, err
		}
		if ok {
			return lock, nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, &domain.LockError{Target: target, Err: ctx.Err()}
			}
			return nil, &domain.LockError{Target: target, Err: domain.ErrLockTimeout}
		case <-ticker.C:
			// Retry...
		}
	}
}

// Unlock releases the lock if this handle still owns it. Locks that already expired are ignored.
// A release inside a transaction would only be queued and lost on rollback, so it is refused.
func (p *KV) Unlock(ctx context.Context, lock *domain.LockedObject) error {
	if lock == nil || lock.Token == "" {
		return nil
	}
	if p.inTransaction() {
		return &domain.LockError{Target: "key [" + lock.ID + "]", Err: domain.ErrReadInTransaction}
	}
	_, err := p.client.DelIfValue(ctx, p.lockKey(lock.ID), lock.Token)
	return err
}
