package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_PersisterFor(t *testing.T) {
	f := newFixture(t)

	p1, ok := f.session.PersisterFor("Book")
	require.True(t, ok)
	p2, ok := f.session.PersisterFor("Book")
	require.True(t, ok)

	assert.Same(t, p1, p2)
	assert.Equal(t, 1, f.created, "a persister is created at most once per session")

	p, ok := f.session.PersisterFor("Unmapped")
	assert.False(t, ok)
	assert.Nil(t, p)
}

func TestSession_LockUnmapped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.session.Lock(ctx, &Unmapped{ID: "1"})
	var lockErr *domain.LockError
	require.True(t, errors.As(err, &lockErr))
	assert.ErrorIs(t, err, domain.ErrNotPersistent)

	_, err = f.session.LockKey(ctx, "Unmapped", "42")
	require.True(t, errors.As(err, &lockErr))
	assert.Contains(t, err.Error(), "42")

	assert.Error(t, f.session.Lock(ctx, nil))
}

func TestSession_LockTransientIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	book := &Book{Title: "unsaved"}
	require.NoError(t, f.session.Lock(ctx, book))
	assert.False(t, f.session.IsLocked(book))
	assert.Empty(t, f.session.Locks())
}

func TestSession_LockRequiresPointer(t *testing.T) {
	f := newFixture(t)

	err := f.session.Lock(context.Background(), Book{ID: "1"})
	var lockErr *domain.LockError
	assert.True(t, errors.As(err, &lockErr))
}

func TestSession_LockUnlockEntity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	book := &Book{ID: "1"}
	require.NoError(t, f.session.Lock(ctx, book))
	assert.True(t, f.session.IsLocked(book))

	// Same reference again is a no-op, not a self-deadlock
	require.NoError(t, f.session.Lock(ctx, book))
	assert.Len(t, f.session.Locks(), 1)

	// Identity, not value equality
	assert.False(t, f.session.IsLocked(&Book{ID: "1"}))
	require.NoError(t, f.session.Unlock(ctx, &Book{ID: "1"}))
	assert.True(t, f.session.IsLocked(book))

	require.NoError(t, f.session.Unlock(ctx, book))
	assert.False(t, f.session.IsLocked(book))

	// Double unlock is a no-op
	assert.NoError(t, f.session.Unlock(ctx, book))
	assert.NoError(t, f.session.Unlock(ctx, nil))
	assert.NoError(t, f.session.Unlock(ctx, &Unmapped{ID: "1"}))
}

func TestSession_LockKeyHandle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lock, err := f.session.LockKey(ctx, "Book", "42")
	require.NoError(t, err)
	assert.Equal(t, "Book[42]", lock.String())
	assert.True(t, f.session.IsLocked(lock))

	ok, err := f.store.Connect().Exists(ctx, "lock:Book:42")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, f.session.Unlock(ctx, lock))
	assert.Empty(t, f.session.Locks())

	ok, _ = f.store.Connect().Exists(ctx, "lock:Book:42")
	assert.False(t, ok)
}

func TestSession_LockWithoutCapability(t *testing.T) {
	f := newFixture(t, withoutLocking())

	_, err := f.session.LockKey(context.Background(), "Book", "1")
	assert.ErrorIs(t, err, domain.ErrLockingUnsupported)
	assert.Empty(t, f.session.Locks())
}

func TestSession_DisconnectDrainsLocksDespiteFailures(t *testing.T) {
	f := newFixture(t, withStubbornUnlock())
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		_, err := f.session.LockKey(ctx, "Book", id)
		require.NoError(t, err)
	}
	book := &Book{ID: "4"}
	require.NoError(t, f.session.Lock(ctx, book))

	// Explicit unlock surfaces the failure and keeps the lock tracked
	assert.ErrorIs(t, f.session.Unlock(ctx, book), errBackend)
	assert.Len(t, f.session.Locks(), 4)

	require.NoError(t, f.session.Disconnect(ctx))
	assert.Empty(t, f.session.Locks())
	assert.Equal(t, 1, f.client.closes, "connection must be released")
	assert.False(t, f.session.IsConnected())
	assert.Equal(t, domain.StateDisconnected, f.session.State())
}

func TestSession_DisconnectTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.session.Disconnect(ctx))
	assert.NotPanics(t, func() {
		assert.NoError(t, f.session.Disconnect(ctx))
	})
	assert.Equal(t, 1, f.client.closes)
}

func TestSession_ClosedOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.session.Disconnect(ctx))

	assert.ErrorIs(t, f.session.Lock(ctx, &Book{ID: "1"}), domain.ErrSessionClosed)
	_, err := f.session.LockKey(ctx, "Book", "1")
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	assert.ErrorIs(t, f.session.Unlock(ctx, &Book{ID: "1"}), domain.ErrSessionClosed)
	_, err = f.session.BeginTransaction(ctx)
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	_, err = f.session.Persist(ctx, &Book{})
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	_, err = f.session.Retrieve(ctx, "Book", "1")
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	assert.ErrorIs(t, f.session.Delete(ctx, &Book{ID: "1"}), domain.ErrSessionClosed)
	_, err = f.session.KeyValue()
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	_, err = f.session.Execute(ctx, func(ctx context.Context, s *session.Session) (any, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, domain.ErrSessionClosed)

	created := f.created
	p, ok := f.session.PersisterFor("Book")
	assert.False(t, ok)
	assert.Nil(t, p)
	assert.Equal(t, created, f.created, "no persister is built over a closed connection")
}

func TestSession_EntityOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	book := &Book{Title: "Dune"}
	id, err := f.session.Persist(ctx, book)
	require.NoError(t, err)

	got, err := session.Get[Book](ctx, f.session, id)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)

	require.NoError(t, f.session.Delete(ctx, got))
	_, err = f.session.Retrieve(ctx, "Book", id)
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)

	// Transient delete is ignored
	assert.NoError(t, f.session.Delete(ctx, &Book{}))

	_, err = f.session.Persist(ctx, &Unmapped{})
	var notPersistent *domain.NotPersistentEntityError
	assert.True(t, errors.As(err, &notPersistent))

	_, err = f.session.Retrieve(ctx, "Unmapped", "1")
	assert.ErrorIs(t, err, domain.ErrNotPersistent)

	assert.ErrorIs(t, f.session.DeleteByID(ctx, "Unmapped", "1"), domain.ErrNotPersistent)
	assert.NoError(t, f.session.DeleteByID(ctx, "Book", "missing"))
}

func TestSession_BackendErrorsPropagate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.client.fail = true

	_, err := f.session.Retrieve(ctx, "Book", "1")
	assert.ErrorIs(t, err, errBackend)
}
