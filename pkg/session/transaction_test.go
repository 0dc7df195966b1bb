package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_Commit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.session.BeginTransaction(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StateTransacting, f.session.State())
	assert.True(t, f.session.InTransaction())
	assert.Same(t, tx, f.session.Transaction())

	_, err = f.session.Persist(ctx, &Book{ID: "1", Title: "Dune"})
	require.NoError(t, err)

	// Not visible until commit
	ok, _ := f.store.Connect().Exists(ctx, "Book:1")
	assert.False(t, ok)

	require.NoError(t, tx.Commit(ctx))
	assert.Equal(t, domain.TxCommitted, tx.Status())
	assert.Equal(t, domain.StateConnected, f.session.State())
	assert.Nil(t, f.session.Transaction())

	ok, _ = f.store.Connect().Exists(ctx, "Book:1")
	assert.True(t, ok)

	// Terminal
	assert.ErrorIs(t, tx.Commit(ctx), domain.ErrTransactionClosed)
	assert.ErrorIs(t, tx.Rollback(ctx), domain.ErrTransactionClosed)
}

func TestTransaction_Rollback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.session.BeginTransaction(ctx)
	require.NoError(t, err)
	_, err = f.session.Persist(ctx, &Book{ID: "1"})
	require.NoError(t, err)

	require.NoError(t, tx.Rollback(ctx))
	assert.Equal(t, domain.TxRolledBack, tx.Status())
	assert.False(t, tx.IsActive())
	assert.Equal(t, domain.StateConnected, f.session.State())

	_, err = f.session.Retrieve(ctx, "Book", "1")
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
}

func TestTransaction_BackendRefuses(t *testing.T) {
	f := newFixture(t)
	f.client.failMulti = true

	tx, err := f.session.BeginTransaction(context.Background())
	assert.Nil(t, tx)

	var txErr *domain.TransactionCreationError
	require.True(t, errors.As(err, &txErr))
	assert.ErrorIs(t, err, errBackend)
	assert.Contains(t, err.Error(), errBackend.Error())
	assert.Equal(t, domain.StateConnected, f.session.State())
}

func TestTransaction_OnlyOneActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.session.BeginTransaction(ctx)
	require.NoError(t, err)

	_, err = f.session.BeginTransaction(ctx)
	var txErr *domain.TransactionCreationError
	require.True(t, errors.As(err, &txErr))
	assert.ErrorIs(t, err, domain.ErrTransactionActive)
	assert.Equal(t, domain.StateTransacting, f.session.State())
}

func TestTransaction_DisconnectRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.session.BeginTransaction(ctx)
	require.NoError(t, err)
	_, err = f.session.Persist(ctx, &Book{ID: "1"})
	require.NoError(t, err)

	require.NoError(t, f.session.Disconnect(ctx))
	assert.Equal(t, domain.TxRolledBack, tx.Status())

	ok, _ := f.store.Connect().Exists(ctx, "Book:1")
	assert.False(t, ok)
}

func TestTransaction_UnlockInsideKeepsLockTracked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lock, err := f.session.LockKey(ctx, "Book", "7")
	require.NoError(t, err)

	tx, err := f.session.BeginTransaction(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, f.session.Unlock(ctx, lock), domain.ErrReadInTransaction)
	assert.True(t, f.session.IsLocked(lock), "a refused release stays in the locked set")

	require.NoError(t, tx.Rollback(ctx))
	require.NoError(t, f.session.Disconnect(ctx))

	held, err := f.store.Connect().Exists(ctx, "lock:Book:7")
	require.NoError(t, err)
	assert.False(t, held, "disconnect must release the lock after rollback")
}
