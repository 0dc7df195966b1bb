package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/stash/pkg/adapters/memory"
	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClient_Contract(t *testing.T) {
	tests.ClientContractTest(t, memory.NewStore().Connect())
}

func TestMemoryClient_SharedStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	c1, c2 := store.Connect(), store.Connect()

	require.NoError(t, c1.Set(ctx, "k", "v"))
	val, err := c2.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
}

func TestMemoryClient_MultiIsPerConnection(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	c1, c2 := store.Connect(), store.Connect()

	tx, err := c1.Multi(ctx)
	require.NoError(t, err)
	require.NoError(t, c1.Set(ctx, "k", "v"))

	// Other connections do not see queued writes
	ok, err := c2.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Reads on the transacting connection cannot be answered
	_, err = c1.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrReadInTransaction)

	// Nested MULTI is refused
	_, err = c1.Multi(ctx)
	assert.ErrorIs(t, err, memory.ErrNestedMulti)

	require.NoError(t, tx.Exec(ctx))
	ok, _ = c2.Exists(ctx, "k")
	assert.True(t, ok)
}

func TestMemoryClient_SetNXExpires(t *testing.T) {
	ctx := context.Background()
	c := memory.NewStore().Connect()

	ok, err := c.SetNX(ctx, "lock", "a", 20*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)

	time.Sleep(40 * time.Millisecond)

	ok, err = c.SetNX(ctx, "lock", "b", time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "expired lock must be acquirable")
}

func TestMemoryClient_Closed(t *testing.T) {
	ctx := context.Background()
	c := memory.NewStore().Connect()

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Close(), memory.ErrClosed)
	_, err := c.DBSize(ctx)
	assert.ErrorIs(t, err, memory.ErrClosed)
}

func TestMemoryClient_KeysPatterns(t *testing.T) {
	ctx := context.Background()
	c := memory.NewStore().Connect()
	require.NoError(t, c.MSet(ctx, map[string]string{
		"users/1":      "a",
		"plain":        "b",
		"{tenant}:k":   "c",
		"tenant:other": "d",
	}))

	all, err := c.Keys(ctx, "*")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	keys, err := c.Keys(ctx, "users/*")
	require.NoError(t, err)
	assert.Equal(t, []string{"users/1"}, keys)

	keys, err = c.Keys(ctx, "{tenant}:*")
	require.NoError(t, err)
	assert.Equal(t, []string{"{tenant}:k"}, keys, "braces are literal")
}
