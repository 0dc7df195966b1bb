package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/stash/pkg/adapters/redis"
	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports/tests"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisClient_Contract(t *testing.T) {
	_, rdb := setup(t)

	client := redis.NewClient(rdb.Conn())
	defer client.Close()

	tests.ClientContractTest(t, client)
}

func TestRedisClient_MultiQueuesOnServer(t *testing.T) {
	mr, rdb := setup(t)
	ctx := context.Background()

	client := redis.NewClient(rdb.Conn())
	defer client.Close()

	tx, err := client.Multi(ctx)
	require.NoError(t, err)

	require.NoError(t, client.Set(ctx, "a", "1"))
	require.NoError(t, client.MSet(ctx, map[string]string{"b": "2", "c": "3"}))
	_, err = client.Del(ctx, "c")
	require.NoError(t, err)

	// Nothing applied until EXEC
	assert.False(t, mr.Exists("a"))

	// Reads cannot be answered while queueing
	_, err = client.Get(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrReadInTransaction)

	require.NoError(t, tx.Exec(ctx))

	val, err := mr.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "1", val)
	assert.True(t, mr.Exists("b"))
	assert.False(t, mr.Exists("c"))
}

func TestRedisClient_NestedMultiRefusedByServer(t *testing.T) {
	_, rdb := setup(t)
	ctx := context.Background()

	client := redis.NewClient(rdb.Conn())
	defer client.Close()

	_, err := client.Multi(ctx)
	require.NoError(t, err)

	_, err = client.Multi(ctx)
	assert.Error(t, err)
}

func TestRedisClient_QueuedReleaseApplies(t *testing.T) {
	mr, rdb := setup(t)
	ctx := context.Background()

	client := redis.NewClient(rdb.Conn())
	defer client.Close()

	require.NoError(t, mr.Set("lock:k", "token"))

	tx, err := client.Multi(ctx)
	require.NoError(t, err)
	_, err = client.DelIfValue(ctx, "lock:k", "token")
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx))

	assert.False(t, mr.Exists("lock:k"))
}

func TestRedisClient_BackendErrorsPropagate(t *testing.T) {
	mr, rdb := setup(t)
	ctx := context.Background()

	client := redis.NewClient(rdb.Conn())
	defer client.Close()

	mr.SetError("ERR server unavailable")
	defer mr.SetError("")

	_, err := client.DBSize(ctx)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrKeyNotFound)
}
