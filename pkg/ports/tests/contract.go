package tests

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports"
)

// ClientContractTest is a reusable test suite that verifies if an adapter complies with ports.Client.
// The client must start against an empty database.
func ClientContractTest(t *testing.T, client ports.Client) {
	t.Helper()
	ctx := context.Background()

	// 1. Get (NotFound)
	t.Run("Get_NotFound", func(t *testing.T) {
		_, err := client.Get(ctx, "missing")
		if !errors.Is(err, domain.ErrKeyNotFound) {
			t.Fatalf("expected ErrKeyNotFound, got %v", err)
		}
	})

	// 2. Set, Get, Exists
	t.Run("Set_Get_Exists", func(t *testing.T) {
		if err := client.Set(ctx, "a", "1"); err != nil {
			t.Fatalf("unexpected error setting key: %v", err)
		}
		val, err := client.Get(ctx, "a")
		if err != nil {
			t.Fatalf("unexpected error getting key: %v", err)
		}
		if val != "1" {
			t.Errorf("got %q, want %q", val, "1")
		}
		ok, err := client.Exists(ctx, "a")
		if err != nil || !ok {
			t.Errorf("expected key to exist, got %v (err %v)", ok, err)
		}
	})

	// 3. GetSet returns the previous value
	t.Run("GetSet", func(t *testing.T) {
		prev, err := client.GetSet(ctx, "a", "2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if prev != "1" {
			t.Errorf("previous value: got %q, want %q", prev, "1")
		}
		_, err = client.GetSet(ctx, "fresh", "x")
		if !errors.Is(err, domain.ErrKeyNotFound) {
			t.Errorf("expected ErrKeyNotFound for fresh key, got %v", err)
		}
		val, _ := client.Get(ctx, "fresh")
		if val != "x" {
			t.Errorf("GetSet should store the value even without a previous one, got %q", val)
		}
	})

	// 4. MSet, Keys, DBSize
	t.Run("MSet_Keys_DBSize", func(t *testing.T) {
		if err := client.MSet(ctx, map[string]string{"user:1": "a", "user:2": "b"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		keys, err := client.Keys(ctx, "user:*")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sort.Strings(keys)
		if len(keys) != 2 || keys[0] != "user:1" || keys[1] != "user:2" {
			t.Errorf("unexpected keys %v", keys)
		}
		size, err := client.DBSize(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if size != 4 {
			t.Errorf("expected 4 keys, got %d", size)
		}
	})

	// 5. Del
	t.Run("Del", func(t *testing.T) {
		n, err := client.Del(ctx, "user:1", "user:404")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 deleted key, got %d", n)
		}
	})

	// 5b. Keys matches across "/" and agrees with DBSize
	t.Run("Keys_AcrossSeparators", func(t *testing.T) {
		if err := client.Set(ctx, "users/1", "x"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		keys, err := client.Keys(ctx, "users/*")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(keys) != 1 || keys[0] != "users/1" {
			t.Errorf("unexpected keys %v", keys)
		}
		all, err := client.Keys(ctx, "*")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		size, _ := client.DBSize(ctx)
		if int64(len(all)) != size {
			t.Errorf("Keys(*) returned %d keys, DBSize reports %d", len(all), size)
		}
		if _, err := client.Del(ctx, "users/1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	// 6. SetNX and DelIfValue
	t.Run("SetNX_DelIfValue", func(t *testing.T) {
		ok, err := client.SetNX(ctx, "lock:x", "owner", time.Minute)
		if err != nil || !ok {
			t.Fatalf("expected first SetNX to succeed, got %v (err %v)", ok, err)
		}
		ok, err = client.SetNX(ctx, "lock:x", "intruder", time.Minute)
		if err != nil || ok {
			t.Fatalf("expected second SetNX to fail, got %v (err %v)", ok, err)
		}
		ok, err = client.DelIfValue(ctx, "lock:x", "intruder")
		if err != nil || ok {
			t.Errorf("DelIfValue with wrong value must not delete, got %v (err %v)", ok, err)
		}
		ok, err = client.DelIfValue(ctx, "lock:x", "owner")
		if err != nil || !ok {
			t.Errorf("DelIfValue with owner value must delete, got %v (err %v)", ok, err)
		}
	})

	// 7. Multi queues writes until Exec
	t.Run("Multi_Exec", func(t *testing.T) {
		tx, err := client.Multi(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := client.Set(ctx, "queued", "v"); err != nil {
			t.Fatalf("unexpected error queueing: %v", err)
		}
		if err := tx.Exec(ctx); err != nil {
			t.Fatalf("unexpected error executing: %v", err)
		}
		val, err := client.Get(ctx, "queued")
		if err != nil || val != "v" {
			t.Errorf("expected queued write to apply, got %q (err %v)", val, err)
		}
	})

	// 8. Multi discards writes on Discard
	t.Run("Multi_Discard", func(t *testing.T) {
		tx, err := client.Multi(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := client.Set(ctx, "discarded", "v"); err != nil {
			t.Fatalf("unexpected error queueing: %v", err)
		}
		if err := tx.Discard(ctx); err != nil {
			t.Fatalf("unexpected error discarding: %v", err)
		}
		ok, _ := client.Exists(ctx, "discarded")
		if ok {
			t.Error("discarded write must not apply")
		}
	})

	// 9. FlushDB
	t.Run("FlushDB", func(t *testing.T) {
		if err := client.FlushDB(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		size, _ := client.DBSize(ctx)
		if size != 0 {
			t.Errorf("expected empty database, got %d keys", size)
		}
	})
}
