package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports"
)

// KeyValue is the advisory map-like view over the raw keys of the session's backend.
// It is not transactional and not the system of record: backend failures degrade to
// absent, empty or no-op results and are only logged.
type KeyValue struct {
	s *Session
}

var _ ports.KeyValue = (*KeyValue)(nil)

// KeyValue returns the raw key/value view of the session.
func (s *Session) KeyValue() (*KeyValue, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	return &KeyValue{s: s}, nil
}

func (kv *KeyValue) fallback(op string, err error) {
	kv.s.metrics.Fallback(op)
	kv.s.logger.Debug("Key/value backend error ignored", "op", op, "error", err)
}

// Size returns the number of stored keys, or 0 if the backend fails.
func (kv *KeyValue) Size(ctx context.Context) int64 {
	n, err := kv.s.client.DBSize(ctx)
	if err != nil {
		kv.fallback("size", err)
		return 0
	}
	return n
}

// IsEmpty reports whether Size is zero.
func (kv *KeyValue) IsEmpty(ctx context.Context) bool {
	return kv.Size(ctx) == 0
}

// ContainsKey reports whether key exists in the backend.
func (kv *KeyValue) ContainsKey(ctx context.Context, key string) bool {
	ok, err := kv.s.client.Exists(ctx, key)
	if err != nil {
		kv.fallback("contains_key", err)
		return false
	}
	return ok
}

// Get returns the value stored at key.
func (kv *KeyValue) Get(ctx context.Context, key string) (string, bool) {
	val, err := kv.s.client.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			kv.fallback("get", err)
		}
		return "", false
	}
	return val, true
}

// Put stores value at key and returns the previous value, if any.
func (kv *KeyValue) Put(ctx context.Context, key, value string) (string, bool) {
	prev, err := kv.s.client.GetSet(ctx, key, value)
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			kv.fallback("put", err)
		}
		return "", false
	}
	return prev, true
}

// Remove deletes key and reports whether it existed.
func (kv *KeyValue) Remove(ctx context.Context, key string) bool {
	n, err := kv.s.client.Del(ctx, key)
	if err != nil {
		kv.fallback("remove", err)
		return false
	}
	return n > 0
}

// PutAll stores every pair in one round trip.
func (kv *KeyValue) PutAll(ctx context.Context, values map[string]string) {
	if len(values) == 0 {
		return
	}
	if err := kv.s.client.MSet(ctx, values); err != nil {
		kv.fallback("put_all", err)
	}
}

// Clear removes every key in the backend database.
func (kv *KeyValue) Clear(ctx context.Context) {
	if err := kv.s.client.FlushDB(ctx); err != nil {
		kv.fallback("clear", err)
	}
}

// Keys enumerates every stored key.
func (kv *KeyValue) Keys(ctx context.Context) []string {
	keys, err := kv.s.client.Keys(ctx, "*")
	if err != nil {
		kv.fallback("keys", err)
		return []string{}
	}
	return keys
}

// Values is not supported: it would require fetching every key.
func (kv *KeyValue) Values(ctx context.Context) ([]string, error) {
	return nil, unsupported("Values")
}

// Entries is not supported: it would require fetching every key.
func (kv *KeyValue) Entries(ctx context.Context) (map[string]string, error) {
	return nil, unsupported("Entries")
}

// ContainsValue is not supported: it would require scanning every value.
func (kv *KeyValue) ContainsValue(ctx context.Context, value string) (bool, error) {
	return false, unsupported("ContainsValue")
}

func unsupported(method string) error {
	return fmt.Errorf("method %s: %w", method, domain.ErrUnsupportedOperation)
}
