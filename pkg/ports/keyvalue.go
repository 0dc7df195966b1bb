package ports

import "context"

// KeyValue is the advisory map-like view over raw string keys.
// Backend failures degrade to absent/empty results; only unsupported operations return errors.
type KeyValue interface {
	Size(ctx context.Context) int64
	IsEmpty(ctx context.Context) bool
	ContainsKey(ctx context.Context, key string) bool
	Get(ctx context.Context, key string) (string, bool)
	Put(ctx context.Context, key, value string) (string, bool)
	Remove(ctx context.Context, key string) bool
	PutAll(ctx context.Context, values map[string]string)
	Clear(ctx context.Context)
	Keys(ctx context.Context) []string

	// Values, Entries and ContainsValue always return domain.ErrUnsupportedOperation.
	Values(ctx context.Context) ([]string, error)
	Entries(ctx context.Context) (map[string]string, error)
	ContainsValue(ctx context.Context, value string) (bool, error)
}
