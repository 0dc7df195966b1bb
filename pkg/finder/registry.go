package finder

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/session"
)

// Registry holds finders resolved at registration time, keyed by entity and method.
// Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	finders map[string]*Finder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{finders: make(map[string]*Finder)}
}

func registryKey(entity, method string) string {
	return entity + "." + method
}

// Register parses and stores the finder for method on entity.
// Registering the same method twice returns the existing finder.
func (r *Registry) Register(entity, method string) (*Finder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.finders[registryKey(entity, method)]; ok {
		return f, nil
	}
	f, err := Parse(entity, method)
	if err != nil {
		return nil, err
	}
	r.finders[registryKey(entity, method)] = f
	return f, nil
}

// Lookup returns the finder registered for method on entity.
func (r *Registry) Lookup(entity, method string) (*Finder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.finders[registryKey(entity, method)]
	return f, ok
}

// Invoke dispatches a registered finder against s.
func (r *Registry) Invoke(ctx context.Context, s *session.Session, entity, method string, args ...any) (any, error) {
	f, ok := r.Lookup(entity, method)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", domain.ErrUnknownFinder, entity, method)
	}
	return f.Invoke(ctx, s, args...)
}
