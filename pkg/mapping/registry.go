// Package mapping resolves Go types to persistence descriptors.
package mapping

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports"
)

// Registry implements ports.MappingContext over explicitly registered struct types.
// Safe for concurrent use; typically populated once at startup and shared by every session.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*domain.Entity
	byType map[reflect.Type]*domain.Entity
}

var _ ports.MappingContext = (*Registry)(nil)

// EntityOption configures an entity at registration.
type EntityOption func(*domain.Entity)

// WithName overrides the type identifier (default: the struct name).
func WithName(name string) EntityOption {
	return func(e *domain.Entity) {
		e.Name = name
	}
}

// WithIDProperty sets the mapstructure name of the identifier field (default: "id").
func WithIDProperty(property string) EntityOption {
	return func(e *domain.Entity) {
		e.IDProperty = property
	}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*domain.Entity),
		byType: make(map[reflect.Type]*domain.Entity),
	}
}

// Register makes the type of prototype persistence-managed.
// prototype may be a struct value or a pointer to one.
// A type may be registered under several names; EntityName then keeps reporting
// the first name, so values of a shared type only route by name (PersisterFor, LockKey).
func (r *Registry) Register(prototype any, opts ...EntityOption) (*domain.Entity, error) {
	t := indirect(reflect.TypeOf(prototype))
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("cannot register %T: entities must be structs", prototype)
	}

	entity := &domain.Entity{
		Name:       t.Name(),
		Type:       t,
		IDProperty: domain.DefaultIDProperty,
	}
	for _, opt := range opts {
		opt(entity)
	}
	if entity.Name == "" {
		return nil, fmt.Errorf("cannot register %T: anonymous types need WithName", prototype)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byName[entity.Name]; ok && existing.Type != t {
		return nil, fmt.Errorf("entity name %q already registered for %s", entity.Name, existing.Type)
	}
	r.byName[entity.Name] = entity
	if first, bound := r.byType[t]; !bound || first.Name == entity.Name {
		r.byType[t] = entity
	}
	return entity, nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(prototype any, opts ...EntityOption) *domain.Entity {
	entity, err := r.Register(prototype, opts...)
	if err != nil {
		panic(err)
	}
	return entity
}

// PersistentEntity returns the descriptor registered under name.
func (r *Registry) PersistentEntity(name string) (*domain.Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entity, ok := r.byName[name]
	return entity, ok
}

// EntityName returns the registered name for v's type, falling back to the Go type string.
func (r *Registry) EntityName(v any) string {
	t := indirect(reflect.TypeOf(v))
	if t == nil {
		return "<nil>"
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entity, ok := r.byType[t]; ok {
		return entity.Name
	}
	return t.String()
}

// Entities returns the registered descriptors in no particular order.
func (r *Registry) Entities() []*domain.Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Entity, 0, len(r.byName))
	for _, e := range r.byName {
		out = append(out, e)
	}
	return out
}

// Name returns the default type identifier for T.
func Name[T any]() string {
	return indirect(reflect.TypeOf((*T)(nil))).Name()
}

func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
