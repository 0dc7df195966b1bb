package ports

import (
	"context"

	"github.com/aretw0/stash/pkg/domain"
)

// MappingContext resolves type identifiers to entity descriptors.
type MappingContext interface {
	// PersistentEntity returns the descriptor registered under name.
	PersistentEntity(name string) (*domain.Entity, bool)

	// EntityName returns the type identifier of a runtime value.
	// Unregistered values still get a name so callers can report them.
	EntityName(v any) string
}

// Persister is the backend-specific storage strategy for one entity type.
// A persister is bound to a single session for its whole lifetime.
type Persister interface {
	// Entity returns the descriptor this persister serves.
	Entity() *domain.Entity

	// ObjectIdentifier returns the entity's id, or false for transient instances.
	ObjectIdentifier(entity any) (string, bool)

	// Persist writes the entity and returns its id, assigning one if needed.
	Persist(ctx context.Context, entity any) (string, error)

	// Retrieve loads the entity by id.
	// Returns domain.ErrEntityNotFound if no record exists.
	Retrieve(ctx context.Context, id string) (any, error)

	// Delete removes the record for id.
	Delete(ctx context.Context, id string) error
}

// Querier is the capability of persisters that can look entities up by property values.
type Querier interface {
	// FindBy returns every entity whose properties equal the given values.
	FindBy(ctx context.Context, criteria map[string]any) ([]any, error)
}

// Owner is the view of the owning session a persister is allowed to consult.
type Owner interface {
	// InTransaction reports whether writes are currently being queued.
	InTransaction() bool
}

// PersisterFactory builds the persister for entity, bound to owner and its client.
type PersisterFactory func(entity *domain.Entity, owner Owner, client Client) Persister
