package domain

import "reflect"

// DefaultIDProperty is the identifier property used when an entity does not declare one.
const DefaultIDProperty = "id"

// Entity describes a persistence-managed type.
type Entity struct {
	// Name is the type identifier used for persister lookup and as the key namespace.
	Name string

	// Type is the struct type (never a pointer) that records decode into.
	Type reflect.Type

	// IDProperty is the mapstructure name of the identifier field.
	IDProperty string
}

// New returns a pointer to a fresh zero value of the entity type.
func (e *Entity) New() any {
	return reflect.New(e.Type).Interface()
}
