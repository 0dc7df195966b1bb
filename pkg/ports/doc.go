/*
Package ports defines the driven ports (interfaces) of the stash session layer.

These interfaces decouple the session from concrete datastores, letting the same session,
lock tracking and finder dispatch run over Redis, an in-memory map, or any other key/value
backend that can satisfy Client.

# Key Interfaces

  - Client: Request/response access to a flat key/value backend.
  - MappingContext: Resolves type identifiers to entity descriptors.
  - Persister: Backend-specific storage strategy for one entity type.
  - Lockable: Optional persister capability for pessimistic locking.
  - Querier: Optional persister capability for property equality lookups.
  - KeyValue: Advisory map-like view over raw string keys.
*/
package ports
