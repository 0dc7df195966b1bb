package session

import (
	"context"
	"fmt"

	"github.com/aretw0/stash/pkg/domain"
)

// Persist writes a persistent instance and returns its id.
func (s *Session) Persist(ctx context.Context, entity any) (string, error) {
	if err := s.ensureOpen(); err != nil {
		return "", err
	}
	p, name, ok := s.persisterOf(entity)
	if !ok || isNil(entity) {
		return "", &domain.NotPersistentEntityError{Entity: name}
	}
	id, err := p.Persist(ctx, entity)
	s.metrics.Operation(name, "persist", err)
	return id, err
}

// Retrieve loads the entity of the given name by id.
func (s *Session) Retrieve(ctx context.Context, name, id string) (any, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	p, ok := s.PersisterFor(name)
	if !ok {
		return nil, &domain.NotPersistentEntityError{Entity: name}
	}
	entity, err := p.Retrieve(ctx, id)
	s.metrics.Operation(name, "retrieve", err)
	return entity, err
}

// Delete removes a persistent instance. Transient instances are ignored.
func (s *Session) Delete(ctx context.Context, entity any) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	p, name, ok := s.persisterOf(entity)
	if !ok || isNil(entity) {
		return &domain.NotPersistentEntityError{Entity: name}
	}
	id, ok := p.ObjectIdentifier(entity)
	if !ok {
		return nil
	}
	err := p.Delete(ctx, id)
	s.metrics.Operation(name, "delete", err)
	return err
}

// DeleteByID removes the entity of the given name by id.
func (s *Session) DeleteByID(ctx context.Context, name, id string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	p, ok := s.PersisterFor(name)
	if !ok {
		return &domain.NotPersistentEntityError{Entity: name}
	}
	err := p.Delete(ctx, id)
	s.metrics.Operation(name, "delete", err)
	return err
}

// Get retrieves an entity of type T by id.
func Get[T any](ctx context.Context, s *Session, id string) (*T, error) {
	v, err := s.Retrieve(ctx, s.mapping.EntityName((*T)(nil)), id)
	if err != nil {
		return nil, err
	}
	entity, ok := v.(*T)
	if !ok {
		return nil, fmt.Errorf("retrieved %T, want *%T", v, *new(T))
	}
	return entity, nil
}
