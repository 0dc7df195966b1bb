package persister

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

// KV implements ports.Persister, ports.Lockable and ports.Querier over a ports.Client.
type KV struct {
	entity *domain.Entity
	owner  ports.Owner
	client ports.Client
	opts   Options
}

var (
	_ ports.Persister = (*KV)(nil)
	_ ports.Lockable  = (*KV)(nil)
	_ ports.Querier   = (*KV)(nil)
)

// Factory returns a ports.PersisterFactory that builds KV persisters.
func Factory(opts ...Option) ports.PersisterFactory {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return func(entity *domain.Entity, owner ports.Owner, client ports.Client) ports.Persister {
		return New(entity, owner, client, o)
	}
}

// New creates a persister for entity bound to owner and its client.
func New(entity *domain.Entity, owner ports.Owner, client ports.Client, opts Options) *KV {
	return &KV{
		entity: entity,
		owner:  owner,
		client: client,
		opts:   opts,
	}
}

// Entity returns the descriptor this persister serves.
func (p *KV) Entity() *domain.Entity {
	return p.entity
}

func (p *KV) key(id string) string {
	return p.opts.Prefix + p.entity.Name + ":" + id
}

func (p *KV) lockKey(id string) string {
	return p.opts.Prefix + "lock:" + p.entity.Name + ":" + id
}

func (p *KV) inTransaction() bool {
	return p.owner != nil && p.owner.InTransaction()
}

// ObjectIdentifier returns the entity's id; false for transient instances or foreign types.
func (p *KV) ObjectIdentifier(entity any) (string, bool) {
	if !p.accepts(entity) {
		return "", false
	}
	props, err := p.properties(entity)
	if err != nil {
		return "", false
	}
	return identifier(props[p.entity.IDProperty])
}

// Persist writes the entity as a JSON record. Transient entities get a UUIDv7 id,
// which requires a pointer so the id can be written back.
func (p *KV) Persist(ctx context.Context, entity any) (string, error) {
	if !p.accepts(entity) {
		return "", &domain.NotPersistentEntityError{Entity: fmt.Sprintf("%T", entity)}
	}
	props, err := p.properties(entity)
	if err != nil {
		return "", err
	}

	id, ok := identifier(props[p.entity.IDProperty])
	if !ok {
		if reflect.ValueOf(entity).Kind() != reflect.Pointer {
			return "", fmt.Errorf("cannot assign an id to non-pointer %s", p.entity.Name)
		}
		id = uuid.Must(uuid.NewV7()).String()
		if err := decode(map[string]any{p.entity.IDProperty: id}, entity); err != nil {
			return "", fmt.Errorf("failed to assign id to %s: %w", p.entity.Name, err)
		}
		props[p.entity.IDProperty] = id
	}

	data, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s[%s]: %w", p.entity.Name, id, err)
	}
	if err := p.client.Set(ctx, p.key(id), string(data)); err != nil {
		return "", err
	}
	return id, nil
}

// Retrieve loads the record for id into a new entity pointer.
func (p *KV) Retrieve(ctx context.Context, id string) (any, error) {
	if p.inTransaction() {
		return nil, domain.ErrReadInTransaction
	}
	data, err := p.client.Get(ctx, p.key(id))
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s[%s]", domain.ErrEntityNotFound, p.entity.Name, id)
		}
		return nil, err
	}
	return p.unmarshal(id, data)
}

// Delete removes the record for id. Deleting a missing record is not an error.
func (p *KV) Delete(ctx context.Context, id string) error {
	_, err := p.client.Del(ctx, p.key(id))
	return err
}

// FindBy scans the entity keyspace and returns records whose properties match criteria.
// Values are compared by their printed form so JSON numbers match Go integers.
func (p *KV) FindBy(ctx context.Context, criteria map[string]any) ([]any, error) {
	if p.inTransaction() {
		return nil, domain.ErrReadInTransaction
	}
	keys, err := p.client.Keys(ctx, p.key("*"))
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)

	var out []any
	for _, key := range keys {
		data, err := p.client.Get(ctx, key)
		if errors.Is(err, domain.ErrKeyNotFound) {
			continue // Deleted between Keys and Get
		}
		if err != nil {
			return nil, err
		}
		var record map[string]any
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
		}
		if !matches(record, criteria) {
			continue
		}
		entity := p.entity.New()
		if err := decode(record, entity); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		out = append(out, entity)
	}
	return out, nil
}

func (p *KV) unmarshal(id, data string) (any, error) {
	var record map[string]any
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s[%s]: %w", p.entity.Name, id, err)
	}
	entity := p.entity.New()
	if err := decode(record, entity); err != nil {
		return nil, fmt.Errorf("failed to decode %s[%s]: %w", p.entity.Name, id, err)
	}
	return entity, nil
}

// accepts reports whether v is an instance (or pointer to one) of the served type.
func (p *KV) accepts(v any) bool {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t == p.entity.Type
}

func (p *KV) properties(entity any) (map[string]any, error) {
	props := make(map[string]any)
	if err := mapstructure.Decode(entity, &props); err != nil {
		return nil, fmt.Errorf("failed to read properties of %s: %w", p.entity.Name, err)
	}
	return props, nil
}

func decode(input map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func identifier(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	rv := reflect.ValueOf(v)
	if rv.IsZero() {
		return "", false
	}
	return fmt.Sprint(v), true
}

func matches(record, criteria map[string]any) bool {
	for prop, want := range criteria {
		got, ok := record[prop]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
