package mapping_test

import (
	"testing"

	"github.com/aretw0/stash/pkg/mapping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Book struct {
	ID    string `mapstructure:"id"`
	Title string `mapstructure:"title"`
}

type Author struct {
	Handle string `mapstructure:"handle"`
}

func TestRegistry_Register(t *testing.T) {
	r := mapping.NewRegistry()

	entity, err := r.Register(&Book{})
	require.NoError(t, err)
	assert.Equal(t, "Book", entity.Name)
	assert.Equal(t, "id", entity.IDProperty)

	got, ok := r.PersistentEntity("Book")
	assert.True(t, ok)
	assert.Same(t, entity, got)

	// Value and pointer resolve to the same name
	assert.Equal(t, "Book", r.EntityName(Book{}))
	assert.Equal(t, "Book", r.EntityName(&Book{}))
	assert.Equal(t, "Book", mapping.Name[Book]())
}

func TestRegistry_Options(t *testing.T) {
	r := mapping.NewRegistry()
	entity := r.MustRegister(Author{}, mapping.WithName("writer"), mapping.WithIDProperty("handle"))

	assert.Equal(t, "writer", entity.Name)
	assert.Equal(t, "handle", entity.IDProperty)
	assert.Equal(t, "writer", r.EntityName(&Author{}))
	assert.Len(t, r.Entities(), 1)
}

func TestRegistry_Unmapped(t *testing.T) {
	r := mapping.NewRegistry()

	_, ok := r.PersistentEntity("Book")
	assert.False(t, ok)
	// Unmapped values still get a printable name
	assert.Equal(t, "mapping_test.Book", r.EntityName(&Book{}))
	assert.Equal(t, "<nil>", r.EntityName(nil))
}

func TestRegistry_Rejects(t *testing.T) {
	r := mapping.NewRegistry()

	_, err := r.Register(42)
	assert.Error(t, err)

	_, err = r.Register(Book{})
	require.NoError(t, err)
	_, err = r.Register(Author{}, mapping.WithName("Book"))
	assert.Error(t, err, "a name bound to another type must be rejected")
}

func TestRegistry_SharedTypeKeepsFirstName(t *testing.T) {
	r := mapping.NewRegistry()
	r.MustRegister(Book{}, mapping.WithName("Novel"))
	r.MustRegister(Book{}, mapping.WithName("Manual"))

	assert.Equal(t, "Novel", r.EntityName(&Book{}))
	for _, name := range []string{"Novel", "Manual"} {
		entity, ok := r.PersistentEntity(name)
		require.True(t, ok)
		assert.Equal(t, name, entity.Name)
	}
}
