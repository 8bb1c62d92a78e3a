package legacybridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldMap_OrderAndLookups(t *testing.T) {
	fm := NewFieldMap(
		FieldAlias{Application: "id", Legacy: "id_usuario"},
		FieldAlias{Application: "email", Legacy: "correo_electronico"},
		FieldAlias{Application: "mail", Legacy: "correo_electronico"},
	)

	assert.Equal(t, 3, fm.Len())
	assert.False(t, fm.IsEmpty())

	var order []string
	fm.Each(func(a FieldAlias) { order = append(order, a.Application) })
	assert.Equal(t, []string{"id", "email", "mail"}, order)

	legacy, ok := fm.Legacy("email")
	assert.True(t, ok)
	assert.Equal(t, "correo_electronico", legacy)
	_, ok = fm.Legacy("activo")
	assert.False(t, ok)

	assert.True(t, fm.HasApplication("id"))
	assert.False(t, fm.HasApplication("id_usuario"))
	assert.True(t, fm.HasLegacy("id_usuario"))
	assert.False(t, fm.HasLegacy("id"))

	assert.Equal(t, []string{"email", "mail"}, fm.ApplicationsFor("correo_electronico"))
	assert.Nil(t, fm.ApplicationsFor("activo"))
}

func TestFieldMap_EntriesIsACopy(t *testing.T) {
	fm := NewFieldMap(FieldAlias{Application: "id", Legacy: "id_usuario"})

	entries := fm.Entries()
	entries[0].Legacy = "changed"

	legacy, _ := fm.Legacy("id")
	assert.Equal(t, "id_usuario", legacy)
}

func TestFieldMap_DuplicateApplicationKeepsFirstPosition(t *testing.T) {
	fm := NewFieldMap(
		FieldAlias{Application: "id", Legacy: "a"},
		FieldAlias{Application: "email", Legacy: "b"},
		FieldAlias{Application: "id", Legacy: "c"},
	)

	assert.Equal(t, []FieldAlias{
		{Application: "id", Legacy: "c"},
		{Application: "email", Legacy: "b"},
	}, fm.Entries())
	assert.False(t, fm.HasLegacy("a"))
}

func TestFieldMap_ZeroValue(t *testing.T) {
	var fm FieldMap

	assert.True(t, fm.IsEmpty())
	assert.Equal(t, 0, fm.Len())
	assert.Empty(t, fm.Entries())
	_, ok := fm.Legacy("id")
	assert.False(t, ok)
	assert.False(t, fm.HasLegacy("id"))
}

func TestFieldAlias_IsIdentity(t *testing.T) {
	assert.True(t, FieldAlias{Application: "notes", Legacy: "notes"}.IsIdentity())
	assert.False(t, FieldAlias{Application: "id", Legacy: "id_usuario"}.IsIdentity())
}
