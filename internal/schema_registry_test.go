package internal

import (
	"testing"

	"github.com/lychee-technology/legacybridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticSchemaRegistry_Lookups(t *testing.T) {
	registry := newTestRegistry(t,
		usersMapping(),
		legacybridge.TableMapping{Table: legacybridge.TableAlias{Application: "visits", Legacy: "visitas"}},
	)

	assert.Equal(t, "usuarios", registry.LegacyTableName("users"))
	assert.Equal(t, "equipos", registry.LegacyTableName("equipos"))

	legacy, ok := registry.TableAlias("visits")
	assert.True(t, ok)
	assert.Equal(t, "visitas", legacy)
	_, ok = registry.TableAlias("equipos")
	assert.False(t, ok)

	fields := registry.FieldMap("users")
	assert.Equal(t, []legacybridge.FieldAlias{
		{Application: "id", Legacy: "id_usuario"},
		{Application: "email", Legacy: "correo_electronico"},
	}, fields.Entries())
	assert.True(t, registry.FieldMap("visits").IsEmpty())
	assert.True(t, registry.FieldMap("equipos").IsEmpty())

	assert.Equal(t, []string{"users", "visits"}, registry.ListTables())
	assert.True(t, legacybridge.IsMapped(registry, "visits"))
	assert.False(t, legacybridge.IsMapped(registry, "equipos"))
}

func TestStaticSchemaRegistry_CopiesInput(t *testing.T) {
	mappings := []legacybridge.TableMapping{usersMapping()}
	registry := newTestRegistry(t, mappings...)

	mappings[0].Table.Legacy = "changed"
	mappings[0].Fields[0].Legacy = "changed"

	assert.Equal(t, "usuarios", registry.LegacyTableName("users"))
	legacy, _ := registry.FieldMap("users").Legacy("id")
	assert.Equal(t, "id_usuario", legacy)

	tables := registry.ListTables()
	tables[0] = "changed"
	assert.Equal(t, []string{"users"}, registry.ListTables())
}

func TestStaticSchemaRegistry_SkipsEmptyMappings(t *testing.T) {
	registry := newTestRegistry(t, legacybridge.TableMapping{
		Table: legacybridge.TableAlias{Application: "equipos"},
	})
	assert.Empty(t, registry.ListTables())
	assert.False(t, legacybridge.IsMapped(registry, "equipos"))
}

func TestNewStaticSchemaRegistry_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		mappings []legacybridge.TableMapping
	}{
		{
			name:     "empty table name",
			mappings: []legacybridge.TableMapping{{Table: legacybridge.TableAlias{Application: " ", Legacy: "x"}}},
		},
		{
			name:     "duplicate table",
			mappings: []legacybridge.TableMapping{usersMapping(), usersMapping()},
		},
		{
			name: "duplicate field",
			mappings: []legacybridge.TableMapping{{
				Table: legacybridge.TableAlias{Application: "users", Legacy: "usuarios"},
				Fields: []legacybridge.FieldAlias{
					{Application: "id", Legacy: "id_usuario"},
					{Application: "id", Legacy: "id_usr"},
				},
			}},
		},
		{
			name: "empty legacy field",
			mappings: []legacybridge.TableMapping{{
				Table:  legacybridge.TableAlias{Application: "users", Legacy: "usuarios"},
				Fields: []legacybridge.FieldAlias{{Application: "id", Legacy: ""}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry, err := NewStaticSchemaRegistry(tt.mappings)
			require.Error(t, err)
			assert.Nil(t, registry)
			assert.True(t, legacybridge.IsErrorCode(err, legacybridge.ErrCodeMappingInvalid))
		})
	}
}

func findingsOf(findings []legacybridge.Finding, kind legacybridge.FindingKind) []legacybridge.Finding {
	var out []legacybridge.Finding
	for _, f := range findings {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

func TestStaticSchemaRegistry_Diagnostics(t *testing.T) {
	registry := newTestRegistry(t,
		legacybridge.TableMapping{
			Table: legacybridge.TableAlias{Application: "orders", Legacy: "ordenes_servicio"},
			Fields: []legacybridge.FieldAlias{
				{Application: "a", Legacy: "b"},
				{Application: "b", Legacy: "c"},
				{Application: "status", Legacy: "estatus"},
				{Application: "state", Legacy: "estatus"},
				{Application: "notes", Legacy: "notes"},
			},
		},
		legacybridge.TableMapping{
			Table:  legacybridge.TableAlias{Application: "id", Legacy: "identificadores"},
			Fields: []legacybridge.FieldAlias{{Application: "id_cliente", Legacy: "cliente"}},
		},
		legacybridge.TableMapping{
			Table:  legacybridge.TableAlias{Application: "equipos"},
			Fields: []legacybridge.FieldAlias{{Application: "serial", Legacy: "num_serie"}},
		},
	)
	findings := registry.Diagnostics()

	chained := findingsOf(findings, legacybridge.FindingChainedField)
	require.Len(t, chained, 1)
	assert.Equal(t, "orders", chained[0].Table)
	assert.Equal(t, "a", chained[0].Field)

	shared := findingsOf(findings, legacybridge.FindingSharedLegacyField)
	require.Len(t, shared, 1)
	assert.Equal(t, "estatus", shared[0].Field)

	identity := findingsOf(findings, legacybridge.FindingIdentityAlias)
	require.Len(t, identity, 1)
	assert.Equal(t, "notes", identity[0].Field)

	substring := findingsOf(findings, legacybridge.FindingTableSubstring)
	require.Len(t, substring, 1)
	assert.Equal(t, "id", substring[0].Table)
	assert.Equal(t, "id_cliente", substring[0].Field)

	noAlias := findingsOf(findings, legacybridge.FindingFieldsWithoutTableAlias)
	require.Len(t, noAlias, 1)
	assert.Equal(t, "equipos", noAlias[0].Table)
}

func TestStaticSchemaRegistry_TableSubstringAcrossTables(t *testing.T) {
	registry := newTestRegistry(t,
		legacybridge.TableMapping{Table: legacybridge.TableAlias{Application: "users", Legacy: "usuarios"}},
		legacybridge.TableMapping{Table: legacybridge.TableAlias{Application: "superusers", Legacy: "superusuarios"}},
	)

	substring := findingsOf(registry.Diagnostics(), legacybridge.FindingTableSubstring)
	require.Len(t, substring, 1)
	assert.Equal(t, "users", substring[0].Table)
	assert.Contains(t, substring[0].Detail, "superusers")
}

func TestStaticSchemaRegistry_CleanMappingHasNoFindings(t *testing.T) {
	registry := newTestRegistry(t, usersMapping())
	assert.Empty(t, registry.Diagnostics())
}
