package internal

import (
	"testing"

	"github.com/lychee-technology/legacybridge"
	"github.com/lychee-technology/legacybridge/mappings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersDocument = `
version: 1
tables:
  users: usuarios
  orders: ordenes_servicio
fields:
  orders:
    status: estatus
    id: id_orden
    client_id: id_cliente
  users:
    id: id_usuario
    email: correo_electronico
  equipos:
    serial_number: num_serie
`

func TestParseMappingDocument_PreservesOrder(t *testing.T) {
	doc, err := ParseMappingDocument([]byte(ordersDocument))
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, []string{"users", "orders", "equipos"}, doc.Tables())

	assert.Equal(t, legacybridge.TableAlias{Application: "orders", Legacy: "ordenes_servicio"}, doc.Mappings[1].Table)
	assert.Equal(t, []legacybridge.FieldAlias{
		{Application: "status", Legacy: "estatus"},
		{Application: "id", Legacy: "id_orden"},
		{Application: "client_id", Legacy: "id_cliente"},
	}, doc.Mappings[1].Fields)

	assert.Equal(t, "", doc.Mappings[2].Table.Legacy)
	assert.Equal(t, []legacybridge.FieldAlias{{Application: "serial_number", Legacy: "num_serie"}}, doc.Mappings[2].Fields)
}

func TestParseMappingDocument_JSON(t *testing.T) {
	doc, err := ParseMappingDocument([]byte(`{
		"version": 1,
		"tables": {"users": "usuarios"},
		"fields": {"users": {"id": "id_usuario", "email": "correo_electronico"}}
	}`))
	require.NoError(t, err)

	require.Len(t, doc.Mappings, 1)
	assert.Equal(t, usersMapping(), doc.Mappings[0])
}

func TestParseMappingDocument_NullSections(t *testing.T) {
	doc, err := ParseMappingDocument([]byte("version: 1\ntables:\nfields:\n"))
	require.NoError(t, err)
	assert.Empty(t, doc.Mappings)
}

func TestParseMappingDocument_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "not yaml", data: "version: [1"},
		{name: "missing version", data: "tables:\n  users: usuarios\n"},
		{name: "version zero", data: "version: 0\n"},
		{name: "version as string", data: "version: one\n"},
		{name: "unknown top-level key", data: "version: 1\ncolumns:\n  a: b\n"},
		{name: "table alias not a string", data: "version: 1\ntables:\n  users:\n    - usuarios\n"},
		{name: "empty legacy table", data: "version: 1\ntables:\n  users: \"\"\n"},
		{name: "fields not a mapping", data: "version: 1\nfields:\n  users: id_usuario\n"},
		{name: "duplicate field key", data: "version: 1\nfields:\n  users:\n    id: a\n    id: b\n"},
		{name: "top level list", data: "- version: 1\n"},
		{name: "future version", data: "version: 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseMappingDocument([]byte(tt.data))
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.True(t, legacybridge.IsErrorCode(err, legacybridge.ErrCodeMappingInvalid), "got %v", err)
		})
	}
}

func TestParseMappingDocument_EmbeddedDefault(t *testing.T) {
	doc, err := ParseMappingDocument(mappings.Default())
	require.NoError(t, err)

	registry, err := NewSchemaRegistryFromDocument(doc)
	require.NoError(t, err)

	assert.Equal(t, "usuarios", registry.LegacyTableName("users"))
	assert.Equal(t, "equipos", registry.LegacyTableName("equipos"))
	assert.False(t, legacybridge.IsMapped(registry, "equipos"))
	assert.Empty(t, registry.Diagnostics())

	adapter := NewAdapter(registry, AdapterOptions{})
	assert.Equal(t,
		"SELECT id_usuario, correo_electronico FROM usuarios WHERE id_usuario = 1",
		adapter.PrepareQuery("users", "SELECT id, email FROM users WHERE id = 1"))
}

func TestNewSchemaRegistryFromDocument_Nil(t *testing.T) {
	_, err := NewSchemaRegistryFromDocument(nil)
	assert.True(t, legacybridge.IsErrorCode(err, legacybridge.ErrCodeMappingInvalid))
}
