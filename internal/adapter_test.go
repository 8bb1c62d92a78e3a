package internal

import (
	"fmt"
	"sync"
	"testing"

	"github.com/lychee-technology/legacybridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_PrepareAndProject(t *testing.T) {
	registry := newTestRegistry(t, usersMapping())
	adapter := NewAdapter(registry, AdapterOptions{Translator: DefaultTranslatorOptions(), LogQueries: true})

	assert.Same(t, registry, adapter.Registry())
	assert.Equal(t,
		"SELECT id_usuario, correo_electronico FROM usuarios WHERE id_usuario = 1",
		adapter.PrepareQuery("users", "SELECT id, email FROM users WHERE id = 1"))

	rows := adapter.ProjectResults("users", []legacybridge.Row{
		{"id_usuario": 1, "correo_electronico": "a@b.com", "activo": 1},
	})
	assert.Equal(t, []legacybridge.Row{{"id": 1, "email": "a@b.com", "activo": 1}}, rows)
}

func TestAdapter_UnmappedTableIsIdentity(t *testing.T) {
	adapter := NewAdapter(newTestRegistry(t, usersMapping()), AdapterOptions{})

	query := "SELECT id, serie FROM equipos WHERE id = $1"
	assert.Equal(t, query, adapter.PrepareQuery("equipos", query))

	rows := []legacybridge.Row{{"id": 1, "serie": "A-100"}}
	assert.Equal(t, rows, adapter.ProjectResults("equipos", rows))
}

func TestAdapter_EmptyRegistry(t *testing.T) {
	adapter := NewAdapter(newTestRegistry(t), AdapterOptions{})

	assert.Equal(t, "SELECT 1", adapter.PrepareQuery("users", "SELECT 1"))
	assert.Nil(t, adapter.ProjectResults("users", nil))
}

func TestAdapter_ConcurrentUse(t *testing.T) {
	adapter := NewAdapter(newTestRegistry(t, usersMapping()), AdapterOptions{Translator: DefaultTranslatorOptions()})

	const workers = 16
	const iterations = 200

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				got := adapter.PrepareQuery("users", "SELECT id, email FROM users WHERE id = 1")
				if got != "SELECT id_usuario, correo_electronico FROM usuarios WHERE id_usuario = 1" {
					errs <- fmt.Errorf("worker %d: unexpected query %q", w, got)
					return
				}
				rows := adapter.ProjectResults("users", []legacybridge.Row{{"id_usuario": i, "activo": w}})
				if rows[0]["id"] != i || rows[0]["activo"] != w {
					errs <- fmt.Errorf("worker %d: unexpected row %v", w, rows[0])
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}
