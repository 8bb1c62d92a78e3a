package internal

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"

	"github.com/lychee-technology/legacybridge"
	_ "github.com/proullon/ramsql/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRamSQL(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("ramsql", t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fixtures := []string{
		`CREATE TABLE usuarios (id_usuario BIGINT, correo_electronico TEXT, activo BIGINT)`,
		`INSERT INTO usuarios (id_usuario, correo_electronico, activo) VALUES (1, 'a@b.com', 1)`,
		`INSERT INTO usuarios (id_usuario, correo_electronico, activo) VALUES (2, 'c@d.com', 0)`,
	}
	for _, q := range fixtures {
		_, err := db.Exec(q)
		require.NoError(t, err)
	}
	return db
}

func rowKeys(row legacybridge.Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestSQLRepository_RamSQL(t *testing.T) {
	ctx := context.Background()
	db := openRamSQL(t)
	repo := NewSQLRepository(db, "ramsql", newUsersAdapter(t), legacybridge.UnmappedPolicyOpen)

	rows, err := repo.Query(ctx, "users", "SELECT id, email, activo FROM users WHERE id = $1", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"activo", "email", "id"}, rowKeys(rows[0]))
	assert.Equal(t, "1", fmt.Sprint(rows[0]["id"]))
	assert.Equal(t, "a@b.com", fmt.Sprint(rows[0]["email"]))

	row, err := repo.QueryOne(ctx, "users", "SELECT email FROM users WHERE id = $1", 2)
	require.NoError(t, err)
	assert.Equal(t, "c@d.com", fmt.Sprint(row["email"]))

	_, err = repo.QueryOne(ctx, "users", "SELECT email FROM users WHERE id = $1", 42)
	assert.True(t, legacybridge.IsErrorCode(err, legacybridge.ErrCodeNoRowsFound))
}

func TestSQLRepository_RamSQLErrors(t *testing.T) {
	ctx := context.Background()
	db := openRamSQL(t)

	repo := NewSQLRepository(db, "ramsql", newUsersAdapter(t), legacybridge.UnmappedPolicyStrict)

	_, err := repo.Query(ctx, "equipos", "SELECT id FROM equipos")
	assert.True(t, legacybridge.IsErrorCode(err, legacybridge.ErrCodeUnmappedTable))

	// visits has no table in the store
	visits := NewAdapter(newTestRegistry(t, legacybridge.TableMapping{
		Table: legacybridge.TableAlias{Application: "visits", Legacy: "visitas"},
	}), AdapterOptions{})
	_, err = NewSQLRepository(db, "ramsql", visits, legacybridge.UnmappedPolicyStrict).
		Query(ctx, "visits", "SELECT id FROM visits")
	require.Error(t, err)
	assert.True(t, legacybridge.IsErrorCode(err, legacybridge.ErrCodeQueryExecution))
}

func TestSQLRepository_DuckDB(t *testing.T) {
	ctx := context.Background()
	db, err := OpenDuckDB(ctx, legacybridge.DuckDBConfig{})
	require.NoError(t, err)
	defer db.Close()

	for _, q := range []string{
		`CREATE TABLE usuarios (id_usuario BIGINT, correo_electronico VARCHAR, activo BOOLEAN)`,
		`INSERT INTO usuarios VALUES (1, 'a@b.com', true), (2, 'c@d.com', false)`,
	} {
		_, err := db.ExecContext(ctx, q)
		require.NoError(t, err)
	}

	repo := NewSQLRepository(db, DuckDBDriverName, newUsersAdapter(t), legacybridge.UnmappedPolicyWarn)

	rows, err := repo.Query(ctx, "users", "SELECT id, email, activo FROM users ORDER BY id")
	require.NoError(t, err)
	assert.Equal(t, []legacybridge.Row{
		{"id": int64(1), "email": "a@b.com", "activo": true},
		{"id": int64(2), "email": "c@d.com", "activo": false},
	}, rows)

	affected, err := repo.Exec(ctx, "users", "UPDATE users SET email = ? WHERE id = ?", "z@b.com", int64(2))
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	row, err := repo.QueryOne(ctx, "users", "SELECT email FROM users WHERE id = 2")
	require.NoError(t, err)
	assert.Equal(t, legacybridge.Row{"email": "z@b.com"}, row)
}

func TestValidateDuckDBConfig(t *testing.T) {
	assert.NoError(t, ValidateDuckDBConfig(legacybridge.DuckDBConfig{}))
	assert.Error(t, ValidateDuckDBConfig(legacybridge.DuckDBConfig{MemoryLimitMB: -1}))
	assert.Error(t, ValidateDuckDBConfig(legacybridge.DuckDBConfig{Threads: -1}))
}
