package internal

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/lychee-technology/legacybridge"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUsersAdapter(t *testing.T) legacybridge.Adapter {
	t.Helper()
	return NewAdapter(newTestRegistry(t, usersMapping()), AdapterOptions{Translator: DefaultTranslatorOptions()})
}

func TestLegacyRepository_Query(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLegacyRepository(mock, newUsersAdapter(t), legacybridge.UnmappedPolicyOpen)

	rawID := [16]byte(uuid.MustParse("11111111-1111-1111-1111-111111111111"))
	rows := pgxmock.NewRows([]string{"id_usuario", "correo_electronico", "activo", "token"}).
		AddRow(int64(1), "a@b.com", int64(1), rawID)
	mock.ExpectQuery("^" + regexp.QuoteMeta("SELECT id_usuario, correo_electronico, activo, token FROM usuarios WHERE id_usuario = $1") + "$").
		WithArgs(int64(1)).
		WillReturnRows(rows)

	got, err := repo.Query(ctx, "users", "SELECT id, email, activo, token FROM users WHERE id = $1", int64(1))
	require.NoError(t, err)
	assert.Equal(t, []legacybridge.Row{{
		"id":     int64(1),
		"email":  "a@b.com",
		"activo": int64(1),
		"token":  uuid.MustParse("11111111-1111-1111-1111-111111111111"),
	}}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLegacyRepository_QueryOne(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLegacyRepository(mock, newUsersAdapter(t), legacybridge.UnmappedPolicyOpen)

	mock.ExpectQuery(`FROM usuarios`).
		WillReturnRows(pgxmock.NewRows([]string{"id_usuario"}).AddRow(int64(4)))
	row, err := repo.QueryOne(ctx, "users", "SELECT id FROM users LIMIT 1")
	require.NoError(t, err)
	assert.Equal(t, legacybridge.Row{"id": int64(4)}, row)

	mock.ExpectQuery(`FROM usuarios`).
		WillReturnRows(pgxmock.NewRows([]string{"id_usuario"}))
	_, err = repo.QueryOne(ctx, "users", "SELECT id FROM users WHERE id = $1", int64(99))
	assert.True(t, legacybridge.IsErrorCode(err, legacybridge.ErrCodeNoRowsFound))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLegacyRepository_QueryError(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLegacyRepository(mock, newUsersAdapter(t), legacybridge.UnmappedPolicyOpen)

	driverErr := errors.New("connection reset")
	mock.ExpectQuery(`FROM usuarios`).WillReturnError(driverErr)

	_, err = repo.Query(ctx, "users", "SELECT id FROM users")
	require.Error(t, err)
	assert.ErrorIs(t, err, driverErr)

	var bridgeErr *legacybridge.BridgeError
	require.True(t, errors.As(err, &bridgeErr))
	assert.Equal(t, legacybridge.ErrCodeQueryExecution, bridgeErr.Code)
	assert.Equal(t, "users", bridgeErr.Table)
	assert.Equal(t, "SELECT id_usuario FROM usuarios", bridgeErr.Details["query"])
}

func TestLegacyRepository_Exec(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLegacyRepository(mock, newUsersAdapter(t), legacybridge.UnmappedPolicyOpen)

	mock.ExpectExec("^" + regexp.QuoteMeta("UPDATE usuarios SET correo_electronico = $1 WHERE id_usuario = $2") + "$").
		WithArgs("new@b.com", int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	affected, err := repo.Exec(ctx, "users", "UPDATE users SET email = $1 WHERE id = $2", "new@b.com", int64(1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLegacyRepository_UnmappedPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("strict refuses before touching the store", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewLegacyRepository(mock, newUsersAdapter(t), legacybridge.UnmappedPolicyStrict)

		_, err = repo.Query(ctx, "equipos", "SELECT id FROM equipos")
		assert.True(t, legacybridge.IsErrorCode(err, legacybridge.ErrCodeUnmappedTable))
		_, err = repo.Exec(ctx, "equipos", "DELETE FROM equipos")
		assert.True(t, legacybridge.IsErrorCode(err, legacybridge.ErrCodeUnmappedTable))

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("strict still serves mapped tables", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewLegacyRepository(mock, newUsersAdapter(t), legacybridge.UnmappedPolicyStrict)
		mock.ExpectQuery(`FROM usuarios`).WillReturnRows(pgxmock.NewRows([]string{"id_usuario"}).AddRow(int64(1)))

		rows, err := repo.Query(ctx, "users", "SELECT id FROM users")
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	for _, policy := range []legacybridge.UnmappedPolicy{legacybridge.UnmappedPolicyWarn, legacybridge.UnmappedPolicyOpen} {
		t.Run(string(policy)+" passes unmapped tables through", func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			repo := NewLegacyRepository(mock, newUsersAdapter(t), policy)
			for i := 0; i < 2; i++ {
				mock.ExpectQuery("^" + regexp.QuoteMeta("SELECT id, serie FROM equipos") + "$").
					WillReturnRows(pgxmock.NewRows([]string{"id", "serie"}).AddRow(int64(1), "A-100"))
			}

			for i := 0; i < 2; i++ {
				rows, err := repo.Query(ctx, "equipos", "SELECT id, serie FROM equipos")
				require.NoError(t, err)
				assert.Equal(t, []legacybridge.Row{{"id": int64(1), "serie": "A-100"}}, rows)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
