package internal

import (
	"context"
	"database/sql"
	"time"

	"github.com/lychee-technology/legacybridge"
	"go.uber.org/zap"
)

type sqlQueryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQLRepository is the database/sql flavour of LegacyRepository, used with
// lib/pq against Postgres and with DuckDB over exported legacy snapshots.
type SQLRepository struct {
	db      sqlQueryer
	driver  string
	adapter legacybridge.Adapter
	guard   *unmappedGuard
	breaker *CircuitBreaker
}

var _ legacybridge.Repository = (*SQLRepository)(nil)

// NewSQLRepository creates a repository over db. driver only labels telemetry.
func NewSQLRepository(db sqlQueryer, driver string, adapter legacybridge.Adapter, policy legacybridge.UnmappedPolicy) *SQLRepository {
	return &SQLRepository{
		db:      db,
		driver:  driver,
		adapter: adapter,
		guard:   newUnmappedGuard(adapter.Registry(), policy),
	}
}

// WithCircuitBreaker makes the repository refuse statements with
// CONNECTION_FAILED while cb is open. A nil cb disables the check.
func (r *SQLRepository) WithCircuitBreaker(cb *CircuitBreaker) *SQLRepository {
	r.breaker = cb
	return r
}

func (r *SQLRepository) Query(ctx context.Context, table, query string, args ...any) ([]legacybridge.Row, error) {
	if err := r.guard.check(ctx, table); err != nil {
		return nil, err
	}
	if err := r.breaker.allow(table); err != nil {
		return nil, err
	}

	started := time.Now()
	legacyQuery := r.adapter.PrepareQuery(table, query)
	EmitLatency(ctx, table, StageTranslate, time.Since(started))

	started = time.Now()
	rows, err := r.db.QueryContext(ctx, legacyQuery, args...)
	if err != nil {
		r.breaker.record(err)
		return nil, legacybridge.NewQueryExecutionError(table, "legacy query failed", err).
			WithDetail("query", legacyQuery).
			WithDetail("driver", r.driver)
	}
	raw, err := scanSQLRows(rows)
	r.breaker.record(err)
	if err != nil {
		return nil, legacybridge.NewQueryExecutionError(table, "failed to read legacy rows", err).
			WithDetail("query", legacyQuery).
			WithDetail("driver", r.driver)
	}
	EmitLatency(ctx, table, StageExecute, time.Since(started))

	started = time.Now()
	projected := r.adapter.ProjectResults(table, raw)
	EmitLatency(ctx, table, StageProject, time.Since(started))
	EmitRowCount(ctx, table, r.driver, len(projected))

	zap.S().Debugw("legacy query executed", "table", table, "driver", r.driver, "rows", len(projected))
	return projected, nil
}

func (r *SQLRepository) QueryOne(ctx context.Context, table, query string, args ...any) (legacybridge.Row, error) {
	rows, err := r.Query(ctx, table, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, legacybridge.NewNoRowsFoundError(table)
	}
	return rows[0], nil
}

func (r *SQLRepository) Exec(ctx context.Context, table, query string, args ...any) (int64, error) {
	if err := r.guard.check(ctx, table); err != nil {
		return 0, err
	}
	if err := r.breaker.allow(table); err != nil {
		return 0, err
	}

	legacyQuery := r.adapter.PrepareQuery(table, query)
	started := time.Now()
	result, err := r.db.ExecContext(ctx, legacyQuery, args...)
	r.breaker.record(err)
	if err != nil {
		return 0, legacybridge.NewQueryExecutionError(table, "legacy statement failed", err).
			WithDetail("query", legacyQuery).
			WithDetail("driver", r.driver)
	}
	EmitLatency(ctx, table, StageExecute, time.Since(started))

	affected, err := result.RowsAffected()
	if err != nil {
		// some drivers cannot report affected rows
		return -1, nil
	}
	return affected, nil
}

// scanSQLRows reads every row into a column-keyed map and closes rows.
func scanSQLRows(rows *sql.Rows) ([]legacybridge.Row, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]legacybridge.Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(legacybridge.Row, len(columns))
		for i, column := range columns {
			row[column] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
