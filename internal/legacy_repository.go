package internal

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lychee-technology/legacybridge"
	"go.uber.org/zap"
)

type legacyQueryPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// LegacyRepository executes application-facing queries against the legacy
// store through a pgx pool: prepare, execute, collect, project.
type LegacyRepository struct {
	pool    legacyQueryPool
	adapter legacybridge.Adapter
	guard   *unmappedGuard
	breaker *CircuitBreaker
}

var _ legacybridge.Repository = (*LegacyRepository)(nil)

// NewLegacyRepository creates a repository over pool. pool is usually a
// *pgxpool.Pool.
func NewLegacyRepository(pool legacyQueryPool, adapter legacybridge.Adapter, policy legacybridge.UnmappedPolicy) *LegacyRepository {
	return &LegacyRepository{
		pool:    pool,
		adapter: adapter,
		guard:   newUnmappedGuard(adapter.Registry(), policy),
	}
}

// WithCircuitBreaker makes the repository refuse statements with
// CONNECTION_FAILED while cb is open. A nil cb disables the check.
func (r *LegacyRepository) WithCircuitBreaker(cb *CircuitBreaker) *LegacyRepository {
	r.breaker = cb
	return r
}

func (r *LegacyRepository) Query(ctx context.Context, table, query string, args ...any) ([]legacybridge.Row, error) {
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
	rows, err := r.pool.Query(ctx, legacyQuery, args...)
	if err != nil {
		r.breaker.record(err)
		return nil, legacybridge.NewQueryExecutionError(table, "legacy query failed", err).
			WithDetail("query", legacyQuery)
	}
	raw, err := collectRowMaps(rows)
	r.breaker.record(err)
	if err != nil {
		return nil, legacybridge.NewQueryExecutionError(table, "failed to read legacy rows", err).
			WithDetail("query", legacyQuery)
	}
	EmitLatency(ctx, table, StageExecute, time.Since(started))

	started = time.Now()
	projected := r.adapter.ProjectResults(table, raw)
	EmitLatency(ctx, table, StageProject, time.Since(started))
	EmitRowCount(ctx, table, "pgx", len(projected))

	zap.S().Debugw("legacy query executed", "table", table, "rows", len(projected))
	return projected, nil
}

func (r *LegacyRepository) QueryOne(ctx context.Context, table, query string, args ...any) (legacybridge.Row, error) {
	rows, err := r.Query(ctx, table, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, legacybridge.NewNoRowsFoundError(table)
	}
	return rows[0], nil
}

func (r *LegacyRepository) Exec(ctx context.Context, table, query string, args ...any) (int64, error) {
	if err := r.guard.check(ctx, table); err != nil {
		return 0, err
	}
	if err := r.breaker.allow(table); err != nil {
		return 0, err
	}

	legacyQuery := r.adapter.PrepareQuery(table, query)
	started := time.Now()
	tag, err := r.pool.Exec(ctx, legacyQuery, args...)
	r.breaker.record(err)
	if err != nil {
		return 0, legacybridge.NewQueryExecutionError(table, "legacy statement failed", err).
			WithDetail("query", legacyQuery)
	}
	EmitLatency(ctx, table, StageExecute, time.Since(started))
	return tag.RowsAffected(), nil
}

// collectRowMaps reads every row into a column-keyed map and closes rows.
func collectRowMaps(rows pgx.Rows) ([]legacybridge.Row, error) {
	defer rows.Close()

	out := make([]legacybridge.Row, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		fields := rows.FieldDescriptions()
		row := make(legacybridge.Row, len(fields))
		for i, fd := range fields {
			if i < len(values) {
				row[fd.Name] = values[i]
			}
		}
		normalizeRow(row)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
