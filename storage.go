package legacybridge

import (
	"context"
)

// Adapter rewrites application-facing queries for the legacy store and
// projects legacy rows back to application names. It never fails.
type Adapter interface {
	PrepareQuery(table, query string) string
	ProjectResults(table string, rows []Row) []Row
	Registry() SchemaRegistry
}

// Repository is the data-access layer sitting on top of an Adapter.
// Queries use application names; returned rows carry application keys.
type Repository interface {
	Query(ctx context.Context, table, query string, args ...any) ([]Row, error)
	QueryOne(ctx context.Context, table, query string, args ...any) (Row, error)
	Exec(ctx context.Context, table, query string, args ...any) (int64, error)
}
