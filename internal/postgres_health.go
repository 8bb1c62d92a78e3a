package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/legacybridge"
)

// ValidateDatabaseConfig performs basic sanity checks on legacy store settings.
func ValidateDatabaseConfig(cfg legacybridge.DatabaseConfig) error {
	if cfg.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("database.port must be a valid TCP port")
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("database.maxConnections must be greater than 0")
	}
	if cfg.IAMAuth && cfg.Region == "" {
		return fmt.Errorf("database.region is required when database.iamAuth is enabled")
	}
	return nil
}

type tableLookupPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// MissingLegacyTables returns the legacy table names of registry that the
// connected database does not know, in ListTables order.
func MissingLegacyTables(ctx context.Context, pool tableLookupPool, registry legacybridge.SchemaRegistry) ([]string, error) {
	var missing []string
	for _, table := range registry.ListTables() {
		legacy := registry.LegacyTableName(table)
		var found *string
		if err := pool.QueryRow(ctx, "SELECT to_regclass($1)::text", legacy).Scan(&found); err != nil {
			return nil, fmt.Errorf("lookup legacy table %s: %w", legacy, err)
		}
		if found == nil {
			missing = append(missing, legacy)
		}
	}
	return missing, nil
}

// PostgresHealthCheck connects to the legacy store, pings it and, when a
// registry is given, verifies every mapped legacy table exists.
// timeout may be 0 to use a sensible default (5s).
func PostgresHealthCheck(ctx context.Context, dsn string, timeout time.Duration, registry legacybridge.SchemaRegistry) error {
	if dsn == "" {
		return fmt.Errorf("empty dsn")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	if registry == nil {
		return nil
	}

	missing, err := MissingLegacyTables(ctx, pool, registry)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("legacy tables not found: %v", missing)
	}
	return nil
}
