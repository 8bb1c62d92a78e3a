package internal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/lychee-technology/legacybridge"
	"go.uber.org/zap"
)

// DuckDBDriverName is the database/sql driver name registered by duckdb-go.
const DuckDBDriverName = "duckdb"

// ValidateDuckDBConfig performs basic sanity checks on snapshot settings.
func ValidateDuckDBConfig(cfg legacybridge.DuckDBConfig) error {
	if cfg.MemoryLimitMB < 0 {
		return fmt.Errorf("invalid duckdb.memoryLimitMB: must be >= 0")
	}
	if cfg.Threads < 0 {
		return fmt.Errorf("invalid duckdb.threads: must be >= 0")
	}
	return nil
}

// OpenDuckDB opens a DuckDB database holding exported legacy tables, so the
// adapter can be exercised against a snapshot instead of the live store.
func OpenDuckDB(ctx context.Context, cfg legacybridge.DuckDBConfig) (*sql.DB, error) {
	if err := ValidateDuckDBConfig(cfg); err != nil {
		return nil, err
	}

	dsn := cfg.Path
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open(DuckDBDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	// an in-memory database lives in a single connection
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	for _, ext := range cfg.Extensions {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("INSTALL %s;", ext)); err != nil {
			zap.S().Warnw("duckdb: install extension failed", "extension", ext, "err", err)
			continue
		}
		if _, err := db.ExecContext(ctx, fmt.Sprintf("LOAD %s;", ext)); err != nil {
			zap.S().Warnw("duckdb: load extension failed", "extension", ext, "err", err)
		}
	}

	if cfg.MemoryLimitMB > 0 {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA memory_limit='%dMB';", cfg.MemoryLimitMB)); err != nil {
			zap.S().Warnw("duckdb: set memory_limit failed", "err", err, "memoryLimitMB", cfg.MemoryLimitMB)
		}
	}
	if cfg.Threads > 0 {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA threads=%d;", cfg.Threads)); err != nil {
			zap.S().Warnw("duckdb: set threads failed", "err", err, "threads", cfg.Threads)
		}
	}

	zap.S().Debugw("duckdb snapshot opened", "path", dsn)
	return db, nil
}
