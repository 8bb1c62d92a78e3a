package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/lychee-technology/legacybridge"
	"github.com/lychee-technology/legacybridge/factory"
	"github.com/lychee-technology/legacybridge/internal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	driverPgx      = "pgx"
	driverPostgres = "postgres"
	driverDuckDB   = internal.DuckDBDriverName
)

type runOptions struct {
	driver string
	dsn    string
	table  string
	query  string
	args   []string
	exec   bool
	trace  bool
}

func (c *cli) newRunCmd() *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute an application query against the legacy store and print projected rows",
		Long: `Translates the query, executes it through a repository and prints the rows with
application field names. Drivers: pgx (pool, supports postgres:// mappings),
postgres (database/sql with lib/pq) and duckdb (local snapshot; --dsn is the file path).`,
		Example: `  legacybridge-tools run --table users --query "SELECT id, email FROM users WHERE id = $1" --arg 1
  legacybridge-tools run --driver duckdb --dsn snapshot.duckdb --table visits --query "SELECT * FROM visits"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.query == "" {
				return errors.New("--query is required")
			}
			if opts.trace {
				internal.RegisterTelemetryEmitter(logTelemetry)
				defer internal.RegisterTelemetryEmitter(nil)
			}

			ctx := cmd.Context()
			repo, release, err := c.repository(ctx, opts)
			if err != nil {
				return err
			}
			defer release()

			queryArgs := make([]any, len(opts.args))
			for i, a := range opts.args {
				queryArgs[i] = a
			}

			if opts.exec {
				affected, err := repo.Exec(ctx, opts.table, opts.query, queryArgs...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d rows affected\n", affected)
				return nil
			}

			rows, err := repo.Query(ctx, opts.table, opts.query, queryArgs...)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rows)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.driver, "driver", driverPgx, "pgx, postgres or duckdb")
	flags.StringVar(&opts.dsn, "dsn", "", "connection string, or DuckDB file (default DATABASE_URL or DB_* settings)")
	flags.StringVar(&opts.table, "table", "", "application table name")
	flags.StringVarP(&opts.query, "query", "q", "", "query text in application names")
	flags.StringArrayVar(&opts.args, "arg", nil, "positional query argument, passed as text (repeatable)")
	flags.BoolVar(&opts.exec, "exec", false, "execute a statement and print the affected row count")
	flags.BoolVar(&opts.trace, "trace", false, "log latency and row count measurements")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func (c *cli) repository(ctx context.Context, opts runOptions) (legacybridge.Repository, func(), error) {
	noop := func() {}
	switch opts.driver {
	case driverPgx:
		pool, err := c.pgxPool(ctx, opts.dsn)
		if err != nil {
			return nil, noop, err
		}
		repo, err := factory.NewRepositoryWithConfig(ctx, c.config, pool)
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		return repo, pool.Close, nil

	case driverPostgres:
		db, err := sql.Open(driverPostgres, c.dsn(opts.dsn))
		if err != nil {
			return nil, noop, legacybridge.NewConnectionError("open legacy database", err)
		}
		return c.sqlRepository(ctx, db, driverPostgres)

	case driverDuckDB:
		duck := c.config.DuckDB
		if opts.dsn != "" {
			duck.Path = opts.dsn
		}
		db, err := internal.OpenDuckDB(ctx, duck)
		if err != nil {
			return nil, noop, err
		}
		return c.sqlRepository(ctx, db, driverDuckDB)

	default:
		return nil, noop, fmt.Errorf("unknown driver %q: use pgx, postgres or duckdb", opts.driver)
	}
}

func (c *cli) sqlRepository(ctx context.Context, db *sql.DB, driver string) (legacybridge.Repository, func(), error) {
	repo, err := factory.NewSQLRepositoryWithConfig(ctx, c.config, db, driver)
	if err != nil {
		db.Close()
		return nil, func() {}, err
	}
	return repo, func() { db.Close() }, nil
}

// pgxPool uses the configured pool settings unless a connection string is
// given explicitly or through DATABASE_URL.
func (c *cli) pgxPool(ctx context.Context, explicit string) (*pgxpool.Pool, error) {
	if explicit == "" && c.databaseURL == "" {
		return factory.NewPostgresPool(ctx, c.config.Database)
	}
	pool, err := pgxpool.New(ctx, c.dsn(explicit))
	if err != nil {
		return nil, legacybridge.NewConnectionError("open legacy database pool", err)
	}
	return pool, nil
}

func logTelemetry(ctx context.Context, name string, labels map[string]string, value any) {
	zap.S().Infow("telemetry", "metric", name, "labels", labels, "value", value)
}
