package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/legacybridge"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultCatalogueTable = "legacy_mappings"

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (c *cli) newInitCatalogueCmd() *cobra.Command {
	var (
		dsn   string
		table string
	)
	cmd := &cobra.Command{
		Use:   "init-catalogue",
		Short: "Create a mapping catalogue table and fill it from the configured mapping",
		Long: `Creates the catalogue table read by postgres:// mapping sources and replaces its
content with the aliases of the mapping selected by --mapping.`,
		Example: `  legacybridge-tools init-catalogue --mapping mappings/fieldservice.yaml --catalogue-table legacy_mappings`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			adapter, release, err := c.adapter(ctx)
			if err != nil {
				return err
			}
			defer release()

			pool, err := pgxpool.New(ctx, c.dsn(dsn))
			if err != nil {
				return fmt.Errorf("create connection pool: %w", err)
			}
			defer pool.Close()

			var written int
			err = withTx(ctx, pool, func(tx pgx.Tx) error {
				if err := ensureCatalogue(ctx, tx, table); err != nil {
					return err
				}
				written, err = writeCatalogue(ctx, tx, table, adapter.Registry())
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d catalogue rows to %s\n", written, table)
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "database connection string (default DATABASE_URL or DB_* settings)")
	cmd.Flags().StringVar(&table, "catalogue-table", defaultCatalogueTable, "catalogue table name")
	return cmd
}

func ensureCatalogue(ctx context.Context, tx execer, table string) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		app_table    TEXT NOT NULL,
		legacy_table TEXT,
		app_field    TEXT,
		legacy_field TEXT,
		position     INTEGER NOT NULL DEFAULT 0
	)`, quoteIdentifier(table))

	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure catalogue table: %w", err)
	}
	return nil
}

// writeCatalogue replaces the catalogue content with one row per field alias,
// or a single alias-only row for tables without fields.
func writeCatalogue(ctx context.Context, tx execer, table string, registry legacybridge.SchemaRegistry) (int, error) {
	quoted := quoteIdentifier(table)
	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, quoted)); err != nil {
		return 0, fmt.Errorf("clear catalogue: %w", err)
	}

	insertSQL := fmt.Sprintf(
		`INSERT INTO %s (app_table, legacy_table, app_field, legacy_field, position) VALUES ($1, $2, $3, $4, $5)`,
		quoted,
	)

	written := 0
	for _, appTable := range registry.ListTables() {
		var legacyTable *string
		if legacy, ok := registry.TableAlias(appTable); ok {
			legacyTable = &legacy
		}

		fields := registry.FieldMap(appTable).Entries()
		if len(fields) == 0 {
			if _, err := tx.Exec(ctx, insertSQL, appTable, legacyTable, nil, nil, 0); err != nil {
				return written, fmt.Errorf("insert alias of %s: %w", appTable, err)
			}
			written++
			continue
		}
		for i, field := range fields {
			if _, err := tx.Exec(ctx, insertSQL, appTable, legacyTable, field.Application, field.Legacy, i+1); err != nil {
				return written, fmt.Errorf("insert field %s.%s: %w", appTable, field.Application, err)
			}
			written++
		}
	}

	zap.S().Infow("mapping catalogue written", "table", table, "rows", written)
	return written, nil
}

func withTx(ctx context.Context, db txBeginner, fn func(pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w; rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

func quoteIdentifier(name string) string {
	return pgx.Identifier(splitIdentifier(name)).Sanitize()
}

func splitIdentifier(name string) []string {
	parts := strings.Split(name, ".")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return []string{name}
	}
	return result
}
