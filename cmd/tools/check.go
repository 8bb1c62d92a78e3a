package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/lychee-technology/legacybridge"
	"github.com/lychee-technology/legacybridge/internal"
	"github.com/spf13/cobra"
)

type checkOptions struct {
	dsn          string
	bucket       string
	skipDatabase bool
	timeout      time.Duration
}

func (c *cli) newCheckCmd() *cobra.Command {
	opts := checkOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load the mapping and verify the legacy database and object storage",
		Long: `Loads the configured mapping, then pings the legacy database and reports legacy
tables named by the mapping that do not exist. The object storage bucket is checked
when --bucket is given or the mapping itself lives in S3.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.check(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.dsn, "dsn", "", "database connection string (default DATABASE_URL or DB_* settings)")
	flags.StringVar(&opts.bucket, "bucket", "", "object storage bucket to check")
	flags.BoolVar(&opts.skipDatabase, "skip-database", false, "do not contact the legacy database")
	flags.DurationVar(&opts.timeout, "timeout", 5*time.Second, "timeout of each check")
	return cmd
}

func (c *cli) check(ctx context.Context, out io.Writer, opts checkOptions) error {
	adapter, release, err := c.adapter(ctx)
	if err != nil {
		fmt.Fprintf(out, "mapping: failed: %v\n", err)
		return err
	}
	defer release()

	registry := adapter.Registry()
	fmt.Fprintf(out, "mapping: ok (%s, %d tables, %d findings)\n",
		c.config.Mapping.Source, len(registry.ListTables()), len(registry.Diagnostics()))

	failed := 0
	if !opts.skipDatabase {
		if err := internal.PostgresHealthCheck(ctx, c.dsn(opts.dsn), opts.timeout, registry); err != nil {
			failed++
			fmt.Fprintf(out, "database: failed: %v\n", err)
		} else {
			fmt.Fprintln(out, "database: ok")
		}
	}

	bucket := opts.bucket
	if bucket == "" {
		if location, err := internal.ParseMappingSourceURI(c.config.Mapping.Source); err == nil && location.Kind == internal.SourceKindS3 {
			bucket = location.Bucket
		}
	}
	if bucket != "" {
		if err := c.checkBucket(ctx, bucket, opts.timeout); err != nil {
			failed++
			fmt.Fprintf(out, "storage: failed: %v\n", err)
		} else {
			fmt.Fprintf(out, "storage: ok (%s)\n", bucket)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d checks failed", failed)
	}
	return nil
}

func (c *cli) checkBucket(ctx context.Context, bucket string, timeout time.Duration) error {
	client, err := internal.NewS3Client(ctx, c.config.Storage)
	if err != nil {
		return legacybridge.NewConnectionError("create s3 client", err)
	}
	return internal.S3HealthCheck(ctx, client, bucket, timeout)
}
