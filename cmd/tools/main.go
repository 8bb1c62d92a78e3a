package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lychee-technology/legacybridge"
	"github.com/lychee-technology/legacybridge/factory"
	"github.com/lychee-technology/legacybridge/internal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := newRootCmd(nil)
	err := root.Execute()
	_ = zap.L().Sync()
	if err != nil {
		os.Exit(1)
	}
}

// cli holds the state shared by every command: the resolved configuration
// and the values of the persistent flags.
type cli struct {
	// environ replaces the process environment when non-nil.
	environ map[string]string

	config      *legacybridge.Config
	databaseURL string

	mapping        string
	tableMatch     string
	fieldRewrite   string
	unmappedPolicy string
	logLevel       string
}

func newRootCmd(environ map[string]string) *cobra.Command {
	c := &cli{environ: environ}

	root := &cobra.Command{
		Use:          "legacybridge-tools",
		Short:        "Inspect and exercise legacy schema mappings",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.mapping, "mapping", "", "mapping source: path, file://, embedded://, s3://bucket/key or postgres://table")
	flags.StringVar(&c.tableMatch, "table-match", "", "table matching mode (literal, identifier)")
	flags.StringVar(&c.fieldRewrite, "field-rewrite", "", "field rewrite mode (sequential, single_pass)")
	flags.StringVar(&c.unmappedPolicy, "unmapped-policy", "", "unmapped table policy (open, warn, strict)")
	flags.StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		c.newTranslateCmd(),
		c.newProjectCmd(),
		c.newInspectCmd(),
		c.newValidateCmd(),
		c.newRunCmd(),
		c.newCheckCmd(),
		c.newInitCatalogueCmd(),
	)
	return root
}

// init resolves configuration from defaults, environment and flags, in that
// order, and installs the global logger.
func (c *cli) init() error {
	config, vars, err := loadConfig(c.environ)
	if err != nil {
		return err
	}
	c.databaseURL = vars.DatabaseURL

	if c.mapping != "" {
		config.Mapping.Source = c.mapping
	}
	if c.tableMatch != "" {
		config.Translation.TableMatch = legacybridge.TableMatchMode(c.tableMatch)
	}
	if c.fieldRewrite != "" {
		config.Translation.FieldRewrite = legacybridge.FieldRewriteMode(c.fieldRewrite)
	}
	if c.unmappedPolicy != "" {
		config.Translation.UnmappedPolicy = legacybridge.UnmappedPolicy(c.unmappedPolicy)
	}
	if c.logLevel != "" {
		config.Logging.Level = c.logLevel
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(config.Logging)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	c.config = config
	return nil
}

func newLogger(cfg legacybridge.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zcfg zap.Config
	if level == zapcore.DebugLevel {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.Format == "console" {
		zcfg.Encoding = "console"
	}
	return zcfg.Build()
}

// adapter builds the adapter for the configured mapping. Catalogue mappings
// open a short-lived pool that is released by the returned func.
func (c *cli) adapter(ctx context.Context) (legacybridge.Adapter, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(c.config.Mapping.Source, string(internal.SourceKindCatalogue)+"://") {
		adapter, err := factory.NewAdapterWithConfig(ctx, c.config, nil)
		return adapter, noop, err
	}

	pool, err := factory.NewPostgresPool(ctx, c.config.Database)
	if err != nil {
		return nil, noop, err
	}
	adapter, err := factory.NewAdapterWithConfig(ctx, c.config, pool)
	if err != nil {
		pool.Close()
		return nil, noop, err
	}
	return adapter, pool.Close, nil
}

// dsn picks the explicit value, then DATABASE_URL, then the configured host.
func (c *cli) dsn(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if c.databaseURL != "" {
		return c.databaseURL
	}
	return factory.PostgresDSN(c.config.Database)
}
