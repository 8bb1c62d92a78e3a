package factory

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dsql/auth"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/legacybridge"
	"github.com/lychee-technology/legacybridge/internal"
	"go.uber.org/zap"
)

// CataloguePool is the part of a pgx pool needed to read a postgres://
// mapping catalogue.
type CataloguePool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Pool is the part of a pgx pool used by the legacy repository.
type Pool interface {
	CataloguePool
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// newS3Client is replaced in tests.
var newS3Client = func(ctx context.Context, cfg legacybridge.StorageConfig) (internal.S3ObjectGetter, error) {
	client, err := internal.NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// NewSchemaRegistryWithConfig loads the mapping named by config.Mapping.Source
// and builds an immutable registry from it. pool is only needed for
// postgres:// sources and may be nil otherwise.
func NewSchemaRegistryWithConfig(ctx context.Context, config *legacybridge.Config, pool CataloguePool) (legacybridge.SchemaRegistry, error) {
	if config == nil {
		config = legacybridge.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	source, err := mappingSource(ctx, config, pool)
	if err != nil {
		return nil, err
	}
	return internal.LoadSchemaRegistry(ctx, source, config.Mapping.LoadTimeout)
}

// NewAdapterWithConfig creates the translation adapter described by config.
// This is the primary way for callers to obtain an Adapter.
//
// Usage:
//
//	config := legacybridge.DefaultConfig()
//	config.Mapping.Source = "s3://config-bucket/mappings/fieldservice.yaml"
//	adapter, err := factory.NewAdapterWithConfig(ctx, config, nil)
//	if err != nil {
//	    // handle error
//	}
//	sql := adapter.PrepareQuery("users", "SELECT id, email FROM users")
func NewAdapterWithConfig(ctx context.Context, config *legacybridge.Config, pool CataloguePool) (legacybridge.Adapter, error) {
	if config == nil {
		config = legacybridge.DefaultConfig()
	}
	registry, err := NewSchemaRegistryWithConfig(ctx, config, pool)
	if err != nil {
		return nil, err
	}
	return internal.NewAdapter(registry, adapterOptions(config)), nil
}

// NewRepositoryWithConfig creates a Repository that executes translated
// queries on a pgx pool. The pool also serves postgres:// mapping sources.
func NewRepositoryWithConfig(ctx context.Context, config *legacybridge.Config, pool Pool) (legacybridge.Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool is required")
	}
	if config == nil {
		config = legacybridge.DefaultConfig()
	}
	adapter, err := NewAdapterWithConfig(ctx, config, pool)
	if err != nil {
		return nil, err
	}
	return internal.NewLegacyRepository(pool, adapter, config.Translation.UnmappedPolicy).
		WithCircuitBreaker(circuitBreaker(config.Database)), nil
}

// NewSQLRepositoryWithConfig creates a Repository over a database/sql handle,
// for example lib/pq or DuckDB. postgres:// mapping sources are not
// available on this path.
func NewSQLRepositoryWithConfig(ctx context.Context, config *legacybridge.Config, db *sql.DB, driver string) (legacybridge.Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if config == nil {
		config = legacybridge.DefaultConfig()
	}
	adapter, err := NewAdapterWithConfig(ctx, config, nil)
	if err != nil {
		return nil, err
	}
	return internal.NewSQLRepository(db, driver, adapter, config.Translation.UnmappedPolicy).
		WithCircuitBreaker(circuitBreaker(config.Database)), nil
}

// NewPostgresPool opens a pgx pool for the legacy database. With IAMAuth set,
// every new connection authenticates with a freshly generated DSQL token.
func NewPostgresPool(ctx context.Context, cfg legacybridge.DatabaseConfig) (*pgxpool.Pool, error) {
	if err := internal.ValidateDatabaseConfig(cfg); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(PostgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConnections)
	if cfg.MaxIdleConns > 0 && cfg.MaxIdleConns <= cfg.MaxConnections {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
	if cfg.Timeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.Timeout
	}

	if cfg.IAMAuth {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, legacybridge.NewConnectionError("load aws config", err)
		}
		endpoint := hostPort(cfg.Host, cfg.Port)
		poolCfg.BeforeConnect = func(ctx context.Context, connCfg *pgx.ConnConfig) error {
			token, err := auth.GenerateDbConnectAuthToken(ctx, endpoint, awsCfg.Region, awsCfg.Credentials)
			if err != nil {
				return legacybridge.NewConnectionError("generate dsql auth token", err)
			}
			connCfg.Password = token
			zap.S().Debugw("generated IAM auth token for legacy database", "endpoint", endpoint)
			return nil
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, legacybridge.NewConnectionError("open legacy database pool", err)
	}
	return pool, nil
}

// PostgresDSN renders cfg as a postgres:// URL. The password is omitted when
// IAM auth supplies it per connection.
func PostgresDSN(cfg legacybridge.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   hostPort(cfg.Host, cfg.Port),
		Path:   "/" + cfg.Database,
	}
	switch {
	case cfg.Username != "" && cfg.Password != "" && !cfg.IAMAuth:
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	case cfg.Username != "":
		u.User = url.User(cfg.Username)
	}

	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	if cfg.Timeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(cfg.Timeout/time.Second)))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func hostPort(host string, port int) string {
	return host + ":" + strconv.Itoa(port)
}

// circuitBreaker returns nil when the breaker is disabled.
func circuitBreaker(cfg legacybridge.DatabaseConfig) *internal.CircuitBreaker {
	return internal.NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerWindow, cfg.BreakerCooldown)
}

func adapterOptions(config *legacybridge.Config) internal.AdapterOptions {
	return internal.AdapterOptions{
		Translator: internal.TranslatorOptions{
			TableMatch:   config.Translation.TableMatch,
			FieldRewrite: config.Translation.FieldRewrite,
		},
		LogQueries: config.Logging.LogQueries,
	}
}

func mappingSource(ctx context.Context, config *legacybridge.Config, pool CataloguePool) (internal.MappingSource, error) {
	location, err := internal.ParseMappingSourceURI(config.Mapping.Source)
	if err != nil {
		return nil, err
	}

	switch location.Kind {
	case internal.SourceKindFile:
		return &internal.FileMappingSource{Path: location.Path}, nil
	case internal.SourceKindEmbedded:
		return &internal.EmbeddedMappingSource{Name: location.Path}, nil
	case internal.SourceKindS3:
		client, err := newS3Client(ctx, config.Storage)
		if err != nil {
			return nil, legacybridge.NewMappingSourceError(config.Mapping.Source, err)
		}
		return &internal.S3MappingSource{Client: client, Bucket: location.Bucket, Key: location.Path}, nil
	case internal.SourceKindCatalogue:
		if pool == nil {
			return nil, legacybridge.NewMappingSourceError(config.Mapping.Source,
				fmt.Errorf("catalogue source needs a database pool"))
		}
		return internal.NewCatalogueMappingSource(pool, location.Path), nil
	default:
		return nil, legacybridge.NewUnsupportedSourceError(config.Mapping.Source)
	}
}
