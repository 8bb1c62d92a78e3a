package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/lychee-technology/legacybridge"
)

// environment lists the variables the tools read. Unset variables keep the
// defaults of legacybridge.DefaultConfig.
type environment struct {
	Mapping        string        `env:"LEGACYBRIDGE_MAPPING"`
	MappingTimeout time.Duration `env:"LEGACYBRIDGE_MAPPING_TIMEOUT"`
	TableMatch     string        `env:"LEGACYBRIDGE_TABLE_MATCH"`
	FieldRewrite   string        `env:"LEGACYBRIDGE_FIELD_REWRITE"`
	UnmappedPolicy string        `env:"LEGACYBRIDGE_UNMAPPED_POLICY"`
	LogQueries     bool          `env:"LEGACYBRIDGE_LOG_QUERIES"`
	LogLevel       string        `env:"LOG_LEVEL"`
	LogFormat      string        `env:"LOG_FORMAT"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST"`
	DBPort      int    `env:"DB_PORT"`
	DBName      string `env:"DB_NAME"`
	DBUser      string `env:"DB_USER"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBSSLMode   string `env:"DB_SSL_MODE"`
	DBIAMAuth   bool   `env:"DB_IAM_AUTH"`

	AWSRegion       string `env:"AWS_REGION"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Endpoint      string `env:"S3_ENDPOINT"`
	S3UsePathStyle  bool   `env:"S3_USE_PATH_STYLE"`

	DuckDBPath        string   `env:"DUCKDB_PATH"`
	DuckDBMemoryLimit int      `env:"DUCKDB_MEMORY_LIMIT_MB"`
	DuckDBThreads     int      `env:"DUCKDB_THREADS"`
	DuckDBExtensions  []string `env:"DUCKDB_EXTENSIONS" envSeparator:","`
}

// loadConfig overlays the environment onto the default configuration.
// environ replaces the process environment when non-nil.
func loadConfig(environ map[string]string) (*legacybridge.Config, environment, error) {
	var vars environment
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&vars, opts); err != nil {
		return nil, vars, fmt.Errorf("parse env: %w", err)
	}

	config := legacybridge.DefaultConfig()
	setString(&config.Mapping.Source, vars.Mapping)
	if vars.MappingTimeout > 0 {
		config.Mapping.LoadTimeout = vars.MappingTimeout
	}
	if vars.TableMatch != "" {
		config.Translation.TableMatch = legacybridge.TableMatchMode(vars.TableMatch)
	}
	if vars.FieldRewrite != "" {
		config.Translation.FieldRewrite = legacybridge.FieldRewriteMode(vars.FieldRewrite)
	}
	if vars.UnmappedPolicy != "" {
		config.Translation.UnmappedPolicy = legacybridge.UnmappedPolicy(vars.UnmappedPolicy)
	}
	config.Logging.LogQueries = config.Logging.LogQueries || vars.LogQueries
	setString(&config.Logging.Level, vars.LogLevel)
	setString(&config.Logging.Format, vars.LogFormat)

	setString(&config.Database.Host, vars.DBHost)
	if vars.DBPort > 0 {
		config.Database.Port = vars.DBPort
	}
	setString(&config.Database.Database, vars.DBName)
	setString(&config.Database.Username, vars.DBUser)
	setString(&config.Database.Password, vars.DBPassword)
	setString(&config.Database.SSLMode, vars.DBSSLMode)
	config.Database.IAMAuth = config.Database.IAMAuth || vars.DBIAMAuth
	setString(&config.Database.Region, vars.AWSRegion)

	setString(&config.Storage.Region, vars.AWSRegion)
	setString(&config.Storage.AccessKeyID, vars.AccessKeyID)
	setString(&config.Storage.SecretAccessKey, vars.SecretAccessKey)
	setString(&config.Storage.Endpoint, vars.S3Endpoint)
	config.Storage.UsePathStyle = config.Storage.UsePathStyle || vars.S3UsePathStyle

	setString(&config.DuckDB.Path, vars.DuckDBPath)
	if vars.DuckDBMemoryLimit != 0 {
		config.DuckDB.MemoryLimitMB = vars.DuckDBMemoryLimit
	}
	if vars.DuckDBThreads != 0 {
		config.DuckDB.Threads = vars.DuckDBThreads
	}
	if len(vars.DuckDBExtensions) > 0 {
		config.DuckDB.Extensions = vars.DuckDBExtensions
	}
	return config, vars, nil
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
