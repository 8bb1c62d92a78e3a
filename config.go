package legacybridge

import (
	"strings"
	"time"
)

// Config consolidates settings of the adapter, its mapping source and the
// data-access layer built on top of it.
type Config struct {
	Mapping     MappingConfig     `json:"mapping"`
	Translation TranslationConfig `json:"translation"`
	Database    DatabaseConfig    `json:"database"`
	Storage     StorageConfig     `json:"storage"`
	DuckDB      DuckDBConfig      `json:"duckdb"`
	Logging     LoggingConfig     `json:"logging"`
}

// MappingConfig selects where the mapping document is read from at startup.
type MappingConfig struct {
	// Source is a file path, file://path, embedded://name, s3://bucket/key
	// or postgres://<catalogue table>.
	Source string `json:"source"`
	// LoadTimeout bounds remote sources (S3, catalogue table).
	LoadTimeout time.Duration `json:"loadTimeout"`
}

// TableMatchMode controls how table names are found in query text.
type TableMatchMode string

const (
	// TableMatchLiteral replaces every substring occurrence, including inside
	// longer identifiers and string literals.
	TableMatchLiteral TableMatchMode = "literal"
	// TableMatchIdentifier replaces whole identifier tokens only.
	TableMatchIdentifier TableMatchMode = "identifier"
)

// FieldRewriteMode controls how successive field aliases interact.
type FieldRewriteMode string

const (
	// FieldRewriteSequential applies one pass per alias in configured order;
	// the output of an earlier pass can be matched by a later one.
	FieldRewriteSequential FieldRewriteMode = "sequential"
	// FieldRewriteSinglePass rewrites each original token at most once.
	FieldRewriteSinglePass FieldRewriteMode = "single_pass"
)

// UnmappedPolicy controls what the data-access layer does with tables that
// have no configuration. The adapter itself always falls back to identity.
type UnmappedPolicy string

const (
	UnmappedPolicyOpen   UnmappedPolicy = "open"
	UnmappedPolicyWarn   UnmappedPolicy = "warn"
	UnmappedPolicyStrict UnmappedPolicy = "strict"
)

// TranslationConfig contains query rewriting settings
type TranslationConfig struct {
	TableMatch     TableMatchMode   `json:"tableMatch"`
	FieldRewrite   FieldRewriteMode `json:"fieldRewrite"`
	UnmappedPolicy UnmappedPolicy   `json:"unmappedPolicy"`
}

// DatabaseConfig contains connection settings of the legacy store
type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Database        string        `json:"database"`
	Username        string        `json:"username"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"sslMode"`
	MaxConnections  int           `json:"maxConnections"`
	MaxIdleConns    int           `json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime"`
	ConnMaxIdleTime time.Duration `json:"connMaxIdleTime"`
	Timeout         time.Duration `json:"timeout"`
	// IAMAuth replaces Password with an AWS DSQL connect token.
	IAMAuth bool   `json:"iamAuth"`
	Region  string `json:"region"`
	// BreakerThreshold failures within BreakerWindow make repositories refuse
	// statements for BreakerCooldown. Zero disables the breaker.
	BreakerThreshold int           `json:"breakerThreshold"`
	BreakerWindow    time.Duration `json:"breakerWindow"`
	BreakerCooldown  time.Duration `json:"breakerCooldown"`
}

// StorageConfig contains object storage settings used by s3:// mapping sources
type StorageConfig struct {
	Region          string `json:"region"`
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	UsePathStyle    bool   `json:"usePathStyle"`
}

// DuckDBConfig configures DuckDB access to exported legacy snapshots
type DuckDBConfig struct {
	// Path of the database file; empty means in-memory.
	Path          string   `json:"path"`
	MemoryLimitMB int      `json:"memoryLimitMB"`
	Threads       int      `json:"threads"`
	Extensions    []string `json:"extensions"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	LogQueries bool   `json:"logQueries"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Mapping: MappingConfig{
			Source:      "embedded://fieldservice",
			LoadTimeout: 10 * time.Second,
		},
		Translation: TranslationConfig{
			TableMatch:     TableMatchLiteral,
			FieldRewrite:   FieldRewriteSequential,
			UnmappedPolicy: UnmappedPolicyOpen,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxConnections:  25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			Timeout:         30 * time.Second,

			BreakerThreshold: 5,
			BreakerWindow:    30 * time.Second,
			BreakerCooldown:  15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Mapping.Source) == "" {
		return &ConfigError{Field: "mapping.source", Message: "must not be empty"}
	}

	switch c.Translation.TableMatch {
	case TableMatchLiteral, TableMatchIdentifier:
	default:
		return &ConfigError{Field: "translation.tableMatch", Message: "must be one of literal, identifier"}
	}

	switch c.Translation.FieldRewrite {
	case FieldRewriteSequential, FieldRewriteSinglePass:
	default:
		return &ConfigError{Field: "translation.fieldRewrite", Message: "must be one of sequential, single_pass"}
	}

	switch c.Translation.UnmappedPolicy {
	case UnmappedPolicyOpen, UnmappedPolicyWarn, UnmappedPolicyStrict:
	default:
		return &ConfigError{Field: "translation.unmappedPolicy", Message: "must be one of open, warn, strict"}
	}

	if c.Database.MaxConnections <= 0 {
		return &ConfigError{Field: "database.maxConnections", Message: "must be greater than 0"}
	}

	if c.Database.BreakerThreshold < 0 {
		return &ConfigError{Field: "database.breakerThreshold", Message: "must be >= 0"}
	}

	if c.Database.BreakerThreshold > 0 && (c.Database.BreakerWindow <= 0 || c.Database.BreakerCooldown <= 0) {
		return &ConfigError{Field: "database.breakerWindow", Message: "window and cooldown must be positive when the breaker is enabled"}
	}

	if c.DuckDB.MemoryLimitMB < 0 {
		return &ConfigError{Field: "duckdb.memoryLimitMB", Message: "must be >= 0"}
	}

	if c.DuckDB.Threads < 0 {
		return &ConfigError{Field: "duckdb.threads", Message: "must be >= 0"}
	}

	if c.Database.IAMAuth && c.Database.Region == "" {
		return &ConfigError{Field: "database.region", Message: "is required when iamAuth is enabled"}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
