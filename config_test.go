package legacybridge

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	// Test mapping defaults
	if config.Mapping.Source != "embedded://fieldservice" {
		t.Errorf("Expected mapping source to be 'embedded://fieldservice', got %s", config.Mapping.Source)
	}
	if config.Mapping.LoadTimeout != 10*time.Second {
		t.Errorf("Expected load timeout to be 10s, got %v", config.Mapping.LoadTimeout)
	}

	// Test translation defaults
	if config.Translation.TableMatch != TableMatchLiteral {
		t.Errorf("Expected table match to be literal, got %s", config.Translation.TableMatch)
	}
	if config.Translation.FieldRewrite != FieldRewriteSequential {
		t.Errorf("Expected field rewrite to be sequential, got %s", config.Translation.FieldRewrite)
	}
	if config.Translation.UnmappedPolicy != UnmappedPolicyOpen {
		t.Errorf("Expected unmapped policy to be open, got %s", config.Translation.UnmappedPolicy)
	}

	// Test database defaults
	if config.Database.Host != "localhost" {
		t.Errorf("Expected database host to be 'localhost', got %s", config.Database.Host)
	}
	if config.Database.Port != 5432 {
		t.Errorf("Expected database port to be 5432, got %d", config.Database.Port)
	}
	if config.Database.MaxConnections != 25 {
		t.Errorf("Expected max connections to be 25, got %d", config.Database.MaxConnections)
	}

	if config.Logging.LogQueries {
		t.Error("Expected query logging to be disabled by default")
	}
}

func TestConfigValidationDetailed(t *testing.T) {
	withDefaults := func(mutate func(*Config)) *Config {
		c := DefaultConfig()
		mutate(c)
		return c
	}

	tests := []struct {
		name        string
		config      *Config
		expectError bool
		errorField  string
	}{
		{
			name:        "valid config",
			config:      DefaultConfig(),
			expectError: false,
		},
		{
			name:        "hardened translation",
			config:      withDefaults(func(c *Config) { c.Translation = TranslationConfig{TableMatch: TableMatchIdentifier, FieldRewrite: FieldRewriteSinglePass, UnmappedPolicy: UnmappedPolicyStrict} }),
			expectError: false,
		},
		{
			name:        "empty mapping source",
			config:      withDefaults(func(c *Config) { c.Mapping.Source = " " }),
			expectError: true,
			errorField:  "mapping.source",
		},
		{
			name:        "unknown table match",
			config:      withDefaults(func(c *Config) { c.Translation.TableMatch = "regex" }),
			expectError: true,
			errorField:  "translation.tableMatch",
		},
		{
			name:        "unknown field rewrite",
			config:      withDefaults(func(c *Config) { c.Translation.FieldRewrite = "" }),
			expectError: true,
			errorField:  "translation.fieldRewrite",
		},
		{
			name:        "unknown unmapped policy",
			config:      withDefaults(func(c *Config) { c.Translation.UnmappedPolicy = "closed" }),
			expectError: true,
			errorField:  "translation.unmappedPolicy",
		},
		{
			name:        "invalid max connections",
			config:      withDefaults(func(c *Config) { c.Database.MaxConnections = 0 }),
			expectError: true,
			errorField:  "database.maxConnections",
		},
		{
			name:        "breaker without window",
			config:      withDefaults(func(c *Config) { c.Database.BreakerWindow = 0 }),
			expectError: true,
			errorField:  "database.breakerWindow",
		},
		{
			name:        "breaker disabled",
			config:      withDefaults(func(c *Config) { c.Database.BreakerThreshold = 0; c.Database.BreakerWindow = 0 }),
			expectError: false,
		},
		{
			name:        "negative duckdb memory limit",
			config:      withDefaults(func(c *Config) { c.DuckDB.MemoryLimitMB = -1 }),
			expectError: true,
			errorField:  "duckdb.memoryLimitMB",
		},
		{
			name:        "negative duckdb threads",
			config:      withDefaults(func(c *Config) { c.DuckDB.Threads = -1 }),
			expectError: true,
			errorField:  "duckdb.threads",
		},
		{
			name:        "iam auth without region",
			config:      withDefaults(func(c *Config) { c.Database.IAMAuth = true }),
			expectError: true,
			errorField:  "database.region",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if !tt.expectError {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error for field %s, got nil", tt.errorField)
			}
			configErr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("Expected ConfigError, got %T", err)
			}
			if configErr.Field != tt.errorField {
				t.Errorf("Expected error field %s, got %s", tt.errorField, configErr.Field)
			}
		})
	}
}
