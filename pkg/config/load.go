package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied during validation.
const (
	DefaultMemoryTTLMinutes = 60
	DefaultCacheCapacity    = 10000
	DefaultCacheTTLMinutes  = 30
)

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from a byte slice.
func LoadFromBytes(data []byte) (*Config, error) {
	var config Config

	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvironmentOverrides(&config)

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns a configuration suitable for local development and tests:
// mock backends everywhere, default cache bounds.
func Default() *Config {
	cfg := &Config{}
	cfg.Memory.KV.Provider = "mock"
	cfg.Stores.Driver = "mock"
	_ = validateConfig(cfg)
	return cfg
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func applyEnvironmentOverrides(config *Config) {
	// Redis address override
	if addr := os.Getenv("CONVOCTX_REDIS_ADDR"); addr != "" {
		config.Memory.KV.Redis.Addr = addr
	}

	// Postgres connection string override, shared by the KV backend
	// and the message/order stores
	if dsn := os.Getenv("POSTGRES_URL"); dsn != "" {
		if config.Memory.KV.Postgres.DSN == "" {
			config.Memory.KV.Postgres.DSN = dsn
		}
		if strings.EqualFold(config.Stores.Driver, "postgres") && config.Stores.DSN == "" {
			config.Stores.DSN = dsn
		}
	}

	// Message/order store DSN override
	if dsn := os.Getenv("CONVOCTX_STORES_DSN"); dsn != "" {
		config.Stores.DSN = dsn
	}

	// Log level override
	if level := os.Getenv("CONVOCTX_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// validateConfig validates the configuration and applies defaults.
func validateConfig(config *Config) error {
	// Validate memory KV configuration
	switch strings.ToLower(config.Memory.KV.Provider) {
	case "mock", "":
		// In-memory provider needs no settings
	case "boltdb":
		if config.Memory.KV.BoltDB.Path == "" {
			config.Memory.KV.BoltDB.Path = "./data/convoctx.bolt.db"
		}
	case "redis":
		if config.Memory.KV.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for redis KV provider")
		}
	case "postgres":
		if config.Memory.KV.Postgres.DSN == "" {
			return fmt.Errorf("postgres DSN is required for postgres KV provider")
		}
		if config.Memory.KV.Postgres.TableName == "" {
			config.Memory.KV.Postgres.TableName = "conversation_memory"
		}
	default:
		return fmt.Errorf("unsupported KV provider: %s", config.Memory.KV.Provider)
	}

	if config.Memory.TTLMinutes <= 0 {
		config.Memory.TTLMinutes = DefaultMemoryTTLMinutes
	}

	// Validate store configuration
	switch strings.ToLower(config.Stores.Driver) {
	case "mock", "":
		// Fixture-backed stores need no settings
	case "sqlite":
		if config.Stores.DSN == "" {
			config.Stores.DSN = "./data/convoctx.db"
		}
	case "postgres":
		if config.Stores.DSN == "" {
			return fmt.Errorf("postgres DSN is required for postgres stores driver")
		}
	default:
		return fmt.Errorf("unsupported stores driver: %s", config.Stores.Driver)
	}

	// Apply cache defaults
	if config.Cache.Capacity <= 0 {
		config.Cache.Capacity = DefaultCacheCapacity
	}
	if config.Cache.TTLMinutes <= 0 {
		config.Cache.TTLMinutes = DefaultCacheTTLMinutes
	}

	return nil
}
