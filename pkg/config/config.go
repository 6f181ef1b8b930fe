package config

// Config represents the top-level configuration for the ConvoCtx library.
type Config struct {
	// Memory configures persistence for conversation memory records
	Memory MemoryConfig `yaml:"memory"`

	// Stores configures the read-side message and order stores
	Stores StoresConfig `yaml:"stores"`

	// Cache configures the in-process conversation context cache
	Cache CacheConfig `yaml:"cache"`

	// Scripting configures the Lua rule-hook engine
	Scripting ScriptingConfig `yaml:"scripting"`

	// Logging configures the logging behavior
	Logging LoggingConfig `yaml:"logging"`
}

// MemoryConfig configures persistence for conversation memory records.
type MemoryConfig struct {
	// KV configures the key/value backend holding memory records
	KV KVConfig `yaml:"kv"`

	// TTLMinutes is how long a persisted memory record lives without
	// being refreshed by an update (0 uses the 60 minute default)
	TTLMinutes int `yaml:"ttl_minutes"`
}

// KVConfig configures the key/value memory backend.
type KVConfig struct {
	// Provider is the KV provider ("mock", "boltdb", "redis", "postgres")
	Provider string `yaml:"provider"`

	// BoltDB configures the embedded BoltDB backend
	BoltDB BoltDBConfig `yaml:"boltdb"`

	// Redis configures the Redis backend
	Redis RedisConfig `yaml:"redis"`

	// Postgres configures the PostgreSQL backend
	Postgres PostgresKVConfig `yaml:"postgres"`
}

// BoltDBConfig configures the embedded BoltDB backend.
type BoltDBConfig struct {
	// Path is the database file path
	Path string `yaml:"path"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	// Addr is the Redis server address
	Addr string `yaml:"addr"`

	// Password is the Redis password (optional)
	Password string `yaml:"password"`

	// DB is the Redis database number
	DB int `yaml:"db"`
}

// PostgresKVConfig configures the PostgreSQL KV backend.
type PostgresKVConfig struct {
	// DSN is the data source name (connection string)
	DSN string `yaml:"dsn"`

	// TableName overrides the default "conversation_memory" table
	TableName string `yaml:"table_name"`
}

// StoresConfig configures the read-side message and order stores.
type StoresConfig struct {
	// Driver selects the backend ("mock", "sqlite", "postgres")
	Driver string `yaml:"driver"`

	// DSN is the data source name (file path for sqlite,
	// connection string for postgres)
	DSN string `yaml:"dsn"`
}

// CacheConfig configures the in-process conversation context cache.
type CacheConfig struct {
	// Capacity is the maximum number of cached contexts (LRU beyond it)
	Capacity int `yaml:"capacity"`

	// TTLMinutes is how long an untouched context stays cached
	TTLMinutes int `yaml:"ttl_minutes"`
}

// ScriptingConfig configures the Lua rule-hook engine.
type ScriptingConfig struct {
	// Paths is a list of directories containing Lua scripts
	Paths []string `yaml:"paths"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level is the logging level ("debug", "info", "warn", "error")
	Level string `yaml:"level"`

	// Format is the output format ("text", "json")
	Format string `yaml:"format"`
}
