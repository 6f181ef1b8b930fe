package contextengine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	bolt "go.etcd.io/bbolt"

	"github.com/savdolab/convoctx/pkg/config"
	"github.com/savdolab/convoctx/pkg/intent"
	"github.com/savdolab/convoctx/pkg/kv"
	boltkv "github.com/savdolab/convoctx/pkg/kv/adapters/boltdb"
	mockkv "github.com/savdolab/convoctx/pkg/kv/adapters/mock"
	pgkv "github.com/savdolab/convoctx/pkg/kv/adapters/postgres"
	rediskv "github.com/savdolab/convoctx/pkg/kv/adapters/redis"
	"github.com/savdolab/convoctx/pkg/language"
	"github.com/savdolab/convoctx/pkg/log"
	"github.com/savdolab/convoctx/pkg/memory"
	"github.com/savdolab/convoctx/pkg/profile"
	"github.com/savdolab/convoctx/pkg/scripting"
	"github.com/savdolab/convoctx/pkg/store"
	mockstore "github.com/savdolab/convoctx/pkg/store/adapters/mock"
	pgstore "github.com/savdolab/convoctx/pkg/store/adapters/postgres"
	sqlitestore "github.com/savdolab/convoctx/pkg/store/adapters/sqlite"
)

// NewEngineFromConfig builds a fully wired engine from configuration: the KV
// memory backend, the message/order stores, the Lua rule hooks and the cache
// bounds all come from cfg. The returned cleanup function closes every
// backend the factory opened and is safe to call exactly once.
func NewEngineFromConfig(ctx context.Context, cfg *config.Config) (*Engine, func() error, error) {
	log.Setup(log.Config{
		Level:  log.Level(cfg.Logging.Level),
		Format: log.Format(cfg.Logging.Format),
	})

	var closers []func() error
	cleanup := func() error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
	fail := func(err error) (*Engine, func() error, error) {
		_ = cleanup()
		return nil, nil, err
	}

	kvStore, kvCloser, err := buildKVStore(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	if kvCloser != nil {
		closers = append(closers, kvCloser)
	}

	messages, orders, storeCloser, err := buildStores(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	if storeCloser != nil {
		closers = append(closers, storeCloser)
	}

	classifier, scriptCloser, err := buildClassifier(cfg)
	if err != nil {
		return fail(err)
	}
	if scriptCloser != nil {
		closers = append(closers, scriptCloser)
	}

	memories := memory.NewStore(kvStore, time.Duration(cfg.Memory.TTLMinutes)*time.Minute, nil)
	profiles := profile.NewBuilder(orders)
	detector := language.NewKeywordDetector()

	engine := NewEngine(messages, memories, profiles, detector, classifier, &Options{
		CacheCapacity: cfg.Cache.Capacity,
		CacheTTL:      time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
	})

	log.Info("Initialized context engine",
		"kv_provider", cfg.Memory.KV.Provider,
		"stores_driver", cfg.Stores.Driver,
		"cache_capacity", cfg.Cache.Capacity)

	return engine, cleanup, nil
}

func buildKVStore(ctx context.Context, cfg *config.Config) (kv.Store, func() error, error) {
	switch strings.ToLower(cfg.Memory.KV.Provider) {
	case "mock", "":
		return mockkv.NewMockStore(), nil, nil

	case "boltdb":
		db, err := bolt.Open(cfg.Memory.KV.BoltDB.Path, 0600, &bolt.Options{Timeout: time.Second})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open BoltDB at %s: %w", cfg.Memory.KV.BoltDB.Path, err)
		}
		boltStore := boltkv.NewBoltStore(db)
		if err := boltStore.Initialize(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return boltStore, db.Close, nil

	case "redis":
		redisStore, err := rediskv.NewRedisStore(ctx, rediskv.Config{
			Addr:     cfg.Memory.KV.Redis.Addr,
			Password: cfg.Memory.KV.Redis.Password,
			DB:       cfg.Memory.KV.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return redisStore, redisStore.Close, nil

	case "postgres":
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Memory.KV.Postgres.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to Postgres KV backend: %w", err)
		}
		pgStore := pgkv.NewPostgresStore(db).WithTableName(cfg.Memory.KV.Postgres.TableName)
		if err := pgStore.Initialize(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return pgStore, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported KV provider: %s", cfg.Memory.KV.Provider)
	}
}

func buildStores(ctx context.Context, cfg *config.Config) (store.MessageStore, store.OrderStore, func() error, error) {
	switch strings.ToLower(cfg.Stores.Driver) {
	case "mock", "":
		return mockstore.NewMessageStore(), mockstore.NewOrderStore(), nil, nil

	case "sqlite":
		stores, err := sqlitestore.Open(cfg.Stores.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return stores, stores, stores.Close, nil

	case "postgres":
		stores, err := pgstore.Connect(ctx, cfg.Stores.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		closer := func() error {
			stores.Close()
			return nil
		}
		return stores, stores, closer, nil

	default:
		return nil, nil, nil, fmt.Errorf("unsupported stores driver: %s", cfg.Stores.Driver)
	}
}

func buildClassifier(cfg *config.Config) (intent.Classifier, func() error, error) {
	fallback := intent.NewKeywordClassifier()
	if len(cfg.Scripting.Paths) == 0 {
		return fallback, nil, nil
	}

	luaEngine, err := scripting.NewLuaEngine(scripting.DefaultConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize Lua engine: %w", err)
	}
	for _, dir := range cfg.Scripting.Paths {
		if err := luaEngine.LoadScriptDir(dir); err != nil {
			_ = luaEngine.Close()
			return nil, nil, fmt.Errorf("failed to load scripts from %s: %w", dir, err)
		}
	}

	return intent.NewHookClassifier(luaEngine, fallback), luaEngine.Close, nil
}
