package staticdata

import (
	"context"
	"database/sql"

	"github.com/goforj/staticdata/staticcore"
)

// NewStore returns a concrete store for the requested driver, wrapped in
// the shaping and encryption layers the config asks for. Construction
// failures yield a placeholder store that keeps the driver identity and
// returns the failure from every call.
// @group Constructors
//
// Example: select driver explicitly
//
//	ctx := context.Background()
//	store := staticdata.NewStore(ctx, staticdata.StoreConfig{
//		Driver: staticdata.DriverMemory,
//	})
//	fmt.Println(store.Driver()) // memory
func NewStore(ctx context.Context, cfg StoreConfig) staticcore.Store {
	cfg = cfg.withDefaults()
	base := newBaseStore(ctx, cfg)
	store := newShapingStore(base, cfg.Compression, cfg.MaxValueBytes)
	store, err := newEncryptingStore(store, cfg.EncryptionKey)
	if err != nil {
		return &errorStore{driver: base.Driver(), err: err}
	}
	return store
}

func newBaseStore(ctx context.Context, cfg StoreConfig) staticcore.Store {
	switch cfg.Driver {
	case DriverRedis:
		return newRedisStore(cfg.RedisClient, cfg.DefaultTTL, cfg.Prefix)
	case DriverNATS:
		return newNATSStore(cfg.NATSKeyValue, cfg.DefaultTTL, cfg.Prefix, cfg.NATSBucketTTL)
	case DriverDynamo:
		store, err := newDynamoStore(ctx, cfg)
		if err != nil {
			return &errorStore{driver: DriverDynamo, err: err}
		}
		return store
	case DriverSQL:
		store, err := newSQLStore(cfg)
		if err != nil {
			return &errorStore{driver: DriverSQL, err: err}
		}
		return store
	case DriverMemcached:
		return newMemcachedStore(cfg.MemcachedAddresses, cfg.DefaultTTL, cfg.Prefix)
	case DriverFile:
		return newFileStore(cfg.FileDir, cfg.DefaultTTL)
	case DriverNull:
		return newNullStore()
	default:
		return newMemoryStore(cfg.DefaultTTL, cfg.MemoryCleanupInterval)
	}
}

// NewStoreWith builds a store using a driver and a set of functional options.
// Required data (e.g., Redis client) must be provided via options when needed.
// @group Constructors
//
// Example: memory store (options)
//
//	ctx := context.Background()
//	store := staticdata.NewStoreWith(ctx, staticdata.DriverMemory)
//	fmt.Println(store.Driver()) // memory
//
// Example: redis store (options)
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
//	store = staticdata.NewStoreWith(ctx, staticdata.DriverRedis,
//		staticdata.WithRedisClient(redisClient),
//		staticdata.WithPrefix("app"),
//		staticdata.WithDefaultTTL(5*time.Minute),
//	)
//	fmt.Println(store.Driver()) // redis
func NewStoreWith(ctx context.Context, driver staticcore.Driver, opts ...StoreOption) staticcore.Store {
	cfg := StoreConfig{Driver: driver}
	for _, opt := range opts {
		cfg = opt(cfg)
	}
	return NewStore(ctx, cfg)
}

// NewMemoryStore is a convenience for an in-process store with optional overrides.
// @group Constructors
//
// Example: memory helper
//
//	ctx := context.Background()
//	store := staticdata.NewMemoryStore(ctx)
//	fmt.Println(store.Driver()) // memory
func NewMemoryStore(ctx context.Context, opts ...StoreOption) staticcore.Store {
	return NewStoreWith(ctx, DriverMemory, opts...)
}

// NewFileStore is a convenience for a filesystem-backed store.
// @group Constructors
//
// Example: file helper
//
//	ctx := context.Background()
//	store := staticdata.NewFileStore(ctx, "/tmp/my-static-cache")
//	fmt.Println(store.Driver()) // file
func NewFileStore(ctx context.Context, dir string, opts ...StoreOption) staticcore.Store {
	return NewStoreWith(ctx, DriverFile, append([]StoreOption{WithFileDir(dir)}, opts...)...)
}

// NewRedisStore is a convenience for a redis-backed store. Redis client is required.
// @group Constructors
//
// Example: redis helper
//
//	ctx := context.Background()
//	redisClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
//	store := staticdata.NewRedisStore(ctx, redisClient, staticdata.WithPrefix("app"))
//	fmt.Println(store.Driver()) // redis
func NewRedisStore(ctx context.Context, client RedisClient, opts ...StoreOption) staticcore.Store {
	return NewStoreWith(ctx, DriverRedis, append([]StoreOption{WithRedisClient(client)}, opts...)...)
}

// NewNATSStore is a convenience for a JetStream KV-backed store. The bucket
// is required.
// @group Constructors
//
// Example: nats helper
//
//	ctx := context.Background()
//	// kv comes from nats.JetStream().KeyValue("static")
//	store := staticdata.NewNATSStore(ctx, kv, staticdata.WithPrefix("app"))
//	fmt.Println(store.Driver()) // nats
func NewNATSStore(ctx context.Context, kv NATSKeyValue, opts ...StoreOption) staticcore.Store {
	return NewStoreWith(ctx, DriverNATS, append([]StoreOption{WithNATSKeyValue(kv)}, opts...)...)
}

// NewDynamoStore is a convenience for a DynamoDB-backed store. Provide a
// client with WithDynamoClient, or WithDynamoEndpoint for local stacks.
// @group Constructors
//
// Example: dynamodb helper (local endpoint)
//
//	ctx := context.Background()
//	store := staticdata.NewDynamoStore(ctx,
//		staticdata.WithDynamoEndpoint("http://127.0.0.1:8000"),
//		staticdata.WithDynamoTable("static_payloads"),
//	)
//	fmt.Println(store.Driver()) // dynamodb
func NewDynamoStore(ctx context.Context, opts ...StoreOption) staticcore.Store {
	return NewStoreWith(ctx, DriverDynamo, opts...)
}

// NewSQLStore is a convenience for a database/sql-backed store.
// @group Constructors
//
// Example: sql helper
//
//	ctx := context.Background()
//	db, _ := sql.Open("sqlite", "file:static.db")
//	store := staticdata.NewSQLStore(ctx, db, staticdata.DialectSQLite)
//	fmt.Println(store.Driver()) // sql
func NewSQLStore(ctx context.Context, db *sql.DB, dialect SQLDialect, opts ...StoreOption) staticcore.Store {
	return NewStoreWith(ctx, DriverSQL, append([]StoreOption{WithSQL(db, dialect)}, opts...)...)
}

// NewMemcachedStore is a convenience for a memcached-backed store.
// @group Constructors
//
// Example: memcached helper
//
//	ctx := context.Background()
//	store := staticdata.NewMemcachedStore(ctx, []string{"127.0.0.1:11211"})
//	fmt.Println(store.Driver()) // memcached
func NewMemcachedStore(ctx context.Context, addrs []string, opts ...StoreOption) staticcore.Store {
	return NewStoreWith(ctx, DriverMemcached, append([]StoreOption{WithMemcachedAddresses(addrs...)}, opts...)...)
}

// NewNullStore is a convenience for a store that drops everything.
// @group Constructors
//
// Example: null helper
//
//	ctx := context.Background()
//	store := staticdata.NewNullStore(ctx)
//	fmt.Println(store.Driver()) // null
func NewNullStore(ctx context.Context, opts ...StoreOption) staticcore.Store {
	return NewStoreWith(ctx, DriverNull, opts...)
}
