package staticdata

import (
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/goforj/staticdata/staticcore"
)

const (
	defaultStorePrefix = "static"
	defaultPublicPath  = "/"

	// Entries never expire unless a caller opts into TTLs; static
	// payloads are immutable for the lifetime of a build/session.
	defaultStoreTTL = time.Duration(0)

	defaultMemoryCleanupInterval = 10 * time.Minute
)

func defaultFileDir() string {
	return filepath.Join(os.TempDir(), "staticdata-store")
}

func defaultArtifactDir() string {
	return filepath.Join(os.TempDir(), "staticdata-artifacts")
}

// StoreConfig controls how a Store is constructed. The embedded
// BaseConfig carries the backend-agnostic knobs (TTL, prefix, payload
// shaping, encryption); the rest is driver wiring.
type StoreConfig struct {
	staticcore.BaseConfig

	Driver Driver

	// MemoryCleanupInterval controls in-process expired-entry sweeps.
	MemoryCleanupInterval time.Duration

	// FileDir controls where the file driver keeps its records.
	FileDir string

	// RedisClient is required when DriverRedis is used.
	RedisClient RedisClient

	// NATSKeyValue is required when DriverNATS is used. NATSBucketTTL
	// marks buckets created with their own TTL; values are then stored
	// raw instead of envelope-framed.
	NATSKeyValue  NATSKeyValue
	NATSBucketTTL bool

	// Dynamo settings; DynamoClient is required when DriverDynamo is
	// used unless DynamoEndpoint is set (then a local client is built).
	DynamoClient   DynamoAPI
	DynamoTable    string
	DynamoRegion   string
	DynamoEndpoint string

	// SQL settings; SQLDB is required when DriverSQL is used.
	SQLDB      *sql.DB
	SQLDialect SQLDialect
	SQLTable   string

	// MemcachedAddresses lists memcached hosts for DriverMemcached.
	MemcachedAddresses []string
}

func (c StoreConfig) withDefaults() StoreConfig {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	if c.DefaultTTL < 0 {
		c.DefaultTTL = defaultStoreTTL
	}
	if c.MemoryCleanupInterval <= 0 {
		c.MemoryCleanupInterval = defaultMemoryCleanupInterval
	}
	if c.Prefix == "" {
		c.Prefix = defaultStorePrefix
	}
	if c.FileDir == "" {
		c.FileDir = defaultFileDir()
	}
	if c.SQLTable == "" {
		c.SQLTable = defaultSQLTable
	}
	if c.DynamoTable == "" {
		c.DynamoTable = defaultDynamoTable
	}
	return c
}

// RuntimeFromEnv derives the execution-context flags from the process
// environment: STATICDATA_CLIENT and STATICDATA_STATIC_BUILD are parsed
// as booleans, absent or malformed values read as false.
func RuntimeFromEnv() Runtime {
	return Runtime{
		Client:      envBool("STATICDATA_CLIENT"),
		StaticBuild: envBool("STATICDATA_STATIC_BUILD"),
	}
}

func envBool(name string) bool {
	v, err := strconv.ParseBool(os.Getenv(name))
	return err == nil && v
}
