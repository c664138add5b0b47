package staticcore

import "time"

// BaseConfig contains shared, backend-agnostic driver configuration.
type BaseConfig struct {
	// DefaultTTL applies when a call provides ttl <= 0. Zero keeps
	// entries forever, matching the no-eviction default of the
	// resolution layer.
	DefaultTTL time.Duration

	// Prefix namespaces keys on shared backends (redis, sql, ...).
	Prefix string

	Compression   CompressionCodec
	MaxValueBytes int
	EncryptionKey []byte
}
