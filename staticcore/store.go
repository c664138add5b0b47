package staticcore

import (
	"context"
	"time"
)

// Store is the shared payload cache contract. Values are opaque byte
// payloads (typically JSON documents keyed by "<keyBase>-<param>").
// A ttl <= 0 means the entry never expires.
type Store interface {
	Driver() Driver
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	DeleteMany(ctx context.Context, keys ...string) error
	Flush(ctx context.Context) error
}
