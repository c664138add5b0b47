package staticdata

import (
	"context"
	"time"

	"github.com/goforj/staticdata/staticcore"
)

// Observer receives events for fetch, store and artifact operations.
// It is called after each operation completes. Op values are the Op*
// constants below; hit reports cache hits, successful artifact fetches
// and successful factory runs.
type Observer interface {
	OnFetchOp(ctx context.Context, op string, key string, hit bool, err error, dur time.Duration, driver staticcore.Driver)
}

// Operation names reported to observers.
const (
	OpResolve       = "resolve"
	OpCacheGet      = "cache.get"
	OpCacheSet      = "cache.set"
	OpCacheAdd      = "cache.add"
	OpCacheDelete   = "cache.delete"
	OpCacheFlush    = "cache.flush"
	OpArtifactFetch = "artifact.fetch"
	OpArtifactWrite = "artifact.write"
	OpFactory       = "factory"
	OpPrerender     = "prerender"
)

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, op string, key string, hit bool, err error, dur time.Duration, driver staticcore.Driver)

// OnFetchOp implements Observer.
func (f ObserverFunc) OnFetchOp(ctx context.Context, op string, key string, hit bool, err error, dur time.Duration, driver staticcore.Driver) {
	if f == nil {
		return
	}
	f(ctx, op, key, hit, err, dur, driver)
}
