package staticdata

import (
	"context"
	"time"

	"github.com/goforj/staticdata/staticcore"
)

// CoreAPI exposes fetcher metadata.
type CoreAPI interface {
	Driver() staticcore.Driver
	Store() staticcore.Store
	Runtime() staticcore.Runtime
}

// ConfigAPI exposes the fluent configuration surface.
type ConfigAPI interface {
	WithRuntime(rt staticcore.Runtime) *Fetcher
	WithObserver(o Observer) *Fetcher
	WithLogger(l Logger) *Fetcher
	WithPublicPath(p string) *Fetcher
	WithCDNBaseURL(u string) *Fetcher
	WithHTTPClient(c HTTPClient) *Fetcher
	WithArtifactDir(dir string) *Fetcher
	WithSource(src staticcore.ArtifactSource) *Fetcher
	WithSink(sink staticcore.ArtifactSink) *Fetcher
}

// InvalidateAPI exposes cache invalidation operations.
type InvalidateAPI interface {
	Invalidate(keyBase, param string) error
	InvalidateCtx(ctx context.Context, keyBase, param string) error
	InvalidateKey(key string) error
	InvalidateKeyCtx(ctx context.Context, key string) error
	Flush() error
	FlushCtx(ctx context.Context) error
}

// PrerenderAPI exposes the server-side resolution queue.
type PrerenderAPI interface {
	Prerender(ctx context.Context) error
	PendingPrerenders() int
}

// ViewAPI exposes keyBase-bound views and build coordination.
type ViewAPI interface {
	Collection(keyBase string) *Collection
	NewBuildLock(name string, ttl time.Duration) *BuildLock
}

// FetcherAPI is the composed application-facing interface for Fetcher.
// The generic entry points (Fetch, Resolve, and friends) are free
// functions and sit outside it.
type FetcherAPI interface {
	CoreAPI
	ConfigAPI
	InvalidateAPI
	PrerenderAPI
	ViewAPI
}

var _ FetcherAPI = (*Fetcher)(nil)
