package staticdata

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/goforj/staticdata/staticcore"
)

// Fetcher is the static-aware fetch facade: it owns the cache store, the
// execution-context flags, and the artifact source/sink, and resolves
// values through the ordered attempt chain (cache, static artifact,
// factory) that Fetch and Resolve share.
type Fetcher struct {
	store      staticcore.Store
	runtime    staticcore.Runtime
	defaultTTL time.Duration
	observer   Observer
	logger     Logger

	source      staticcore.ArtifactSource
	sink        staticcore.ArtifactSink
	publicPath  string
	cdnBaseURL  string
	httpClient  HTTPClient
	artifactDir string

	group singleflight.Group
	queue prerenderQueue
}

// New creates a fetcher bound to a concrete store. A nil store gets an
// in-process memory store. The zero runtime is a live server render;
// use WithRuntime to describe the execution context.
// @group Fetcher
//
// Example: fetcher from store
//
//	ctx := context.Background()
//	store := staticdata.NewMemoryStore(ctx)
//	f := staticdata.New(store)
//	fmt.Println(f.Driver()) // memory
func New(store staticcore.Store) *Fetcher {
	return NewWithTTL(store, defaultStoreTTL)
}

// NewWithTTL lets callers override the TTL applied to cache writes.
// ttl <= 0 keeps entries for the lifetime of the store, the default for
// static data.
// @group Fetcher
//
// Example: fetcher with expiring cache entries
//
//	ctx := context.Background()
//	f := staticdata.NewWithTTL(staticdata.NewMemoryStore(ctx), 2*time.Minute)
//	fmt.Println(f.Driver(), f != nil) // memory true
func NewWithTTL(store staticcore.Store, ttl time.Duration) *Fetcher {
	if store == nil {
		store = NewMemoryStore(context.Background())
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Fetcher{
		store:      store,
		defaultTTL: ttl,
		logger:     NopLogger(),
	}
}

// WithRuntime sets the execution-context flags that select the resolution
// strategy. Configure before the first Fetch.
// @group Fetcher
//
// Example: client during a static build
//
//	f := staticdata.New(nil).WithRuntime(staticdata.ClientRuntime(true))
//	fmt.Println(f.Runtime().IsClientRuntime(), f.Runtime().IsStaticBuild()) // true true
func (f *Fetcher) WithRuntime(rt staticcore.Runtime) *Fetcher {
	f.runtime = rt
	return f
}

// WithObserver attaches an observer to receive operation events.
// @group Fetcher
func (f *Fetcher) WithObserver(o Observer) *Fetcher {
	f.observer = o
	return f
}

// WithLogger attaches a logger. Only swallowed failures (artifact writes,
// cache writes) and corrupt payloads are logged.
// @group Fetcher
func (f *Fetcher) WithLogger(l Logger) *Fetcher {
	if l == nil {
		l = NopLogger()
	}
	f.logger = l
	return f
}

// WithPublicPath sets the base path artifacts are fetched from on the
// client ("/" by default, so "post-42" resolves to "/post-42.json").
// @group Fetcher
func (f *Fetcher) WithPublicPath(p string) *Fetcher {
	f.publicPath = p
	return f
}

// WithCDNBaseURL overrides the public path with an absolute CDN base URL,
// mirroring a client config that routes artifact reads to a CDN.
// @group Fetcher
func (f *Fetcher) WithCDNBaseURL(u string) *Fetcher {
	f.cdnBaseURL = u
	return f
}

// WithHTTPClient sets the client used for artifact fetches. The default
// http.DefaultClient applies no timeout; cancel through ctx instead.
// @group Fetcher
func (f *Fetcher) WithHTTPClient(c HTTPClient) *Fetcher {
	f.httpClient = c
	return f
}

// WithArtifactDir sets the directory static-build artifacts are written
// to when no custom sink is configured.
// @group Fetcher
func (f *Fetcher) WithArtifactDir(dir string) *Fetcher {
	f.artifactDir = dir
	return f
}

// WithSource replaces the artifact source entirely, e.g. a DirSource over
// a previous build's output or a StoreSource over a shared backend.
// @group Fetcher
func (f *Fetcher) WithSource(src staticcore.ArtifactSource) *Fetcher {
	f.source = src
	return f
}

// WithSink replaces the artifact sink used during static builds.
// @group Fetcher
func (f *Fetcher) WithSink(sink staticcore.ArtifactSink) *Fetcher {
	f.sink = sink
	return f
}

// Store returns the underlying store implementation.
// @group Fetcher
//
// Example: access store
//
//	ctx := context.Background()
//	f := staticdata.New(staticdata.NewMemoryStore(ctx))
//	fmt.Println(f.Store().Driver()) // memory
func (f *Fetcher) Store() staticcore.Store {
	return f.store
}

// Driver reports the underlying store driver.
// @group Fetcher
func (f *Fetcher) Driver() staticcore.Driver {
	return f.store.Driver()
}

// Runtime returns the execution-context flags the fetcher resolves under.
// @group Fetcher
func (f *Fetcher) Runtime() staticcore.Runtime {
	return f.runtime
}

// Invalidate removes the cache entry derived from keyBase and param, so
// the next resolution goes back to the artifact or factory.
// @group Fetcher
//
// Example: drop one entry
//
//	ctx := context.Background()
//	f := staticdata.New(staticdata.NewMemoryStore(ctx))
//	fmt.Println(f.Invalidate("post", "42") == nil) // true
func (f *Fetcher) Invalidate(keyBase, param string) error {
	return f.InvalidateCtx(context.Background(), keyBase, param)
}

// InvalidateCtx is the context-aware variant of Invalidate.
// @group Fetcher
func (f *Fetcher) InvalidateCtx(ctx context.Context, keyBase, param string) error {
	return f.InvalidateKeyCtx(ctx, Key(keyBase, param))
}

// InvalidateKey removes the cache entry for an already-derived key.
// @group Fetcher
func (f *Fetcher) InvalidateKey(key string) error {
	return f.InvalidateKeyCtx(context.Background(), key)
}

// InvalidateKeyCtx is the context-aware variant of InvalidateKey.
// @group Fetcher
func (f *Fetcher) InvalidateKeyCtx(ctx context.Context, key string) error {
	start := time.Now()
	err := f.store.Delete(ctx, key)
	f.observe(ctx, OpCacheDelete, key, err == nil, err, time.Since(start))
	return err
}

// Flush clears the whole cache store.
// @group Fetcher
//
// Example: flush
//
//	ctx := context.Background()
//	f := staticdata.New(staticdata.NewMemoryStore(ctx))
//	fmt.Println(f.Flush() == nil) // true
func (f *Fetcher) Flush() error {
	return f.FlushCtx(context.Background())
}

// FlushCtx is the context-aware variant of Flush.
// @group Fetcher
func (f *Fetcher) FlushCtx(ctx context.Context) error {
	start := time.Now()
	err := f.store.Flush(ctx)
	f.observe(ctx, OpCacheFlush, "", err == nil, err, time.Since(start))
	return err
}

func (f *Fetcher) observe(ctx context.Context, op string, key string, hit bool, err error, dur time.Duration) {
	if f.observer == nil {
		return
	}
	f.observer.OnFetchOp(ctx, op, key, hit, err, dur, f.store.Driver())
}

// artifactSource returns the configured source, or an HTTP source over the
// CDN base URL (when set) or the public path.
func (f *Fetcher) artifactSource() staticcore.ArtifactSource {
	if f.source != nil {
		return f.source
	}
	base := f.publicPath
	if f.cdnBaseURL != "" {
		base = f.cdnBaseURL
	}
	return NewHTTPSource(base, f.httpClient)
}

func (f *Fetcher) artifactSink() staticcore.ArtifactSink {
	if f.sink != nil {
		return f.sink
	}
	return NewDirSink(f.artifactDir)
}
