package staticdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Factory produces the value for a key when neither the cache nor a static
// artifact can. param is the reactive parameter value and key the derived
// "<keyBase>-<param>" key the result will be stored under. Factory errors
// propagate to the caller unmodified and are never retried.
type Factory[T any] func(ctx context.Context, param, key string) (T, error)

// BytesFactory is the untyped factory used by ResolveBytes and FetchBytes.
// It must return a JSON document.
type BytesFactory func(ctx context.Context, param, key string) ([]byte, error)

// Resolve runs the ordered attempt chain once for keyBase and param and
// returns the resolved value: cache first, then (on a client during a
// static build) the published "<key>.json" artifact, then the factory.
// Whatever produced the value, it ends up in the cache; during a server
// static build a factory result is additionally persisted through the
// artifact sink.
// @group Resolve
//
// Example: one-shot resolve
//
//	ctx := context.Background()
//	f := staticdata.New(staticdata.NewMemoryStore(ctx))
//	post, _ := staticdata.Resolve(ctx, f, "post", "42", loadPost)
//	fmt.Println(post.Title) // A
func Resolve[T any](ctx context.Context, f *Fetcher, keyBase, param string, factory Factory[T]) (T, error) {
	return resolveKey(ctx, f, Key(keyBase, param), param, factory)
}

// ResolveBytes is Resolve for raw JSON payloads.
// @group Resolve
func ResolveBytes(ctx context.Context, f *Fetcher, keyBase, param string, factory BytesFactory) ([]byte, error) {
	raw, err := Resolve(ctx, f, keyBase, param, factory.typed())
	return []byte(raw), err
}

func (bf BytesFactory) typed() Factory[json.RawMessage] {
	return func(ctx context.Context, param, key string) (json.RawMessage, error) {
		body, err := bf(ctx, param, key)
		return json.RawMessage(body), err
	}
}

// resolveKey collapses concurrent resolutions of the same key into one
// attempt-chain run; every waiter receives the shared outcome.
func resolveKey[T any](ctx context.Context, f *Fetcher, key, param string, factory Factory[T]) (T, error) {
	out, err, _ := f.group.Do(key, func() (any, error) {
		return resolveOnce(ctx, f, key, param, factory)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	v, ok := out.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("staticdata: key %q resolved concurrently as %T", key, out)
	}
	return v, nil
}

// resolveOnce is one pass over the ordered attempt list. Cache beats
// artifact, artifact beats factory, factory is the universal fallback.
func resolveOnce[T any](ctx context.Context, f *Fetcher, key, param string, factory Factory[T]) (T, error) {
	start := time.Now()
	v, err := runAttempts(ctx, f, key, param, factory)
	f.observe(ctx, OpResolve, key, err == nil, err, time.Since(start))
	return v, err
}

func runAttempts[T any](ctx context.Context, f *Fetcher, key, param string, factory Factory[T]) (T, error) {
	if v, ok := cacheLookup[T](ctx, f, key); ok {
		return v, nil
	}
	if f.runtime.IsClientRuntime() && f.runtime.IsStaticBuild() {
		if v, body, ok := artifactLookup[T](ctx, f, key); ok {
			f.cachePut(ctx, key, body)
			return v, nil
		}
	}
	return runFactory(ctx, f, key, param, factory)
}

// cacheLookup treats store errors and undecodable entries as absence so a
// degraded backend never blocks resolution; the factory result overwrites
// the bad entry on the way back.
func cacheLookup[T any](ctx context.Context, f *Fetcher, key string) (T, bool) {
	var zero T
	start := time.Now()
	body, ok, err := f.store.Get(ctx, key)
	f.observe(ctx, OpCacheGet, key, ok, err, time.Since(start))
	if err != nil {
		f.logger.Warn("staticdata: cache read failed", Field{Key: "key", Value: key}, Field{Key: "error", Value: err})
		return zero, false
	}
	if !ok {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		f.logger.Warn("staticdata: cache entry undecodable", Field{Key: "key", Value: key}, Field{Key: "error", Value: err})
		return zero, false
	}
	return v, true
}

// artifactLookup fetches "<key>.json". Any failure, non-2xx status or
// parse error included, reads as absence and falls through to the factory.
func artifactLookup[T any](ctx context.Context, f *Fetcher, key string) (T, []byte, bool) {
	var zero T
	start := time.Now()
	body, ok, err := f.artifactSource().Fetch(ctx, key)
	f.observe(ctx, OpArtifactFetch, key, ok, err, time.Since(start))
	if err != nil {
		f.logger.Debug("staticdata: artifact fetch failed", Field{Key: "key", Value: key}, Field{Key: "error", Value: err})
		return zero, nil, false
	}
	if !ok {
		return zero, nil, false
	}
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		f.logger.Debug("staticdata: artifact unparsable", Field{Key: "key", Value: key}, Field{Key: "error", Value: err})
		return zero, nil, false
	}
	return v, body, true
}

func runFactory[T any](ctx context.Context, f *Fetcher, key, param string, factory Factory[T]) (T, error) {
	start := time.Now()
	v, err := factory(ctx, param, key)
	f.observe(ctx, OpFactory, key, err == nil, err, time.Since(start))
	if err != nil {
		var zero T
		return zero, err
	}
	body, err := json.Marshal(v)
	if err != nil {
		f.logger.Warn("staticdata: factory result not serializable, skipping cache", Field{Key: "key", Value: key}, Field{Key: "error", Value: err})
		return v, nil
	}
	f.cachePut(ctx, key, body)
	if f.runtime.IsServerRuntime() && f.runtime.IsStaticBuild() {
		f.persist(ctx, key, body)
	}
	return v, nil
}

// cachePut stores a resolved payload. Write failures are logged and
// swallowed; the resolved value is already on its way to the caller.
func (f *Fetcher) cachePut(ctx context.Context, key string, body []byte) {
	start := time.Now()
	err := f.store.Set(ctx, key, body, f.defaultTTL)
	f.observe(ctx, OpCacheSet, key, err == nil, err, time.Since(start))
	if err != nil {
		f.logger.Warn("staticdata: cache write failed", Field{Key: "key", Value: key}, Field{Key: "error", Value: err})
	}
}

// persist writes the "<key>.json" artifact during a server static build.
// Failures are logged and swallowed; they never alter the resolved value.
func (f *Fetcher) persist(ctx context.Context, key string, body []byte) {
	start := time.Now()
	err := f.artifactSink().Write(ctx, key, body)
	f.observe(ctx, OpArtifactWrite, key, err == nil, err, time.Since(start))
	if err != nil {
		f.logger.Error("staticdata: artifact write failed", Field{Key: "key", Value: key}, Field{Key: "error", Value: err})
	}
}
