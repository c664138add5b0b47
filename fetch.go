package staticdata

import (
	"context"
	"encoding/json"
)

// FetchOption adjusts a single Fetch call.
type FetchOption[T any] func(*fetchConfig[T])

type fetchConfig[T any] struct {
	initial *T
}

// WithInitial seeds the handle and the cache with an already-known value
// before resolution starts, covering handles populated out of band (e.g.
// inline server-rendered state). The first resolution then finds the
// seeded entry in the cache.
func WithInitial[T any](v T) FetchOption[T] {
	return func(cfg *fetchConfig[T]) {
		cfg.initial = &v
	}
}

// Fetch returns a handle that is populated asynchronously for the key
// derived from keyBase and param. On a client runtime a watcher goroutine
// resolves immediately and again after every param change, serialized;
// on a server runtime a cache hit populates the handle synchronously and
// a miss queues a pre-render step executed by Prerender.
//
// param may be nil, which reads as the constant empty string.
// @group Fetch
//
// Example: reactive fetch
//
//	ctx := context.Background()
//	f := staticdata.New(staticdata.NewMemoryStore(ctx)).
//		WithRuntime(staticdata.ClientRuntime(false))
//	id := staticdata.NewParam("42")
//	h := staticdata.Fetch(ctx, f, "post", id, loadPost)
//	post, _ := h.Wait(ctx)
//	fmt.Println(h.Key(), post.Title) // post-42 A
func Fetch[T any](ctx context.Context, f *Fetcher, keyBase string, param *Param, factory Factory[T], opts ...FetchOption[T]) *Handle[T] {
	var cfg fetchConfig[T]
	for _, opt := range opts {
		opt(&cfg)
	}

	cur := ""
	if param != nil {
		cur = param.Get()
	}
	key := Key(keyBase, cur)
	h := newHandle[T](key)

	if cfg.initial != nil {
		seedHandle(ctx, f, h, key, *cfg.initial)
	}

	if f.runtime.IsClientRuntime() {
		go clientWatch(ctx, f, h, keyBase, param, factory)
		return h
	}

	if v, ok := cacheLookup[T](ctx, f, key); ok {
		h.commit(v, true, nil)
		return h
	}
	f.queue.push(prerenderStep{
		key: key,
		run: func(stepCtx context.Context) error {
			v, err := resolveKey(stepCtx, f, key, cur, factory)
			if err != nil {
				h.commit(v, false, err)
				return err
			}
			h.commit(v, true, nil)
			return nil
		},
	})
	return h
}

// FetchBytes is Fetch for raw JSON payloads.
// @group Fetch
func FetchBytes(ctx context.Context, f *Fetcher, keyBase string, param *Param, factory BytesFactory, opts ...FetchOption[json.RawMessage]) *Handle[json.RawMessage] {
	return Fetch(ctx, f, keyBase, param, factory.typed(), opts...)
}

// seedHandle writes an initial value into the handle and the cache under
// the current key. Marshal and store failures are logged and swallowed;
// resolution proceeds either way.
func seedHandle[T any](ctx context.Context, f *Fetcher, h *Handle[T], key string, v T) {
	h.commit(v, true, nil)
	body, err := json.Marshal(v)
	if err != nil {
		f.logger.Warn("staticdata: initial value not serializable, skipping cache", Field{Key: "key", Value: key}, Field{Key: "error", Value: err})
		return
	}
	f.cachePut(ctx, key, body)
}

// clientWatch serializes resolution for one handle: resolve the current
// key, commit, then wait for the param to change. A param change during a
// resolution is picked up on the next loop turn; the in-flight resolution
// still commits under its own key, so wasted work is possible but a
// wrong-key overwrite is not.
func clientWatch[T any](ctx context.Context, f *Fetcher, h *Handle[T], keyBase string, param *Param, factory Factory[T]) {
	for {
		var changed <-chan struct{}
		cur := ""
		if param != nil {
			changed = param.watch()
			cur = param.Get()
		}
		key := Key(keyBase, cur)
		h.setKey(key)

		v, err := resolveKey(ctx, f, key, cur, factory)
		h.commit(v, err == nil, err)

		if param == nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-changed:
			// Both channels may be ready; cancellation wins.
			if ctx.Err() != nil {
				return
			}
		}
	}
}
