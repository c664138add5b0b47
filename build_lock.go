package staticdata

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

const defaultLockRetryInterval = 50 * time.Millisecond

// BuildLock coordinates concurrent static builds that share one store, so
// only one builder generates artifacts for a given scope at a time. It is
// a set-if-absent lease on the store.
//
// Caveat:
//   - Release does not perform owner-token validation. Do not assume
//     ownership safety after lock expiry.
//
// @group Locking
type BuildLock struct {
	f    *Fetcher
	key  string
	ttl  time.Duration
	held atomic.Bool
}

// NewBuildLock creates a reusable build lock named name, leased for ttl.
// @group Locking
//
// Example: build lock acquire/release
//
//	ctx := context.Background()
//	f := staticdata.New(staticdata.NewMemoryStore(ctx))
//	lock := f.NewBuildLock("site", 10*time.Second)
//	locked, err := lock.Acquire()
//	fmt.Println(err == nil, locked) // true true
//	if locked {
//		_ = lock.Release()
//	}
func (f *Fetcher) NewBuildLock(name string, ttl time.Duration) *BuildLock {
	return &BuildLock{
		f:   f,
		key: Key("build-lock", name),
		ttl: ttl,
	}
}

// Acquire attempts to acquire the lock once (non-blocking).
// @group Locking
func (l *BuildLock) Acquire() (bool, error) {
	return l.AcquireCtx(context.Background())
}

// AcquireCtx is the context-aware variant of Acquire.
// @group Locking
func (l *BuildLock) AcquireCtx(ctx context.Context) (bool, error) {
	start := time.Now()
	locked, err := l.f.store.Add(ctx, l.key, []byte("1"), l.ttl)
	l.f.observe(ctx, OpCacheAdd, l.key, locked, err, time.Since(start))
	if locked && err == nil {
		l.held.Store(true)
	}
	return locked, err
}

// Release frees the lock if this handle previously acquired it.
//
// It is safe to call multiple times; repeated calls become no-ops after the
// first successful release.
// @group Locking
func (l *BuildLock) Release() error {
	return l.ReleaseCtx(context.Background())
}

// ReleaseCtx is the context-aware variant of Release.
// @group Locking
func (l *BuildLock) ReleaseCtx(ctx context.Context) error {
	if !l.held.Load() {
		return nil
	}
	if err := l.f.InvalidateKeyCtx(ctx, l.key); err != nil {
		return err
	}
	l.held.Store(false)
	return nil
}

// Build acquires the lock once, runs fn if acquired, then releases
// automatically.
// @group Locking
//
// Example: guard one build pass
//
//	ctx := context.Background()
//	f := staticdata.New(staticdata.NewMemoryStore(ctx))
//	lock := f.NewBuildLock("site", 10*time.Second)
//	locked, err := lock.Build(func() error {
//		// generate artifacts
//		return nil
//	})
//	fmt.Println(err == nil, locked) // true true
func (l *BuildLock) Build(fn func() error) (bool, error) {
	return l.BuildCtx(context.Background(), func(context.Context) error {
		if fn == nil {
			return errors.New("staticdata: build lock requires a callback")
		}
		return fn()
	})
}

// BuildCtx is the context-aware variant of Build.
// @group Locking
func (l *BuildLock) BuildCtx(ctx context.Context, fn func(context.Context) error) (bool, error) {
	locked, err := l.AcquireCtx(ctx)
	if err != nil || !locked {
		return locked, err
	}
	defer func() { _ = l.ReleaseCtx(ctx) }()
	if fn == nil {
		return true, errors.New("staticdata: build lock requires a callback")
	}
	return true, fn(ctx)
}

// Block waits up to timeout to acquire the lock, runs fn if acquired, then
// releases. retryInterval <= 0 falls back to the default retry interval.
// @group Locking
//
// Example: wait for the lock, then auto-release
//
//	ctx := context.Background()
//	f := staticdata.New(staticdata.NewMemoryStore(ctx))
//	lock := f.NewBuildLock("site", 10*time.Second)
//	locked, err := lock.Block(500*time.Millisecond, 25*time.Millisecond, func() error {
//		// generate artifacts
//		return nil
//	})
//	fmt.Println(err == nil, locked) // true true
func (l *BuildLock) Block(timeout, retryInterval time.Duration, fn func() error) (bool, error) {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return l.BlockCtx(ctx, retryInterval, func(context.Context) error {
		if fn == nil {
			return errors.New("staticdata: build lock requires a callback")
		}
		return fn()
	})
}

// BlockCtx is the context-aware variant of Block.
// @group Locking
func (l *BuildLock) BlockCtx(ctx context.Context, retryInterval time.Duration, fn func(context.Context) error) (bool, error) {
	if retryInterval <= 0 {
		retryInterval = defaultLockRetryInterval
	}
	for {
		locked, err := l.AcquireCtx(ctx)
		if err != nil {
			return false, err
		}
		if locked {
			defer func() { _ = l.ReleaseCtx(ctx) }()
			if fn == nil {
				return true, errors.New("staticdata: build lock requires a callback")
			}
			return true, fn(ctx)
		}
		select {
		case <-ctx.Done():
			return false, nil
		case <-time.After(retryInterval):
		}
	}
}
