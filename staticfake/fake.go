package staticfake

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goforj/staticdata"
	"github.com/goforj/staticdata/staticcore"
)

// Op identifies an operation for assertions.
type Op string

const (
	OpGet        Op = "get"
	OpSet        Op = "set"
	OpAdd        Op = "add"
	OpDelete     Op = "delete"
	OpDeleteMany Op = "delete_many"
	OpFlush      Op = "flush"
	OpFetch      Op = "artifact_fetch"
	OpWrite      Op = "artifact_write"
	OpFactory    Op = "factory"
)

// Fake exposes a deterministic in-memory fetcher plus assertion helpers for
// tests: every store touch, artifact fetch, artifact write and wrapped
// factory call is counted per key. No external services are needed.
type Fake struct {
	fetcher *staticdata.Fetcher

	mu        sync.Mutex
	counts    map[Op]map[string]int
	artifacts map[string][]byte
	fetchErr  error
	writeErr  error
}

// New creates a Fake resolving under the given runtime flags.
func New(rt staticdata.Runtime) *Fake {
	f := &Fake{
		counts:    make(map[Op]map[string]int),
		artifacts: make(map[string][]byte),
	}
	store := &countingStore{inner: staticdata.NewMemoryStore(context.Background()), onCount: f.record}
	f.fetcher = staticdata.New(store).
		WithRuntime(rt).
		WithSource(&fakeSource{f: f}).
		WithSink(&fakeSink{f: f})
	return f
}

// Fetcher returns the fetcher to inject into code under test.
func (f *Fake) Fetcher() *staticdata.Fetcher { return f.fetcher }

// SeedArtifact makes the artifact source serve body for key, as if a
// previous static build had published "<key>.json".
func (f *Fake) SeedArtifact(key string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artifacts[key] = append([]byte(nil), body...)
}

// Artifact returns what the sink wrote for key, if anything.
func (f *Fake) Artifact(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.artifacts[key]
	return body, ok
}

// FailFetches makes the artifact source fail with err (nil restores it).
func (f *Fake) FailFetches(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchErr = err
}

// FailWrites makes the artifact sink fail with err (nil restores it), for
// asserting that write failures are swallowed.
func (f *Fake) FailWrites(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeErr = err
}

// Reset clears recorded counts and artifacts.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = make(map[Op]map[string]int)
	f.artifacts = make(map[string][]byte)
}

// AssertCalled verifies key was touched by op the expected number of times.
func (f *Fake) AssertCalled(t *testing.T, op Op, key string, times int) {
	t.Helper()
	if got := f.Count(op, key); got != times {
		t.Fatalf("expected %s %q called %d times, got %d", op, key, times, got)
	}
}

// AssertNotCalled ensures key was never touched by op.
func (f *Fake) AssertNotCalled(t *testing.T, op Op, key string) {
	t.Helper()
	if got := f.Count(op, key); got != 0 {
		t.Fatalf("expected %s %q not called, got %d", op, key, got)
	}
}

// AssertTotal ensures the total call count for an op matches times.
func (f *Fake) AssertTotal(t *testing.T, op Op, times int) {
	t.Helper()
	if got := f.Total(op); got != times {
		t.Fatalf("expected %s total=%d, got %d", op, times, got)
	}
}

// Count returns calls for op+key.
func (f *Fake) Count(op Op, key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts[op] == nil {
		return 0
	}
	return f.counts[op][key]
}

// Total returns total calls for an op across keys.
func (f *Fake) Total(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int
	for _, v := range f.counts[op] {
		sum += v
	}
	return sum
}

// WrapFactory counts invocations of a typed factory under OpFactory.
func WrapFactory[T any](f *Fake, fn staticdata.Factory[T]) staticdata.Factory[T] {
	return func(ctx context.Context, param, key string) (T, error) {
		f.record(OpFactory, key)
		return fn(ctx, param, key)
	}
}

// WrapBytesFactory counts invocations of an untyped factory under OpFactory.
func (f *Fake) WrapBytesFactory(fn staticdata.BytesFactory) staticdata.BytesFactory {
	return func(ctx context.Context, param, key string) ([]byte, error) {
		f.record(OpFactory, key)
		return fn(ctx, param, key)
	}
}

func (f *Fake) record(op Op, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts[op] == nil {
		f.counts[op] = make(map[string]int)
	}
	f.counts[op][key]++
}

type fakeSource struct {
	f *Fake
}

func (s *fakeSource) Fetch(_ context.Context, key string) ([]byte, bool, error) {
	s.f.record(OpFetch, key)
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if s.f.fetchErr != nil {
		return nil, false, s.f.fetchErr
	}
	body, ok := s.f.artifacts[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), body...), true, nil
}

type fakeSink struct {
	f *Fake
}

func (s *fakeSink) Write(_ context.Context, key string, data []byte) error {
	s.f.record(OpWrite, key)
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if s.f.writeErr != nil {
		return s.f.writeErr
	}
	s.f.artifacts[key] = append([]byte(nil), data...)
	return nil
}

// countingStore wraps a Store to record calls.
type countingStore struct {
	inner   staticcore.Store
	onCount func(Op, string)
}

func (s *countingStore) Driver() staticcore.Driver { return s.inner.Driver() }

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.bump(OpGet, key)
	return s.inner.Get(ctx, key)
}

func (s *countingStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	s.bump(OpSet, key)
	return s.inner.Set(ctx, key, val, ttl)
}

func (s *countingStore) Add(ctx context.Context, key string, val []byte, ttl time.Duration) (bool, error) {
	s.bump(OpAdd, key)
	return s.inner.Add(ctx, key, val, ttl)
}

func (s *countingStore) Delete(ctx context.Context, key string) error {
	s.bump(OpDelete, key)
	return s.inner.Delete(ctx, key)
}

func (s *countingStore) DeleteMany(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		s.bump(OpDeleteMany, k)
	}
	return s.inner.DeleteMany(ctx, keys...)
}

func (s *countingStore) Flush(ctx context.Context) error {
	s.bump(OpFlush, "")
	return s.inner.Flush(ctx)
}

func (s *countingStore) bump(op Op, key string) {
	if s.onCount != nil {
		s.onCount(op, key)
	}
}
