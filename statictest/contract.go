package statictest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/goforj/staticdata/staticcore"
)

// Options configures shared store contract checks.
type Options struct {
	// CaseName is used to namespace keys. Defaults to t.Name().
	CaseName string
	// NullSemantics enables relaxed expectations for the null store.
	NullSemantics bool
	// SkipCloneCheck disables the "get returns a cloned value" assertion.
	SkipCloneCheck bool
	// TTL controls the expiry duration used in TTL tests.
	TTL time.Duration
	// TTLWait is how long the harness waits for expiry to occur.
	TTLWait time.Duration
	// SkipFlush disables the flush assertion for drivers where it is expensive or unavailable.
	SkipFlush bool
}

// Store is the minimal contract required by RunStoreContract.
type Store = staticcore.Store

// RunStoreContract runs a backend-agnostic store contract suite.
func RunStoreContract(t *testing.T, store Store, opts Options) {
	t.Helper()

	caseName := opts.CaseName
	if caseName == "" {
		caseName = t.Name()
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 50 * time.Millisecond
	}
	wait := opts.TTLWait
	if wait <= 0 {
		wait = 120 * time.Millisecond
	}

	ctx := context.Background()
	key := func(s string) string {
		return sanitize(caseName) + ":" + s
	}

	// Set/Get round-trip.
	if err := store.Set(ctx, key("alpha"), []byte("value"), time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	body, ok, err := store.Get(ctx, key("alpha"))
	if err != nil {
		t.Fatalf("get failed: ok=%v err=%v", ok, err)
	}
	if opts.NullSemantics {
		if ok {
			t.Fatalf("expected miss for null semantics")
		}
	} else {
		if !ok || string(body) != "value" {
			t.Fatalf("unexpected get result: ok=%v body=%q err=%v", ok, string(body), err)
		}
		if !opts.SkipCloneCheck {
			body[0] = 'X'
			body2, ok2, err2 := store.Get(ctx, key("alpha"))
			if err2 != nil || !ok2 || string(body2) != "value" {
				t.Fatalf("expected stored value unchanged, got ok=%v body=%q err=%v", ok2, string(body2), err2)
			}
		}
	}

	// ttl <= 0 pins the entry; it must survive the expiry window.
	if err := store.Set(ctx, key("pinned"), []byte("v"), 0); err != nil {
		t.Fatalf("set pinned failed: %v", err)
	}
	if !opts.NullSemantics {
		time.Sleep(ttl + ttl/2)
		if _, ok, err := store.Get(ctx, key("pinned")); err != nil || !ok {
			t.Fatalf("expected pinned entry to survive; ok=%v err=%v", ok, err)
		}
	}

	// TTL expiry.
	if err := store.Set(ctx, key("ttl"), []byte("v"), ttl); err != nil {
		t.Fatalf("set ttl failed: %v", err)
	}
	if !opts.NullSemantics {
		if err := waitForMiss(ctx, store, key("ttl"), wait); err != nil {
			t.Fatalf("expected ttl expiry: %v", err)
		}
	}

	// Add only when missing.
	created, err := store.Add(ctx, key("once"), []byte("first"), time.Second)
	if err != nil {
		t.Fatalf("add first failed: created=%v err=%v", created, err)
	}
	created, err = store.Add(ctx, key("once"), []byte("second"), time.Second)
	if err != nil {
		t.Fatalf("add duplicate failed: %v", err)
	}
	if opts.NullSemantics {
		if !created {
			t.Fatalf("expected null-like add duplicate to report created=true")
		}
	} else if created {
		t.Fatalf("expected duplicate add to return created=false")
	}

	// Delete and DeleteMany.
	if err := store.Set(ctx, key("a"), []byte("1"), time.Second); err != nil {
		t.Fatalf("set a failed: %v", err)
	}
	if err := store.Set(ctx, key("b"), []byte("2"), time.Second); err != nil {
		t.Fatalf("set b failed: %v", err)
	}
	if err := store.Delete(ctx, key("a")); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.DeleteMany(ctx, key("b")); err != nil {
		t.Fatalf("delete many failed: %v", err)
	}
	if _, ok, err := store.Get(ctx, key("a")); err != nil || ok {
		t.Fatalf("expected key a deleted; ok=%v err=%v", ok, err)
	}
	if _, ok, err := store.Get(ctx, key("b")); err != nil || ok {
		t.Fatalf("expected key b deleted; ok=%v err=%v", ok, err)
	}

	// Flush.
	if !opts.SkipFlush {
		if err := store.Set(ctx, key("flush"), []byte("x"), time.Second); err != nil {
			t.Fatalf("set flush failed: %v", err)
		}
		if err := store.Flush(ctx); err != nil {
			t.Fatalf("flush failed: %v", err)
		}
		if _, ok, err := store.Get(ctx, key("flush")); err != nil || ok {
			t.Fatalf("expected flush to clear key; ok=%v err=%v", ok, err)
		}
	}
}

// ArtifactOptions configures the artifact round-trip checks.
type ArtifactOptions struct {
	// CaseName namespaces artifact keys. Defaults to t.Name().
	CaseName string
	// SkipSeparatorCheck disables the path-separator rejection assertion
	// for sinks that accept arbitrary keys.
	SkipSeparatorCheck bool
}

// RunArtifactContract verifies that what a sink writes, the paired source
// reads back, and that absence is reported as (nil, false, nil).
func RunArtifactContract(t *testing.T, sink staticcore.ArtifactSink, source staticcore.ArtifactSource, opts ArtifactOptions) {
	t.Helper()

	caseName := opts.CaseName
	if caseName == "" {
		caseName = t.Name()
	}
	ctx := context.Background()
	key := sanitize(caseName) + "-artifact"

	if _, ok, err := source.Fetch(ctx, key); err != nil || ok {
		t.Fatalf("expected absence before write; ok=%v err=%v", ok, err)
	}

	payload := []byte(`{"title":"A"}`)
	if err := sink.Write(ctx, key, payload); err != nil {
		t.Fatalf("sink write failed: %v", err)
	}
	body, ok, err := source.Fetch(ctx, key)
	if err != nil || !ok || string(body) != string(payload) {
		t.Fatalf("unexpected fetch after write: ok=%v body=%q err=%v", ok, string(body), err)
	}

	// Overwrite wins.
	updated := []byte(`{"title":"B"}`)
	if err := sink.Write(ctx, key, updated); err != nil {
		t.Fatalf("sink overwrite failed: %v", err)
	}
	body, ok, err = source.Fetch(ctx, key)
	if err != nil || !ok || string(body) != string(updated) {
		t.Fatalf("unexpected fetch after overwrite: ok=%v body=%q err=%v", ok, string(body), err)
	}

	if !opts.SkipSeparatorCheck {
		if err := sink.Write(ctx, "../escape", payload); err == nil {
			t.Fatalf("expected path-separator key to be rejected")
		}
	}
}

func waitForMiss(ctx context.Context, store Store, key string, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		_, ok, err := store.Get(ctx, key)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	_, ok, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("key %q still present after %s", key, wait)
	}
	return nil
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
