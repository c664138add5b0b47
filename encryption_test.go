package staticdata

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestEncryptingStoreRoundTrip(t *testing.T) {
	key := []byte("01234567890123456789012345678901")
	base := newMemoryStore(0, 0)
	store, err := newEncryptingStore(base, key)
	if err != nil {
		t.Fatalf("encrypting store: %v", err)
	}
	ctx := context.Background()
	if err := store.Set(ctx, "k", []byte("secret"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || string(got) != "secret" {
		t.Fatalf("unexpected get: ok=%v err=%v val=%s", ok, err, string(got))
	}

	raw, _, err := base.Get(ctx, "k")
	if err != nil {
		t.Fatalf("inner get failed: %v", err)
	}
	if bytes.Contains(raw, []byte("secret")) || !bytes.HasPrefix(raw, encryptionMagic) {
		t.Fatalf("plaintext at rest: %q", raw)
	}
}

func TestEncryptingStoreAddAndDecryptError(t *testing.T) {
	key := []byte("01234567890123456789012345678901")
	base := newMemoryStore(0, 0)
	store, _ := newEncryptingStore(base, key)
	ctx := context.Background()
	created, err := store.Add(ctx, "once", []byte("v"), time.Minute)
	if err != nil || !created {
		t.Fatalf("add failed: %v created=%v", err, created)
	}
	// Tampered ciphertext must not decrypt.
	base.(*memoryStore).cache.Set("once", []byte("SDE1\x0cbadnoncebadct"), time.Minute)
	if _, _, err := store.Get(ctx, "once"); !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("expected decrypt error, got %v", err)
	}
	// A truncated frame is rejected, not passed through.
	base.(*memoryStore).cache.Set("once", []byte("SDE1\xff"), time.Minute)
	if _, _, err := store.Get(ctx, "once"); !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("expected decrypt error on truncated frame, got %v", err)
	}
}

func TestEncryptingStorePassesForeignValuesThrough(t *testing.T) {
	key := []byte("01234567890123456789012345678901")
	base := newMemoryStore(0, 0)
	store, _ := newEncryptingStore(base, key)
	ctx := context.Background()

	// Values written before encryption was enabled have no frame.
	base.(*memoryStore).cache.Set("legacy", []byte("plain"), time.Minute)
	got, ok, err := store.Get(ctx, "legacy")
	if err != nil || !ok || string(got) != "plain" {
		t.Fatalf("legacy value mangled: ok=%v err=%v val=%s", ok, err, string(got))
	}
}

func TestEncryptingStoreUnsupportedKey(t *testing.T) {
	if _, err := newEncryptingStore(newMemoryStore(0, 0), []byte("short")); !errors.Is(err, ErrEncryptionKey) {
		t.Fatalf("expected key error, got %v", err)
	}
}

func TestEncryptingStorePassThroughWhenDisabled(t *testing.T) {
	base := newMemoryStore(0, 0)
	store, err := newEncryptingStore(base, nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if store != base {
		t.Fatalf("expected identity when no key")
	}
}

func TestEncryptingStoreDelegates(t *testing.T) {
	key := []byte("0123456789012345")
	base := newMemoryStore(0, 0)
	store, _ := newEncryptingStore(base, key)
	ctx := context.Background()

	if err := store.Set(ctx, "a", []byte("1"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.DeleteMany(ctx, "a", "b"); err != nil {
		t.Fatalf("delete many failed: %v", err)
	}
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("wrapper must keep the driver identity")
	}
}

func TestFactoryAppliesEncryption(t *testing.T) {
	ctx := context.Background()
	key := []byte("01234567890123456789012345678901")
	store := NewStoreWith(ctx, DriverMemory, WithEncryptionKey(key))
	if _, ok := store.(*encryptingStore); !ok {
		t.Fatalf("expected encrypting store wrapper")
	}

	// Shaping and encryption stack: compression inside, encryption outside.
	stacked := NewStoreWith(ctx, DriverMemory,
		WithCompression(CompressionGzip),
		WithEncryptionKey(key),
	)
	enc, ok := stacked.(*encryptingStore)
	if !ok {
		t.Fatalf("expected encrypting outer wrapper")
	}
	if _, ok := enc.inner.(*shapingStore); !ok {
		t.Fatalf("expected shaping inner wrapper")
	}
	if err := stacked.Set(ctx, "k", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("stacked set failed: %v", err)
	}
	if got, ok, err := stacked.Get(ctx, "k"); err != nil || !ok || string(got) != "payload" {
		t.Fatalf("stacked get failed: ok=%v err=%v val=%s", ok, err, string(got))
	}
}
