package staticdata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func artifactTempLeftovers(t *testing.T, dir string) []string {
	t.Helper()
	leftovers, err := filepath.Glob(filepath.Join(dir, ".artifact-*.tmp"))
	if err != nil {
		t.Fatalf("glob temp files: %v", err)
	}
	return leftovers
}

func TestDirSinkWriteCreatesArtifactFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	sink := NewDirSink(dir)

	if err := sink.Write(context.Background(), "post-42", []byte(`{"title":"A"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	path := filepath.Join(dir, "post-42.json")
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(body) != `{"title":"A"}` {
		t.Fatalf("unexpected artifact body %q", body)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat artifact: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o644 {
		t.Fatalf("expected 0644 artifact, got %v", perm)
	}
	if leftovers := artifactTempLeftovers(t, dir); len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestDirSinkWriteCreatesMissingDir(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "build", "output")
	sink := NewDirSink(dir)

	if err := sink.Write(context.Background(), "home-", []byte(`{}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "home-.json")); err != nil {
		t.Fatalf("expected artifact under created dir: %v", err)
	}
}

func TestDirSinkWriteOverwrites(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	sink := NewDirSink(dir)
	ctx := context.Background()

	if err := sink.Write(ctx, "post-42", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := sink.Write(ctx, "post-42", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("second write: %v", err)
	}

	body, err := os.ReadFile(filepath.Join(dir, "post-42.json"))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(body) != `{"v":2}` {
		t.Fatalf("expected second write to win, got %q", body)
	}
	if leftovers := artifactTempLeftovers(t, dir); len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestDirSinkWriteRejectsBadKeys(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	sink := NewDirSink(dir)

	cases := []struct {
		key  string
		want error
	}{
		{"", ErrArtifactKeyEmpty},
		{"a/b", ErrArtifactKeyPath},
		{`a\b`, ErrArtifactKeyPath},
		{"../escape", ErrArtifactKeyPath},
		{"a..b", ErrArtifactKeyPath},
	}
	for _, tc := range cases {
		if err := sink.Write(context.Background(), tc.key, []byte(`{}`)); !errors.Is(err, tc.want) {
			t.Fatalf("key %q: expected %v, got %v", tc.key, tc.want, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("rejected keys must not touch the dir, found %d entries", len(entries))
	}
}

func TestDirSinkWriteTempFileFailure(t *testing.T) {
	orig := createTempFile
	createTempFile = func(string, string) (*os.File, error) {
		return nil, errors.New("tmp boom")
	}
	defer func() { createTempFile = orig }()

	dir := t.TempDir()
	if err := NewDirSink(dir).Write(context.Background(), "post-42", []byte(`{}`)); err == nil {
		t.Fatalf("expected temp file error to surface")
	}
	if _, err := os.Stat(filepath.Join(dir, "post-42.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no artifact after failure, got %v", err)
	}
}

func TestDirSinkWriteRenameFailureCleansUp(t *testing.T) {
	orig := renameFile
	renameFile = func(_, _ string) error { return errors.New("rename boom") }
	defer func() { renameFile = orig }()

	dir := t.TempDir()
	if err := NewDirSink(dir).Write(context.Background(), "post-42", []byte(`{}`)); err == nil {
		t.Fatalf("expected rename error to surface")
	}
	if leftovers := artifactTempLeftovers(t, dir); len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
	if _, err := os.Stat(filepath.Join(dir, "post-42.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no artifact after failure, got %v", err)
	}
}

func TestNewDirSinkDefaultsDir(t *testing.T) {
	t.Parallel()
	sink := NewDirSink("")
	if sink.Dir() != defaultArtifactDir() {
		t.Fatalf("expected default artifact dir %q, got %q", defaultArtifactDir(), sink.Dir())
	}
}

func TestStoreSinkWriteUsesArtifactName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore(ctx)

	if err := NewStoreSink(store, 0).Write(ctx, "post-42", []byte(`{"title":"A"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	body, ok, err := store.Get(ctx, "post-42.json")
	if err != nil || !ok {
		t.Fatalf("expected artifact entry, got ok=%v err=%v", ok, err)
	}
	if string(body) != `{"title":"A"}` {
		t.Fatalf("unexpected artifact body %q", body)
	}

	if _, ok, _ := store.Get(ctx, "post-42"); ok {
		t.Fatalf("artifact write must not create a cache entry")
	}
}

func TestStoreSinkWritePassesTTL(t *testing.T) {
	t.Parallel()
	spy := &spyStore{driver: DriverRedis}
	sink := NewStoreSink(spy, 5*time.Minute)

	if err := sink.Write(context.Background(), "post-42", []byte(`{}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(spy.ttls) != 1 || spy.ttls[0] != 5*time.Minute {
		t.Fatalf("expected sink ttl to reach the store, got %v", spy.ttls)
	}
}

func TestStoreSinkWriteValidatesKey(t *testing.T) {
	t.Parallel()
	spy := &spyStore{}
	if err := NewStoreSink(spy, 0).Write(context.Background(), "a/b", []byte(`{}`)); !errors.Is(err, ErrArtifactKeyPath) {
		t.Fatalf("expected ErrArtifactKeyPath, got %v", err)
	}
	if len(spy.ttls) != 0 {
		t.Fatalf("rejected key must not reach the store")
	}
}

func TestNullSinkDiscards(t *testing.T) {
	t.Parallel()
	if err := (NullSink{}).Write(context.Background(), "post-42", []byte(`{}`)); err != nil {
		t.Fatalf("null sink must accept writes: %v", err)
	}
}

func TestValidateArtifactKey(t *testing.T) {
	t.Parallel()
	valid := []string{"post-42", "home-", "a_b.c"}
	for _, key := range valid {
		if err := validateArtifactKey(key); err != nil {
			t.Fatalf("key %q: unexpected error %v", key, err)
		}
	}
	if err := validateArtifactKey(""); !errors.Is(err, ErrArtifactKeyEmpty) {
		t.Fatalf("empty key: expected ErrArtifactKeyEmpty, got %v", err)
	}
	for _, key := range []string{"a/b", `a\b`, "..", "x..y"} {
		if err := validateArtifactKey(key); !errors.Is(err, ErrArtifactKeyPath) {
			t.Fatalf("key %q: expected ErrArtifactKeyPath, got %v", key, err)
		}
	}
}
