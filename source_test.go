package staticdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

type failingHTTPClient struct {
	err error
}

func (c *failingHTTPClient) Do(*http.Request) (*http.Response, error) {
	return nil, c.err
}

func TestHTTPSourceFetchHit(t *testing.T) {
	t.Parallel()
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"title":"A"}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, nil)
	body, ok, err := src.Fetch(context.Background(), "post-42")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !ok {
		t.Fatalf("expected a hit")
	}
	if string(body) != `{"title":"A"}` {
		t.Fatalf("unexpected body %q", body)
	}
	if gotPath != "/post-42.json" {
		t.Fatalf("expected /post-42.json request path, got %q", gotPath)
	}
}

func TestHTTPSourceFetchJoinsBasePath(t *testing.T) {
	t.Parallel()
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/static/data/", nil)
	if _, _, err := src.Fetch(context.Background(), "home-"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotPath != "/static/data/home-.json" {
		t.Fatalf("expected joined sub-path, got %q", gotPath)
	}
}

func TestHTTPSourceFetchNonOKIsAbsence(t *testing.T) {
	t.Parallel()
	for _, status := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", status)
		}))
		src := NewHTTPSource(srv.URL, nil)
		body, ok, err := src.Fetch(context.Background(), "post-42")
		srv.Close()
		if err != nil {
			t.Fatalf("status %d: expected silent absence, got error %v", status, err)
		}
		if ok || body != nil {
			t.Fatalf("status %d: expected absence, got ok=%v body=%q", status, ok, body)
		}
	}
}

func TestHTTPSourceFetchTransportError(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection refused")
	src := NewHTTPSource("http://example.invalid", &failingHTTPClient{err: boom})

	_, ok, err := src.Fetch(context.Background(), "post-42")
	if ok {
		t.Fatalf("expected no hit on transport error")
	}
	if err == nil {
		t.Fatalf("expected the transport error to surface")
	}
}

func TestNewHTTPSourceDefaults(t *testing.T) {
	t.Parallel()
	src := NewHTTPSource("", nil)
	if src.base != defaultPublicPath {
		t.Fatalf("expected default public path %q, got %q", defaultPublicPath, src.base)
	}
	if src.client != http.DefaultClient {
		t.Fatalf("expected http.DefaultClient fallback")
	}
}

func TestDirSourceFetch(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "post-42.json"), []byte(`{"title":"A"}`), 0o644); err != nil {
		t.Fatalf("seed artifact: %v", err)
	}

	src := NewDirSource(dir)
	body, ok, err := src.Fetch(context.Background(), "post-42")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(body) != `{"title":"A"}` {
		t.Fatalf("unexpected body %q", body)
	}

	_, ok, err = src.Fetch(context.Background(), "post-43")
	if err != nil {
		t.Fatalf("missing artifact should be absence, got %v", err)
	}
	if ok {
		t.Fatalf("expected absence for missing artifact")
	}
}

func TestDirSourceFetchRejectsEscapingKeys(t *testing.T) {
	t.Parallel()
	src := NewDirSource(t.TempDir())
	for _, key := range []string{"../etc/passwd", "a/b", `a\b`} {
		_, ok, err := src.Fetch(context.Background(), key)
		if ok {
			t.Fatalf("key %q: expected no hit", key)
		}
		if !errors.Is(err, ErrArtifactKeyPath) {
			t.Fatalf("key %q: expected ErrArtifactKeyPath, got %v", key, err)
		}
	}
}

func TestStoreSourceFetchUsesArtifactName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore(ctx)

	// A cache entry under the bare key must not shadow the artifact.
	if err := store.Set(ctx, "post-42", []byte(`{"cached":true}`), 0); err != nil {
		t.Fatalf("seed cache entry: %v", err)
	}
	if err := store.Set(ctx, "post-42.json", []byte(`{"artifact":true}`), 0); err != nil {
		t.Fatalf("seed artifact entry: %v", err)
	}

	body, ok, err := NewStoreSource(store).Fetch(ctx, "post-42")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(body) != `{"artifact":true}` {
		t.Fatalf("expected the artifact payload, got %q", body)
	}
}
