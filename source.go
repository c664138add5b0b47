package staticdata

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/goforj/staticdata/staticcore"
)

// HTTPClient is the subset of *http.Client used by HTTPSource.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPSource fetches build artifacts over HTTP from a public path or CDN
// base URL. A 2xx response is a hit; a non-2xx status is absence. Transport
// and body-read errors are returned alongside absence so observers can see
// them, but resolution treats any non-hit the same way and falls through.
type HTTPSource struct {
	base   string
	client HTTPClient
}

// NewHTTPSource returns a source reading artifacts from base, typically a
// public path ("/") or a CDN base URL. A nil client uses http.DefaultClient.
func NewHTTPSource(base string, client HTTPClient) *HTTPSource {
	if base == "" {
		base = defaultPublicPath
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{base: base, client: client}
}

func (s *HTTPSource) Fetch(ctx context.Context, key string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, joinArtifactURL(s.base, artifactName(key)), nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, false, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

// DirSource reads artifacts produced by a previous build straight from an
// output directory. A missing file is absence, not an error.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	if dir == "" {
		dir = defaultArtifactDir()
	}
	return &DirSource{dir: dir}
}

func (s *DirSource) Fetch(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateArtifactKey(key); err != nil {
		return nil, false, err
	}
	body, err := os.ReadFile(filepath.Join(s.dir, artifactName(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

// StoreSource adapts any Store into an artifact source, so build output can
// ride a shared backend (redis, nats, dynamodb) between the build that wrote
// it and the replicas that serve it. Artifacts are stored under
// "<key>.json" so they never collide with cache entries for the same key.
type StoreSource struct {
	store staticcore.Store
}

func NewStoreSource(store staticcore.Store) *StoreSource {
	return &StoreSource{store: store}
}

func (s *StoreSource) Fetch(ctx context.Context, key string) ([]byte, bool, error) {
	return s.store.Get(ctx, artifactName(key))
}
