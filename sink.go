package staticdata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goforj/staticdata/staticcore"
)

var (
	ErrArtifactKeyEmpty = errors.New("staticdata: artifact key is empty")
	ErrArtifactKeyPath  = errors.New("staticdata: artifact key contains a path separator")
)

func validateArtifactKey(key string) error {
	if key == "" {
		return ErrArtifactKeyEmpty
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return ErrArtifactKeyPath
	}
	return nil
}

// DirSink persists resolved values as "<key>.json" files in a build output
// directory, the layout a static file server or CDN expects. Writes go
// through a temp file and rename so a crashed build never leaves a partial
// artifact behind.
type DirSink struct {
	dir string
}

func NewDirSink(dir string) *DirSink {
	if dir == "" {
		dir = defaultArtifactDir()
	}
	return &DirSink{dir: dir}
}

func (s *DirSink) Write(ctx context.Context, key string, data []byte) error {
	if err := validateArtifactKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	tmp, err := createTempFile(s.dir, ".artifact-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := renameFile(tmpName, filepath.Join(s.dir, artifactName(key))); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Dir returns the output directory artifacts are written to.
func (s *DirSink) Dir() string { return s.dir }

// StoreSink writes artifacts into any Store under "<key>.json", pairing with
// StoreSource on the serving side.
type StoreSink struct {
	store staticcore.Store
	ttl   time.Duration
}

func NewStoreSink(store staticcore.Store, ttl time.Duration) *StoreSink {
	return &StoreSink{store: store, ttl: ttl}
}

func (s *StoreSink) Write(ctx context.Context, key string, data []byte) error {
	if err := validateArtifactKey(key); err != nil {
		return err
	}
	return s.store.Set(ctx, artifactName(key), data, s.ttl)
}

// NullSink discards writes, for builds that want cache population without
// artifact output.
type NullSink struct{}

func (NullSink) Write(context.Context, string, []byte) error { return nil }
