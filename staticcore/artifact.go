package staticcore

import "context"

// ArtifactSource fetches previously generated static artifacts by key.
// Absence (missing artifact, non-2xx response, unreadable payload) is
// reported as ok == false; err carries detail for observability only and
// never stops a resolution.
type ArtifactSource interface {
	Fetch(ctx context.Context, key string) ([]byte, bool, error)
}

// ArtifactSink persists resolved payloads as static artifacts named
// "<key>.json" during static-generation passes. Write failures are the
// caller's to log and swallow; they must not fail a resolution.
type ArtifactSink interface {
	Write(ctx context.Context, key string, data []byte) error
}
