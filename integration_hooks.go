//go:build integration

package staticdata

import "github.com/goforj/staticdata/staticcore"

// IntegrationWrapShapingStore exposes the shaping wrapper to integration-suite tests
// without making it part of the normal root package API surface.
func IntegrationWrapShapingStore(inner staticcore.Store, codec CompressionCodec, max int) staticcore.Store {
	return newShapingStore(inner, codec, max)
}

// IntegrationWrapEncryptingStore exposes the encryption wrapper to integration-suite tests
// without making it part of the normal root package API surface.
func IntegrationWrapEncryptingStore(inner staticcore.Store, key []byte) (staticcore.Store, error) {
	return newEncryptingStore(inner, key)
}
