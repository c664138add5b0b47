// Package staticdata is a static-aware cached fetch primitive for services
// that pre-render or statically generate pages: a factory's result is served
// from a cache, from a previously generated static JSON artifact, or by
// invoking the factory, depending on the execution context. During
// server-side static builds, resolved values are persisted as <key>.json
// artifacts for later serving.
package staticdata

import "github.com/goforj/staticdata/staticcore"

// Driver identifies a payload store backend.
type Driver = staticcore.Driver

const (
	DriverNull      = staticcore.DriverNull
	DriverFile      = staticcore.DriverFile
	DriverMemory    = staticcore.DriverMemory
	DriverMemcached = staticcore.DriverMemcached
	DriverDynamo    = staticcore.DriverDynamo
	DriverSQL       = staticcore.DriverSQL
	DriverRedis     = staticcore.DriverRedis
	DriverNATS      = staticcore.DriverNATS
)

// Store is the shared payload cache contract.
type Store = staticcore.Store

// Runtime carries the execution-context flags that select a resolution
// strategy.
type Runtime = staticcore.Runtime

// ArtifactSource fetches previously generated static artifacts by key.
type ArtifactSource = staticcore.ArtifactSource

// ArtifactSink persists resolved payloads as static artifacts.
type ArtifactSink = staticcore.ArtifactSink

// ServerRuntime returns the flags for a server rendering pass.
func ServerRuntime(staticBuild bool) Runtime {
	return Runtime{StaticBuild: staticBuild}
}

// ClientRuntime returns the flags for a client runtime.
func ClientRuntime(staticBuild bool) Runtime {
	return Runtime{Client: true, StaticBuild: staticBuild}
}
