// Package statictest provides reusable contract tests for
// staticcore.Store implementations and artifact source/sink pairs.
//
// Driver packages can use it from their own tests without importing root
// test helpers.
//
// Example pattern (driver package test):
//
//	func TestPostgresStoreContract(t *testing.T) {
//		db := newTestDB(t)
//		store := postgresdata.New(db)
//
//		// Namespace keys per test and tune TTL waits for backend semantics as needed.
//		statictest.RunStoreContract(t, store, statictest.Options{
//			CaseName: t.Name(),
//			TTL:      time.Second,
//			TTLWait:  1500 * time.Millisecond,
//		})
//	}
//
// Example artifact round-trip:
//
//	func TestDirArtifacts(t *testing.T) {
//		dir := t.TempDir()
//		statictest.RunArtifactContract(t,
//			staticdata.NewDirSink(dir),
//			staticdata.NewDirSource(dir),
//			statictest.ArtifactOptions{},
//		)
//	}
package statictest
