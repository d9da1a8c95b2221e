package testsupport

import (
	"testing"

	"bookvoice/internal/catalog"
	"bookvoice/internal/config"
)

// MustOpenCatalog opens the catalog for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.OpenConfig(cfg)
	if err != nil {
		t.Fatalf("catalog.OpenConfig: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
