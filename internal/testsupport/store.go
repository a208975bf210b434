package testsupport

import (
	"context"
	"testing"

	"imgvault/internal/catalog"
	"imgvault/internal/config"
)

// MustOpenCatalog opens a catalog for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return store
}

// MustInsert adds a catalog record for tests.
func MustInsert(t testing.TB, store *catalog.Store, rec catalog.Record) {
	t.Helper()

	if err := store.Insert(context.Background(), rec); err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
}
