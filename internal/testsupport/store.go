package testsupport

import (
	"context"
	"testing"

	"hopper/internal/config"
	"hopper/internal/titledb"
)

// MustOpenStore opens a titledb.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *titledb.Store {
	t.Helper()

	store, err := titledb.Open(cfg)
	if err != nil {
		t.Fatalf("titledb.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedTitle inserts a catalog entry for tests using the provided store.
func SeedTitle(t testing.TB, store *titledb.Store, id, name string) titledb.Entry {
	t.Helper()

	entry := titledb.Entry{ID: id, Name: name, Region: "US", Version: 0}
	if err := store.Upsert(context.Background(), entry); err != nil {
		t.Fatalf("store.Upsert: %v", err)
	}
	return entry
}
