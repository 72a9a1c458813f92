package titledb_test

import (
	"context"
	"errors"
	"testing"

	"hopper/internal/testsupport"
	"hopper/internal/titledb"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	entry := testsupport.SeedTitle(t, store, "0100abcd12345678", "Sample Quest")

	fetched, err := store.Get(ctx, entry.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched == nil || fetched.Name != "Sample Quest" {
		t.Fatalf("unexpected fetched entry: %#v", fetched)
	}
	if fetched.Region != "US" {
		t.Fatalf("region = %q", fetched.Region)
	}
	if fetched.UpdatedAt.IsZero() {
		t.Fatal("updated_at not recorded")
	}
	if fetched.LastDumpedAt != nil {
		t.Fatal("fresh entry should have no dump mark")
	}
}

func TestUpsertReplacesAndFoldsID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.SeedTitle(t, store, "0100ABCD12345678", "Old Name")

	err := store.Upsert(ctx, titledb.Entry{
		ID:      "0100abcd12345678",
		Name:    "New Name",
		Region:  "eu",
		Version: 65536,
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	fetched, err := store.Get(ctx, "0100ABCD12345678")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched.Name != "New Name" || fetched.Region != "EU" || fetched.Version != 65536 {
		t.Fatalf("entry not replaced: %#v", fetched)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestUpsertValidatesID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	err := store.Upsert(ctx, titledb.Entry{ID: "not-hex", Name: "X"})
	if !errors.Is(err, titledb.ErrInvalidTitleID) {
		t.Fatalf("expected invalid id error, got %v", err)
	}
	err = store.Upsert(ctx, titledb.Entry{ID: "0100abcd1234567", Name: "X"})
	if !errors.Is(err, titledb.ErrInvalidTitleID) {
		t.Fatalf("expected invalid id error for short id, got %v", err)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	entry, err := store.Get(context.Background(), "00000000000000ff")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil for missing entry, got %#v", entry)
	}
}

func TestSearch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.SeedTitle(t, store, "0100000000000001", "Alpha Drive")
	testsupport.SeedTitle(t, store, "0100000000000002", "Beta Blaster")
	testsupport.SeedTitle(t, store, "0100000000000003", "alpha omega")

	entries, err := store.Search(ctx, "ALPHA", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("search hits = %d, want 2", len(entries))
	}
	if entries[0].Name != "Alpha Drive" {
		t.Fatalf("search not name ordered: %v", entries)
	}

	all, err := store.Search(ctx, "", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("empty query hits = %d, want 3", len(all))
	}

	// LIKE metacharacters in the query must match literally.
	none, err := store.Search(ctx, "100%", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("wildcard leaked into query: %v", none)
	}
}

func TestMarkDumped(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.SeedTitle(t, store, "0100000000000001", "Alpha Drive")

	if err := store.MarkDumped(ctx, "0100000000000001"); err != nil {
		t.Fatalf("MarkDumped failed: %v", err)
	}
	entry, err := store.Get(ctx, "0100000000000001")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.LastDumpedAt == nil {
		t.Fatal("dump mark not recorded")
	}

	if err := store.MarkDumped(ctx, "0100000000000099"); err == nil {
		t.Fatal("expected error for unknown title")
	}
}

func TestRemove(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.SeedTitle(t, store, "0100000000000001", "Alpha Drive")

	removed, err := store.Remove(ctx, "0100000000000001")
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !removed {
		t.Fatal("expected removal")
	}
	removed, err = store.Remove(ctx, "0100000000000001")
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if removed {
		t.Fatal("second removal should report false")
	}
}

func TestDisplayName(t *testing.T) {
	shouting := titledb.Entry{ID: "0100000000000001", Name: "MEGA BLASTER IV"}
	if got := shouting.DisplayName(); got != "Mega Blaster Iv" && got != "Mega Blaster IV" {
		t.Fatalf("DisplayName = %q", got)
	}
	mixed := titledb.Entry{ID: "0100000000000002", Name: "Mega Blaster IV"}
	if got := mixed.DisplayName(); got != "Mega Blaster IV" {
		t.Fatalf("mixed case must pass through, got %q", got)
	}
	empty := titledb.Entry{ID: "0100000000000003"}
	if got := empty.DisplayName(); got != "0100000000000003" {
		t.Fatalf("empty name should fall back to id, got %q", got)
	}
}
