package prefs_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hopper/internal/logging"
	"hopper/internal/prefs"
	"hopper/internal/testsupport"
)

func TestOpenDefaultsWithoutFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := prefs.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	values := store.Values()
	if values.Overclock {
		t.Error("overclock should default off")
	}
	if values.ASCIINames {
		t.Error("ascii_names should default off")
	}
	if !values.Capture {
		t.Error("capture should default on")
	}
}

func TestUpdatePersistsAcrossReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		t.Fatalf("create data dir: %v", err)
	}

	store, err := prefs.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Update(func(v *prefs.Values) { v.Overclock = true; v.Capture = false }); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	reopened, err := prefs.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	values := reopened.Values()
	if !values.Overclock {
		t.Error("overclock not persisted")
	}
	if values.Capture {
		t.Error("capture not persisted")
	}
}

func TestSetByName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		t.Fatalf("create data dir: %v", err)
	}
	store, err := prefs.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := store.SetByName("ascii_names", true); err != nil {
		t.Fatalf("SetByName failed: %v", err)
	}
	if !store.Values().ASCIINames {
		t.Error("ascii_names not applied")
	}

	if err := store.SetByName("turbo", true); !errors.Is(err, prefs.ErrUnknownKey) {
		t.Fatalf("SetByName(turbo) = %v, want ErrUnknownKey", err)
	}
}

func TestOpenRejectsMalformedFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		t.Fatalf("create data dir: %v", err)
	}
	path := filepath.Join(cfg.Paths.DataDir, "prefs.toml")
	if err := os.WriteFile(path, []byte("overclock = {"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := prefs.Open(cfg, logging.NewNop()); err == nil {
		t.Fatal("Open accepted malformed TOML")
	}
}

func TestUpdateNoChangeSkipsWrite(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := prefs.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	// No write should occur for an identity update; the file stays absent.
	if err := store.Update(func(*prefs.Values) {}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := os.Stat(store.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("identity update created %s", store.Path())
	}
}
