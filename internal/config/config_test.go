package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hopper/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadUsesDefaultsWhenFileMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.toml")

	cfg, resolved, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("missing file reported as existing")
	}
	if resolved != missing {
		t.Fatalf("resolved path = %q, want %q", resolved, missing)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("logging defaults wrong: %+v", cfg.Logging)
	}
	if cfg.Link.Device == "" {
		t.Fatal("link.device default missing")
	}
	if cfg.Cartridge.ScratchMiB <= 0 {
		t.Fatalf("scratch default wrong: %d", cfg.Cartridge.ScratchMiB)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
[paths]
data_dir = "`+dir+`/state"
volume_dir = "`+dir+`/vol"

[link]
device = "/dev/ttyACM3"

[logging]
level = "debug"
`)

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("existing file reported as missing")
	}
	if cfg.Link.Device != "/dev/ttyACM3" {
		t.Fatalf("link.device = %q", cfg.Link.Device)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging.level = %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unset field lost default: %q", cfg.Logging.Format)
	}

	wantSocket := filepath.Join(dir, "state", "hopperd.sock")
	if cfg.Paths.SocketPath != wantSocket {
		t.Fatalf("socket default = %q, want %q", cfg.Paths.SocketPath, wantSocket)
	}
	wantDB := filepath.Join(dir, "state", "titles.db")
	if cfg.Paths.TitlesDB != wantDB {
		t.Fatalf("titles_db default = %q, want %q", cfg.Paths.TitlesDB, wantDB)
	}
}

func TestLoadRejectsBadLoggingFormat(t *testing.T) {
	path := writeConfig(t, `
[logging]
format = "xml"
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unsupported logging format")
	}
}

func TestLoadRejectsOversizedScratch(t *testing.T) {
	path := writeConfig(t, `
[cartridge]
scratch_mib = 1024
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for oversized scratch buffer")
	}
}

func TestLoadRejectsBadUpdateEndpoint(t *testing.T) {
	path := writeConfig(t, `
[updates]
enabled = true
endpoint = "ftp://example.com"
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for non-http update endpoint")
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[paths]") {
		t.Fatalf("sample missing paths section: %q", data)
	}

	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
[paths]
data_dir = "`+dir+`/state"
log_dir = "`+dir+`/logs"
volume_dir = "`+dir+`/vol"
`)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, want := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Capture.Dir} {
		info, err := os.Stat(want)
		if err != nil || !info.IsDir() {
			t.Fatalf("directory %q not created (err=%v)", want, err)
		}
	}
}
