package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"hopper/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.VolumeDir = filepath.Join(base, "volume")
	cfgVal.Paths.SocketPath = filepath.Join(base, "state", "hopperd.sock")
	cfgVal.Paths.PIDFile = filepath.Join(base, "state", "hopperd.pid")
	cfgVal.Paths.LockFile = filepath.Join(base, "state", "hopperd.lock")
	cfgVal.Paths.KeysFile = filepath.Join(base, "prod.keys")
	cfgVal.Paths.SystemImage = filepath.Join(base, "system.img")
	cfgVal.Paths.FontsDir = filepath.Join(base, "fonts")
	cfgVal.Paths.TitlesDB = filepath.Join(base, "state", "titles.db")
	cfgVal.Capture.Dir = filepath.Join(base, "logs", "capture")
	cfgVal.Link.Device = filepath.Join(base, "reader")
	cfgVal.Device.SysfsRoot = filepath.Join(base, "sys")
	cfgVal.Device.ProcRoot = filepath.Join(base, "proc")
	cfgVal.Device.OSRelease = filepath.Join(base, "os-release")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithKeys writes a minimal key file with the provided lines and points the
// config at it. If lines is empty, a single well-formed entry is written.
func WithKeys(lines ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(lines) == 0 {
			lines = []string{"header_key = 00112233445566778899aabbccddeeff"}
		}
		body := ""
		for _, line := range lines {
			body += line + "\n"
		}
		if err := os.WriteFile(b.cfg.Paths.KeysFile, []byte(body), 0o600); err != nil {
			b.t.Fatalf("write keys file: %v", err)
		}
	}
}

// WithLinkDevice overrides the reader link device path on the test config.
func WithLinkDevice(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Link.Device = path
	}
}

// WithInspectionRoots points the sysfs and proc roots at fixture trees.
func WithInspectionRoots(sysRoot, procRoot string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Device.SysfsRoot = sysRoot
		b.cfg.Device.ProcRoot = procRoot
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default hopper external
// binaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"udevadm"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
