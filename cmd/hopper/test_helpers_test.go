package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"hopper/internal/api"
	"hopper/internal/ipc"
	"hopper/internal/logging"
	"hopper/internal/pathgen"
	"hopper/internal/textutil"
)

// fakeCLIBackend serves the IPC surface without a running resource manager.
type fakeCLIBackend struct {
	status      api.StatusSnapshot
	longRunning atomic.Bool
	prefs       api.Preferences
	titles      []api.TitleRow
	logPath     string
	notifyErr   error
	shutdowns   atomic.Int32
}

func (b *fakeCLIBackend) Status(context.Context) api.StatusSnapshot {
	status := b.status
	status.LongRunning = b.longRunning.Load()
	return status
}

func (b *fakeCLIBackend) SetLongRunning(_ context.Context, enabled bool) (bool, error) {
	b.longRunning.Store(enabled)
	return enabled, nil
}

func (b *fakeCLIBackend) PathPreview(_ context.Context, prefix, name, extension string, forceASCII bool) (string, string, error) {
	sanitized := textutil.SanitizeName(name, forceASCII)
	if prefix == "" {
		prefix = "/vol/dumps"
	}
	path, err := pathgen.BuildPath(prefix, sanitized, extension)
	if err != nil {
		return "", "", err
	}
	return path, sanitized, nil
}

func (b *fakeCLIBackend) SanitizeName(name string, forceASCII bool) string {
	return textutil.SanitizeName(name, forceASCII)
}

func (b *fakeCLIBackend) TitleList(_ context.Context, query string, limit int) ([]api.TitleRow, error) {
	if limit <= 0 {
		limit = len(b.titles)
	}
	out := make([]api.TitleRow, 0, limit)
	for _, row := range b.titles {
		if query != "" && !strings.Contains(strings.ToLower(row.Name), strings.ToLower(query)) {
			continue
		}
		out = append(out, row)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (b *fakeCLIBackend) Preferences(context.Context) (api.Preferences, error) {
	return b.prefs, nil
}

func (b *fakeCLIBackend) SetPreference(_ context.Context, name string, enabled bool) (api.Preferences, error) {
	switch name {
	case "overclock":
		b.prefs.Overclock = enabled
	case "ascii_names":
		b.prefs.ASCIINames = enabled
	case "capture":
		b.prefs.Capture = enabled
	default:
		return api.Preferences{}, errors.New("unknown preference " + name)
	}
	return b.prefs, nil
}

func (b *fakeCLIBackend) TestNotification(context.Context) error {
	return b.notifyErr
}

func (b *fakeCLIBackend) LogPath() string {
	return b.logPath
}

func (b *fakeCLIBackend) Shutdown(context.Context) {
	b.shutdowns.Add(1)
}

type cliTestEnv struct {
	backend    *fakeCLIBackend
	server     *ipc.Server
	socketPath string
	configPath string
	baseDir    string
	logPath    string
	cancel     context.CancelFunc
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	logDir := filepath.Join(base, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	logPath := filepath.Join(logDir, "hopperd-test.log")
	if err := os.WriteFile(logPath, nil, 0o644); err != nil {
		t.Fatalf("create log file: %v", err)
	}

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, base)

	backend := &fakeCLIBackend{
		status: api.StatusSnapshot{
			Running:   true,
			PID:       os.Getpid(),
			SessionID: "session-cli",
			Uptime:    "1m0s",
			Board:     "HPR-01 rev B1",
			Flavor:    "stock",
			RunMode:   "session",
			SlotState: "ready",
			KeyCount:  2,
		},
		logPath: logPath,
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(base, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, backend, logging.NewNop())
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		backend:    backend,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
		baseDir:    base,
		logPath:    logPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path, base string) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
volume_dir = %q
keys_file = %q

[link]
device = %q
`,
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "volume"),
		filepath.Join(base, "keys.txt"),
		filepath.Join(base, "reader.sock"),
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
