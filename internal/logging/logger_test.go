package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hopper/internal/logging"
)

func TestNewWritesConsoleFormat(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "hopperd.log")

	logger, err := logging.New(logging.Options{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	component := logging.NewComponentLogger(logger, "volume")
	component.Info("volume ready", logging.String("mount", "/mnt/dumps"), logging.Int("free_pct", 42))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(data)
	for _, want := range []string{"INFO", "volume: volume ready", "mount=/mnt/dumps", "free_pct=42"} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line %q missing %q", line, want)
		}
	}
}

func TestNewWritesJSONFormat(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "hopperd.log")

	logger, err := logging.New(logging.Options{
		Level:       "debug",
		Format:      "json",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Debug("probe", logging.Bool("ok", true))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(data)
	for _, want := range []string{`"level":"debug"`, `"msg":"probe"`, `"ok":true`} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line %q missing %q", line, want)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "hopperd.log")

	logger, err := logging.New(logging.Options{
		Level:       "warn",
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(data), "dropped") {
		t.Fatalf("info record leaked through warn level: %q", data)
	}
	if !strings.Contains(string(data), "kept") {
		t.Fatalf("warn record missing: %q", data)
	}
}

func TestRecorderKeepsLastMessage(t *testing.T) {
	rec := logging.NewRecorder()
	logger := logging.TeeLogger(logging.NewNop(), rec)

	logger.Info("first")
	logger.Error("second")

	if got := rec.LastMessage(); got != "second" {
		t.Fatalf("LastMessage = %q, want %q", got, "second")
	}
}

func TestTeeLoggerDuplicates(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "hopperd.log")

	base, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	rec := logging.NewRecorder()
	logger := logging.TeeLogger(base, rec)

	logger.Info("mirrored")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "mirrored") {
		t.Fatalf("primary sink missing record: %q", data)
	}
	if got := rec.LastMessage(); got != "mirrored" {
		t.Fatalf("recorder missing record: %q", got)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "hopperd.log")

	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logging.WarnWithContext(logger, "link flaky", "link_retry")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(data)
	for _, want := range []string{"event_type=link_retry", "error_hint=", "impact="} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line %q missing %q", line, want)
		}
	}
}
