package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file location configuration.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	LogDir      string `toml:"log_dir"`
	VolumeDir   string `toml:"volume_dir"`
	SocketPath  string `toml:"socket_path"`
	PIDFile     string `toml:"pid_file"`
	LockFile    string `toml:"lock_file"`
	KeysFile    string `toml:"keys_file"`
	SystemImage string `toml:"system_image"`
	FontsDir    string `toml:"fonts_dir"`
	TitlesDB    string `toml:"titles_db"`
}

// Device contains host inspection roots and device nodes. The roots are
// configurable so tests and containerized runs can point at fixture trees.
type Device struct {
	SysfsRoot   string `toml:"sysfs_root"`
	ProcRoot    string `toml:"proc_root"`
	UdevControl string `toml:"udev_control"`
	OSRelease   string `toml:"os_release"`
}

// Link contains reader-link transport configuration.
type Link struct {
	Device             string `toml:"device"`
	DialTimeoutSeconds int    `toml:"dial_timeout_seconds"`
}

// Cartridge contains cartridge subsystem configuration.
type Cartridge struct {
	ScratchMiB int `toml:"scratch_mib"`
}

// Debug contains the optional development log mirror target.
type Debug struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Updates contains release update check configuration.
type Updates struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Errors         bool   `toml:"errors"`
	LongRun        bool   `toml:"long_run"`
	Dumps          bool   `toml:"dumps"`
}

// Performance contains the CPU governor pair toggled by long-running mode.
type Performance struct {
	BoostGovernor  string `toml:"boost_governor"`
	NormalGovernor string `toml:"normal_governor"`
}

// Capture contains session journal configuration.
type Capture struct {
	Dir string `toml:"dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Hopper.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories, output volume, socket, key material
//   - Device: sysfs/proc roots and udev control socket
//   - Link: reader transport device and timeouts
//   - Cartridge: scratch buffer sizing
//   - Debug: optional TCP log mirror for development hosts
//   - Updates: release check endpoint
//   - Notifications: ntfy push notification settings
//   - Performance: CPU governors applied by long-running mode
//   - Capture: session journal location
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Device        Device        `toml:"device"`
	Link          Link          `toml:"link"`
	Cartridge     Cartridge     `toml:"cartridge"`
	Debug         Debug         `toml:"debug"`
	Updates       Updates       `toml:"updates"`
	Notifications Notifications `toml:"notifications"`
	Performance   Performance   `toml:"performance"`
	Capture       Capture       `toml:"capture"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/hopper/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return is
// the resolved path, the third whether a file was actually read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("hopper.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// The volume directory is created on a best-effort basis so the daemon can
// start configuration handling while the output volume is not yet mounted.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Capture.Dir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.VolumeDir) != "" {
		_ = os.MkdirAll(c.Paths.VolumeDir, 0o755)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
