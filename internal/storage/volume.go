package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"hopper/internal/hostsvc"
	"hopper/internal/logging"
	"hopper/internal/textutil"
)

// Fixed output directory set created on every volume at bring-up.
const (
	DirDumps   = "dumps"
	DirStaging = "staging"
	DirReports = "reports"
	DirKeys    = "keys"
)

var outputDirs = []string{DirDumps, DirStaging, DirReports, DirKeys}

// Stats is a snapshot of volume capacity.
type Stats struct {
	TotalBytes uint64
	FreeBytes  uint64
}

// FreeLabel renders the free capacity for human-facing output.
func (s Stats) FreeLabel() string {
	return textutil.FormatSize(float64(s.FreeBytes))
}

// Volume is a handle on the mounted output filesystem. It is acquired once
// during bring-up and stays valid until the lifecycle closes it.
type Volume struct {
	mount  string
	logger *slog.Logger
}

// Open validates the mount point and returns a volume handle. The mount
// must exist, be a directory, and be writable.
func Open(mount string, logger *slog.Logger) (*Volume, error) {
	mount = strings.TrimSpace(mount)
	if mount == "" {
		return nil, hostsvc.Wrap(hostsvc.ErrConfiguration, "storage", "open", "volume mount is required", nil)
	}
	info, err := os.Stat(mount)
	if err != nil {
		return nil, hostsvc.Wrap(hostsvc.ErrUnavailable, "storage", "open", "stat "+mount, err)
	}
	if !info.IsDir() {
		return nil, hostsvc.Wrap(hostsvc.ErrUnavailable, "storage", "open", mount+" is not a directory", nil)
	}
	if err := unix.Access(mount, unix.W_OK|unix.X_OK); err != nil {
		return nil, hostsvc.Wrap(hostsvc.ErrUnavailable, "storage", "open", "write access to "+mount, err)
	}

	v := &Volume{
		mount:  mount,
		logger: logging.NewComponentLogger(logger, "storage"),
	}
	if stats, err := v.Stats(); err == nil {
		v.logger.Info("volume opened",
			logging.String("mount", mount),
			logging.String("free", stats.FreeLabel()))
	}
	return v, nil
}

// Mount returns the volume mount point.
func (v *Volume) Mount() string {
	return v.mount
}

// Path joins path elements under the mount point.
func (v *Volume) Path(parts ...string) string {
	return filepath.Join(append([]string{v.mount}, parts...)...)
}

// Stats queries filesystem capacity via statfs. Free space is reported for
// unprivileged writers (Bavail, not Bfree).
func (v *Volume) Stats() (Stats, error) {
	var fs unix.Statfs_t
	if err := unix.Statfs(v.mount, &fs); err != nil {
		return Stats{}, hostsvc.Wrap(hostsvc.ErrUnavailable, "storage", "stats", "statfs "+v.mount, err)
	}
	bsize := uint64(fs.Bsize)
	return Stats{
		TotalBytes: fs.Blocks * bsize,
		FreeBytes:  fs.Bavail * bsize,
	}, nil
}

// Commit flushes all pending writes on the volume's filesystem to stable
// storage. Dump completion calls this before reporting success.
func (v *Volume) Commit() error {
	f, err := os.Open(v.mount)
	if err != nil {
		return hostsvc.Wrap(hostsvc.ErrUnavailable, "storage", "commit", "open "+v.mount, err)
	}
	defer f.Close()
	if err := unix.Syncfs(int(f.Fd())); err != nil {
		return hostsvc.Wrap(hostsvc.ErrTransient, "storage", "commit", "syncfs "+v.mount, err)
	}
	return nil
}

// EnsureOutputDirs creates the fixed output directory set. Individual
// failures are collected so one unwritable directory does not hide the
// rest; the volume stays usable either way.
func (v *Volume) EnsureOutputDirs() error {
	var failed []string
	for _, dir := range outputDirs {
		if err := os.MkdirAll(v.Path(dir), 0o755); err != nil {
			failed = append(failed, fmt.Sprintf("%s (%v)", dir, err))
		}
	}
	if len(failed) > 0 {
		return hostsvc.Wrap(hostsvc.ErrTransient, "storage", "output-dirs", strings.Join(failed, "; "), nil)
	}
	v.logger.Debug("output directories ready", logging.Int("count", len(outputDirs)))
	return nil
}
