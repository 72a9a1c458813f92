package hostsvc

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"hopper/internal/config"
	"hopper/internal/logging"
)

// Facility reports the availability of one host facility the daemon depends
// on. Required facilities abort broker startup when missing.
type Facility struct {
	Name      string
	Detail    string
	Available bool
	Optional  bool
}

// Broker holds the probed host facility state for the lifetime of the
// daemon. It is safe for concurrent use.
type Broker struct {
	cfg    *config.Config
	logger *slog.Logger

	mu         sync.RWMutex
	facilities []Facility
	closed     bool
}

// Start probes the host facilities and returns a running broker. A missing
// required facility fails startup; optional facilities only record detail.
func Start(cfg *config.Config, logger *slog.Logger) (*Broker, error) {
	if cfg == nil {
		return nil, Wrap(ErrConfiguration, "host-services", "start", "configuration is required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	b := &Broker{cfg: cfg, logger: logging.NewComponentLogger(logger, "hostsvc")}
	b.facilities = []Facility{
		probeTreeAccess("procfs", cfg.Device.ProcRoot, false),
		probeTreeAccess("sysfs", cfg.Device.SysfsRoot, false),
		probeSocket("udev-control", cfg.Device.UdevControl),
		probeBinary("udevadm", "udevadm", true),
	}

	for _, fac := range b.facilities {
		if fac.Available || fac.Optional {
			continue
		}
		return nil, Wrap(ErrUnavailable, "host-services", "start", fac.Name+": "+fac.Detail, nil)
	}

	b.logger.Info("host services started", logging.Int("facilities", len(b.facilities)))
	return b, nil
}

// Facilities returns a copy of the probed facility table.
func (b *Broker) Facilities() []Facility {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Facility, len(b.facilities))
	copy(out, b.facilities)
	return out
}

// ProcessRunning reports whether a process with the given executable name is
// currently running. The kernel truncates comm values to 15 bytes, so longer
// names match on their truncated prefix.
func (b *Broker) ProcessRunning(name string) (bool, error) {
	target := strings.TrimSpace(name)
	if target == "" {
		return false, Wrap(ErrConfiguration, "host-services", "process-query", "process name is required", nil)
	}
	if len(target) > 15 {
		target = target[:15]
	}

	root := b.cfg.Device.ProcRoot
	entries, err := os.ReadDir(root)
	if err != nil {
		return false, Wrap(ErrUnavailable, "host-services", "process-query", "read "+root, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() || !isNumeric(entry.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(root, entry.Name(), "comm"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(data)) == target {
			return true, nil
		}
	}
	return false, nil
}

// Close releases the broker. Probed state is discarded; there are no live
// host handles to tear down.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.logger.Info("host services stopped")
	return nil
}

func probeTreeAccess(name, path string, optional bool) Facility {
	fac := Facility{Name: name, Optional: optional}
	if strings.TrimSpace(path) == "" {
		fac.Detail = "path not configured"
		return fac
	}
	info, err := os.Stat(path)
	if err != nil {
		fac.Detail = fmt.Sprintf("%s (error: %v)", path, err)
		return fac
	}
	if !info.IsDir() {
		fac.Detail = fmt.Sprintf("%s (error: is not a directory)", path)
		return fac
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		fac.Detail = fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)
		return fac
	}
	fac.Available = true
	fac.Detail = path
	return fac
}

func probeSocket(name, path string) Facility {
	fac := Facility{Name: name, Optional: true}
	if strings.TrimSpace(path) == "" {
		fac.Detail = "path not configured"
		return fac
	}
	info, err := os.Stat(path)
	if err != nil {
		fac.Detail = fmt.Sprintf("%s (error: %v)", path, err)
		return fac
	}
	if info.Mode()&os.ModeSocket == 0 {
		fac.Detail = fmt.Sprintf("%s (error: is not a socket)", path)
		return fac
	}
	fac.Available = true
	fac.Detail = path
	return fac
}

func probeBinary(name, command string, optional bool) Facility {
	fac := Facility{Name: name, Optional: optional}
	cmd := strings.TrimSpace(command)
	if cmd == "" {
		fac.Detail = "command not configured"
		return fac
	}
	resolved, err := exec.LookPath(cmd)
	if err != nil {
		fac.Detail = fmt.Sprintf("binary %q not found", cmd)
		return fac
	}
	fac.Available = true
	fac.Detail = resolved
	return fac
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
