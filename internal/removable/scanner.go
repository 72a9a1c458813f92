// Package removable tracks removable block devices available as offload
// targets for finished dumps. Device discovery walks the sysfs block tree;
// mountpoints come from the mounts table under the proc root.
package removable

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"hopper/internal/config"
	"hopper/internal/hostsvc"
	"hopper/internal/logging"
)

const sectorSize = 512

// ErrStopped marks use of the scanner after Stop.
var ErrStopped = errors.New("removable scanner stopped")

// Device is one removable block device and its current mountpoints.
type Device struct {
	Name      string
	SizeBytes int64
	Vendor    string
	Model     string
	Mounts    []string
}

// Scanner inventories removable devices on demand.
type Scanner struct {
	sysfsRoot string
	procRoot  string
	logger    *slog.Logger

	mu      sync.Mutex
	devices []Device
	stopped bool
}

// Start creates the scanner and runs the initial scan. An unreadable block
// tree is fatal: the transport cannot work without it.
func Start(cfg *config.Config, logger *slog.Logger) (*Scanner, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	s := &Scanner{
		sysfsRoot: cfg.Device.SysfsRoot,
		procRoot:  cfg.Device.ProcRoot,
		logger:    logging.NewComponentLogger(logger, "removable"),
	}
	if err := s.Rescan(); err != nil {
		return nil, err
	}
	s.logger.Info("removable transport started",
		logging.String(logging.FieldEventType, "removable_started"),
		logging.Int("devices", len(s.Devices())))
	return s, nil
}

// Rescan walks the block tree again and replaces the device inventory.
func (s *Scanner) Rescan() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.mu.Unlock()

	blockDir := filepath.Join(s.sysfsRoot, "block")
	entries, err := os.ReadDir(blockDir)
	if err != nil {
		return hostsvc.Wrap(hostsvc.ErrUnavailable, "removable", "scan", "read "+blockDir, err)
	}

	mounts, err := s.readMounts()
	if err != nil {
		return err
	}

	var devices []Device
	for _, entry := range entries {
		name := entry.Name()
		if !s.isRemovable(name) {
			continue
		}
		device := Device{
			Name:      name,
			SizeBytes: s.readSize(name),
			Vendor:    s.readDeviceAttr(name, "vendor"),
			Model:     s.readDeviceAttr(name, "model"),
			Mounts:    mounts["/dev/"+name],
		}
		// Partitions mount under the parent device's name prefix.
		for dev, points := range mounts {
			if dev != "/dev/"+name && strings.HasPrefix(dev, "/dev/"+name) {
				device.Mounts = append(device.Mounts, points...)
			}
		}
		sort.Strings(device.Mounts)
		devices = append(devices, device)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })

	s.mu.Lock()
	s.devices = devices
	s.mu.Unlock()
	return nil
}

// Devices returns the inventory from the last scan.
func (s *Scanner) Devices() []Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Device, len(s.devices))
	copy(out, s.devices)
	return out
}

// Targets returns every mountpoint backed by a removable device, the
// candidate destinations for dump offloading.
func (s *Scanner) Targets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var targets []string
	for _, device := range s.devices {
		targets = append(targets, device.Mounts...)
	}
	sort.Strings(targets)
	return targets
}

// Stop clears the inventory and rejects further scans.
func (s *Scanner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.devices = nil
	s.logger.Info("removable transport stopped",
		logging.String(logging.FieldEventType, "removable_stopped"))
}

func (s *Scanner) isRemovable(name string) bool {
	data, err := os.ReadFile(filepath.Join(s.sysfsRoot, "block", name, "removable"))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "1"
}

func (s *Scanner) readSize(name string) int64 {
	data, err := os.ReadFile(filepath.Join(s.sysfsRoot, "block", name, "size"))
	if err != nil {
		return 0
	}
	sectors, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0
	}
	return sectors * sectorSize
}

func (s *Scanner) readDeviceAttr(name, attr string) string {
	data, err := os.ReadFile(filepath.Join(s.sysfsRoot, "block", name, "device", attr))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// readMounts parses the mounts table into device -> mountpoints.
func (s *Scanner) readMounts() (map[string][]string, error) {
	path := filepath.Join(s.procRoot, "mounts")
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string][]string{}, nil
		}
		return nil, hostsvc.Wrap(hostsvc.ErrUnavailable, "removable", "scan", "read "+path, err)
	}
	defer file.Close()

	mounts := make(map[string][]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || !strings.HasPrefix(fields[0], "/dev/") {
			continue
		}
		mounts[fields[0]] = append(mounts[fields[0]], unescapeMountPath(fields[1]))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read mounts table: %w", err)
	}
	return mounts, nil
}

// unescapeMountPath decodes the octal escapes the kernel uses for spaces
// and other separators in mountpoint paths.
func unescapeMountPath(path string) string {
	if !strings.Contains(path, `\`) {
		return path
	}
	var b strings.Builder
	for i := 0; i < len(path); i++ {
		if path[i] == '\\' && i+3 < len(path) {
			if value, err := strconv.ParseUint(path[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(value))
				i += 3
				continue
			}
		}
		b.WriteByte(path[i])
	}
	return b.String()
}
