package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDevice(); err != nil {
		return err
	}
	c.normalizeLink()
	c.normalizeUpdates()
	c.normalizeNotifications()
	c.normalizePerformance()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.VolumeDir, err = expandPath(c.Paths.VolumeDir); err != nil {
		return fmt.Errorf("paths.volume_dir: %w", err)
	}
	if c.Paths.KeysFile, err = expandPath(c.Paths.KeysFile); err != nil {
		return fmt.Errorf("paths.keys_file: %w", err)
	}
	if c.Paths.SystemImage, err = expandPath(c.Paths.SystemImage); err != nil {
		return fmt.Errorf("paths.system_image: %w", err)
	}
	if c.Paths.FontsDir, err = expandPath(c.Paths.FontsDir); err != nil {
		return fmt.Errorf("paths.fonts_dir: %w", err)
	}

	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = filepath.Join(c.Paths.DataDir, "hopperd.sock")
	} else if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.PIDFile) == "" {
		c.Paths.PIDFile = filepath.Join(c.Paths.DataDir, "hopperd.pid")
	} else if c.Paths.PIDFile, err = expandPath(c.Paths.PIDFile); err != nil {
		return fmt.Errorf("paths.pid_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockFile) == "" {
		c.Paths.LockFile = filepath.Join(c.Paths.DataDir, "hopperd.lock")
	} else if c.Paths.LockFile, err = expandPath(c.Paths.LockFile); err != nil {
		return fmt.Errorf("paths.lock_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.TitlesDB) == "" {
		c.Paths.TitlesDB = filepath.Join(c.Paths.DataDir, "titles.db")
	} else if c.Paths.TitlesDB, err = expandPath(c.Paths.TitlesDB); err != nil {
		return fmt.Errorf("paths.titles_db: %w", err)
	}

	if strings.TrimSpace(c.Capture.Dir) == "" {
		c.Capture.Dir = filepath.Join(c.Paths.LogDir, "sessions")
	} else if c.Capture.Dir, err = expandPath(c.Capture.Dir); err != nil {
		return fmt.Errorf("capture.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDevice() error {
	var err error
	if c.Device.SysfsRoot, err = expandPath(c.Device.SysfsRoot); err != nil {
		return fmt.Errorf("device.sysfs_root: %w", err)
	}
	if c.Device.ProcRoot, err = expandPath(c.Device.ProcRoot); err != nil {
		return fmt.Errorf("device.proc_root: %w", err)
	}
	if c.Device.UdevControl, err = expandPath(c.Device.UdevControl); err != nil {
		return fmt.Errorf("device.udev_control: %w", err)
	}
	if c.Device.OSRelease, err = expandPath(c.Device.OSRelease); err != nil {
		return fmt.Errorf("device.os_release: %w", err)
	}
	return nil
}

func (c *Config) normalizeLink() {
	c.Link.Device = strings.TrimSpace(c.Link.Device)
	if c.Link.DialTimeoutSeconds <= 0 {
		c.Link.DialTimeoutSeconds = defaultLinkDialTimeout
	}
}

func (c *Config) normalizeUpdates() {
	c.Updates.Endpoint = strings.TrimSpace(c.Updates.Endpoint)
	if c.Updates.TimeoutSeconds <= 0 {
		c.Updates.TimeoutSeconds = defaultUpdateTimeout
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizePerformance() {
	c.Performance.BoostGovernor = strings.TrimSpace(c.Performance.BoostGovernor)
	c.Performance.NormalGovernor = strings.TrimSpace(c.Performance.NormalGovernor)
	if c.Performance.BoostGovernor == "" {
		c.Performance.BoostGovernor = defaultBoostGovernor
	}
	if c.Performance.NormalGovernor == "" {
		c.Performance.NormalGovernor = defaultNormalGovernor
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
