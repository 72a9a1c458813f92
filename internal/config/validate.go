package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLink(); err != nil {
		return err
	}
	if err := c.validateCartridge(); err != nil {
		return err
	}
	if err := c.validateDebug(); err != nil {
		return err
	}
	if err := c.validateUpdates(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.VolumeDir) == "" {
		return errors.New("paths.volume_dir must be set")
	}
	if strings.TrimSpace(c.Paths.KeysFile) == "" {
		return errors.New("paths.keys_file must be set")
	}
	return nil
}

func (c *Config) validateLink() error {
	if strings.TrimSpace(c.Link.Device) == "" {
		return errors.New("link.device must be set")
	}
	return nil
}

func (c *Config) validateCartridge() error {
	if c.Cartridge.ScratchMiB <= 0 {
		c.Cartridge.ScratchMiB = defaultScratchMiB
	}
	if c.Cartridge.ScratchMiB > 256 {
		return fmt.Errorf("cartridge.scratch_mib %d exceeds the 256 MiB cap", c.Cartridge.ScratchMiB)
	}
	return nil
}

func (c *Config) validateDebug() error {
	if c.Debug.Host == "" {
		return nil
	}
	if c.Debug.Port <= 0 || c.Debug.Port > 65535 {
		return fmt.Errorf("debug.port %d out of range", c.Debug.Port)
	}
	return nil
}

func (c *Config) validateUpdates() error {
	if !c.Updates.Enabled {
		return nil
	}
	endpoint := strings.TrimSpace(c.Updates.Endpoint)
	if endpoint == "" {
		return errors.New("updates.endpoint must be set when updates are enabled")
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return fmt.Errorf("updates.endpoint %q must be an http(s) URL", endpoint)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q not supported (console, json)", c.Logging.Format)
	}
	return nil
}
