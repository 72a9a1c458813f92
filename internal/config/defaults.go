package config

const (
	defaultDataDir           = "~/.local/share/hopper"
	defaultLogDir            = "~/.local/share/hopper/logs"
	defaultVolumeDir         = "/mnt/hopper"
	defaultKeysFile          = "~/.config/hopper/prod.keys"
	defaultSystemImage       = "/var/lib/hopper/system.img"
	defaultFontsDir          = "/var/lib/hopper/fonts"
	defaultSysfsRoot         = "/sys"
	defaultProcRoot          = "/proc"
	defaultUdevControl       = "/run/udev/control"
	defaultOSRelease         = "/etc/os-release"
	defaultLinkDevice        = "/dev/hopper0"
	defaultLinkDialTimeout   = 5
	defaultScratchMiB        = 8
	defaultDebugPort         = 28771
	defaultUpdateEndpoint    = "https://api.github.com/repos/hopperhq/hopper/releases/latest"
	defaultUpdateTimeout     = 30
	defaultNotifyTimeout     = 10
	defaultBoostGovernor     = "performance"
	defaultNormalGovernor    = "schedutil"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			LogDir:      defaultLogDir,
			VolumeDir:   defaultVolumeDir,
			KeysFile:    defaultKeysFile,
			SystemImage: defaultSystemImage,
			FontsDir:    defaultFontsDir,
		},
		Device: Device{
			SysfsRoot:   defaultSysfsRoot,
			ProcRoot:    defaultProcRoot,
			UdevControl: defaultUdevControl,
			OSRelease:   defaultOSRelease,
		},
		Link: Link{
			Device:             defaultLinkDevice,
			DialTimeoutSeconds: defaultLinkDialTimeout,
		},
		Cartridge: Cartridge{
			ScratchMiB: defaultScratchMiB,
		},
		Debug: Debug{
			Port: defaultDebugPort,
		},
		Updates: Updates{
			Enabled:        true,
			Endpoint:       defaultUpdateEndpoint,
			TimeoutSeconds: defaultUpdateTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Errors:         true,
			LongRun:        false,
			Dumps:          true,
		},
		Performance: Performance{
			BoostGovernor:  defaultBoostGovernor,
			NormalGovernor: defaultNormalGovernor,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
