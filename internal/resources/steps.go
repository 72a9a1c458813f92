package resources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"hopper/internal/assets"
	"hopper/internal/cartridge"
	"hopper/internal/hostsvc"
	"hopper/internal/keyset"
	"hopper/internal/logging"
	"hopper/internal/netclient"
	"hopper/internal/platform"
	"hopper/internal/prefs"
	"hopper/internal/removable"
	"hopper/internal/storage"
	"hopper/internal/sysimage"
	"hopper/internal/titledb"
	"hopper/internal/usblink"
)

// buildSteps assembles the bring-up sequence. Order matters: later steps
// depend on handles established by earlier ones (the cartridge subsystem
// rides the reader link, flavor detection queries the broker).
func (m *Manager) buildSteps() []*step {
	return []*step{
		{name: "runtime-lock", fatal: true, start: m.startRuntimeLock, stop: m.stopRuntimeLock},
		{name: "launch-path", fatal: false, start: m.startLaunchPath},
		{name: "volume", fatal: true, start: m.startVolume, stop: m.stopVolume},
		{name: "host-services", fatal: true, start: m.startHostServices, stop: m.stopHostServices},
		{name: "debug-link", fatal: false, start: m.startDebugLink, stop: m.stopDebugLink},
		{name: "system-flavor", fatal: false, start: m.startSystemFlavor},
		{name: "board-model", fatal: true, start: m.startBoardModel},
		{name: "dev-unit", fatal: true, start: m.startDevUnit},
		{name: "run-mode", fatal: true, start: m.startRunMode},
		{name: "output-dirs", fatal: false, start: m.startOutputDirs},
		{name: "net-client", fatal: true, start: m.startNetClient, stop: m.stopNetClient},
		{name: "reader-link", fatal: true, start: m.startReaderLink, stop: m.stopReaderLink},
		{name: "removable", fatal: true, start: m.startRemovable, stop: m.stopRemovable},
		{name: "keyset", fatal: true, start: m.startKeyset, stop: m.stopKeyset},
		{name: "scratch", fatal: true, start: m.startScratch, stop: m.stopScratch},
		{name: "cartridge", fatal: true, start: m.startCartridge, stop: m.stopCartridge},
		{name: "title-catalog", fatal: true, start: m.startTitleCatalog, stop: m.stopTitleCatalog},
		{name: "font-assets", fatal: true, start: m.startFontAssets, stop: m.stopFontAssets},
		{name: "system-image", fatal: true, start: m.startSystemImage, stop: m.stopSystemImage},
		{name: "embedded-data", fatal: true, start: m.startEmbeddedData, stop: m.stopEmbeddedData},
		{name: "preferences", fatal: true, start: m.startPreferences, stop: m.stopPreferences},
		{name: "power-observer", fatal: false, start: m.startPowerObserver, stop: m.stopPowerObserver},
		{name: "session-capture", fatal: false, start: m.startSessionCapture, stop: m.stopSessionCapture},
	}
}

func (m *Manager) startRuntimeLock(context.Context) error {
	path := m.cfg.Paths.LockFile
	if err := storage.EnsureParent(path); err != nil {
		return err
	}
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("another instance holds %s", path)
	}
	m.lock = lock
	return nil
}

func (m *Manager) stopRuntimeLock() {
	if err := m.lock.Unlock(); err != nil {
		logging.WarnWithContext(m.logger, "failed to release runtime lock", "runtime_lock_release_failed",
			logging.Error(err))
	}
	m.lock = nil
}

func (m *Manager) startLaunchPath(context.Context) error {
	path := ""
	if len(m.args) > 0 {
		path = m.args[0]
	}
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("resolve executable: %w", err)
		}
		path = exe
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolutize %q: %w", path, err)
	}
	m.launchPath = abs
	return nil
}

func (m *Manager) startVolume(context.Context) error {
	volume, err := storage.Open(m.cfg.Paths.VolumeDir, m.logger)
	if err != nil {
		return err
	}
	m.volume = volume
	return nil
}

func (m *Manager) stopVolume() {
	if err := m.volume.Commit(); err != nil {
		logging.WarnWithContext(m.logger, "failed to commit volume on teardown", "volume_commit_failed",
			logging.Error(err))
	}
	m.volume = nil
}

func (m *Manager) startHostServices(context.Context) error {
	broker, err := hostsvc.Start(m.cfg, m.logger)
	if err != nil {
		return err
	}
	m.broker = broker
	return nil
}

func (m *Manager) stopHostServices() {
	_ = m.broker.Close()
	m.broker = nil
}

func (m *Manager) startDebugLink(ctx context.Context) error {
	if m.mirror == nil || !m.mirror.Configured() {
		m.logger.Debug("no debug collector configured, mirror stays dormant")
		return nil
	}
	return m.mirror.Connect(ctx)
}

func (m *Manager) stopDebugLink() {
	if m.mirror != nil {
		_ = m.mirror.Close()
	}
}

func (m *Manager) startSystemFlavor(context.Context) error {
	flavor, err := platform.DetectFlavor(m.broker, m.cfg.Device.OSRelease)
	if err != nil {
		return err
	}
	m.flavor = flavor
	return nil
}

func (m *Manager) startBoardModel(context.Context) error {
	board, err := platform.DetectBoard(m.cfg.Device.SysfsRoot)
	if err != nil {
		return err
	}
	m.board = board
	return nil
}

func (m *Manager) startDevUnit(context.Context) error {
	devUnit, err := platform.DetectDevUnit(m.cfg.Device.SysfsRoot)
	if err != nil {
		return err
	}
	m.devUnit = devUnit
	return nil
}

func (m *Manager) startRunMode(context.Context) error {
	m.runMode = platform.DetectRunMode()
	return nil
}

func (m *Manager) startOutputDirs(context.Context) error {
	return m.volume.EnsureOutputDirs()
}

func (m *Manager) startNetClient(context.Context) error {
	m.net = netclient.Start(m.cfg, m.logger)
	return nil
}

func (m *Manager) stopNetClient() {
	m.net.Close()
	m.net = nil
}

func (m *Manager) startReaderLink(ctx context.Context) error {
	link, err := usblink.Dial(ctx, m.cfg, m.logger)
	if err != nil {
		return err
	}
	m.link = link
	return nil
}

func (m *Manager) stopReaderLink() {
	if err := m.link.Close(); err != nil {
		logging.WarnWithContext(m.logger, "failed to close reader link", "reader_link_close_failed",
			logging.Error(err))
	}
	m.link = nil
}

func (m *Manager) startRemovable(context.Context) error {
	scanner, err := removable.Start(m.cfg, m.logger)
	if err != nil {
		return err
	}
	m.removable = scanner
	return nil
}

func (m *Manager) stopRemovable() {
	m.removable.Stop()
	m.removable = nil
}

func (m *Manager) startKeyset(context.Context) error {
	keys, err := keyset.Load(m.cfg.Paths.KeysFile, m.logger)
	if err != nil {
		return err
	}
	m.keys = keys
	return nil
}

func (m *Manager) stopKeyset() {
	m.keys = nil
}

func (m *Manager) startScratch(context.Context) error {
	pool, err := cartridge.NewScratchPool(m.cfg.Cartridge.ScratchMiB)
	if err != nil {
		return err
	}
	m.scratch = pool
	return nil
}

func (m *Manager) stopScratch() {
	m.scratch.Free()
	m.scratch = nil
}

func (m *Manager) startCartridge(ctx context.Context) error {
	sub, err := cartridge.Start(ctx, m.link, m.scratch, m.logger)
	if err != nil {
		return err
	}
	m.cart = sub
	return nil
}

func (m *Manager) stopCartridge() {
	m.cart.Stop()
	m.cart = nil
}

func (m *Manager) startTitleCatalog(context.Context) error {
	store, err := titledb.Open(m.cfg)
	if err != nil {
		return err
	}
	m.titles = store
	return nil
}

func (m *Manager) stopTitleCatalog() {
	if err := m.titles.Close(); err != nil {
		logging.WarnWithContext(m.logger, "failed to close title catalog", "title_catalog_close_failed",
			logging.Error(err))
	}
	m.titles = nil
}

func (m *Manager) startFontAssets(context.Context) error {
	fonts, err := assets.LoadFonts(m.cfg.Paths.FontsDir, m.logger)
	if err != nil {
		return err
	}
	m.fonts = fonts
	return nil
}

func (m *Manager) stopFontAssets() {
	m.fonts = nil
}

func (m *Manager) startSystemImage(context.Context) error {
	img, err := sysimage.Mount(m.cfg.Paths.SystemImage, m.logger)
	if err != nil {
		return err
	}
	m.sysImage = img
	return nil
}

func (m *Manager) stopSystemImage() {
	if err := m.sysImage.Unmount(); err != nil {
		logging.WarnWithContext(m.logger, "failed to unmount system image", "system_image_unmount_failed",
			logging.Error(err))
	}
	m.sysImage = nil
}

func (m *Manager) startEmbeddedData(context.Context) error {
	data, err := assets.OpenEmbedded(m.logger)
	if err != nil {
		return err
	}
	m.data = data
	return nil
}

func (m *Manager) stopEmbeddedData() {
	m.data = nil
}

func (m *Manager) startPreferences(context.Context) error {
	store, err := prefs.Open(m.cfg, m.logger)
	if err != nil {
		return err
	}
	m.prefs = store
	return nil
}

func (m *Manager) stopPreferences() {
	m.prefs = nil
}

func (m *Manager) startPowerObserver(ctx context.Context) error {
	m.monitor = platform.NewMonitor(m.cfg, m.logger, m.handlePowerEvent, func() bool {
		return !m.initialized.Load()
	})
	return m.monitor.Start(ctx)
}

func (m *Manager) stopPowerObserver() {
	m.monitor.Stop()
	m.monitor = nil
}

func (m *Manager) startSessionCapture(context.Context) error {
	if m.runMode.IsConstrained() {
		m.logger.Debug("session capture skipped in constrained run mode")
		return nil
	}
	if m.prefs != nil && !m.prefs.Values().Capture {
		m.logger.Debug("session capture disabled by preference")
		return nil
	}
	capture, err := platform.StartCapture(m.cfg.Capture.Dir, m.sessionID, m.logger)
	if err != nil {
		return err
	}
	m.capture = capture
	return nil
}

func (m *Manager) stopSessionCapture() {
	if m.capture == nil {
		return
	}
	if err := m.capture.Close(); err != nil {
		logging.WarnWithContext(m.logger, "failed to close session capture", "session_capture_close_failed",
			logging.Error(err))
	}
	m.capture = nil
}
