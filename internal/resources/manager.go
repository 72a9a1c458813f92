package resources

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"hopper/internal/assets"
	"hopper/internal/cartridge"
	"hopper/internal/config"
	"hopper/internal/debuglink"
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

const panelLockTimeout = 3 * time.Second

// step is one entry in the ordered bring-up list. Close walks the same
// list backwards, stopping only entries whose start succeeded.
type step struct {
	name    string
	fatal   bool
	start   func(ctx context.Context) error
	stop    func()
	started bool
}

// Manager owns the process-wide resources. One instance exists per daemon
// process; daemonrun creates it and hands it around by pointer. All state
// transitions take mu. Read accessors are lock-free: every field they
// expose is written before initialized flips to true, and readers gate on
// Initialized().
type Manager struct {
	cfg       *config.Config
	logger    *slog.Logger
	recorder  *logging.Recorder
	mirror    *debuglink.Mirror
	sessionID string

	mu          sync.Mutex
	initialized atomic.Bool
	longRunning bool
	boosted     bool
	args        []string
	steps       []*step

	launchPath string
	board      platform.Board
	devUnit    bool
	flavor     platform.Flavor
	runMode    platform.RunMode

	lock      *flock.Flock
	volume    *storage.Volume
	broker    *hostsvc.Broker
	net       *netclient.Client
	link      *usblink.Link
	removable *removable.Scanner
	keys      *keyset.Set
	scratch   *cartridge.ScratchPool
	cart      *cartridge.Subsystem
	titles    *titledb.Store
	fonts     *assets.FontSet
	sysImage  *sysimage.Image
	data      *assets.DataFS
	prefs     *prefs.Store
	monitor   *platform.Monitor
	capture   *platform.Capture
	governor  *platform.GovernorController
	idle      *platform.IdleGuard
}

// New builds an uninitialized manager. The recorder, when provided, feeds
// the last captured log line into fatal bring-up errors; the mirror, when
// provided and configured, is connected by the debug-link step. Neither is
// required.
func New(cfg *config.Config, logger *slog.Logger, recorder *logging.Recorder, mirror *debuglink.Mirror, sessionID string) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "resources"),
		recorder:  recorder,
		mirror:    mirror,
		sessionID: sessionID,
		governor:  platform.NewGovernorController(cfg, logger),
		idle:      platform.NewIdleGuard(cfg, logger),
	}
	m.steps = m.buildSteps()
	return m
}

// Initialize brings every subsystem up in step order. It is idempotent:
// an already-initialized manager returns nil immediately. The first
// failing fatal step aborts the sequence and returns its error; steps
// already started in that attempt stay active until Close. Non-fatal
// failures are logged and the sequence continues. A retried Initialize
// skips steps that are still running from the aborted attempt.
func (m *Manager) Initialize(ctx context.Context, args []string) error {
	if m.initialized.Load() {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized.Load() {
		return nil
	}
	m.args = args

	for _, st := range m.steps {
		if st.started {
			continue
		}
		m.logger.Debug("starting resource step", logging.String("step", st.name))
		if err := st.start(ctx); err != nil {
			if st.fatal {
				wrapped := m.stepError(st.name, err)
				logging.ErrorWithContext(m.logger, "resource bring-up failed", "resource_init_failed",
					logging.String("step", st.name),
					logging.Error(err),
					logging.String(logging.FieldImpact, "daemon cannot serve requests"))
				return wrapped
			}
			logging.WarnWithContext(m.logger, "optional resource unavailable", "resource_step_degraded",
				logging.String("step", st.name),
				logging.Error(err))
			continue
		}
		st.started = true
	}

	m.initialized.Store(true)
	m.logger.Info("process resources initialized",
		logging.String(logging.FieldEventType, "resources_initialized"),
		logging.String("board", m.board.Model),
		logging.String("flavor", m.flavor.String()),
		logging.String("run_mode", m.runMode.String()),
		logging.Bool("dev_unit", m.devUnit))
	return nil
}

// Close reverts long-running mode if set, then stops every started step in
// reverse start order. Teardown errors are logged by the individual stop
// handlers and never propagated. Idempotent.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.longRunning {
		m.applyLongRunningLocked(context.Background(), false)
		m.longRunning = false
	}

	for i := len(m.steps) - 1; i >= 0; i-- {
		st := m.steps[i]
		if !st.started {
			continue
		}
		m.logger.Debug("stopping resource step", logging.String("step", st.name))
		if st.stop != nil {
			st.stop()
		}
		st.started = false
	}

	if m.initialized.Swap(false) {
		m.logger.Info("process resources released",
			logging.String(logging.FieldEventType, "resources_released"))
	}
}

// SetLongRunning toggles long-running mode: front-panel input lock
// (skipped in constrained run mode), display keep-awake, and the boost
// governor when the overclock preference is set. No-op when the manager
// is uninitialized or already in the requested mode.
func (m *Manager) SetLongRunning(enabled bool) {
	if !m.initialized.Load() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized.Load() || m.longRunning == enabled {
		return
	}
	m.applyLongRunningLocked(context.Background(), enabled)
	m.longRunning = enabled
	m.logger.Info("long-running mode changed",
		logging.String(logging.FieldEventType, "long_running_changed"),
		logging.Bool("enabled", enabled))
}

func (m *Manager) applyLongRunningLocked(ctx context.Context, enabled bool) {
	if m.link != nil && !m.runMode.IsConstrained() {
		lockCtx, cancel := context.WithTimeout(ctx, panelLockTimeout)
		err := m.link.SetPanelLock(lockCtx, enabled)
		cancel()
		if err != nil {
			logging.WarnWithContext(m.logger, "failed to toggle panel lock", "panel_lock_failed",
				logging.Bool("enabled", enabled),
				logging.Error(err))
		}
	}

	if m.idle != nil {
		var err error
		if enabled {
			err = m.idle.Suppress()
		} else {
			err = m.idle.Release()
		}
		if err != nil {
			logging.WarnWithContext(m.logger, "failed to toggle display keep-awake", "idle_guard_failed",
				logging.Bool("enabled", enabled),
				logging.Error(err))
		}
	}

	switch {
	case enabled:
		if m.prefs == nil || !m.prefs.Values().Overclock || m.governor == nil {
			return
		}
		if err := m.governor.Apply(m.cfg.Performance.BoostGovernor); err != nil {
			logging.WarnWithContext(m.logger, "failed to apply boost governor", "governor_apply_failed",
				logging.Error(err))
			return
		}
		m.boosted = true
	case m.boosted:
		if err := m.governor.Apply(m.cfg.Performance.NormalGovernor); err != nil {
			logging.WarnWithContext(m.logger, "failed to restore normal governor", "governor_apply_failed",
				logging.Error(err))
		}
		m.boosted = false
	}
}

// handlePowerEvent reapplies the governor on power transitions while
// long-running mode holds boost clocks: external power loss drops to the
// normal governor, restoration re-boosts.
func (m *Manager) handlePowerEvent(ctx context.Context, event platform.PowerEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized.Load() || !m.longRunning {
		return
	}
	if m.prefs == nil || !m.prefs.Values().Overclock || m.governor == nil {
		return
	}

	switch event.Kind {
	case platform.PowerOffline:
		if !m.boosted {
			return
		}
		if err := m.governor.Apply(m.cfg.Performance.NormalGovernor); err != nil {
			logging.WarnWithContext(m.logger, "failed to drop boost on power loss", "governor_apply_failed",
				logging.String("supply", event.Supply),
				logging.Error(err))
			return
		}
		m.boosted = false
	case platform.PowerOnline:
		if m.boosted {
			return
		}
		if err := m.governor.Apply(m.cfg.Performance.BoostGovernor); err != nil {
			logging.WarnWithContext(m.logger, "failed to re-boost on power return", "governor_apply_failed",
				logging.String("supply", event.Supply),
				logging.Error(err))
			return
		}
		m.boosted = true
	}
}

func (m *Manager) stepError(name string, err error) error {
	wrapped := fmt.Errorf("start %s: %w", name, err)
	if m.recorder != nil {
		if last := m.recorder.LastMessage(); last != "" {
			wrapped = fmt.Errorf("%w (last log: %s)", wrapped, last)
		}
	}
	return wrapped
}

// Initialized reports whether the full bring-up sequence has completed.
func (m *Manager) Initialized() bool {
	return m.initialized.Load()
}

// LongRunning reports whether long-running mode is currently engaged.
func (m *Manager) LongRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.longRunning
}

// SessionID returns the identifier assigned to this daemon session.
func (m *Manager) SessionID() string {
	return m.sessionID
}

// LaunchPath returns the resolved invocation path, or empty when it could
// not be determined.
func (m *Manager) LaunchPath() string {
	return m.launchPath
}

// BoardModel returns the detected mainboard identity.
func (m *Manager) BoardModel() platform.Board {
	return m.board
}

// IsRevisedBoard reports whether the board is a revision B or later unit.
func (m *Manager) IsRevisedBoard() bool {
	return m.board.Revised()
}

// IsDevelopmentUnit reports whether the appliance is factory-flagged as a
// development unit.
func (m *Manager) IsDevelopmentUnit() bool {
	return m.devUnit
}

// SystemFlavor returns the detected firmware flavor.
func (m *Manager) SystemFlavor() platform.Flavor {
	return m.flavor
}

// RunMode returns the detected launch mode.
func (m *Manager) RunMode() platform.RunMode {
	return m.runMode
}

// IsConstrained reports whether the run mode limits host-wide adjustments.
func (m *Manager) IsConstrained() bool {
	return m.runMode.IsConstrained()
}

// Volume returns the output storage volume handle.
func (m *Manager) Volume() *storage.Volume {
	return m.volume
}

// Broker returns the host services broker.
func (m *Manager) Broker() *hostsvc.Broker {
	return m.broker
}

// NetClient returns the shared network client.
func (m *Manager) NetClient() *netclient.Client {
	return m.net
}

// ReaderLink returns the cart reader transport.
func (m *Manager) ReaderLink() *usblink.Link {
	return m.link
}

// Removable returns the mass-storage scanner.
func (m *Manager) Removable() *removable.Scanner {
	return m.removable
}

// Keys returns the loaded key material.
func (m *Manager) Keys() *keyset.Set {
	return m.keys
}

// Cartridge returns the cartridge subsystem.
func (m *Manager) Cartridge() *cartridge.Subsystem {
	return m.cart
}

// Titles returns the title-catalog store.
func (m *Manager) Titles() *titledb.Store {
	return m.titles
}

// Fonts returns the validated font archive set.
func (m *Manager) Fonts() *assets.FontSet {
	return m.fonts
}

// SystemImage returns the mounted system partition image.
func (m *Manager) SystemImage() *sysimage.Image {
	return m.sysImage
}

// EmbeddedData returns the read-only application data container.
func (m *Manager) EmbeddedData() *assets.DataFS {
	return m.data
}

// Prefs returns the mutable runtime preference store.
func (m *Manager) Prefs() *prefs.Store {
	return m.prefs
}
