package platform

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"hopper/internal/config"
	"hopper/internal/logging"
)

// PowerEventKind classifies a power supply transition.
type PowerEventKind int

const (
	PowerUnknown PowerEventKind = iota
	PowerOnline
	PowerOffline
)

func (k PowerEventKind) String() string {
	switch k {
	case PowerOnline:
		return "online"
	case PowerOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// PowerEvent is one power supply transition seen on the udev socket.
type PowerEvent struct {
	Kind   PowerEventKind
	Supply string
}

// Monitor listens for udev power supply events and delivers them to the
// registered handler. Long-running mode uses it to drop boost clocks when
// external power goes away mid-transfer.
type Monitor struct {
	logger    *slog.Logger
	handler   func(ctx context.Context, event PowerEvent)
	suspended func() bool

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewMonitor creates a power monitor. A nil config disables it.
func NewMonitor(cfg *config.Config, logger *slog.Logger, handler func(ctx context.Context, event PowerEvent), suspended func() bool) *Monitor {
	if cfg == nil {
		return nil
	}
	return &Monitor{
		logger:    logging.NewComponentLogger(logger, "power-monitor"),
		handler:   handler,
		suspended: suspended,
	}
}

// Start begins listening for udev power events. A connect failure is
// downgraded to a warning: the daemon keeps working without live power
// transitions.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(m.logger, "failed to connect to netlink socket; power transitions will not be observed",
			"netlink_connect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ensure the daemon has permission to access netlink sockets"),
			logging.String(logging.FieldImpact, "boost clocks persist across power loss"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("power monitor started",
		logging.String(logging.FieldEventType, "power_monitor_started"))
	return nil
}

// Stop shuts down the monitor.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("power monitor stopped",
		logging.String(logging.FieldEventType, "power_monitor_stopped"))
}

// Running reports whether the monitor is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, m.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			logging.WarnWithContext(m.logger, "power monitor error",
				"power_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "power transitions may be missed"),
			)
		}
	}
}

// buildMatcher matches power supply transitions:
// SUBSYSTEM=power_supply, ACTION=change.
func (m *Monitor) buildMatcher() netlink.Matcher {
	action := "change"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "power_supply",
		},
	})
	return rules
}

func (m *Monitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	event := classifyPowerEvent(uevent)
	if event.Kind == PowerUnknown {
		m.logger.Debug("ignoring power event without online state",
			logging.String("kobj", uevent.KObj))
		return
	}

	if m.suspended != nil && m.suspended() {
		m.logger.Debug("power handling suspended, ignoring event",
			logging.String("supply", event.Supply))
		return
	}

	m.logger.Info("power transition observed",
		logging.String(logging.FieldEventType, "power_transition"),
		logging.String("supply", event.Supply),
		logging.String("state", event.Kind.String()))

	if m.handler != nil {
		m.handler(ctx, event)
	}
}

func classifyPowerEvent(uevent netlink.UEvent) PowerEvent {
	event := PowerEvent{Supply: uevent.Env["POWER_SUPPLY_NAME"]}
	if event.Supply == "" {
		parts := strings.Split(uevent.KObj, "/")
		event.Supply = parts[len(parts)-1]
	}
	switch uevent.Env["POWER_SUPPLY_ONLINE"] {
	case "1":
		event.Kind = PowerOnline
	case "0":
		event.Kind = PowerOffline
	}
	return event
}
