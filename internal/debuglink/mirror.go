// Package debuglink mirrors the structured log stream to a development host
// over TCP. The mirror is strictly best-effort: it is created disconnected,
// its handler stays silent until Connect succeeds, and write failures drop
// the connection rather than disturb the daemon.
package debuglink

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"hopper/internal/config"
	"hopper/internal/logging"
)

const dialTimeout = 3 * time.Second

// Mirror forwards log records to a collector host while connected.
type Mirror struct {
	addr   string
	logger *slog.Logger

	mu   sync.Mutex
	conn net.Conn
}

// New builds a disconnected mirror. When no collector host is configured
// the mirror never connects and its handler never emits.
func New(cfg *config.Config, logger *slog.Logger) *Mirror {
	addr := ""
	if cfg != nil && cfg.Debug.Host != "" {
		addr = net.JoinHostPort(cfg.Debug.Host, strconv.Itoa(cfg.Debug.Port))
	}
	return &Mirror{
		addr:   addr,
		logger: logging.NewComponentLogger(logger, "debuglink"),
	}
}

// Configured reports whether a collector host was set.
func (m *Mirror) Configured() bool {
	return m != nil && m.addr != ""
}

// Connected reports whether the mirror currently holds a live connection.
func (m *Mirror) Connected() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

// Connect dials the collector. Reconnecting while connected is a no-op.
func (m *Mirror) Connect(ctx context.Context) error {
	if !m.Configured() {
		return fmt.Errorf("no collector host configured")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != nil {
		return nil
	}

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", m.addr)
	if err != nil {
		return fmt.Errorf("dial collector %s: %w", m.addr, err)
	}
	m.conn = conn
	m.logger.Info("log mirror connected",
		logging.String(logging.FieldEventType, "debuglink_connected"),
		logging.String("collector", m.addr))
	return nil
}

// Close drops the connection. The handler goes silent again.
func (m *Mirror) Close() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Write sends one chunk to the collector. A failed write drops the
// connection; the error is swallowed so logging can never fail on account
// of the mirror.
func (m *Mirror) Write(p []byte) (int, error) {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return len(p), nil
	}
	if _, err := conn.Write(p); err != nil {
		m.mu.Lock()
		if m.conn == conn {
			m.conn = nil
		}
		m.mu.Unlock()
		_ = conn.Close()
	}
	return len(p), nil
}

// Handler returns a slog handler emitting JSON records through the mirror.
// It is safe to install before the mirror has ever connected: records are
// dropped while disconnected.
func (m *Mirror) Handler(level slog.Leveler) slog.Handler {
	return &mirrorHandler{
		mirror: m,
		json:   slog.NewJSONHandler(m, &slog.HandlerOptions{Level: level}),
	}
}

type mirrorHandler struct {
	mirror *Mirror
	json   slog.Handler
}

func (h *mirrorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.mirror.Connected() && h.json.Enabled(ctx, level)
}

func (h *mirrorHandler) Handle(ctx context.Context, record slog.Record) error {
	if !h.mirror.Connected() {
		return nil
	}
	return h.json.Handle(ctx, record)
}

func (h *mirrorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &mirrorHandler{mirror: h.mirror, json: h.json.WithAttrs(attrs)}
}

func (h *mirrorHandler) WithGroup(name string) slog.Handler {
	return &mirrorHandler{mirror: h.mirror, json: h.json.WithGroup(name)}
}
