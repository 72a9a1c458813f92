// Package usblink speaks the framed request/response protocol of the
// cartridge reader MCU. The link endpoint is a device node or, on
// development hosts, a unix socket exposing the same framing.
package usblink

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"hopper/internal/config"
	"hopper/internal/hostsvc"
	"hopper/internal/logging"
)

// Protocol opcodes. The reader answers every request with a status byte
// followed by a length-prefixed payload.
const (
	opPing       = 0x01
	opPanelLock  = 0x02
	opSlotStatus = 0x03
)

const (
	statusOK = 0x00

	// maxPayload bounds a single frame payload. The MCU buffers are small.
	maxPayload = 0x1000
)

// pingToken is echoed back verbatim by a healthy reader.
var pingToken = []byte("HPLK")

var (
	// ErrLinkClosed marks use of a link after Close.
	ErrLinkClosed = errors.New("reader link closed")
	// ErrProtocol marks a malformed or unexpected reader response.
	ErrProtocol = errors.New("reader protocol violation")
)

// SlotState is the cartridge slot state reported by the reader.
type SlotState int

const (
	SlotEmpty SlotState = iota
	SlotInserted
	SlotReady
)

func (s SlotState) String() string {
	switch s {
	case SlotEmpty:
		return "empty"
	case SlotInserted:
		return "inserted"
	case SlotReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Link is a connected reader transport. One request/response exchange runs
// at a time; the mutex serializes concurrent callers.
type Link struct {
	device string
	logger *slog.Logger

	mu   sync.Mutex
	conn io.ReadWriteCloser
}

// Dial connects to the configured reader endpoint and verifies it with a
// ping exchange.
func Dial(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Link, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	device := cfg.Link.Device
	timeout := time.Duration(cfg.Link.DialTimeoutSeconds) * time.Second

	conn, err := dialEndpoint(ctx, device, timeout)
	if err != nil {
		return nil, hostsvc.Wrap(hostsvc.ErrHardware, "usblink", "dial", "connect to reader "+device, err)
	}

	link := &Link{
		device: device,
		logger: logging.NewComponentLogger(logger, "usblink"),
		conn:   conn,
	}
	if err := link.Ping(ctx); err != nil {
		link.Close()
		return nil, hostsvc.Wrap(hostsvc.ErrHardware, "usblink", "dial", "reader did not answer ping", err)
	}

	link.logger.Info("reader link established",
		logging.String(logging.FieldEventType, "reader_link_up"),
		logging.String(logging.FieldDevice, device))
	return link, nil
}

// dialEndpoint opens the reader endpoint: unix sockets are dialed, anything
// else is opened as a device node.
func dialEndpoint(ctx context.Context, device string, timeout time.Duration) (io.ReadWriteCloser, error) {
	info, err := os.Stat(device)
	if err != nil {
		return nil, err
	}
	if info.Mode()&os.ModeSocket != 0 {
		dialer := net.Dialer{Timeout: timeout}
		return dialer.DialContext(ctx, "unix", device)
	}
	return os.OpenFile(device, os.O_RDWR, 0)
}

// Device returns the endpoint path the link was dialed against.
func (l *Link) Device() string {
	return l.device
}

// Ping verifies the reader echoes the link token.
func (l *Link) Ping(ctx context.Context) error {
	payload, err := l.exchange(ctx, opPing, pingToken)
	if err != nil {
		return err
	}
	if string(payload) != string(pingToken) {
		return fmt.Errorf("ping echo %q: %w", payload, ErrProtocol)
	}
	return nil
}

// SetPanelLock locks or unlocks the reader's front-panel controls. Long
// dump jobs lock the panel so a stray button press cannot eject the
// cartridge mid-transfer.
func (l *Link) SetPanelLock(ctx context.Context, locked bool) error {
	arg := []byte{0}
	if locked {
		arg[0] = 1
	}
	if _, err := l.exchange(ctx, opPanelLock, arg); err != nil {
		return err
	}
	l.logger.Debug("panel lock changed", logging.Bool("locked", locked))
	return nil
}

// SlotStatus queries the cartridge slot state.
func (l *Link) SlotStatus(ctx context.Context) (SlotState, error) {
	payload, err := l.exchange(ctx, opSlotStatus, nil)
	if err != nil {
		return SlotEmpty, err
	}
	if len(payload) != 1 {
		return SlotEmpty, fmt.Errorf("slot status payload %d bytes: %w", len(payload), ErrProtocol)
	}
	state := SlotState(payload[0])
	if state < SlotEmpty || state > SlotReady {
		return SlotEmpty, fmt.Errorf("slot state %d: %w", payload[0], ErrProtocol)
	}
	return state, nil
}

// Close shuts the link down. Further calls fail with ErrLinkClosed.
func (l *Link) Close() error {
	l.mu.Lock()
	conn := l.conn
	l.conn = nil
	l.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// exchange sends one framed request and reads the framed response.
func (l *Link) exchange(ctx context.Context, op byte, payload []byte) ([]byte, error) {
	if len(payload) > maxPayload {
		return nil, fmt.Errorf("payload %d bytes over limit: %w", len(payload), ErrProtocol)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil, ErrLinkClosed
	}

	if conn, ok := l.conn.(net.Conn); ok {
		deadline := time.Now().Add(5 * time.Second)
		if d, ok := ctx.Deadline(); ok {
			deadline = d
		}
		_ = conn.SetDeadline(deadline)
		defer conn.SetDeadline(time.Time{})
	}

	frame := make([]byte, 3+len(payload))
	frame[0] = op
	binary.BigEndian.PutUint16(frame[1:3], uint16(len(payload)))
	copy(frame[3:], payload)
	if _, err := l.conn.Write(frame); err != nil {
		return nil, fmt.Errorf("write %#02x frame: %w", op, err)
	}

	var header [3]byte
	if _, err := io.ReadFull(l.conn, header[:]); err != nil {
		return nil, fmt.Errorf("read %#02x response header: %w", op, err)
	}
	size := binary.BigEndian.Uint16(header[1:3])
	if size > maxPayload {
		return nil, fmt.Errorf("response payload %d bytes over limit: %w", size, ErrProtocol)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(l.conn, body); err != nil {
		return nil, fmt.Errorf("read %#02x response payload: %w", op, err)
	}
	if header[0] != statusOK {
		return nil, fmt.Errorf("reader status %#02x for op %#02x: %w", header[0], op, ErrProtocol)
	}
	return body, nil
}
