// Package cartridge manages the cartridge slot session on top of the
// reader link: slot state tracking and the scratch buffer dumps stream
// through.
package cartridge

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"hopper/internal/hostsvc"
	"hopper/internal/logging"
	"hopper/internal/usblink"
)

// ReaderLink is the slice of the reader transport the subsystem needs.
type ReaderLink interface {
	Ping(ctx context.Context) error
	SlotStatus(ctx context.Context) (usblink.SlotState, error)
}

// ErrStopped marks use of the subsystem after Stop.
var ErrStopped = errors.New("cartridge subsystem stopped")

// Subsystem is the running cartridge session.
type Subsystem struct {
	link   ReaderLink
	pool   *ScratchPool
	logger *slog.Logger

	mu       sync.Mutex
	stopped  bool
	lastSeen usblink.SlotState
}

// Start verifies the reader link and binds the scratch pool to the session.
func Start(ctx context.Context, link ReaderLink, pool *ScratchPool, logger *slog.Logger) (*Subsystem, error) {
	if link == nil {
		return nil, errors.New("reader link is required")
	}
	if pool == nil {
		return nil, errors.New("scratch pool is required")
	}
	if err := link.Ping(ctx); err != nil {
		return nil, hostsvc.Wrap(hostsvc.ErrHardware, "cartridge", "start", "reader link not responding", err)
	}

	sub := &Subsystem{
		link:   link,
		pool:   pool,
		logger: logging.NewComponentLogger(logger, "cartridge"),
	}

	state, err := link.SlotStatus(ctx)
	if err != nil {
		return nil, hostsvc.Wrap(hostsvc.ErrHardware, "cartridge", "start", "query slot state", err)
	}
	sub.lastSeen = state
	sub.logger.Info("cartridge subsystem started",
		logging.String(logging.FieldEventType, "cartridge_started"),
		logging.String(logging.FieldSlot, state.String()))
	return sub, nil
}

// Slot returns the live slot state and remembers it.
func (s *Subsystem) Slot(ctx context.Context) (usblink.SlotState, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return usblink.SlotEmpty, ErrStopped
	}
	s.mu.Unlock()

	state, err := s.link.SlotStatus(ctx)
	if err != nil {
		return usblink.SlotEmpty, err
	}
	s.mu.Lock()
	s.lastSeen = state
	s.mu.Unlock()
	return state, nil
}

// LastSeen returns the most recent slot state without touching hardware.
func (s *Subsystem) LastSeen() usblink.SlotState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Scratch exposes the session's scratch pool.
func (s *Subsystem) Scratch() *ScratchPool {
	return s.pool
}

// Stop ends the session. The scratch pool stays with its own lifecycle
// step; only the session state is torn down here.
func (s *Subsystem) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.logger.Info("cartridge subsystem stopped",
		logging.String(logging.FieldEventType, "cartridge_stopped"))
}
