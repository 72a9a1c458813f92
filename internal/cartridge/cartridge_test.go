package cartridge_test

import (
	"context"
	"errors"
	"testing"

	"hopper/internal/cartridge"
	"hopper/internal/logging"
	"hopper/internal/usblink"
)

type stubLink struct {
	pingErr error
	state   usblink.SlotState
	slotErr error
}

func (s *stubLink) Ping(context.Context) error { return s.pingErr }

func (s *stubLink) SlotStatus(context.Context) (usblink.SlotState, error) {
	return s.state, s.slotErr
}

func newPool(t *testing.T) *cartridge.ScratchPool {
	t.Helper()
	pool, err := cartridge.NewScratchPool(1)
	if err != nil {
		t.Fatalf("NewScratchPool failed: %v", err)
	}
	return pool
}

func TestStartRequiresRespondingReader(t *testing.T) {
	link := &stubLink{pingErr: errors.New("no answer")}
	if _, err := cartridge.Start(context.Background(), link, newPool(t), logging.NewNop()); err == nil {
		t.Fatal("Start succeeded with a dead reader")
	}
}

func TestSlotTracksState(t *testing.T) {
	link := &stubLink{state: usblink.SlotInserted}
	sub, err := cartridge.Start(context.Background(), link, newPool(t), logging.NewNop())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer sub.Stop()

	if got := sub.LastSeen(); got != usblink.SlotInserted {
		t.Fatalf("LastSeen = %v, want inserted", got)
	}

	link.state = usblink.SlotReady
	state, err := sub.Slot(context.Background())
	if err != nil {
		t.Fatalf("Slot failed: %v", err)
	}
	if state != usblink.SlotReady {
		t.Fatalf("Slot = %v, want ready", state)
	}
	if got := sub.LastSeen(); got != usblink.SlotReady {
		t.Fatalf("LastSeen after query = %v, want ready", got)
	}
}

func TestStoppedSubsystemRejectsQueries(t *testing.T) {
	sub, err := cartridge.Start(context.Background(), &stubLink{}, newPool(t), logging.NewNop())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	sub.Stop()
	sub.Stop() // idempotent

	if _, err := sub.Slot(context.Background()); !errors.Is(err, cartridge.ErrStopped) {
		t.Fatalf("Slot after stop = %v, want ErrStopped", err)
	}
}

func TestScratchPoolSingleBorrower(t *testing.T) {
	pool, err := cartridge.NewScratchPool(2)
	if err != nil {
		t.Fatalf("NewScratchPool failed: %v", err)
	}
	if pool.Size() != 2<<20 {
		t.Fatalf("Size = %d, want %d", pool.Size(), 2<<20)
	}

	buf, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if len(buf) != 2<<20 {
		t.Fatalf("buffer is %d bytes, want %d", len(buf), 2<<20)
	}
	if _, err := pool.Acquire(); !errors.Is(err, cartridge.ErrScratchBusy) {
		t.Fatalf("second Acquire = %v, want ErrScratchBusy", err)
	}

	pool.Release()
	if _, err := pool.Acquire(); err != nil {
		t.Fatalf("Acquire after release failed: %v", err)
	}
}

func TestScratchPoolFree(t *testing.T) {
	pool, err := cartridge.NewScratchPool(1)
	if err != nil {
		t.Fatalf("NewScratchPool failed: %v", err)
	}
	buf, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	buf[0] = 0xAA

	pool.Free()
	if buf[0] != 0 {
		t.Fatal("Free did not zero the buffer")
	}
	if pool.Size() != 0 {
		t.Fatalf("Size after free = %d, want 0", pool.Size())
	}
	if _, err := pool.Acquire(); !errors.Is(err, cartridge.ErrScratchFreed) {
		t.Fatalf("Acquire after free = %v, want ErrScratchFreed", err)
	}
}

func TestNewScratchPoolRejectsZeroSize(t *testing.T) {
	if _, err := cartridge.NewScratchPool(0); err == nil {
		t.Fatal("NewScratchPool(0) succeeded")
	}
}
