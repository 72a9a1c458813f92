package testsupport

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
	"testing"
)

// Reader protocol constants mirrored from the reader MCU firmware.
const (
	readerOpPing       = 0x01
	readerOpPanelLock  = 0x02
	readerOpSlotStatus = 0x03
)

// FakeReader serves the reader-link framing on a unix socket so transport
// tests can run without hardware.
type FakeReader struct {
	listener net.Listener

	mu        sync.Mutex
	slotState byte
	locked    bool
	failOps   map[byte]byte
}

// StartFakeReader listens on socketPath and answers reader frames until the
// test ends.
func StartFakeReader(t testing.TB, socketPath string) *FakeReader {
	t.Helper()

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("listen fake reader: %v", err)
	}
	reader := &FakeReader{
		listener: listener,
		failOps:  make(map[byte]byte),
	}
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go reader.serve(conn)
		}
	}()
	return reader
}

// SetSlotState changes the state reported to slot status queries:
// 0 empty, 1 inserted, 2 ready.
func (r *FakeReader) SetSlotState(state byte) {
	r.mu.Lock()
	r.slotState = state
	r.mu.Unlock()
}

// FailOp makes the reader answer op with the given non-zero status byte.
func (r *FakeReader) FailOp(op, status byte) {
	r.mu.Lock()
	r.failOps[op] = status
	r.mu.Unlock()
}

// PanelLocked reports the last panel lock state the reader accepted.
func (r *FakeReader) PanelLocked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locked
}

func (r *FakeReader) serve(conn net.Conn) {
	defer conn.Close()
	for {
		var header [3]byte
		if _, err := io.ReadFull(conn, header[:]); err != nil {
			return
		}
		payload := make([]byte, binary.BigEndian.Uint16(header[1:3]))
		if _, err := io.ReadFull(conn, payload); err != nil {
			return
		}
		if !r.respond(conn, header[0], payload) {
			return
		}
	}
}

func (r *FakeReader) respond(conn net.Conn, op byte, payload []byte) bool {
	r.mu.Lock()
	failStatus := r.failOps[op]
	slotState := r.slotState
	r.mu.Unlock()

	if failStatus != 0 {
		return writeFrame(conn, failStatus, nil)
	}

	switch op {
	case readerOpPing:
		return writeFrame(conn, 0, payload)
	case readerOpPanelLock:
		if len(payload) == 1 {
			r.mu.Lock()
			r.locked = payload[0] == 1
			r.mu.Unlock()
		}
		return writeFrame(conn, 0, nil)
	case readerOpSlotStatus:
		return writeFrame(conn, 0, []byte{slotState})
	default:
		return writeFrame(conn, 0xFF, nil)
	}
}

func writeFrame(conn net.Conn, status byte, payload []byte) bool {
	frame := make([]byte, 3+len(payload))
	frame[0] = status
	binary.BigEndian.PutUint16(frame[1:3], uint16(len(payload)))
	copy(frame[3:], payload)
	_, err := conn.Write(frame)
	return err == nil
}
