package cartridge

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrScratchBusy marks an acquire while the scratch buffer is lent out.
	ErrScratchBusy = errors.New("scratch buffer in use")
	// ErrScratchFreed marks use of a pool after Free.
	ErrScratchFreed = errors.New("scratch pool freed")
)

// ScratchPool owns the single large transfer buffer shared by dump
// operations. Dumps stream cartridge data through it in fixed-size reads;
// holding one preallocated buffer keeps long transfers from fragmenting the
// heap on small appliance boards.
type ScratchPool struct {
	mu    sync.Mutex
	chunk []byte
	inUse bool
}

// NewScratchPool allocates a pool holding one buffer of sizeMiB mebibytes.
func NewScratchPool(sizeMiB int) (*ScratchPool, error) {
	if sizeMiB <= 0 {
		return nil, fmt.Errorf("scratch size %d MiB is not positive", sizeMiB)
	}
	return &ScratchPool{chunk: make([]byte, sizeMiB<<20)}, nil
}

// Size returns the buffer size in bytes, zero after Free.
func (p *ScratchPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.chunk)
}

// Acquire lends the buffer to the caller. Exactly one borrower at a time.
func (p *ScratchPool) Acquire() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.chunk == nil {
		return nil, ErrScratchFreed
	}
	if p.inUse {
		return nil, ErrScratchBusy
	}
	p.inUse = true
	return p.chunk, nil
}

// Release returns the buffer to the pool.
func (p *ScratchPool) Release() {
	p.mu.Lock()
	p.inUse = false
	p.mu.Unlock()
}

// Free drops the buffer. Key material passes through it during dumps, so
// the contents are zeroed before the memory is released.
func (p *ScratchPool) Free() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.chunk {
		p.chunk[i] = 0
	}
	p.chunk = nil
	p.inUse = false
}
