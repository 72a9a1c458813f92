package textutil

import (
	"errors"
	"fmt"
)

var (
	// ErrNilBuffer marks an append through a nil buffer handle.
	ErrNilBuffer = errors.New("nil buffer")
	// ErrEmptyFormat marks an append with nothing to format.
	ErrEmptyFormat = errors.New("empty format string")
	// ErrBufferState marks a buffer whose backing array and capacity disagree.
	ErrBufferState = errors.New("inconsistent buffer state")
)

// Buffer accumulates formatted text. The zero value is an empty buffer ready
// for use. Capacity grows to exactly what the accumulated content requires
// plus one spare byte; existing content is never truncated by an append.
type Buffer struct {
	data []byte
}

// NewBufferFrom adopts caller-owned bytes as the initial content. The caller
// must not use data afterwards.
func NewBufferFrom(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Appendf formats according to format and appends the result. It fails fast
// on a nil receiver, an empty format string, or an inconsistent buffer state,
// leaving the content untouched in every failure case.
func (b *Buffer) Appendf(format string, args ...any) error {
	if b == nil {
		return ErrNilBuffer
	}
	if format == "" {
		return ErrEmptyFormat
	}
	if b.data != nil && cap(b.data) == 0 {
		return ErrBufferState
	}

	text := fmt.Sprintf(format, args...)
	need := len(b.data) + len(text) + 1
	if cap(b.data) < need {
		grown := make([]byte, len(b.data), need)
		copy(grown, b.data)
		b.data = grown
	}
	b.data = append(b.data, text...)
	return nil
}

// String returns the accumulated content.
func (b *Buffer) String() string {
	if b == nil {
		return ""
	}
	return string(b.data)
}

// Len returns the content length in bytes.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Cap returns the allocated capacity in bytes.
func (b *Buffer) Cap() int {
	if b == nil {
		return 0
	}
	return cap(b.data)
}

// Reset releases the backing array, returning the buffer to its empty state.
func (b *Buffer) Reset() {
	if b != nil {
		b.data = nil
	}
}
