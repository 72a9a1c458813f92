package logging

import (
	"context"
	"log/slog"
	"sync"
)

// Recorder is a slog handler that retains the most recent record's message.
// Startup failure reporting appends it to the user-facing diagnostic so the
// operator sees the last thing the daemon said before giving up.
type Recorder struct {
	mu   sync.Mutex
	last string
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *Recorder) Handle(_ context.Context, record slog.Record) error {
	r.mu.Lock()
	r.last = record.Message
	r.mu.Unlock()
	return nil
}

func (r *Recorder) WithAttrs([]slog.Attr) slog.Handler { return r }

func (r *Recorder) WithGroup(string) slog.Handler { return r }

// LastMessage returns the most recent message seen, or "" when none was.
func (r *Recorder) LastMessage() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
