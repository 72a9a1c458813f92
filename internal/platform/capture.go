package platform

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"hopper/internal/hostsvc"
	"hopper/internal/logging"
)

// Capture is the append-only session journal. Each daemon session writes
// one journal file recording the operations performed, so a dump batch can
// be reconstructed after the fact without trawling the main log.
type Capture struct {
	logger *slog.Logger
	path   string

	mu     sync.Mutex
	f      *os.File
	closed bool
}

// StartCapture opens a journal file for the session under dir. The file is
// named after the session ID so concurrent historical sessions never
// collide.
func StartCapture(dir, sessionID string, logger *slog.Logger) (*Capture, error) {
	if dir == "" {
		return nil, hostsvc.Wrap(hostsvc.ErrConfiguration, "platform", "capture", "capture directory is required", nil)
	}
	if sessionID == "" {
		return nil, hostsvc.Wrap(hostsvc.ErrConfiguration, "platform", "capture", "session id is required", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, hostsvc.Wrap(hostsvc.ErrUnavailable, "platform", "capture", "create "+dir, err)
	}

	path := filepath.Join(dir, "session-"+sessionID+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, hostsvc.Wrap(hostsvc.ErrUnavailable, "platform", "capture", "open "+path, err)
	}

	c := &Capture{
		logger: logging.NewComponentLogger(logger, "capture"),
		path:   path,
		f:      f,
	}
	if err := c.Record("session-start", sessionID); err != nil {
		f.Close()
		return nil, err
	}
	return c, nil
}

// Path returns the journal file location.
func (c *Capture) Path() string {
	return c.path
}

// Record appends one journal entry. Entries are tab-separated so the
// journal stays greppable: timestamp, event, detail.
func (c *Capture) Record(event, detail string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return hostsvc.Wrap(hostsvc.ErrUnavailable, "platform", "capture", "journal closed", nil)
	}
	line := fmt.Sprintf("%s\t%s\t%s\n", time.Now().UTC().Format(time.RFC3339), event, detail)
	if _, err := c.f.WriteString(line); err != nil {
		return hostsvc.Wrap(hostsvc.ErrTransient, "platform", "capture", "append entry", err)
	}
	return nil
}

// Close writes the session-end marker and closes the journal file.
func (c *Capture) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	line := fmt.Sprintf("%s\t%s\t%s\n", time.Now().UTC().Format(time.RFC3339), "session-end", "")
	_, writeErr := c.f.WriteString(line)
	closeErr := c.f.Close()
	c.closed = true
	c.mu.Unlock()

	if writeErr != nil {
		return hostsvc.Wrap(hostsvc.ErrTransient, "platform", "capture", "append end marker", writeErr)
	}
	if closeErr != nil {
		return hostsvc.Wrap(hostsvc.ErrTransient, "platform", "capture", "close journal", closeErr)
	}
	c.logger.Debug("session journal closed", logging.String("path", c.path))
	return nil
}
