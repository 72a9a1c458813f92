// Package prefs holds the mutable runtime preferences that survive daemon
// restarts. Unlike the main configuration, preferences change while the
// daemon runs: the CLI flips them over IPC and the lifecycle manager reads
// them on every long-running-mode transition.
package prefs

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"hopper/internal/config"
	"hopper/internal/logging"
)

const fileName = "prefs.toml"

// ErrUnknownKey marks a preference name outside the known set.
var ErrUnknownKey = errors.New("unknown preference")

// Values are the persisted preference fields with their defaults.
type Values struct {
	// Overclock gates the boost governor during long-running mode.
	Overclock bool `toml:"overclock"`
	// ASCIINames restricts sanitized output names to printable ASCII.
	ASCIINames bool `toml:"ascii_names"`
	// Capture enables the session journal when the run mode allows it.
	Capture bool `toml:"capture"`
}

func defaults() Values {
	return Values{Capture: true}
}

// Store is the preference file handle. All access goes through the mutex;
// writes rewrite the whole file atomically.
type Store struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	values Values
}

// Open loads preferences from the data directory, merging file contents
// over defaults. A missing file is not an error: defaults apply until the
// first write creates it.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	store := &Store{
		path:   filepath.Join(cfg.Paths.DataDir, fileName),
		logger: logging.NewComponentLogger(logger, "prefs"),
		values: defaults(),
	}

	data, err := os.ReadFile(store.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store, nil
		}
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	if err := toml.Unmarshal(data, &store.values); err != nil {
		return nil, fmt.Errorf("parse preferences %s: %w", store.path, err)
	}
	return store, nil
}

// Path returns the preference file location.
func (s *Store) Path() string {
	return s.path
}

// Values returns a copy of the current preferences.
func (s *Store) Values() Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values
}

// Update applies fn to the current values and persists the result. The file
// is replaced atomically; a failed write leaves both file and in-memory
// values untouched.
func (s *Store) Update(fn func(*Values)) error {
	if fn == nil {
		return errors.New("update function is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.values
	fn(&next)
	if next == s.values {
		return nil
	}
	if err := s.write(next); err != nil {
		return err
	}
	s.values = next
	s.logger.Info("preferences updated",
		logging.String(logging.FieldEventType, "prefs_updated"),
		logging.Bool("overclock", next.Overclock),
		logging.Bool("ascii_names", next.ASCIINames),
		logging.Bool("capture", next.Capture))
	return nil
}

// SetByName flips one preference identified by its file key.
func (s *Store) SetByName(name string, enabled bool) error {
	switch name {
	case "overclock":
		return s.Update(func(v *Values) { v.Overclock = enabled })
	case "ascii_names":
		return s.Update(func(v *Values) { v.ASCIINames = enabled })
	case "capture":
		return s.Update(func(v *Values) { v.Capture = enabled })
	default:
		return fmt.Errorf("%q: %w", name, ErrUnknownKey)
	}
}

func (s *Store) write(values Values) error {
	data, err := toml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create preferences directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), fileName+".*")
	if err != nil {
		return fmt.Errorf("stage preferences: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("flush preferences: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace preferences: %w", err)
	}
	return nil
}
