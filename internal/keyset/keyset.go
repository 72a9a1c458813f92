// Package keyset loads the production key material the cartridge subsystem
// needs. Keys are held for downstream tooling; nothing in this repository
// performs cryptography with them.
package keyset

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"hopper/internal/logging"
)

var (
	ErrNoKeys = errors.New("no usable keys in file")
)

// Set is an immutable name-to-key mapping loaded from a keys file.
type Set struct {
	path string
	keys map[string][]byte
}

// Load reads and parses the keys file at path.
//
// Each line carries one entry: a key name, a [,=] separator, and an even
// number of hex digits, with optional blanks around every token. Names fold
// to lowercase and accept [a-z0-9_]; values fold to lowercase hex.
// Malformed and empty lines are reported and skipped; the load fails only
// when not a single entry parses.
func Load(path string, logger *slog.Logger) (*Set, error) {
	log := logging.NewComponentLogger(logger, "keyset")

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keys file %q: %w", path, err)
	}
	defer f.Close()

	set := &Set{path: path, keys: make(map[string][]byte)}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		name, value, err := parseLine(raw)
		if err != nil {
			if !errors.Is(err, errEmptyLine) {
				log.Warn("skipping malformed keys line",
					logging.Int("line", lineNo),
					logging.Error(err))
			}
			continue
		}
		set.keys[name] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read keys file %q: %w", path, err)
	}

	if len(set.keys) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoKeys, path)
	}
	log.Info("keys loaded",
		logging.Int("count", len(set.keys)),
		logging.String("path", path))
	return set, nil
}

// Lookup returns the key bytes for name, folding the name to lowercase.
func (s *Set) Lookup(name string) ([]byte, bool) {
	key, ok := s.keys[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(key))
	copy(out, key)
	return out, true
}

// Has reports whether the set contains name.
func (s *Set) Has(name string) bool {
	_, ok := s.keys[strings.ToLower(name)]
	return ok
}

// Count returns the number of loaded keys.
func (s *Set) Count() int {
	return len(s.keys)
}

// Names returns the sorted key names.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.keys))
	for name := range s.keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Path returns the file the set was loaded from.
func (s *Set) Path() string {
	return s.path
}

var errEmptyLine = errors.New("empty line")

func isBlank(b byte) bool {
	return b == ' ' || b == '\t'
}

func parseLine(line string) (string, []byte, error) {
	line = strings.TrimRight(line, "\r\n")

	i := 0
	for i < len(line) && isBlank(line[i]) {
		i++
	}
	if i == len(line) {
		return "", nil, errEmptyLine
	}

	// Key name: [a-z0-9_], uppercase folded.
	var name strings.Builder
	for i < len(line) {
		c := line[i]
		if isBlank(c) || c == ',' || c == '=' {
			break
		}
		switch {
		case c >= 'A' && c <= 'Z':
			c += 'a' - 'A'
		case c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z'):
		default:
			return "", nil, fmt.Errorf("unsupported character %q in key name", c)
		}
		name.WriteByte(c)
		i++
	}
	if name.Len() == 0 {
		return "", nil, errors.New("empty key name")
	}
	if i == len(line) {
		return "", nil, errors.New("missing separator after key name")
	}

	// Optional blanks, then the [,=] separator.
	for i < len(line) && isBlank(line[i]) {
		i++
	}
	if i == len(line) || (line[i] != ',' && line[i] != '=') {
		return "", nil, errors.New("missing separator after key name")
	}
	i++

	for i < len(line) && isBlank(line[i]) {
		i++
	}

	// Value: hex digits, uppercase folded, ends at blank or line end.
	var hexDigits strings.Builder
	for i < len(line) && !isBlank(line[i]) {
		c := line[i]
		switch {
		case c >= 'A' && c <= 'F':
			c += 'a' - 'A'
		case (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'):
		default:
			return "", nil, fmt.Errorf("invalid hex character %q in value", c)
		}
		hexDigits.WriteByte(c)
		i++
	}

	// Only trailing blanks may remain.
	for i < len(line) && isBlank(line[i]) {
		i++
	}
	if i != len(line) {
		return "", nil, errors.New("trailing data after value")
	}

	digits := hexDigits.String()
	if len(digits) == 0 || len(digits)%2 != 0 {
		return "", nil, fmt.Errorf("value length %d is not a positive multiple of 2", len(digits))
	}

	value := make([]byte, len(digits)/2)
	for j := 0; j < len(digits); j += 2 {
		value[j/2] = hexNibble(digits[j])<<4 | hexNibble(digits[j+1])
	}
	return name.String(), value, nil
}

func hexNibble(c byte) byte {
	if c >= 'a' {
		return c - 'a' + 0xA
	}
	return c - '0'
}
