// Package assets manages the auxiliary read-only assets the daemon serves
// to tooling: the shared font archive set and the embedded data container.
// Asset payloads are opaque; only headers and presence are verified.
package assets

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hopper/internal/logging"
)

// Font archives are provisioned as .hfa files: a 4-byte magic, a little
// endian uint32 payload length, then the payload.
const (
	fontArchiveExt    = ".hfa"
	fontHeaderBytes   = 8
	fontArchiveMagic  = "HFAR"
	fontPayloadOffset = fontHeaderBytes
)

var (
	ErrNoFontArchives  = errors.New("no font archives")
	ErrFontArchiveCorr = errors.New("font archive corrupt")
)

// FontArchive is one validated font archive handle.
type FontArchive struct {
	Name         string
	Path         string
	PayloadBytes int64
}

// FontSet is the validated font archive collection.
type FontSet struct {
	dir      string
	archives map[string]FontArchive
}

// LoadFonts validates every font archive under dir. A directory with no
// archives, or any archive with a bad header, fails the load: both point
// at a broken provisioning run.
func LoadFonts(dir string, logger *slog.Logger) (*FontSet, error) {
	log := logging.NewComponentLogger(logger, "assets")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read font directory %q: %w", dir, err)
	}

	set := &FontSet{dir: dir, archives: make(map[string]FontArchive)}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fontArchiveExt) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		archive, err := validateFontArchive(path)
		if err != nil {
			return nil, err
		}
		set.archives[archive.Name] = archive
	}
	if len(set.archives) == 0 {
		return nil, fmt.Errorf("%w under %q", ErrNoFontArchives, dir)
	}

	log.Info("font archives loaded",
		logging.Int("count", len(set.archives)),
		logging.String("dir", dir))
	return set, nil
}

// Archives returns the archive handles sorted by name.
func (s *FontSet) Archives() []FontArchive {
	out := make([]FontArchive, 0, len(s.archives))
	for _, archive := range s.archives {
		out = append(out, archive)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup finds an archive by its base name (without extension).
func (s *FontSet) Lookup(name string) (FontArchive, bool) {
	archive, ok := s.archives[name]
	return archive, ok
}

// Count returns the number of loaded archives.
func (s *FontSet) Count() int {
	return len(s.archives)
}

func validateFontArchive(path string) (FontArchive, error) {
	f, err := os.Open(path)
	if err != nil {
		return FontArchive{}, fmt.Errorf("open font archive %q: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return FontArchive{}, fmt.Errorf("stat font archive %q: %w", path, err)
	}

	header := make([]byte, fontHeaderBytes)
	if _, err := f.ReadAt(header, 0); err != nil {
		return FontArchive{}, fmt.Errorf("%w: %q: short header", ErrFontArchiveCorr, path)
	}
	if string(header[:4]) != fontArchiveMagic {
		return FontArchive{}, fmt.Errorf("%w: %q: bad magic %q", ErrFontArchiveCorr, path, header[:4])
	}
	payload := int64(binary.LittleEndian.Uint32(header[4:]))
	if payload == 0 || fontPayloadOffset+payload != info.Size() {
		return FontArchive{}, fmt.Errorf("%w: %q: declared %d bytes, file has %d", ErrFontArchiveCorr, path, payload, info.Size()-fontPayloadOffset)
	}

	name := strings.TrimSuffix(filepath.Base(path), fontArchiveExt)
	return FontArchive{Name: name, Path: path, PayloadBytes: payload}, nil
}
