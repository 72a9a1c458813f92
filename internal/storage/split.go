package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Split outputs hold one logical dump as numbered part files inside a
// directory, keeping each part under the FAT32 file-size ceiling when the
// volume (or an offload target) cannot take the dump in one piece.

// SplitPartLimit is the maximum size of one part file.
const SplitPartLimit = 0xFFFF0000 // just under 4 GiB, aligned for FAT

// CreateSplit initializes a split output at path: a directory containing
// the first empty part file. An existing regular file or split output at
// path is replaced; any other directory is refused.
func CreateSplit(path string) error {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		if !IsSplit(path) {
			return fmt.Errorf("%q exists and is not a split output", path)
		}
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("clear split target %q: %w", path, err)
		}
	case err == nil:
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("clear split target %q: %w", path, err)
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("stat split target %q: %w", path, err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create split %q: %w", path, err)
	}
	first := filepath.Join(path, "00")
	f, err := os.OpenFile(first, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create split part %q: %w", first, err)
	}
	return f.Close()
}

// IsSplit reports whether path is a split output directory: every entry is
// a two-digit part file.
func IsSplit(path string) bool {
	entries, err := os.ReadDir(path)
	if err != nil || len(entries) == 0 {
		return false
	}
	for _, entry := range entries {
		if entry.IsDir() || !isPartName(entry.Name()) {
			return false
		}
	}
	return true
}

// SplitParts returns the sorted absolute part paths of a split output.
func SplitParts(path string) ([]string, error) {
	if !IsSplit(path) {
		return nil, fmt.Errorf("%q is not a split output", path)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read split %q: %w", path, err)
	}
	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		parts = append(parts, filepath.Join(path, entry.Name()))
	}
	sort.Strings(parts)
	return parts, nil
}

// RemoveSplit deletes a split output. Paths that are not split outputs are
// left alone so a stray name collision cannot wipe unrelated data.
func RemoveSplit(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if !IsSplit(path) {
		return nil
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove split %q: %w", path, err)
	}
	return nil
}

func isPartName(name string) bool {
	if len(name) != 2 {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return false
		}
	}
	return true
}
