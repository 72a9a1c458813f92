package assets

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"hopper/internal/logging"
)

//go:embed data
var embeddedData embed.FS

const manifestPath = "data/manifest.txt"

var ErrEmbeddedData = errors.New("embedded data container damaged")

// DataFS is the verified embedded application data container.
type DataFS struct {
	fsys  fs.FS
	files []string
}

// OpenEmbedded verifies the embedded data container against its manifest
// and returns a handle. A missing or empty member means the binary was
// built from a broken tree.
func OpenEmbedded(logger *slog.Logger) (*DataFS, error) {
	log := logging.NewComponentLogger(logger, "assets")

	manifest, err := embeddedData.Open(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open manifest: %w", ErrEmbeddedData, err)
	}
	defer manifest.Close()

	var files []string
	scanner := bufio.NewScanner(manifest)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		info, err := fs.Stat(embeddedData, "data/"+name)
		if err != nil {
			return nil, fmt.Errorf("%w: member %q missing: %w", ErrEmbeddedData, name, err)
		}
		if info.Size() == 0 {
			return nil, fmt.Errorf("%w: member %q is empty", ErrEmbeddedData, name)
		}
		files = append(files, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read manifest: %w", ErrEmbeddedData, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: manifest lists no members", ErrEmbeddedData)
	}

	sub, err := fs.Sub(embeddedData, "data")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddedData, err)
	}

	log.Info("embedded data verified", logging.Int("members", len(files)))
	return &DataFS{fsys: sub, files: files}, nil
}

// Open opens a member by its manifest-relative name.
func (d *DataFS) Open(name string) (fs.File, error) {
	return d.fsys.Open(name)
}

// ReadFile returns a member's full contents.
func (d *DataFS) ReadFile(name string) ([]byte, error) {
	return fs.ReadFile(d.fsys, name)
}

// Members lists the manifest entries in manifest order.
func (d *DataFS) Members() []string {
	out := make([]string, len(d.files))
	copy(out, d.files)
	return out
}

// FS exposes the container as a read-only fs.FS rooted at the data
// directory.
func (d *DataFS) FS() fs.FS {
	return d.fsys
}
