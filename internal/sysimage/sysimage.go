// Package sysimage holds the secondary system partition image open for the
// daemon's lifetime. The image content is opaque here: mounting verifies
// presence, sizing, and the filesystem magic, then exposes a ReaderAt for
// downstream tooling. No filesystem traversal happens in this repository.
package sysimage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"hopper/internal/logging"
	"hopper/internal/textutil"
)

const (
	// MinImageBytes is the smallest plausible image: room for the boot
	// region and one superblock.
	MinImageBytes = 4096

	// ext superblock location and magic offset within it.
	superblockOffset = 1024
	magicOffset      = superblockOffset + 0x38
)

var extMagic = []byte{0x53, 0xEF}

var (
	ErrImageTruncated = errors.New("image too small")
	ErrImageMagic     = errors.New("image magic mismatch")
)

// Image is a mounted system partition image.
type Image struct {
	path   string
	size   int64
	logger *slog.Logger

	mu sync.Mutex
	f  *os.File
}

// Mount opens and sanity-checks the image at path. The file must be at
// least MinImageBytes, sector aligned, and carry the ext superblock magic.
func Mount(path string, logger *slog.Logger) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open system image %q: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat system image %q: %w", path, err)
	}
	size := info.Size()
	if size < MinImageBytes || size%512 != 0 {
		f.Close()
		return nil, fmt.Errorf("%w: %q is %d bytes", ErrImageTruncated, path, size)
	}

	magic := make([]byte, len(extMagic))
	if _, err := f.ReadAt(magic, magicOffset); err != nil {
		f.Close()
		return nil, fmt.Errorf("read system image magic %q: %w", path, err)
	}
	if magic[0] != extMagic[0] || magic[1] != extMagic[1] {
		f.Close()
		return nil, fmt.Errorf("%w: %q has %s at %#x", ErrImageMagic, path, textutil.HexString(magic, false), magicOffset)
	}

	img := &Image{
		path:   path,
		size:   size,
		logger: logging.NewComponentLogger(logger, "sysimage"),
		f:      f,
	}
	img.logger.Info("system image mounted",
		logging.String("path", path),
		logging.String("size", textutil.FormatSize(float64(size))))
	return img, nil
}

// Path returns the image file location.
func (i *Image) Path() string {
	return i.path
}

// Size returns the image size in bytes.
func (i *Image) Size() int64 {
	return i.size
}

// ReaderAt exposes random access reads over the image. It stays valid
// until Unmount.
func (i *Image) ReaderAt() io.ReaderAt {
	return i.f
}

// Unmount releases the image handle. Safe to call more than once.
func (i *Image) Unmount() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.f == nil {
		return nil
	}
	err := i.f.Close()
	i.f = nil
	i.logger.Info("system image unmounted", logging.String("path", i.path))
	if err != nil {
		return fmt.Errorf("close system image %q: %w", i.path, err)
	}
	return nil
}
