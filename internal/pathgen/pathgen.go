// Package pathgen derives on-volume output paths from caller-supplied name
// parts while honoring the per-segment and total byte limits of the output
// filesystem.
package pathgen

import (
	"errors"
	"fmt"
	"strings"

	"hopper/internal/textutil"
)

const (
	// MaxNameBytes is the per-segment byte cap imposed by the output volume.
	MaxNameBytes = 255
	// MaxPathBytes caps the byte length of a full generated path.
	MaxPathBytes = 4096
)

var (
	// ErrEmptyName marks a path request without a file name.
	ErrEmptyName = errors.New("empty file name")
	// ErrExtensionTooLong marks an extension that cannot fit a truncated segment.
	ErrExtensionTooLong = errors.New("extension does not fit truncated segment")
	// ErrPathTooLong marks a generated path at or over MaxPathBytes.
	ErrPathTooLong = errors.New("generated path too long")
)

// BuildPath joins prefix, name, and extension into a single path, clamping
// every segment to MaxNameBytes on a codepoint boundary. A truncated final
// segment keeps the extension at its tail; the call fails instead when the
// extension alone would consume the truncated budget. The finished path must
// stay under MaxPathBytes. No partial path is ever returned.
func BuildPath(prefix, name, extension string) (string, error) {
	if name == "" {
		return "", ErrEmptyName
	}

	var joined textutil.Buffer
	if prefix != "" {
		sep := ""
		if !strings.HasSuffix(prefix, "/") {
			sep = "/"
		}
		if err := joined.Appendf("%s%s", prefix, sep); err != nil {
			return "", fmt.Errorf("join prefix: %w", err)
		}
	}
	if err := joined.Appendf("%s%s", name, extension); err != nil {
		return "", fmt.Errorf("join name: %w", err)
	}

	segments := strings.Split(joined.String(), "/")
	last := len(segments) - 1
	for i, seg := range segments {
		if len(seg) <= MaxNameBytes {
			continue
		}
		limit := textutil.ByteLimit(seg, MaxNameBytes)
		if i == last && extension != "" {
			if len(extension) >= limit {
				return "", fmt.Errorf("place extension %q: %w", extension, ErrExtensionTooLong)
			}
			segments[i] = seg[:limit-len(extension)] + extension
			continue
		}
		segments[i] = seg[:limit]
	}

	path := strings.Join(segments, "/")
	if len(path) >= MaxPathBytes {
		return "", fmt.Errorf("%d bytes: %w", len(path), ErrPathTooLong)
	}
	return path, nil
}
