package hostsvc

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnavailable   = errors.New("facility unavailable")
	ErrConfiguration = errors.New("configuration error")
	ErrHardware      = errors.New("hardware error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes subsystem context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, subsystem, operation, message string, err error) error {
	detail := buildDetail(subsystem, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Hint maps a classified error to operator guidance suitable for the
// error_hint log field.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "check the configuration file"
	case errors.Is(err, ErrUnavailable):
		return "verify the host facility is present and accessible"
	case errors.Is(err, ErrHardware):
		return "check reader cabling and cartridge seating"
	case errors.Is(err, ErrTimeout):
		return "retry; increase the timeout if this persists"
	case errors.Is(err, ErrNotFound):
		return "confirm the requested item exists"
	default:
		return "see preceding log entries"
	}
}

// Impact maps a classified error to the impact label used by structured
// warning and error records.
func Impact(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrUnavailable), errors.Is(err, ErrHardware):
		return "degraded"
	default:
		return "retryable"
	}
}

func buildDetail(subsystem, operation, message string) string {
	parts := make([]string, 0, 3)
	if subsystem = strings.TrimSpace(subsystem); subsystem != "" {
		parts = append(parts, subsystem)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
