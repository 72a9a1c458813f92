package platform

import (
	"os"

	"github.com/mattn/go-isatty"
)

// RunMode classifies how the daemon process was launched.
type RunMode int

const (
	// RunModeService is a supervised system service launch.
	RunModeService RunMode = iota
	// RunModeSession is a detached launch from a user session. Session runs
	// are constrained: they share the host with an interactive user and
	// must not hold boost clocks or suppress display idling on their own.
	RunModeSession
	// RunModeForeground is an interactive terminal run.
	RunModeForeground
)

func (m RunMode) String() string {
	switch m {
	case RunModeService:
		return "service"
	case RunModeSession:
		return "session"
	case RunModeForeground:
		return "foreground"
	default:
		return "unknown"
	}
}

// IsConstrained reports whether the mode limits host-wide adjustments.
func (m RunMode) IsConstrained() bool {
	return m == RunModeSession
}

// DetectRunMode classifies the current process launch. It cannot fail:
// every process is in exactly one of the three modes.
func DetectRunMode() RunMode {
	if os.Getenv("INVOCATION_ID") != "" {
		return RunModeService
	}
	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return RunModeForeground
	}
	return RunModeSession
}
