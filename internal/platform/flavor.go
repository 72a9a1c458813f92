package platform

import (
	"bufio"
	"os"
	"strings"

	"hopper/internal/hostsvc"
)

// Flavor classifies the firmware line the appliance is running.
type Flavor int

const (
	FlavorUnknown Flavor = iota
	FlavorStock
	FlavorCommunity
	FlavorCustom
)

func (f Flavor) String() string {
	switch f {
	case FlavorStock:
		return "stock"
	case FlavorCommunity:
		return "community"
	case FlavorCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Supervisor daemons shipped by the known firmware lines. The running
// supervisor is the most reliable signal; os-release is the fallback.
var flavorSupervisors = []struct {
	process string
	flavor  Flavor
}{
	{"ohos-superd", FlavorCommunity},
	{"hos-superd", FlavorStock},
}

// ProcessQuerier answers whether a named process is currently running.
// The host services broker satisfies this.
type ProcessQuerier interface {
	ProcessRunning(name string) (bool, error)
}

// DetectFlavor probes the firmware flavor. Supervisor processes are checked
// first, then the os-release file at osReleasePath. A failed probe returns
// FlavorUnknown with the error; callers treat that as a degraded, not
// fatal, outcome.
func DetectFlavor(procs ProcessQuerier, osReleasePath string) (Flavor, error) {
	if procs != nil {
		for _, sup := range flavorSupervisors {
			running, err := procs.ProcessRunning(sup.process)
			if err != nil {
				break
			}
			if running {
				return sup.flavor, nil
			}
		}
	}

	id, err := osReleaseID(osReleasePath)
	if err != nil {
		return FlavorUnknown, hostsvc.Wrap(hostsvc.ErrUnavailable, "platform", "system-flavor", "read os-release", err)
	}
	switch id {
	case "hopperos":
		return FlavorStock, nil
	case "openhopper":
		return FlavorCommunity, nil
	case "":
		return FlavorUnknown, nil
	default:
		return FlavorCustom, nil
	}
}

func osReleaseID(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "ID=") {
			continue
		}
		value := strings.TrimPrefix(line, "ID=")
		value = strings.Trim(value, `"'`)
		return strings.ToLower(strings.TrimSpace(value)), nil
	}
	return "", scanner.Err()
}
