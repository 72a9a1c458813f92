package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hopper/internal/config"
	"hopper/internal/hostsvc"
	"hopper/internal/logging"
)

const cpufreqRel = "devices/system/cpu/cpufreq"

// GovernorController applies CPU frequency governors across all cpufreq
// policies. Long-running mode uses it to hold boost clocks during sustained
// dump transfers and to drop back afterwards.
type GovernorController struct {
	root   string
	logger *slog.Logger
}

// NewGovernorController builds a controller over the configured sysfs root.
func NewGovernorController(cfg *config.Config, logger *slog.Logger) *GovernorController {
	root := ""
	if cfg != nil {
		root = cfg.Device.SysfsRoot
	}
	return &GovernorController{
		root:   root,
		logger: logging.NewComponentLogger(logger, "governor"),
	}
}

// Policies lists the cpufreq policy names under the sysfs root, sorted.
func (g *GovernorController) Policies() ([]string, error) {
	dir := filepath.Join(g.root, filepath.FromSlash(cpufreqRel))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, hostsvc.Wrap(hostsvc.ErrUnavailable, "platform", "governor", "read "+dir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "policy") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Current returns the governor of the first policy. All policies are kept
// in lockstep by Apply, so one read represents the whole package.
func (g *GovernorController) Current() (string, error) {
	policies, err := g.Policies()
	if err != nil {
		return "", err
	}
	if len(policies) == 0 {
		return "", hostsvc.Wrap(hostsvc.ErrUnavailable, "platform", "governor", "no cpufreq policies", nil)
	}
	data, err := os.ReadFile(g.governorPath(policies[0]))
	if err != nil {
		return "", hostsvc.Wrap(hostsvc.ErrUnavailable, "platform", "governor", "read "+policies[0], err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Apply writes the governor to every cpufreq policy. Policies that reject
// the write are collected into a single error; the rest still switch.
func (g *GovernorController) Apply(governor string) error {
	governor = strings.TrimSpace(governor)
	if governor == "" {
		return hostsvc.Wrap(hostsvc.ErrConfiguration, "platform", "governor", "governor name is required", nil)
	}
	policies, err := g.Policies()
	if err != nil {
		return err
	}
	if len(policies) == 0 {
		return hostsvc.Wrap(hostsvc.ErrUnavailable, "platform", "governor", "no cpufreq policies", nil)
	}

	var errs []error
	for _, policy := range policies {
		target := g.governorPath(policy)
		if err := os.WriteFile(target, []byte(governor+"\n"), 0o644); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", policy, err))
			continue
		}
		g.logger.Debug("governor applied",
			logging.String("policy", policy),
			logging.String("governor", governor))
	}
	if len(errs) > 0 {
		return hostsvc.Wrap(hostsvc.ErrHardware, "platform", "governor", "apply "+governor, errors.Join(errs...))
	}
	return nil
}

func (g *GovernorController) governorPath(policy string) string {
	return filepath.Join(g.root, filepath.FromSlash(cpufreqRel), policy, "scaling_governor")
}
