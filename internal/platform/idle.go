package platform

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"hopper/internal/config"
	"hopper/internal/hostsvc"
	"hopper/internal/logging"
)

const backlightRel = "class/backlight"

// IdleGuard suppresses display power-down while a long-running transfer is
// active. Suppress records each backlight's bl_power value before forcing
// it on; Release restores exactly what was saved.
type IdleGuard struct {
	root   string
	logger *slog.Logger

	mu    sync.Mutex
	saved map[string]string
}

// NewIdleGuard builds a guard over the configured sysfs root.
func NewIdleGuard(cfg *config.Config, logger *slog.Logger) *IdleGuard {
	root := ""
	if cfg != nil {
		root = cfg.Device.SysfsRoot
	}
	return &IdleGuard{
		root:   root,
		logger: logging.NewComponentLogger(logger, "idle-guard"),
	}
}

// Suppressed reports whether the guard currently holds saved state.
func (g *IdleGuard) Suppressed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.saved != nil
}

// Suppress forces every backlight on and remembers the previous power
// states. Calling it again while suppressed is a no-op.
func (g *IdleGuard) Suppress() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.saved != nil {
		return nil
	}

	backlights, err := g.backlights()
	if err != nil {
		return err
	}

	saved := make(map[string]string, len(backlights))
	for _, name := range backlights {
		target := g.powerPath(name)
		prev, err := os.ReadFile(target)
		if err != nil {
			continue
		}
		if err := os.WriteFile(target, []byte("0\n"), 0o644); err != nil {
			g.logger.Warn("backlight wake failed",
				logging.String("backlight", name),
				logging.Error(err))
			continue
		}
		saved[name] = strings.TrimSpace(string(prev))
	}
	g.saved = saved
	g.logger.Debug("display idle suppressed", logging.Int("backlights", len(saved)))
	return nil
}

// Release restores the bl_power values recorded by Suppress. Calling it
// without a prior Suppress is a no-op.
func (g *IdleGuard) Release() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.saved == nil {
		return nil
	}

	for name, prev := range g.saved {
		if err := os.WriteFile(g.powerPath(name), []byte(prev+"\n"), 0o644); err != nil {
			g.logger.Warn("backlight restore failed",
				logging.String("backlight", name),
				logging.Error(err))
		}
	}
	count := len(g.saved)
	g.saved = nil
	g.logger.Debug("display idle released", logging.Int("backlights", count))
	return nil
}

func (g *IdleGuard) backlights() ([]string, error) {
	dir := filepath.Join(g.root, filepath.FromSlash(backlightRel))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, hostsvc.Wrap(hostsvc.ErrUnavailable, "platform", "idle-guard", "read "+dir, err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

func (g *IdleGuard) powerPath(name string) string {
	return filepath.Join(g.root, filepath.FromSlash(backlightRel), name, "bl_power")
}
