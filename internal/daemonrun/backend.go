package daemonrun

import (
	"context"
	"os"
	"strconv"
	"sync"
	"time"

	"hopper/internal/api"
	"hopper/internal/config"
	"hopper/internal/notifications"
	"hopper/internal/pathgen"
	"hopper/internal/resources"
	"hopper/internal/textutil"
)

// backend adapts the resource manager to the IPC surface. It owns the
// long-run start timestamp used for the end notification and the shutdown
// trigger handed in by Run.
type backend struct {
	cfg      *config.Config
	manager  *resources.Manager
	notifier notifications.Service
	logPath  string
	started  time.Time
	shutdown func()

	mu           sync.Mutex
	longRunSince time.Time
}

func newBackend(cfg *config.Config, manager *resources.Manager, notifier notifications.Service, logPath string, shutdown func()) *backend {
	return &backend{
		cfg:      cfg,
		manager:  manager,
		notifier: notifier,
		logPath:  logPath,
		started:  time.Now(),
		shutdown: shutdown,
	}
}

func (b *backend) Status(ctx context.Context) api.StatusSnapshot {
	m := b.manager
	snapshot := api.StatusSnapshot{
		Running:     m.Initialized(),
		PID:         os.Getpid(),
		SessionID:   m.SessionID(),
		Uptime:      time.Since(b.started).Round(time.Second).String(),
		LaunchPath:  m.LaunchPath(),
		LongRunning: m.LongRunning(),
		LockPath:    b.cfg.Paths.LockFile,
		LogPath:     b.logPath,
	}
	if !m.Initialized() {
		return snapshot
	}

	snapshot.Board = m.BoardModel().Model
	snapshot.Revised = m.IsRevisedBoard()
	snapshot.DevUnit = m.IsDevelopmentUnit()
	snapshot.Flavor = m.SystemFlavor().String()
	snapshot.RunMode = m.RunMode().String()
	if volume := m.Volume(); volume != nil {
		snapshot.VolumeMount = volume.Mount()
		if stats, err := volume.Stats(); err == nil {
			snapshot.VolumeFree = stats.FreeLabel()
		}
	}
	if cart := m.Cartridge(); cart != nil {
		snapshot.SlotState = cart.LastSeen().String()
	}
	if keys := m.Keys(); keys != nil {
		snapshot.KeyCount = keys.Count()
	}
	if titles := m.Titles(); titles != nil {
		if count, err := titles.Count(ctx); err == nil {
			snapshot.TitleCount = count
		}
	}
	return snapshot
}

func (b *backend) SetLongRunning(ctx context.Context, enabled bool) (bool, error) {
	before := b.manager.LongRunning()
	b.manager.SetLongRunning(enabled)
	after := b.manager.LongRunning()
	if before == after {
		return after, nil
	}

	notifyCtx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	b.mu.Lock()
	if after {
		b.longRunSince = time.Now()
		b.mu.Unlock()
		_ = b.notifier.NotifyLongRunStarted(notifyCtx)
		return after, nil
	}
	since := b.longRunSince
	b.longRunSince = time.Time{}
	b.mu.Unlock()
	duration := time.Duration(0)
	if !since.IsZero() {
		duration = time.Since(since)
	}
	_ = b.notifier.NotifyLongRunEnded(notifyCtx, duration)
	return after, nil
}

func (b *backend) PathPreview(_ context.Context, prefix, name, extension string, forceASCII bool) (string, string, error) {
	sanitized := textutil.SanitizeName(name, b.asciiOnly(forceASCII))
	if prefix == "" {
		if volume := b.manager.Volume(); volume != nil {
			prefix = volume.Path("dumps")
		}
	}
	path, err := pathgen.BuildPath(prefix, sanitized, extension)
	if err != nil {
		return "", "", err
	}
	return path, sanitized, nil
}

func (b *backend) SanitizeName(name string, forceASCII bool) string {
	return textutil.SanitizeName(name, b.asciiOnly(forceASCII))
}

func (b *backend) asciiOnly(force bool) bool {
	if force {
		return true
	}
	if prefs := b.manager.Prefs(); prefs != nil {
		return prefs.Values().ASCIINames
	}
	return false
}

func (b *backend) TitleList(ctx context.Context, query string, limit int) ([]api.TitleRow, error) {
	store := b.manager.Titles()
	if store == nil {
		return nil, nil
	}
	entries, err := store.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	rows := make([]api.TitleRow, 0, len(entries))
	for _, entry := range entries {
		row := api.TitleRow{
			ID:        entry.ID,
			Name:      entry.DisplayName(),
			Region:    entry.Region,
			Version:   "v" + strconv.FormatUint(uint64(entry.Version), 10),
			UpdatedAt: entry.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if entry.LastDumpedAt != nil {
			row.LastDumped = entry.LastDumpedAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (b *backend) Preferences(context.Context) (api.Preferences, error) {
	store := b.manager.Prefs()
	if store == nil {
		return api.Preferences{}, nil
	}
	values := store.Values()
	return api.Preferences{
		Overclock:  values.Overclock,
		ASCIINames: values.ASCIINames,
		Capture:    values.Capture,
	}, nil
}

func (b *backend) SetPreference(ctx context.Context, name string, enabled bool) (api.Preferences, error) {
	store := b.manager.Prefs()
	if store == nil {
		return api.Preferences{}, nil
	}
	if err := store.SetByName(name, enabled); err != nil {
		return api.Preferences{}, err
	}
	return b.Preferences(ctx)
}

func (b *backend) TestNotification(ctx context.Context) error {
	return b.notifier.TestNotification(ctx)
}

func (b *backend) LogPath() string {
	return b.logPath
}

func (b *backend) Shutdown(context.Context) {
	if b.shutdown != nil {
		b.shutdown()
	}
}
