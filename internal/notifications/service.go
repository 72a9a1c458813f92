package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hopper/internal/buildinfo"
	"hopper/internal/config"
	"hopper/internal/textutil"
)

// Service is the push-notification surface used by the daemon lifecycle.
type Service interface {
	NotifyStartupFailure(ctx context.Context, err error) error
	NotifyLongRunStarted(ctx context.Context) error
	NotifyLongRunEnded(ctx context.Context, duration time.Duration) error
	NotifyDumpCompleted(ctx context.Context, title string, sizeBytes int64) error
	NotifyUpdateAvailable(ctx context.Context, tag string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// Without an ntfy topic every notification is a silent no-op.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		errors:   cfg.Notifications.Errors,
		longRun:  cfg.Notifications.LongRun,
		dumps:    cfg.Notifications.Dumps,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	errors   bool
	longRun  bool
	dumps    bool
}

func (n *ntfyService) NotifyStartupFailure(ctx context.Context, err error) error {
	if !n.errors {
		return nil
	}
	message := "unknown failure"
	if err != nil {
		message = strings.TrimSpace(err.Error())
	}
	return n.send(ctx, payload{
		title:    "Hopper - Startup Failed",
		message:  fmt.Sprintf("Resource bring-up failed: %s", message),
		tags:     []string{"hopper", "startup", "error"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyLongRunStarted(ctx context.Context) error {
	if !n.longRun {
		return nil
	}
	return n.send(ctx, payload{
		title:   "Hopper - Long Run Started",
		message: "Long-running mode engaged: panel locked, display held awake",
		tags:    []string{"hopper", "longrun", "started"},
	})
}

func (n *ntfyService) NotifyLongRunEnded(ctx context.Context, duration time.Duration) error {
	if !n.longRun {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	return n.send(ctx, payload{
		title:   "Hopper - Long Run Ended",
		message: fmt.Sprintf("Long-running mode released after %s", duration),
		tags:    []string{"hopper", "longrun", "ended"},
	})
}

func (n *ntfyService) NotifyDumpCompleted(ctx context.Context, title string, sizeBytes int64) error {
	if !n.dumps {
		return nil
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "untitled cartridge"
	}
	return n.send(ctx, payload{
		title:   "Hopper - Dump Complete",
		message: fmt.Sprintf("Dump complete: %s (%s)", title, textutil.FormatSize(float64(sizeBytes))),
		tags:    []string{"hopper", "dump", "completed"},
	})
}

func (n *ntfyService) NotifyUpdateAvailable(ctx context.Context, tag string) error {
	tag = strings.TrimSpace(tag)
	return n.send(ctx, payload{
		title:   "Hopper - Update Available",
		message: fmt.Sprintf("Release %s is available", tag),
		tags:    []string{"hopper", "update"},
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Hopper - Test",
		message:  "Notification system test",
		tags:     []string{"hopper", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyStartupFailure(context.Context, error) error        { return nil }
func (noopService) NotifyLongRunStarted(context.Context) error               { return nil }
func (noopService) NotifyLongRunEnded(context.Context, time.Duration) error  { return nil }
func (noopService) NotifyDumpCompleted(context.Context, string, int64) error { return nil }
func (noopService) NotifyUpdateAvailable(context.Context, string) error      { return nil }
func (noopService) TestNotification(context.Context) error                   { return nil }
