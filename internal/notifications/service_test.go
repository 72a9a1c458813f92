package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"hopper/internal/notifications"
	"hopper/internal/testsupport"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T) (*httptest.Server, func() []captured) {
	t.Helper()
	var mu sync.Mutex
	var requests []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		out := make([]captured, len(requests))
		copy(out, requests)
		return out
	}
}

func TestNoopWithoutTopic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	service := notifications.NewService(cfg)
	if err := service.NotifyStartupFailure(context.Background(), io.ErrUnexpectedEOF); err != nil {
		t.Fatalf("noop notify returned error: %v", err)
	}
	if err := service.TestNotification(context.Background()); err != nil {
		t.Fatalf("noop test returned error: %v", err)
	}
}

func TestStartupFailureNotification(t *testing.T) {
	server, requests := newCaptureServer(t)
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Errors = true

	service := notifications.NewService(cfg)
	if err := service.NotifyStartupFailure(context.Background(), io.ErrUnexpectedEOF); err != nil {
		t.Fatalf("NotifyStartupFailure failed: %v", err)
	}

	got := requests()
	if len(got) != 1 {
		t.Fatalf("captured %d requests, want 1", len(got))
	}
	if got[0].title != "Hopper - Startup Failed" {
		t.Errorf("title = %q", got[0].title)
	}
	if got[0].priority != "high" {
		t.Errorf("priority = %q, want high", got[0].priority)
	}
	if !strings.Contains(got[0].body, "unexpected EOF") {
		t.Errorf("body %q missing failure cause", got[0].body)
	}
}

func TestLongRunNotificationsGated(t *testing.T) {
	server, requests := newCaptureServer(t)
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.LongRun = false

	service := notifications.NewService(cfg)
	if err := service.NotifyLongRunStarted(context.Background()); err != nil {
		t.Fatalf("NotifyLongRunStarted failed: %v", err)
	}
	if len(requests()) != 0 {
		t.Fatal("long-run notification sent despite being disabled")
	}

	cfg.Notifications.LongRun = true
	service = notifications.NewService(cfg)
	if err := service.NotifyLongRunEnded(context.Background(), 90*time.Second); err != nil {
		t.Fatalf("NotifyLongRunEnded failed: %v", err)
	}
	got := requests()
	if len(got) != 1 {
		t.Fatalf("captured %d requests, want 1", len(got))
	}
	if !strings.Contains(got[0].body, "1m30s") {
		t.Errorf("body %q missing rounded duration", got[0].body)
	}
}

func TestDumpCompletedFormatsSize(t *testing.T) {
	server, requests := newCaptureServer(t)
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Dumps = true

	service := notifications.NewService(cfg)
	if err := service.NotifyDumpCompleted(context.Background(), "Example Quest", 4<<30); err != nil {
		t.Fatalf("NotifyDumpCompleted failed: %v", err)
	}

	got := requests()
	if len(got) != 1 {
		t.Fatalf("captured %d requests, want 1", len(got))
	}
	if !strings.Contains(got[0].body, "Example Quest") || !strings.Contains(got[0].body, "4.00 GiB") {
		t.Errorf("body = %q", got[0].body)
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic missing", http.StatusNotFound)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL

	service := notifications.NewService(cfg)
	err := service.TestNotification(context.Background())
	if err == nil {
		t.Fatal("TestNotification succeeded on 404")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Fatalf("error %q missing status", err)
	}
}
