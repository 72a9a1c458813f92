package platform

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/pilebones/go-udev/netlink"

	"hopper/internal/config"
)

func TestNewMonitor(t *testing.T) {
	t.Run("nil config returns nil", func(t *testing.T) {
		m := NewMonitor(nil, nil, nil, nil)
		if m != nil {
			t.Error("expected nil monitor for nil config")
		}
	})

	t.Run("valid config creates monitor", func(t *testing.T) {
		m := NewMonitor(&config.Config{}, nil, nil, nil)
		if m == nil {
			t.Fatal("expected non-nil monitor")
		}
	})
}

func TestMonitorLifecycleSafety(t *testing.T) {
	t.Run("nil monitor methods are safe", func(t *testing.T) {
		var m *Monitor
		if err := m.Start(context.Background()); err != nil {
			t.Fatalf("Start on nil monitor should return nil, got: %v", err)
		}
		m.Stop()
		if m.Running() {
			t.Error("expected Running() false for nil monitor")
		}
	})

	t.Run("stop on unstarted monitor is safe", func(t *testing.T) {
		m := NewMonitor(&config.Config{}, nil, nil, nil)
		m.Stop()
		m.Stop()
		if m.Running() {
			t.Error("expected Running() false after Stop on unstarted monitor")
		}
	})
}

func TestBuildMatcher(t *testing.T) {
	m := NewMonitor(&config.Config{}, nil, nil, nil)
	matcher := m.buildMatcher()
	if matcher == nil {
		t.Fatal("expected non-nil matcher")
	}

	powerEvent := netlink.UEvent{
		Action: netlink.CHANGE,
		Env: map[string]string{
			"SUBSYSTEM":           "power_supply",
			"POWER_SUPPLY_NAME":   "AC0",
			"POWER_SUPPLY_ONLINE": "1",
		},
	}
	if !matcher.Evaluate(powerEvent) {
		t.Error("expected matcher to accept power supply change")
	}

	blockEvent := netlink.UEvent{
		Action: netlink.CHANGE,
		Env: map[string]string{
			"SUBSYSTEM": "block",
		},
	}
	if matcher.Evaluate(blockEvent) {
		t.Error("expected matcher to reject non power supply subsystem")
	}

	addEvent := netlink.UEvent{
		Action: netlink.ADD,
		Env: map[string]string{
			"SUBSYSTEM": "power_supply",
		},
	}
	if matcher.Evaluate(addEvent) {
		t.Error("expected matcher to reject ADD action")
	}
}

func TestClassifyPowerEvent(t *testing.T) {
	event := classifyPowerEvent(netlink.UEvent{
		Env: map[string]string{
			"POWER_SUPPLY_NAME":   "AC0",
			"POWER_SUPPLY_ONLINE": "0",
		},
	})
	if event.Kind != PowerOffline || event.Supply != "AC0" {
		t.Fatalf("unexpected classification: %+v", event)
	}

	event = classifyPowerEvent(netlink.UEvent{
		KObj: "/devices/platform/bq24190/power_supply/usb0",
		Env: map[string]string{
			"POWER_SUPPLY_ONLINE": "1",
		},
	})
	if event.Kind != PowerOnline {
		t.Fatalf("expected online, got %v", event.Kind)
	}
	if event.Supply != "usb0" {
		t.Fatalf("supply from kobj = %q, want usb0", event.Supply)
	}

	event = classifyPowerEvent(netlink.UEvent{
		Env: map[string]string{
			"POWER_SUPPLY_NAME": "BAT0",
		},
	})
	if event.Kind != PowerUnknown {
		t.Fatalf("missing online state should classify unknown, got %v", event.Kind)
	}
}

func TestHandlePowerEvent(t *testing.T) {
	t.Run("ignores event without online state", func(t *testing.T) {
		var called bool
		m := NewMonitor(&config.Config{}, nil, func(ctx context.Context, event PowerEvent) {
			called = true
		}, nil)
		m.handleEvent(context.Background(), netlink.UEvent{
			Action: netlink.CHANGE,
			Env:    map[string]string{"POWER_SUPPLY_NAME": "AC0"},
		})
		if called {
			t.Error("handler should not run for unclassifiable event")
		}
	})

	t.Run("respects dynamic suspend state", func(t *testing.T) {
		var calls int
		var suspended atomic.Bool
		m := NewMonitor(&config.Config{}, nil, func(ctx context.Context, event PowerEvent) {
			calls++
		}, suspended.Load)

		event := netlink.UEvent{
			Action: netlink.CHANGE,
			Env: map[string]string{
				"POWER_SUPPLY_NAME":   "AC0",
				"POWER_SUPPLY_ONLINE": "0",
			},
		}

		m.handleEvent(context.Background(), event)
		if calls != 1 {
			t.Fatalf("expected 1 call, got %d", calls)
		}

		suspended.Store(true)
		m.handleEvent(context.Background(), event)
		if calls != 1 {
			t.Fatalf("expected still 1 call while suspended, got %d", calls)
		}

		suspended.Store(false)
		m.handleEvent(context.Background(), event)
		if calls != 2 {
			t.Fatalf("expected 2 calls after resume, got %d", calls)
		}
	})

	t.Run("delivers classified event", func(t *testing.T) {
		var got PowerEvent
		m := NewMonitor(&config.Config{}, nil, func(ctx context.Context, event PowerEvent) {
			got = event
		}, nil)
		m.handleEvent(context.Background(), netlink.UEvent{
			Action: netlink.CHANGE,
			Env: map[string]string{
				"POWER_SUPPLY_NAME":   "AC0",
				"POWER_SUPPLY_ONLINE": "1",
			},
		})
		if got.Kind != PowerOnline || got.Supply != "AC0" {
			t.Fatalf("unexpected event: %+v", got)
		}
	})
}
