package resources

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"hopper/internal/logging"
)

func newStepManager(steps []*step) *Manager {
	return &Manager{logger: logging.NewNop(), steps: steps}
}

func recordingStep(name string, fatal bool, fail error, trace *[]string) *step {
	return &step{
		name:  name,
		fatal: fatal,
		start: func(context.Context) error {
			if fail != nil {
				return fail
			}
			*trace = append(*trace, "start:"+name)
			return nil
		},
		stop: func() {
			*trace = append(*trace, "stop:"+name)
		},
	}
}

func TestInitializeRunsStepsInOrder(t *testing.T) {
	var trace []string
	m := newStepManager([]*step{
		recordingStep("a", true, nil, &trace),
		recordingStep("b", true, nil, &trace),
		recordingStep("c", false, nil, &trace),
	})

	if err := m.Initialize(context.Background(), nil); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if !m.Initialized() {
		t.Fatal("manager should report initialized")
	}
	want := []string{"start:a", "start:b", "start:c"}
	if strings.Join(trace, ",") != strings.Join(want, ",") {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	var trace []string
	m := newStepManager([]*step{recordingStep("a", true, nil, &trace)})

	if err := m.Initialize(context.Background(), nil); err != nil {
		t.Fatalf("first Initialize failed: %v", err)
	}
	if err := m.Initialize(context.Background(), nil); err != nil {
		t.Fatalf("second Initialize failed: %v", err)
	}
	if len(trace) != 1 {
		t.Fatalf("steps started %d times, want 1: %v", len(trace), trace)
	}
}

func TestFatalStepAbortsWithoutUnwinding(t *testing.T) {
	var trace []string
	boom := errors.New("reader absent")
	m := newStepManager([]*step{
		recordingStep("a", true, nil, &trace),
		recordingStep("b", true, boom, &trace),
		recordingStep("c", true, nil, &trace),
	})

	err := m.Initialize(context.Background(), nil)
	if !errors.Is(err, boom) {
		t.Fatalf("Initialize = %v, want wrapped reader error", err)
	}
	if !strings.Contains(err.Error(), "start b") {
		t.Fatalf("error %q does not name the failing step", err)
	}
	if m.Initialized() {
		t.Fatal("manager must not report initialized after fatal failure")
	}
	// The started prefix stays active until Close.
	if strings.Join(trace, ",") != "start:a" {
		t.Fatalf("trace = %v, want only start:a", trace)
	}

	m.Close()
	if strings.Join(trace, ",") != "start:a,stop:a" {
		t.Fatalf("trace after Close = %v", trace)
	}
}

func TestNonFatalFailureContinues(t *testing.T) {
	var trace []string
	m := newStepManager([]*step{
		recordingStep("a", true, nil, &trace),
		recordingStep("b", false, errors.New("mirror offline"), &trace),
		recordingStep("c", true, nil, &trace),
	})

	if err := m.Initialize(context.Background(), nil); err != nil {
		t.Fatalf("Initialize failed on a non-fatal step: %v", err)
	}
	if strings.Join(trace, ",") != "start:a,start:c" {
		t.Fatalf("trace = %v", trace)
	}

	// Close must skip the never-started step.
	m.Close()
	if strings.Join(trace, ",") != "start:a,start:c,stop:c,stop:a" {
		t.Fatalf("trace after Close = %v", trace)
	}
}

func TestCloseReversesStartOrderAndIsIdempotent(t *testing.T) {
	var trace []string
	m := newStepManager([]*step{
		recordingStep("a", true, nil, &trace),
		recordingStep("b", true, nil, &trace),
		recordingStep("c", true, nil, &trace),
	})

	if err := m.Initialize(context.Background(), nil); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	m.Close()
	m.Close()

	want := "start:a,start:b,start:c,stop:c,stop:b,stop:a"
	if strings.Join(trace, ",") != want {
		t.Fatalf("trace = %v, want %s", trace, want)
	}
	if m.Initialized() {
		t.Fatal("manager still reports initialized after Close")
	}
}

func TestFatalErrorCarriesLastLogLine(t *testing.T) {
	recorder := logging.NewRecorder()
	logger := slog.New(recorder)

	failing := &step{
		name:  "reader-link",
		fatal: true,
		start: func(context.Context) error {
			logger.Error("handshake returned garbage")
			return errors.New("dial reader")
		},
	}
	m := &Manager{logger: logger, recorder: recorder, steps: []*step{failing}}

	err := m.Initialize(context.Background(), nil)
	if err == nil {
		t.Fatal("Initialize succeeded with a failing fatal step")
	}
	if !strings.Contains(err.Error(), "last log: handshake returned garbage") {
		t.Fatalf("error %q missing last captured log line", err)
	}
}

func TestSetLongRunningRequiresInitialized(t *testing.T) {
	m := newStepManager(nil)
	m.SetLongRunning(true)
	if m.LongRunning() {
		t.Fatal("uninitialized manager entered long-running mode")
	}

	if err := m.Initialize(context.Background(), nil); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	m.SetLongRunning(true)
	m.SetLongRunning(true) // already engaged, no-op
	if !m.LongRunning() {
		t.Fatal("initialized manager refused long-running mode")
	}

	m.Close()
	if m.LongRunning() {
		t.Fatal("Close did not revert long-running mode")
	}
}
