package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shaiso/Vitrina/internal/domain"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// --- Step Tests ---

func TestRunSteps_AbortOnError(t *testing.T) {
	events := &memEventLog{}
	ex := newExecution("store-1", events)

	ran := false
	err := runSteps(context.Background(), ex, discard, []Step{
		{Name: "first", Event: "a", AbortOnError: true, Run: func(context.Context) error { return errors.New("broken") }},
		{Name: "second", Event: "b", Run: func(context.Context) error { ran = true; return nil }},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if ran {
		t.Error("step after aborting failure must not run")
	}
	if got := events.types("store-1"); len(got) != 1 || got[0] != "a" {
		t.Errorf("events = %v, want [a]", got)
	}
}

func TestRunSteps_ContinueOnError(t *testing.T) {
	events := &memEventLog{}
	ex := newExecution("store-1", events)

	ran := false
	err := runSteps(context.Background(), ex, discard, []Step{
		{Name: "optional", Event: "cfg", Run: func(context.Context) error { return errors.New("exit 1") }},
		{Name: "next", Event: "cfg", Run: func(context.Context) error { ran = true; return nil }},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Error("workflow must continue after non-fatal failure")
	}
	want := []string{"cfg", "cfg_warning", "cfg"}
	got := events.types("store-1")
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("events = %v, want %v", got, want)
			break
		}
	}
}

func TestRunSteps_StopsOnCancelledContext(t *testing.T) {
	events := &memEventLog{}
	ex := newExecution("store-1", events)

	ctx, cancel := context.WithCancel(context.Background())
	err := runSteps(ctx, ex, discard, []Step{
		{Name: "cancel", Event: "a", Run: func(context.Context) error { cancel(); return nil }},
		{Name: "never", Event: "b"},
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if n := events.count("store-1", "b"); n != 0 {
		t.Error("no steps after cancellation")
	}
}

func TestSleep(t *testing.T) {
	if err := sleep(0)(context.Background()); err != nil {
		t.Errorf("zero sleep: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := sleep(time.Hour)(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("sleep must return on cancellation")
	}
}

// --- Execution Tests ---

func TestExecution_DropsWritesAfterDecide(t *testing.T) {
	events := &memEventLog{}
	ex := newExecution("store-1", events)

	if !ex.emit(context.Background(), "before", "", domain.SeverityInfo) {
		t.Error("emit before decide should be written")
	}
	if !ex.decide() {
		t.Fatal("first decide should win")
	}
	if ex.decide() {
		t.Error("second decide should lose")
	}
	if !ex.isDecided() {
		t.Error("isDecided should be true")
	}

	if ex.emit(context.Background(), "after", "", domain.SeverityInfo) {
		t.Error("emit after decide should be dropped")
	}
	called := false
	ok, err := ex.guard(func() error { called = true; return nil })
	if ok || err != nil || called {
		t.Errorf("guard after decide = %v, %v (called=%v)", ok, err, called)
	}

	if got := events.types("store-1"); len(got) != 1 || got[0] != "before" {
		t.Errorf("events = %v, want [before]", got)
	}
}
