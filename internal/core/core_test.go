package core

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"
)

// recorder collects lifecycle events across components.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

type fakeComponent struct {
	name     string
	rec      *recorder
	startErr error
	stopErr  error
	validErr error
}

func (f *fakeComponent) Start(context.Context) error {
	f.rec.add("start:" + f.name)
	return f.startErr
}

func (f *fakeComponent) Stop(context.Context) error {
	f.rec.add("stop:" + f.name)
	return f.stopErr
}

func (f *fakeComponent) Validate() error { return f.validErr }

func newTestApp(opts ...Option) *App {
	return NewApp(slog.New(slog.DiscardHandler), opts...)
}

func TestApp_StartStopOrder(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	app := newTestApp()
	for _, n := range []string{"gateway", "scheduler", "webhook"} {
		if err := app.Add(n, &fakeComponent{name: n, rec: rec}); err != nil {
			t.Fatal(err)
		}
	}

	if err := app.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := app.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	want := []string{
		"start:gateway", "start:scheduler", "start:webhook",
		"stop:webhook", "stop:scheduler", "stop:gateway",
	}
	if got := rec.list(); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if names := app.Names(); !slices.Equal(names, []string{"gateway", "scheduler", "webhook"}) {
		t.Errorf("Names = %v", names)
	}
}

func TestApp_StartFailureRollsBack(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	boom := errors.New("setWebhook failed")
	app := newTestApp()
	_ = app.Add("gateway", &fakeComponent{name: "gateway", rec: rec})
	_ = app.Add("webhook", &fakeComponent{name: "webhook", rec: rec, startErr: boom})
	_ = app.Add("scheduler", &fakeComponent{name: "scheduler", rec: rec})

	err := app.Start(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Start = %v, want %v", err, boom)
	}

	want := []string{"start:gateway", "start:webhook", "stop:gateway"}
	if got := rec.list(); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}

	// A second Stop is a no-op.
	if err := app.Stop(); err != nil {
		t.Errorf("Stop after rollback: %v", err)
	}
	if got := len(rec.list()); got != 3 {
		t.Errorf("events after second Stop = %d, want 3", got)
	}
}

func TestApp_ValidateBeforeStart(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	app := newTestApp()
	_ = app.Add("gateway", &fakeComponent{name: "gateway", rec: rec})
	_ = app.Add("pinger", &fakeComponent{name: "pinger", rec: rec, validErr: errors.New("bad url")})

	if err := app.Start(context.Background()); err == nil {
		t.Fatal("expected validation error")
	}
	if got := rec.list(); len(got) != 0 {
		t.Errorf("components started despite validation failure: %v", got)
	}
}

func TestApp_StopContinuesOnError(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	app := newTestApp()
	_ = app.Add("a", &fakeComponent{name: "a", rec: rec})
	_ = app.Add("b", &fakeComponent{name: "b", rec: rec, stopErr: errors.New("flush failed")})

	if err := app.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := app.Stop(); err == nil {
		t.Error("expected joined stop error")
	}
	want := []string{"start:a", "start:b", "stop:b", "stop:a"}
	if got := rec.list(); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestApp_StopOnlyComponent(t *testing.T) {
	t.Parallel()

	stopped := false
	app := newTestApp()
	if err := app.Add("telemetry", StopFunc(func(context.Context) error {
		stopped = true
		return nil
	})); err != nil {
		t.Fatal(err)
	}

	if err := app.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := app.Stop(); err != nil {
		t.Fatal(err)
	}
	if !stopped {
		t.Error("stop-only component was not stopped")
	}
}

func TestApp_AddRejectsInertComponent(t *testing.T) {
	t.Parallel()

	app := newTestApp()
	if err := app.Add("inert", struct{}{}); !errors.Is(err, ErrNoLifecycle) {
		t.Errorf("Add = %v, want ErrNoLifecycle", err)
	}
}

func TestApp_RunStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	app := newTestApp(WithShutdownTimeout(time.Second))
	_ = app.Add("gateway", &fakeComponent{name: "gateway", rec: rec})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for len(rec.list()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	want := []string{"start:gateway", "stop:gateway"}
	if got := rec.list(); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestApp_RunStartFailure(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	app := newTestApp()
	_ = app.Add("gateway", &fakeComponent{name: "gateway", rec: rec, startErr: errors.New("address in use")})

	if err := app.Run(context.Background()); err == nil {
		t.Fatal("expected start error")
	}
}
