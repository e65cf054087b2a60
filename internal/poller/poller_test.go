package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/basislab/ustbasis/internal/model"
)

type fakeSource struct {
	builds atomic.Int32
	err    error
}

func (s *fakeSource) Build(ctx context.Context) (*model.Snapshot, error) {
	s.builds.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &model.Snapshot{TakenAt: time.Now()}, nil
}

type fakeEngine struct {
	runs atomic.Int32
}

func (e *fakeEngine) Run(snap *model.Snapshot) model.Result {
	e.runs.Add(1)
	return model.Result{RunID: uuid.New(), SnapshotAt: snap.TakenAt}
}

func TestPoller_RunsImmediately(t *testing.T) {
	source := &fakeSource{}
	engine := &fakeEngine{}

	var handled atomic.Int32
	handler := RunHandlerFunc(func(res model.Result) error {
		if res.RunID == uuid.Nil {
			t.Error("handler got nil RunID")
		}
		handled.Add(1)
		return nil
	})

	p := New(Config{Interval: time.Hour}, source, engine, handler, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// First run fires on start, not after the first tick.
	deadline := time.Now().Add(time.Second)
	for handled.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if handled.Load() != 1 {
		t.Errorf("handled = %d, want 1", handled.Load())
	}
	stats := p.Stats()
	if stats.Runs != 1 || stats.Errors != 0 {
		t.Errorf("stats = %+v, want 1 run, 0 errors", stats)
	}
	if stats.LastRunAt.IsZero() {
		t.Error("LastRunAt not stamped")
	}
}

func TestPoller_TicksRepeatedly(t *testing.T) {
	source := &fakeSource{}
	engine := &fakeEngine{}

	p := New(Config{Interval: 20 * time.Millisecond}, source, engine, nil, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(90 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if got := engine.runs.Load(); got < 3 {
		t.Errorf("engine runs = %d, want at least 3", got)
	}
}

func TestPoller_BuildFailureCounted(t *testing.T) {
	source := &fakeSource{err: errors.New("gateway down")}
	engine := &fakeEngine{}

	var handled atomic.Int32
	handler := RunHandlerFunc(func(model.Result) error {
		handled.Add(1)
		return nil
	})

	p := New(Config{Interval: time.Hour}, source, engine, handler, nil)
	p.ctx = context.Background()
	p.runOnce()

	if engine.runs.Load() != 0 {
		t.Error("engine ran despite snapshot failure")
	}
	if handled.Load() != 0 {
		t.Error("handler called despite snapshot failure")
	}
	if stats := p.Stats(); stats.Errors != 1 || stats.Runs != 0 {
		t.Errorf("stats = %+v, want 1 error, 0 runs", stats)
	}
}

func TestPoller_HandlerErrorCounted(t *testing.T) {
	source := &fakeSource{}
	engine := &fakeEngine{}
	handler := RunHandlerFunc(func(model.Result) error {
		return errors.New("db unavailable")
	})

	p := New(Config{Interval: time.Hour}, source, engine, handler, nil)
	p.ctx = context.Background()
	p.runOnce()

	stats := p.Stats()
	if stats.Runs != 1 {
		t.Errorf("Runs = %d, want 1 (run completed before handler failed)", stats.Runs)
	}
	if stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
}
