package sched

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"printbot/internal/dispatch"
	"printbot/internal/queue"
	"printbot/internal/quiet"
	logx "printbot/pkg/logx"
)

type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type countingExecutor struct {
	mu    sync.Mutex
	count int
}

func (e *countingExecutor) Print(ctx context.Context, filePath string, opts queue.PrintOptions) error {
	e.mu.Lock()
	e.count++
	e.mu.Unlock()
	return nil
}

func (e *countingExecutor) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

func setup(t *testing.T, clock quiet.Clock) (*dispatch.Dispatcher, *countingExecutor) {
	t.Helper()
	store, err := queue.Open(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	win, err := quiet.ParseWindow("22:30", "09:00", "UTC")
	if err != nil {
		t.Fatalf("ParseWindow: %v", err)
	}
	exec := &countingExecutor{}
	policy := quiet.NewPolicy(win, clock)
	return dispatch.New(dispatch.Config{}, store, exec, policy, logx.Nop()), exec
}

func TestEdgeFiresDrainExactlyOnce(t *testing.T) {
	clock := &fixedClock{t: time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)}
	disp, exec := setup(t, clock)
	ctx := context.Background()

	if _, err := disp.Submit(ctx, &queue.Request{UserID: 1, ChatID: 1, FilePath: "/f/a.pdf", FileName: "a.pdf"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	var reports int
	var reportMu sync.Mutex
	trig := New(Config{Enabled: false}, disp.Policy(), disp, logx.Nop())
	trig.OnReport(func(ctx context.Context, r dispatch.Report) {
		reportMu.Lock()
		reports++
		reportMu.Unlock()
	})
	if err := trig.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer trig.Stop(ctx)

	// Still inside the window: no drain on tick.
	trig.tick()
	if exec.calls() != 0 {
		t.Fatal("drain fired while quiet hours still active")
	}

	// Window closes: exactly one drain on the edge.
	clock.Set(time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC))
	trig.tick()
	if exec.calls() != 1 {
		t.Fatalf("executor calls = %d, want 1", exec.calls())
	}
	reportMu.Lock()
	got := reports
	reportMu.Unlock()
	if got != 1 {
		t.Fatalf("reports = %d, want 1", got)
	}

	// Subsequent ticks in the inactive state stay quiet.
	trig.tick()
	trig.tick()
	if exec.calls() != 1 {
		t.Fatalf("drain re-fired without a new edge: %d calls", exec.calls())
	}
}

func TestStartupDrainsLeftoverBacklog(t *testing.T) {
	// Queue while quiet hours are active.
	clock := &fixedClock{t: time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)}
	disp, exec := setup(t, clock)
	ctx := context.Background()

	for _, n := range []string{"a.pdf", "b.pdf"} {
		if _, err := disp.Submit(ctx, &queue.Request{UserID: 1, ChatID: 1, FilePath: "/f/" + n, FileName: n}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	// Process "restarts" after the window closed.
	clock.Set(time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC))
	trig := New(Config{Enabled: false}, disp.Policy(), disp, logx.Nop())
	if err := trig.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer trig.Stop(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for exec.calls() != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("startup drain incomplete: %d calls", exec.calls())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if n, _ := disp.Store().CountPending(ctx); n != 0 {
		t.Fatalf("backlog remains: %d", n)
	}
}

func TestStartupInsideWindowDoesNotDrain(t *testing.T) {
	clock := &fixedClock{t: time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)}
	disp, exec := setup(t, clock)
	ctx := context.Background()

	if _, err := disp.Submit(ctx, &queue.Request{UserID: 1, ChatID: 1, FilePath: "/f/a.pdf", FileName: "a.pdf"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	trig := New(Config{Enabled: false}, disp.Policy(), disp, logx.Nop())
	if err := trig.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer trig.Stop(ctx)

	time.Sleep(50 * time.Millisecond)
	if exec.calls() != 0 {
		t.Fatal("backlog drained during quiet hours")
	}
}

func TestRejectsInvalidSpec(t *testing.T) {
	clock := &fixedClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	disp, _ := setup(t, clock)

	trig := New(Config{Enabled: true, Spec: "not a cron spec"}, disp.Policy(), disp, logx.Nop())
	if err := trig.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid spec")
	}
}
