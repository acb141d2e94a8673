// Package dispatch routes incoming print requests: execute immediately while
// quiet hours are inactive, defer into the queue store while they are active,
// and drain the backlog when the window closes.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"printbot/internal/printer"
	"printbot/internal/queue"
	"printbot/internal/quiet"
	logx "printbot/pkg/logx"
)

// ErrDrainInProgress is returned when a drain is triggered while another one
// is still running. The caller may retry later; the running drain already
// covers the backlog that existed when it started.
var ErrDrainInProgress = errors.New("drain already in progress")

// Outcome is the result of a single Submit call.
type Outcome struct {
	// Queued is true when the request was deferred into the store.
	Queued bool
	// Position is the queue length including this request (when Queued).
	Position int
	// Err holds the immediate print result (when not Queued); nil on success.
	Err error
}

// ItemResult records one drained request and its print result.
type ItemResult struct {
	Request *queue.Request
	Err     error
}

// Report summarizes one drain pass.
type Report struct {
	Attempted int
	Printed   int
	Failed    int
	Results   []ItemResult
}

type Config struct {
	// ExecTimeout bounds each executor call; exceeding it fails the attempt
	// instead of hanging the dispatcher (default 30s).
	ExecTimeout time.Duration
}

// Dispatcher owns the queue store: all submit and drain mutations serialize
// through it so a submit racing a drain can neither double-print nor lose a
// status update.
type Dispatcher struct {
	cfg    Config
	store  *queue.Store
	exec   printer.Executor
	policy *quiet.Policy
	log    logx.Logger

	// mu serializes store mutations; drainMu ensures a single drain instance.
	mu      sync.Mutex
	drainMu sync.Mutex

	lastMu     sync.Mutex
	lastReport *Report
	lastDrain  time.Time
}

func New(cfg Config, store *queue.Store, exec printer.Executor, policy *quiet.Policy, log logx.Logger) *Dispatcher {
	if cfg.ExecTimeout <= 0 {
		cfg.ExecTimeout = 30 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{cfg: cfg, store: store, exec: exec, policy: policy, log: log}
}

// Submit decides the fate of one incoming request. The policy is evaluated
// exactly once, at call time.
//
// A storage failure is returned as an error: the request must not be
// considered accepted until the queue row is durable.
func (d *Dispatcher) Submit(ctx context.Context, req *queue.Request) (Outcome, error) {
	if req == nil {
		return Outcome{}, errors.New("request is nil")
	}

	if d.policy.Evaluate() == quiet.StateActive {
		d.mu.Lock()
		_, err := d.store.Enqueue(ctx, req)
		var position int
		if err == nil {
			position, err = d.store.CountPending(ctx)
		}
		d.mu.Unlock()
		if err != nil {
			return Outcome{}, fmt.Errorf("queue request: %w", err)
		}
		d.log.Info("request queued",
			logx.Int64("id", req.ID),
			logx.Int64("user", req.UserID),
			logx.String("file", req.FileName),
			logx.Int("position", position))
		return Outcome{Queued: true, Position: position}, nil
	}

	err := d.print(ctx, req.FilePath, req.Options)
	if err != nil {
		d.log.Warn("immediate print failed",
			logx.Int64("user", req.UserID),
			logx.String("file", req.FileName),
			logx.Err(err))
	} else {
		d.log.Info("printed",
			logx.Int64("user", req.UserID),
			logx.String("file", req.FileName))
	}
	return Outcome{Err: err}, nil
}

// Drain processes the pending backlog in FIFO order. The pending set is
// snapshotted at call start; requests submitted mid-drain get their own
// policy evaluation and are not included.
//
// A failed item is marked and skipped; one bad file must not block the rest
// of the backlog. Only a second concurrent drain (ErrDrainInProgress) or a
// storage failure aborts the pass.
func (d *Dispatcher) Drain(ctx context.Context) (Report, error) {
	if !d.drainMu.TryLock() {
		return Report{}, ErrDrainInProgress
	}
	defer d.drainMu.Unlock()

	pending, err := d.store.ListPending(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list pending: %w", err)
	}

	var report Report
	for _, req := range pending {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Attempted++

		printErr := d.print(ctx, req.FilePath, req.Options)

		d.mu.Lock()
		var markErr error
		if printErr == nil {
			markErr = d.store.MarkPrinted(ctx, req.ID)
		} else {
			markErr = d.store.MarkFailed(ctx, req.ID, printErr.Error())
		}
		d.mu.Unlock()
		if markErr != nil {
			return report, fmt.Errorf("record result for request %d: %w", req.ID, markErr)
		}

		if printErr == nil {
			report.Printed++
			d.log.Info("drained request printed", logx.Int64("id", req.ID), logx.String("file", req.FileName))
		} else {
			report.Failed++
			d.log.Warn("drained request failed", logx.Int64("id", req.ID), logx.String("file", req.FileName), logx.Err(printErr))
		}
		report.Results = append(report.Results, ItemResult{Request: req, Err: printErr})
	}

	d.lastMu.Lock()
	d.lastReport = &report
	d.lastDrain = time.Now()
	d.lastMu.Unlock()

	if report.Attempted > 0 {
		d.log.Info("drain complete",
			logx.Int("attempted", report.Attempted),
			logx.Int("printed", report.Printed),
			logx.Int("failed", report.Failed))
	}
	return report, nil
}

// LastReport returns the most recent drain report, if any.
func (d *Dispatcher) LastReport() (Report, time.Time, bool) {
	d.lastMu.Lock()
	defer d.lastMu.Unlock()
	if d.lastReport == nil {
		return Report{}, time.Time{}, false
	}
	return *d.lastReport, d.lastDrain, true
}

// Policy exposes the quiet-hours policy for status display.
func (d *Dispatcher) Policy() *quiet.Policy { return d.policy }

// Store exposes the queue store for read-only status listings.
func (d *Dispatcher) Store() *queue.Store { return d.store }

// print runs one executor call bounded by the configured timeout. The
// timeout only stops waiting; an in-flight lpr is not chased further.
func (d *Dispatcher) print(ctx context.Context, filePath string, opts queue.PrintOptions) error {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.ExecTimeout)
	defer cancel()
	return d.exec.Print(ctx, filePath, opts)
}
