// Package sched re-evaluates the quiet-hours policy on a cron cadence and
// fires a queue drain exactly once per window close.
package sched

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"printbot/internal/dispatch"
	"printbot/internal/quiet"
	logx "printbot/pkg/logx"
)

type Config struct {
	// Enabled turns the automatic trigger on. When off the backlog only
	// drains via the manual command.
	Enabled bool
	// Spec is the evaluation cadence (default every minute). Both 5-field
	// and 6-field (with seconds) specs are accepted.
	Spec string
}

const defaultSpec = "* * * * *"

// Trigger watches for the quiet window closing. The transition is edge
// based: a drain fires when the observed state flips from active to
// inactive, never merely because the state is inactive.
type Trigger struct {
	cfg    Config
	policy *quiet.Policy
	disp   *dispatch.Dispatcher
	log    logx.Logger

	parser cron.Parser

	mu      sync.Mutex
	c       *cron.Cron
	prev    quiet.State
	started bool
	ctx     context.Context

	onReport func(context.Context, dispatch.Report)
}

func New(cfg Config, policy *quiet.Policy, disp *dispatch.Dispatcher, log logx.Logger) *Trigger {
	if cfg.Spec == "" {
		cfg.Spec = defaultSpec
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Trigger{
		cfg:    cfg,
		policy: policy,
		disp:   disp,
		log:    log,
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// OnReport registers a callback invoked after each automatic drain that
// attempted at least one request. Must be set before Start.
func (t *Trigger) OnReport(fn func(context.Context, dispatch.Report)) {
	t.onReport = fn
}

// Start seeds the edge detector and begins the cron cadence. If the process
// comes up outside quiet hours with a leftover backlog, that backlog drains
// immediately; requests must not wait for the next window cycle.
func (t *Trigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return errors.New("trigger already started")
	}

	t.ctx = ctx
	t.prev = t.policy.Evaluate()

	if t.prev == quiet.StateInactive {
		if n, err := t.disp.Store().CountPending(ctx); err != nil {
			t.log.Error("startup backlog check failed", logx.Err(err))
		} else if n > 0 {
			t.log.Info("startup backlog found", logx.Int("pending", n))
			go t.runDrain(ctx)
		}
	}

	if !t.cfg.Enabled {
		t.log.Info("automatic drain trigger disabled")
		t.started = true
		return nil
	}

	loc := t.policy.Window().Location
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithParser(t.parser), cron.WithLocation(loc))
	if _, err := c.AddFunc(t.cfg.Spec, t.tick); err != nil {
		return errors.Join(errors.New("invalid scheduler spec"), err)
	}
	c.Start()
	t.c = c
	t.started = true
	t.log.Info("drain trigger started",
		logx.String("spec", t.cfg.Spec),
		logx.String("state", string(t.prev)),
		logx.String("window", t.policy.Window().String()))
	return nil
}

// Stop halts the cadence, waiting for an in-flight tick bounded by ctx.
func (t *Trigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	c := t.c
	t.c = nil
	t.started = false
	t.mu.Unlock()
	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reschedule rebuilds the cron cadence after a config reload so the new
// window location takes effect. The edge detector re-seeds from the current
// policy state, so a reload that lands outside an already-closed window does
// not fire a spurious drain.
func (t *Trigger) Reschedule(ctx context.Context, cfg Config) error {
	if err := t.Stop(ctx); err != nil {
		return err
	}
	t.mu.Lock()
	if cfg.Spec == "" {
		cfg.Spec = defaultSpec
	}
	t.cfg = cfg
	t.mu.Unlock()
	return t.Start(ctx)
}

// tick runs once per cadence point. Only the active-to-inactive edge fires.
func (t *Trigger) tick() {
	t.mu.Lock()
	ctx := t.ctx
	prev := t.prev
	cur := t.policy.Evaluate()
	t.prev = cur
	t.mu.Unlock()

	if prev == quiet.StateActive && cur == quiet.StateInactive {
		t.log.Info("quiet hours ended", logx.String("window", t.policy.Window().String()))
		t.runDrain(ctx)
	}
}

func (t *Trigger) runDrain(ctx context.Context) {
	report, err := t.disp.Drain(ctx)
	if err != nil {
		if errors.Is(err, dispatch.ErrDrainInProgress) {
			t.log.Debug("drain skipped, already running")
			return
		}
		t.log.Error("drain failed", logx.Err(err))
		return
	}
	if report.Attempted > 0 && t.onReport != nil {
		t.onReport(ctx, report)
	}
}
