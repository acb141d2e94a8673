// Package app wires the bot together: config, logging, queue store, printer
// executor, dispatcher, drain trigger, and the Telegram transport.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"printbot/internal/config"
	"printbot/internal/dispatch"
	"printbot/internal/printer"
	"printbot/internal/queue"
	"printbot/internal/quiet"
	rtsup "printbot/internal/runtime/supervisor"
	"printbot/internal/sched"
	kit "printbot/internal/transport"
	"printbot/internal/transport/telegram/adapter"
	logx "printbot/pkg/logx"
)

type App struct {
	cfgm *config.Manager
	logs *logx.Service
	log  logx.Logger

	store  *queue.Store
	tg     *adapter.Adapter
	lpr    *printer.LPR
	conv   *printer.Converter
	policy *quiet.Policy
	disp   *dispatch.Dispatcher
	trig   *sched.Trigger

	sup     *rtsup.Supervisor
	updates chan kit.Update
}

// New builds the full object graph from the config file. Any configuration
// problem here is fatal: the process must refuse to start rather than run
// with a window or printer it cannot honor.
func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	win, err := cfg.QuietHours.Window()
	if err != nil {
		return nil, err
	}
	policy := quiet.NewPolicy(win, nil)

	boot := logx.NewConsole(cfg.Logging.Level)

	pollTimeout, _ := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	tg, err := adapter.New(adapter.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, boot)
	if err != nil {
		return nil, fmt.Errorf("telegram adapter: %w", err)
	}

	logs, log := logx.New(logxConfig(cfg), tg)
	logs.SetTelegramTarget(cfg.Logging.Telegram.ChatID)
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	store, err := queue.Open(cfg.QueuePathOrDefault())
	if err != nil {
		logs.Close()
		return nil, fmt.Errorf("open queue store: %w", err)
	}

	setupTimeout, _ := config.ParseDurationOrDefault("printer.setup_timeout", cfg.Printer.SetupTimeout, 30*time.Second)
	lpr, err := printer.NewLPR(printer.Config{
		Name:         cfg.Printer.Name,
		IP:           cfg.Printer.IP,
		SetupOnStart: cfg.Printer.SetupOnStart,
		SetupTimeout: setupTimeout,
	}, log.With(logx.String("comp", "printer")))
	if err != nil {
		_ = store.Close()
		logs.Close()
		return nil, err
	}

	convTimeout, _ := config.ParseDurationOrDefault("files.convert_timeout", cfg.Files.ConvertTimeout, 60*time.Second)
	conv := printer.NewConverter(cfg.SaveDirOrDefault(), convTimeout, log.With(logx.String("comp", "convert")))

	disp := dispatch.New(dispatch.Config{ExecTimeout: cfg.PrintTimeoutOrDefault()},
		store, lpr, policy, log.With(logx.String("comp", "dispatch")))

	trig := sched.New(sched.Config{
		Enabled: cfg.SchedulerEnabled(),
		Spec:    cfg.Scheduler.Spec,
	}, policy, disp, log.With(logx.String("comp", "sched")))

	a := &App{
		cfgm:   cfgm,
		logs:   logs,
		log:    log,
		store:  store,
		tg:     tg,
		lpr:    lpr,
		conv:   conv,
		policy: policy,
		disp:   disp,
		trig:   trig,
	}
	trig.OnReport(a.notifyDrainReport)
	return a, nil
}

func logxConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}
}

func (a *App) Start(ctx context.Context) error {
	cfg := a.cfgm.Get()

	if err := os.MkdirAll(cfg.SaveDirOrDefault(), 0o755); err != nil {
		return fmt.Errorf("create save dir: %w", err)
	}

	if cfg.Printer.SetupOnStart {
		// A printer that is offline at boot should not keep the bot down;
		// jobs queue up and lpr will report failures per attempt.
		if err := a.lpr.Setup(ctx); err != nil {
			a.log.Warn("printer setup failed", logx.Err(err))
		}
	}

	a.sup = rtsup.New(ctx,
		rtsup.WithLogger(a.log.With(logx.String("comp", "app"))),
		rtsup.WithCancelOnError(false),
	)
	a.updates = make(chan kit.Update, 64)

	if err := a.tg.Start(a.sup.Context(), a.updates); err != nil {
		return fmt.Errorf("start telegram adapter: %w", err)
	}
	if err := a.trig.Start(a.sup.Context()); err != nil {
		return fmt.Errorf("start drain trigger: %w", err)
	}

	a.sup.Go0("updates.process", a.processUpdates)

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
	})
	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.log.Info("app started",
		logx.String("window", a.policy.Window().String()),
		logx.String("state", string(a.policy.Evaluate())))
	return nil
}

// reloadLoop applies committed config updates: logging sinks, the quiet
// window, and the trigger cadence. The dispatcher and store keep their
// handles; only tunables move.
func (a *App) reloadLoop(ctx context.Context, sub chan *config.Config) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: keep only the latest config.
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						cfg = newer
					}
				default:
					goto APPLY
				}
			}
		APPLY:
			a.logs.Apply(logxConfig(cfg))
			a.logs.SetTelegramTarget(cfg.Logging.Telegram.ChatID)

			win, err := cfg.QuietHours.Window()
			if err != nil {
				// Validate() vetoes bad windows before commit; keep the old one.
				a.log.Warn("reload kept previous quiet window", logx.Err(err))
			} else if win != a.policy.Window() {
				a.policy.SetWindow(win)
				a.log.Info("quiet window updated", logx.String("window", win.String()))
			}

			if err := a.trig.Reschedule(ctx, sched.Config{
				Enabled: cfg.SchedulerEnabled(),
				Spec:    cfg.Scheduler.Spec,
			}); err != nil {
				a.log.Warn("trigger reschedule failed", logx.Err(err))
			}

			a.log.Info("config reloaded")
		}
	}
}

func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping")
	a.sup.Cancel()

	// Each stop step gets an upper bound so one component can't stall the
	// whole shutdown.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		if dl, ok := ctx.Deadline(); ok {
			if rem := time.Until(dl); rem > 0 && rem < max {
				max = rem
			}
		}
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()
		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)", logx.String("name", name))
		}
	}

	step("trigger", 2*time.Second, a.trig.Stop)
	step("adapter", 2*time.Second, a.tg.Stop)
	step("supervisor", 2*time.Second, a.sup.Wait)
	step("store", time.Second, func(context.Context) error { return a.store.Close() })

	a.log.Info("stopped")
	a.logs.Close()
	return nil
}
