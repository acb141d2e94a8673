package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sdaemon "github.com/coreos/go-systemd/v22/daemon"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"printbot/internal/app"
	"printbot/internal/config"
)

func newRunCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(*configFlag)
		},
	}
}

func runDaemon(cfgPath string) error {
	a, err := app.New(cfgPath)
	if err != nil {
		return err
	}

	// Single-instance lock next to the queue database: two daemons polling
	// the same bot token would split updates between them.
	lockPath, err := instanceLockPath(cfgPath)
	if err != nil {
		return err
	}
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another printbot instance is already running (lock %s)", lockPath)
	}
	defer func() { _ = lock.Unlock() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}
	// Best-effort; a no-op outside systemd.
	_, _ = sdaemon.SdNotify(false, sdaemon.SdNotifyReady)

	<-ctx.Done()
	_, _ = sdaemon.SdNotify(false, sdaemon.SdNotifyStopping)

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.Stop(stopCtx)
}

// instanceLockPath derives the lock file location from the configured queue
// database path.
func instanceLockPath(cfgPath string) (string, error) {
	m := config.NewManager(cfgPath)
	cfg, err := m.Load()
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(cfg.QueuePathOrDefault())
	if err := os.MkdirAll(dir, 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return "", err
	}
	return filepath.Join(dir, "printbot.lock"), nil
}
