// Package printer talks to the CUPS printing subsystem: registering the
// network printer over IPP and submitting files via lpr. Submission is
// fire-and-forget; once lpr accepts a job its completion is not tracked.
package printer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"printbot/internal/queue"
	logx "printbot/pkg/logx"
)

// Executor submits a file to the printing subsystem. Implementations must
// honor ctx cancellation: the dispatcher bounds every call with a timeout and
// converts an overrun into a failed attempt.
type Executor interface {
	Print(ctx context.Context, filePath string, opts queue.PrintOptions) error
}

// Config for the lpr-backed executor.
type Config struct {
	// Name is the CUPS queue name used with lpr -P and lpadmin -p.
	Name string
	// IP is the network printer address used for IPP registration.
	IP string
	// SetupOnStart registers the printer with lpadmin during startup.
	SetupOnStart bool
	// SetupTimeout bounds the lpadmin call (default 30s).
	SetupTimeout time.Duration
}

// LPR shells out to the standard UNIX print spooler.
type LPR struct {
	cfg Config
	log logx.Logger
}

func NewLPR(cfg Config, log logx.Logger) (*LPR, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, errors.New("printer.name is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &LPR{cfg: cfg, log: log}, nil
}

// Setup registers the printer with CUPS using the universal IPP "everywhere"
// driver. Safe to re-run; lpadmin updates the existing queue.
func (l *LPR) Setup(ctx context.Context) error {
	ip := strings.TrimSpace(l.cfg.IP)
	if ip == "" {
		return errors.New("printer.ip is required for setup")
	}
	timeout := l.cfg.SetupTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	uri := fmt.Sprintf("ipp://%s/ipp/print", ip)
	cmd := exec.CommandContext(ctx, "lpadmin", "-p", l.cfg.Name, "-E", "-v", uri, "-m", "everywhere")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("printer setup timed out: %w", ctx.Err())
		}
		return fmt.Errorf("lpadmin failed: %s: %w", strings.TrimSpace(stderr.String()), err)
	}
	l.log.Info("printer registered", logx.String("name", l.cfg.Name), logx.String("uri", uri))
	return nil
}

// Print submits one file via lpr. It returns once the spooler accepts or
// rejects the job.
func (l *LPR) Print(ctx context.Context, filePath string, opts queue.PrintOptions) error {
	args := []string{"-P", l.cfg.Name}
	if opts.Copies > 1 {
		args = append(args, "-#", strconv.Itoa(opts.Copies))
	}
	if m := strings.TrimSpace(opts.Media); m != "" {
		args = append(args, "-o", "media="+m)
	}
	if d := strings.TrimSpace(opts.Duplex); d != "" {
		args = append(args, "-o", "sides="+duplexToSides(d))
	}
	if opts.FitToPage {
		args = append(args, "-o", "fit-to-page")
	}
	args = append(args, filePath)

	l.log.Debug("print command", logx.String("cmd", "lpr "+strings.Join(args, " ")))

	cmd := exec.CommandContext(ctx, "lpr", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("print command timed out: %w", ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("print command failed: %s", msg)
	}
	return nil
}

// duplexToSides maps the configured duplex mode to CUPS "sides" values.
func duplexToSides(duplex string) string {
	switch strings.ToLower(strings.TrimSpace(duplex)) {
	case "two-sided-long-edge", "duplex", "long-edge":
		return "two-sided-long-edge"
	case "two-sided-short-edge", "short-edge":
		return "two-sided-short-edge"
	default:
		return "one-sided"
	}
}
