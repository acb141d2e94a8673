package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"printbot/internal/quiet"
)

type Config struct {
	Telegram   TelegramConfig   `json:"telegram"`
	Printer    PrinterConfig    `json:"printer"`
	Files      FilesConfig      `json:"files"`
	QuietHours QuietHoursConfig `json:"quiet_hours"`
	Scheduler  SchedulerConfig  `json:"scheduler"`
	Queue      QueueConfig      `json:"queue"`
	Logging    LoggingConfig    `json:"logging"`

	// Language selects the reply catalog ("en" or "uk"). Default "uk".
	Language string `json:"language,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`

	// AllowedUserIDs is the access list. Empty means nobody: access is
	// deny-by-default so a misconfigured bot cannot print for strangers.
	AllowedUserIDs []int64 `json:"allowed_user_ids"`

	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type PrinterConfig struct {
	// Name is the CUPS queue name.
	Name string `json:"name"`
	// IP is the network printer address, used when setup_on_start registers
	// the queue over IPP.
	IP           string `json:"ip,omitempty"`
	SetupOnStart bool   `json:"setup_on_start,omitempty"`
	// SetupTimeout is a Go duration string.
	SetupTimeout string `json:"setup_timeout,omitempty"`

	// Default print options applied to every job.
	Media     string `json:"media,omitempty"`  // e.g. "A4"
	Duplex    string `json:"duplex,omitempty"` // e.g. "one-sided"
	FitToPage *bool  `json:"fit_to_page,omitempty"`
	Copies    int    `json:"copies,omitempty"`

	// PrintTimeout bounds each lpr invocation (Go duration string).
	PrintTimeout string `json:"print_timeout,omitempty"`
}

type FilesConfig struct {
	// SaveDir is where inbound files land before printing.
	SaveDir string `json:"save_dir,omitempty"`
	// MaxFileMB rejects larger uploads before download.
	MaxFileMB int `json:"max_file_mb,omitempty"`
	// EnableLibreOffice turns on Office-to-PDF conversion.
	EnableLibreOffice bool `json:"enable_libreoffice,omitempty"`
	// ConvertTimeout bounds one conversion (Go duration string).
	ConvertTimeout string `json:"convert_timeout,omitempty"`
}

// QuietHoursConfig describes the daily deferral window. Start and End are
// HH:MM wall-clock times in Timezone; Start after End wraps past midnight.
type QuietHoursConfig struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone,omitempty"`
}

type SchedulerConfig struct {
	// Enabled is a pointer so an omitted field defaults to true while an
	// explicit false still turns the trigger off.
	Enabled *bool `json:"enabled,omitempty"`
	// Spec is the policy evaluation cadence (cron, default every minute).
	Spec string `json:"spec,omitempty"`
}

type QueueConfig struct {
	// Path to the sqlite queue database.
	Path string `json:"path,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	ChatID     int64  `json:"chat_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

const (
	defaultSaveDir   = "/data/incoming"
	defaultQueuePath = "/data/print_queue.db"
	defaultMaxFileMB = 20
	defaultMedia     = "A4"
	defaultDuplex    = "one-sided"
	defaultLanguage  = "uk"
)

// Validate checks the parts that must be right before the process can run.
// Errors here are fatal at startup and veto a hot reload.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Telegram.Token) == "" {
		errs = append(errs, errors.New("telegram.token is required"))
	}
	if strings.TrimSpace(c.Printer.Name) == "" {
		errs = append(errs, errors.New("printer.name is required"))
	}
	if c.Printer.SetupOnStart && strings.TrimSpace(c.Printer.IP) == "" {
		errs = append(errs, errors.New("printer.ip is required when setup_on_start is set"))
	}
	if c.QuietHours.Start != "" || c.QuietHours.End != "" {
		if _, err := c.QuietHours.Window(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Files.MaxFileMB < 0 {
		errs = append(errs, errors.New("files.max_file_mb must be >= 0"))
	}
	if c.Printer.Copies < 0 {
		errs = append(errs, errors.New("printer.copies must be >= 0"))
	}
	if c.Language != "" {
		switch strings.ToLower(c.Language) {
		case "en", "uk":
		default:
			errs = append(errs, fmt.Errorf("language: unsupported %q", c.Language))
		}
	}
	for _, field := range []struct {
		path string
		raw  string
	}{
		{"telegram.poll_timeout", c.Telegram.PollTimeout},
		{"printer.setup_timeout", c.Printer.SetupTimeout},
		{"printer.print_timeout", c.Printer.PrintTimeout},
		{"files.convert_timeout", c.Files.ConvertTimeout},
	} {
		if _, err := ParseDurationField(field.path, field.raw); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Window resolves the quiet-hours section into a concrete window.
func (q QuietHoursConfig) Window() (quiet.Window, error) {
	start := q.Start
	end := q.End
	if start == "" && end == "" {
		// No quiet hours configured: a zero-width window is never active.
		start, end = "00:00", "00:00"
	}
	win, err := quiet.ParseWindow(start, end, q.Timezone)
	if err != nil {
		return quiet.Window{}, fmt.Errorf("quiet_hours: %w", err)
	}
	return win, nil
}

// SaveDirOrDefault returns files.save_dir with the default applied.
func (c *Config) SaveDirOrDefault() string {
	if d := strings.TrimSpace(c.Files.SaveDir); d != "" {
		return d
	}
	return defaultSaveDir
}

// QueuePathOrDefault returns queue.path with the default applied.
func (c *Config) QueuePathOrDefault() string {
	if p := strings.TrimSpace(c.Queue.Path); p != "" {
		return p
	}
	return defaultQueuePath
}

// MaxFileBytes returns the upload limit in bytes.
func (c *Config) MaxFileBytes() int64 {
	mb := c.Files.MaxFileMB
	if mb <= 0 {
		mb = defaultMaxFileMB
	}
	return int64(mb) * 1024 * 1024
}

// MediaOrDefault returns printer.media with the default applied.
func (c *Config) MediaOrDefault() string {
	if m := strings.TrimSpace(c.Printer.Media); m != "" {
		return m
	}
	return defaultMedia
}

// DuplexOrDefault returns printer.duplex with the default applied.
func (c *Config) DuplexOrDefault() string {
	if d := strings.TrimSpace(c.Printer.Duplex); d != "" {
		return d
	}
	return defaultDuplex
}

// FitToPageOrDefault defaults to true when the field is omitted.
func (c *Config) FitToPageOrDefault() bool {
	if c.Printer.FitToPage == nil {
		return true
	}
	return *c.Printer.FitToPage
}

// CopiesOrDefault returns printer.copies with a minimum of one.
func (c *Config) CopiesOrDefault() int {
	if c.Printer.Copies <= 0 {
		return 1
	}
	return c.Printer.Copies
}

// LanguageOrDefault returns the reply language with the default applied.
func (c *Config) LanguageOrDefault() string {
	if l := strings.TrimSpace(c.Language); l != "" {
		return strings.ToLower(l)
	}
	return defaultLanguage
}

// SchedulerEnabled defaults to true when the field is omitted.
func (c *Config) SchedulerEnabled() bool {
	if c.Scheduler.Enabled == nil {
		return true
	}
	return *c.Scheduler.Enabled
}

// PrintTimeoutOrDefault returns the per-job executor timeout.
func (c *Config) PrintTimeoutOrDefault() time.Duration {
	d, err := ParseDurationOrDefault("printer.print_timeout", c.Printer.PrintTimeout, 30*time.Second)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// UserAllowed reports whether uid is on the access list. An empty list
// denies everyone.
func (c *Config) UserAllowed(uid int64) bool {
	for _, id := range c.Telegram.AllowedUserIDs {
		if id == uid {
			return true
		}
	}
	return false
}
