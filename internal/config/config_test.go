package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validYAML = `
telegram:
  token: "123:abc"
  allowed_user_ids: [111, 222]
printer:
  name: office
  media: A4
quiet_hours:
  start: "22:30"
  end: "09:00"
  timezone: UTC
logging:
  level: info
  console: true
`

func TestLoadValidYAML(t *testing.T) {
	m := NewManager(writeConfig(t, "config.yaml", validYAML))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if !cfg.UserAllowed(111) || cfg.UserAllowed(333) {
		t.Fatal("allow list misapplied")
	}
	win, err := cfg.QuietHours.Window()
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if win.String() != "22:30-09:00 UTC" {
		t.Fatalf("window = %s", win.String())
	}
	if m.Get() != cfg {
		t.Fatal("Load did not commit")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	m := NewManager(writeConfig(t, "config.yaml", validYAML+"\nmystery_key: 1\n"))
	if _, err := m.Load(); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidateRejectsBadWindow(t *testing.T) {
	body := `
telegram:
  token: "123:abc"
printer:
  name: office
quiet_hours:
  start: "25:00"
  end: "09:00"
`
	m := NewManager(writeConfig(t, "config.yaml", body))
	if _, err := m.Load(); err == nil {
		t.Fatal("expected error for invalid window")
	}
}

func TestValidateRequiresToken(t *testing.T) {
	m := NewManager(writeConfig(t, "config.yaml", "printer:\n  name: office\n"))
	if _, err := m.Load(); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestDefaults(t *testing.T) {
	body := `
telegram:
  token: "123:abc"
printer:
  name: office
`
	m := NewManager(writeConfig(t, "config.yaml", body))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MediaOrDefault() != "A4" {
		t.Fatalf("media = %q", cfg.MediaOrDefault())
	}
	if cfg.DuplexOrDefault() != "one-sided" {
		t.Fatalf("duplex = %q", cfg.DuplexOrDefault())
	}
	if !cfg.FitToPageOrDefault() {
		t.Fatal("fit_to_page should default to true")
	}
	if cfg.CopiesOrDefault() != 1 {
		t.Fatalf("copies = %d", cfg.CopiesOrDefault())
	}
	if cfg.LanguageOrDefault() != "uk" {
		t.Fatalf("language = %q", cfg.LanguageOrDefault())
	}
	if !cfg.SchedulerEnabled() {
		t.Fatal("scheduler should default to enabled")
	}
	if cfg.MaxFileBytes() != 20*1024*1024 {
		t.Fatalf("max bytes = %d", cfg.MaxFileBytes())
	}
	// No quiet hours configured: zero-width window, never active.
	win, err := cfg.QuietHours.Window()
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if win.Start != win.End {
		t.Fatalf("expected zero-width window, got %s", win.String())
	}
}

func TestExplicitSchedulerDisable(t *testing.T) {
	body := `
telegram:
  token: "123:abc"
printer:
  name: office
scheduler:
  enabled: false
`
	m := NewManager(writeConfig(t, "config.yaml", body))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SchedulerEnabled() {
		t.Fatal("explicit false ignored")
	}
}

func TestParseJSONConfig(t *testing.T) {
	body := `{"telegram":{"token":"123:abc","allowed_user_ids":[1]},"printer":{"name":"office"},"logging":{"level":"info","console":true,"file":{"enabled":false,"path":""},"telegram":{"enabled":false,"chat_id":0,"min_level":"","rate_per_sec":0}}}`
	m := NewManager(writeConfig(t, "config.json", body))
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
}
