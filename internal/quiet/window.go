// Package quiet decides whether an instant falls inside the configured
// quiet-hours window, during which print requests are deferred.
package quiet

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Window is a time-of-day interval in a fixed timezone. Start and End are
// minutes since midnight; a window with Start > End wraps past midnight.
// Immutable after ParseWindow; reconfiguration replaces it wholesale.
type Window struct {
	Start    int
	End      int
	Location *time.Location
}

// ParseWindow resolves "HH:MM" start/end strings plus an IANA timezone name
// into an evaluable Window. Any malformed input is a configuration error:
// callers must treat it as fatal at startup, never fall back silently.
func ParseWindow(start, end, timezone string) (Window, error) {
	s, err := parseHHMM(start)
	if err != nil {
		return Window{}, fmt.Errorf("quiet_hours.start: %w", err)
	}
	e, err := parseHHMM(end)
	if err != nil {
		return Window{}, fmt.Errorf("quiet_hours.end: %w", err)
	}
	tz := strings.TrimSpace(timezone)
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Window{}, fmt.Errorf("quiet_hours.timezone: invalid %q: %w", timezone, err)
	}
	return Window{Start: s, End: e, Location: loc}, nil
}

// Contains reports whether t falls inside the window. The interval is
// half-open: [start, end). Start == End is a zero-width window and never
// matches.
func (w Window) Contains(t time.Time) bool {
	if w.Start == w.End {
		return false
	}
	local := t.In(w.Location)
	m := local.Hour()*60 + local.Minute()
	if w.Start < w.End {
		return w.Start <= m && m < w.End
	}
	// Wraps midnight, e.g. 22:30-09:00.
	return m >= w.Start || m < w.End
}

func (w Window) String() string {
	return fmt.Sprintf("%s-%s %s", minutesToHHMM(w.Start), minutesToHHMM(w.End), w.Location)
}

// StartHHMM returns the window start formatted as HH:MM.
func (w Window) StartHHMM() string { return minutesToHHMM(w.Start) }

// EndHHMM returns the window end formatted as HH:MM.
func (w Window) EndHHMM() string { return minutesToHHMM(w.End) }

func minutesToHHMM(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func parseHHMM(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q (want HH:MM)", raw)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return h*60 + m, nil
}
