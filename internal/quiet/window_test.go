package quiet

import (
	"testing"
	"time"
)

func mustWindow(t *testing.T, start, end, tz string) Window {
	t.Helper()
	w, err := ParseWindow(start, end, tz)
	if err != nil {
		t.Fatalf("ParseWindow(%q, %q, %q) error: %v", start, end, tz, err)
	}
	return w
}

func at(t *testing.T, loc *time.Location, hhmm string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04", "2026-03-10 "+hhmm, loc)
	if err != nil {
		t.Fatalf("bad test time %q: %v", hhmm, err)
	}
	return ts
}

func TestContainsSameDayWindow(t *testing.T) {
	t.Parallel()
	w := mustWindow(t, "08:00", "17:00", "UTC")

	tests := []struct {
		hhmm string
		want bool
	}{
		{"07:59", false},
		{"08:00", true},
		{"12:30", true},
		{"16:59", true},
		{"17:00", false}, // half-open: end excluded
		{"23:00", false},
	}
	for _, tt := range tests {
		if got := w.Contains(at(t, time.UTC, tt.hhmm)); got != tt.want {
			t.Errorf("Contains(%s) = %v, want %v", tt.hhmm, got, tt.want)
		}
	}
}

func TestContainsMidnightWrap(t *testing.T) {
	t.Parallel()
	w := mustWindow(t, "22:30", "09:00", "UTC")

	tests := []struct {
		hhmm string
		want bool
	}{
		{"22:29", false},
		{"22:30", true},
		{"23:00", true},
		{"00:00", true},
		{"08:59", true},
		{"09:00", false},
		{"09:01", false},
		{"12:00", false},
	}
	for _, tt := range tests {
		if got := w.Contains(at(t, time.UTC, tt.hhmm)); got != tt.want {
			t.Errorf("Contains(%s) = %v, want %v", tt.hhmm, got, tt.want)
		}
	}
}

func TestContainsZeroWidthWindowNeverActive(t *testing.T) {
	t.Parallel()
	w := mustWindow(t, "10:00", "10:00", "UTC")
	for _, hhmm := range []string{"00:00", "09:59", "10:00", "10:01", "23:59"} {
		if w.Contains(at(t, time.UTC, hhmm)) {
			t.Errorf("zero-width window active at %s", hhmm)
		}
	}
}

func TestContainsConvertsToWindowTimezone(t *testing.T) {
	t.Parallel()
	loc, err := time.LoadLocation("Europe/Kiev")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	w := mustWindow(t, "22:30", "09:00", "Europe/Kiev")

	// 23:00 local is inside the window regardless of the instant's own zone.
	local := at(t, loc, "23:00")
	if !w.Contains(local.UTC()) {
		t.Error("expected 23:00 Kiev (expressed in UTC) inside window")
	}
	if w.Contains(at(t, loc, "09:00").UTC()) {
		t.Error("expected 09:00 Kiev outside window")
	}
}

func TestParseWindowRejectsMalformedInput(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name           string
		start, end, tz string
	}{
		{"bad hour", "25:00", "09:00", "UTC"},
		{"bad minute", "22:61", "09:00", "UTC"},
		{"missing colon", "2230", "09:00", "UTC"},
		{"empty start", "", "09:00", "UTC"},
		{"bad timezone", "22:30", "09:00", "Mars/Olympus"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseWindow(tc.start, tc.end, tc.tz); err == nil {
				t.Fatalf("ParseWindow(%q, %q, %q): expected error", tc.start, tc.end, tc.tz)
			}
		})
	}
}

func TestParseWindowDefaultsToUTC(t *testing.T) {
	t.Parallel()
	w := mustWindow(t, "22:30", "09:00", "")
	if w.Location != time.UTC {
		t.Fatalf("expected UTC default, got %v", w.Location)
	}
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestPolicyEvaluate(t *testing.T) {
	t.Parallel()
	w := mustWindow(t, "22:30", "09:00", "UTC")

	p := NewPolicy(w, fixedClock{t: at(t, time.UTC, "23:00")})
	if got := p.Evaluate(); got != StateActive {
		t.Fatalf("Evaluate at 23:00 = %v, want active", got)
	}

	p = NewPolicy(w, fixedClock{t: at(t, time.UTC, "09:00")})
	if got := p.Evaluate(); got != StateInactive {
		t.Fatalf("Evaluate at 09:00 = %v, want inactive", got)
	}
}

func TestPolicySetWindow(t *testing.T) {
	t.Parallel()
	clock := fixedClock{t: at(t, time.UTC, "12:00")}
	p := NewPolicy(mustWindow(t, "22:30", "09:00", "UTC"), clock)
	if p.Evaluate() != StateInactive {
		t.Fatal("expected inactive before window swap")
	}
	p.SetWindow(mustWindow(t, "11:00", "13:00", "UTC"))
	if p.Evaluate() != StateActive {
		t.Fatal("expected active after window swap")
	}
}

func TestWindowString(t *testing.T) {
	t.Parallel()
	w := mustWindow(t, "22:30", "09:00", "UTC")
	if got := w.String(); got != "22:30-09:00 UTC" {
		t.Fatalf("String() = %q", got)
	}
	if w.StartHHMM() != "22:30" || w.EndHHMM() != "09:00" {
		t.Fatalf("HHMM accessors: %s %s", w.StartHHMM(), w.EndHHMM())
	}
}
