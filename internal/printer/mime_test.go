package printer

import (
	"testing"

	logx "printbot/pkg/logx"
)

func TestIsPrintable(t *testing.T) {
	cases := []struct {
		mime string
		want bool
	}{
		{"application/pdf", true},
		{"image/jpeg", true},
		{"image/webp", true},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", true},
		{"text/plain", true},
		{"application/zip", false},
		{"video/mp4", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsPrintable(tc.mime); got != tc.want {
			t.Errorf("IsPrintable(%q) = %v, want %v", tc.mime, got, tc.want)
		}
	}
}

func TestDuplexToSides(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"duplex", "two-sided-long-edge"},
		{"long-edge", "two-sided-long-edge"},
		{"Two-Sided-Short-Edge", "two-sided-short-edge"},
		{"one-sided", "one-sided"},
		{"nonsense", "one-sided"},
		{"", "one-sided"},
	}
	for _, tc := range cases {
		if got := duplexToSides(tc.in); got != tc.want {
			t.Errorf("duplexToSides(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewLPRRequiresName(t *testing.T) {
	if _, err := NewLPR(Config{Name: " "}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty printer name")
	}
}
