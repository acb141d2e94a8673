package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a print request.
type Status string

const (
	StatusPending Status = "pending"
	StatusPrinted Status = "printed"
	StatusFailed  Status = "failed"
)

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	switch s := Status(strings.ToLower(strings.TrimSpace(value))); s {
	case StatusPending, StatusPrinted, StatusFailed:
		return s, true
	default:
		return "", false
	}
}

// PrintOptions are the per-request print settings handed to the executor.
type PrintOptions struct {
	Media     string
	Duplex    string
	FitToPage bool
	Copies    int
}

// Request is a print request persisted in SQLite.
//
// Rows exist only while a request is pending or failed: a printed request is
// deleted on transition, a failed one is retained for operator inspection
// until explicitly cleared.
type Request struct {
	ID           int64
	UserID       int64
	ChatID       int64
	MessageID    int
	FilePath     string
	FileName     string
	Options      PrintOptions
	Status       Status
	ErrorMessage string
	SubmittedAt  time.Time
	UpdatedAt    time.Time
}
