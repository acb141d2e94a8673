package quiet

import (
	"sync"
	"time"
)

// State is the policy verdict for an instant.
type State string

const (
	StateActive   State = "active"   // quiet hours in effect; defer printing
	StateInactive State = "inactive" // print immediately
)

// Clock abstracts wall-clock reads so policy evaluation stays deterministic
// under test.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Policy evaluates the quiet-hours window against an injected clock.
// Evaluate has no side effects; the window can be swapped on config reload.
type Policy struct {
	mu    sync.RWMutex
	win   Window
	clock Clock
}

func NewPolicy(win Window, clock Clock) *Policy {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Policy{win: win, clock: clock}
}

func (p *Policy) Evaluate() State {
	p.mu.RLock()
	win := p.win
	clock := p.clock
	p.mu.RUnlock()

	if win.Contains(clock.Now()) {
		return StateActive
	}
	return StateInactive
}

// Window returns the current window (for status display).
func (p *Policy) Window() Window {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.win
}

// SetWindow replaces the window wholesale (config hot-reload).
func (p *Policy) SetWindow(win Window) {
	p.mu.Lock()
	p.win = win
	p.mu.Unlock()
}
