package batch

import "sync"

// Gate counts the outstanding tasks of one batch and runs its terminal action
// exactly once, when the count reaches zero. Gates are never shared between
// batches.
type Gate struct {
	mu          sync.Mutex
	outstanding int
	fired       bool
	action      func()
}

// NewGate returns a gate waiting for total notifications. With total <= 0 the
// action runs before NewGate returns.
func NewGate(total int, action func()) *Gate {
	if total < 0 {
		total = 0
	}
	g := &Gate{outstanding: total, action: action}
	if total == 0 {
		g.fire()
	}
	return g
}

// NotifyOne marks one task as finished. Calls after the gate has fired are
// ignored.
func (g *Gate) NotifyOne() {
	g.mu.Lock()
	if g.fired || g.outstanding == 0 {
		g.mu.Unlock()
		return
	}
	g.outstanding--
	last := g.outstanding == 0
	g.mu.Unlock()
	if last {
		g.fire()
	}
}

// Outstanding returns the number of notifications still expected.
func (g *Gate) Outstanding() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.outstanding
}

// Fired reports whether the terminal action has run (or is running).
func (g *Gate) Fired() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fired
}

func (g *Gate) fire() {
	g.mu.Lock()
	if g.fired {
		g.mu.Unlock()
		return
	}
	g.fired = true
	g.mu.Unlock()
	if g.action != nil {
		g.action()
	}
}
