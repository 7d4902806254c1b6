package common

import (
	"sync"
	"time"
)

// Clock is a source of the current time. The zero value of Timer uses the
// wall clock; simulations and tests can inject their own.
type Clock func() time.Time

// Timer is a monotonic stopwatch measuring elapsed seconds since the last
// restart. Copying a Timer snapshots its phase: the copy keeps ticking (or
// stays frozen) from the same point, which is how a transition hands its
// elapsed time to the state that follows it.
type Timer struct {
	clock   Clock
	start   time.Time
	accum   time.Duration
	running bool
}

// NewTimer creates a stopped Timer driven by the wall clock.
//
// Returns:
//   - Timer: the new timer with zero elapsed time
func NewTimer() Timer {
	return Timer{}
}

// NewTimerWithClock creates a stopped Timer driven by the given clock.
//
// Parameters:
//   - clock: the time source, or nil for the wall clock
//
// Returns:
//   - Timer: the new timer with zero elapsed time
func NewTimerWithClock(clock Clock) Timer {
	return Timer{clock: clock}
}

// Restart zeroes the elapsed time and starts the timer running.
func (t *Timer) Restart() {
	t.start = t.now()
	t.accum = 0
	t.running = true
}

// RestartAt restarts the timer with an initial elapsed offset, as if it had
// been running for elapsedSec already.
//
// Parameters:
//   - elapsedSec: the starting elapsed time in seconds
func (t *Timer) RestartAt(elapsedSec float64) {
	t.start = t.now()
	t.accum = time.Duration(elapsedSec * float64(time.Second))
	t.running = true
}

// Start resumes the timer without resetting accumulated time.
// No-op if already running.
func (t *Timer) Start() {
	if t.running {
		return
	}
	t.start = t.now()
	t.running = true
}

// Stop freezes the timer, preserving the elapsed time so far.
// No-op if already stopped.
func (t *Timer) Stop() {
	if !t.running {
		return
	}
	t.accum += t.now().Sub(t.start)
	t.running = false
}

// Running reports whether the timer is currently accumulating time.
//
// Returns:
//   - bool: true if the timer is running
func (t *Timer) Running() bool {
	return t.running
}

// Elapsed returns the seconds accumulated since the last Restart, excluding
// any stopped intervals.
//
// Returns:
//   - float64: elapsed seconds
func (t *Timer) Elapsed() float64 {
	if t.running {
		return (t.accum + t.now().Sub(t.start)).Seconds()
	}
	return t.accum.Seconds()
}

func (t *Timer) now() time.Time {
	if t.clock != nil {
		return t.clock()
	}
	return time.Now()
}

// ManualClock is a Clock for tests and offline simulation. Time only moves
// when Advance is called. Safe for concurrent use.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a ManualClock starting at an arbitrary fixed epoch.
//
// Returns:
//   - *ManualClock: the new clock
func NewManualClock() *ManualClock {
	return &ManualClock{now: time.Unix(0, 0)}
}

// Advance moves the clock forward by d.
//
// Parameters:
//   - d: the duration to advance by (must be non-negative)
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Now returns the clock's current time. Pass this method value anywhere a
// Clock is accepted.
//
// Returns:
//   - time.Time: the current simulated time
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}
