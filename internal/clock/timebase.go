// Package clock provides the elapsed-time counter that drives segmentation
// and the periodic ticker that advances it.
package clock

import "time"

// DefaultStep is the nominal tick period.
const DefaultStep = time.Second

// TimeBase is a monotonic elapsed-time counter. It only moves while active,
// between Start and Stop/Reset, and only forward.
//
// TimeBase is not safe for concurrent use; callers serialise access.
type TimeBase struct {
	step    time.Duration
	elapsed time.Duration
	active  bool
}

func New(step time.Duration) *TimeBase {
	if step <= 0 {
		step = DefaultStep
	}
	return &TimeBase{step: step}
}

// Start zeroes the counter and activates it.
func (tb *TimeBase) Start() {
	tb.elapsed = 0
	tb.active = true
}

// Stop pauses the counter, keeping its reading.
func (tb *TimeBase) Stop() {
	tb.active = false
}

// Reset zeroes and deactivates the counter.
func (tb *TimeBase) Reset() {
	tb.elapsed = 0
	tb.active = false
}

// Tick advances by one step while active.
func (tb *TimeBase) Tick() {
	tb.Advance(tb.step)
}

// Advance moves the counter forward by d. Non-positive values and calls
// while inactive are ignored.
func (tb *TimeBase) Advance(d time.Duration) {
	if !tb.active || d <= 0 {
		return
	}
	tb.elapsed += d
}

func (tb *TimeBase) Current() time.Duration {
	return tb.elapsed
}

func (tb *TimeBase) Active() bool {
	return tb.active
}

func (tb *TimeBase) Step() time.Duration {
	return tb.step
}
