// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"sync"
	"time"
)

// StepClock is a thread-safe deterministic time source for tests.
//
// Every call to Now returns the current instant and then advances the
// clock by one step, so successive calls return strictly increasing times
// and the same test always sees the same values.
type StepClock struct {
	mu    sync.Mutex
	start time.Time
	now   time.Time
	step  time.Duration
}

// NewStepClock creates a clock at start advancing by step per call.
// A zero step defaults to one millisecond.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	if step == 0 {
		step = time.Millisecond
	}
	return &StepClock{start: start, now: start, step: step}
}

// NewMillisClock creates a clock at the given epoch milliseconds,
// advancing one millisecond per call.
func NewMillisClock(ms int64) *StepClock {
	return NewStepClock(time.UnixMilli(ms), time.Millisecond)
}

// Now returns the current instant and advances the clock.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Peek returns the instant the next Now call will return.
func (c *StepClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d without consuming a step.
func (c *StepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Reset returns the clock to its start instant.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
