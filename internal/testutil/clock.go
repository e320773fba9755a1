package testutil

import (
	"sync"
	"time"
)

// StepClock is a deterministic wall clock for tests.
// Each call to Now returns the previous value advanced by Step.
type StepClock struct {
	mu   sync.Mutex
	next time.Time
	Step time.Duration
}

// NewStepClock creates a clock whose first reading is start.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	return &StepClock{next: start, Step: step}
}

// Now returns the current reading and advances the clock.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.Step)
	return now
}
