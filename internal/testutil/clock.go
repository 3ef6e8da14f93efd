// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test doubles shared across packages, most
// notably a Clock abstraction so the installer's retry delay can be tested
// without real sleeping.
package testutil

import (
	"sync"
	"time"
)

type (
	// Clock abstracts time operations for deterministic testing.
	// Production code uses RealClock; tests use FakeClock.
	Clock interface {
		// Now returns the current time.
		Now() time.Time
		// Sleep pauses for the given duration.
		Sleep(d time.Duration)
	}

	// RealClock implements Clock using actual system time.
	RealClock struct{}

	// FakeClock implements Clock without real waiting. Sleep returns
	// immediately, advances the fake time, and records the requested
	// duration so tests can assert on delay behavior.
	FakeClock struct {
		mu      sync.Mutex
		current time.Time
		slept   []time.Duration
	}
)

// Now returns the current system time.
func (RealClock) Now() time.Time { return time.Now() }

// Sleep pauses the goroutine for d.
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }

// NewFakeClock creates a FakeClock starting at the given time.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{current: start}
}

// Now returns the fake current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Sleep records d, advances the fake time by d, and returns immediately.
func (c *FakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	c.slept = append(c.slept, d)
}

// Slept returns a copy of every duration passed to Sleep, in order.
func (c *FakeClock) Slept() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.slept))
	copy(out, c.slept)
	return out
}
