// SPDX-License-Identifier: MIT

package engine

import (
	"log/slog"
	"sync"
)

// Coordinator joins asynchronous completions: done fires exactly once,
// after the expected number of completions arrived, with the first error
// reported (nil if none). The coordinator drops done once it fired.
//
// The expected count may be set after the fetches were issued, since some
// may complete before the issuer knows how many are pending; completions
// arriving early are counted and the callback fires from SetExpected.
type Coordinator struct {
	mu       sync.Mutex
	count    int
	expected int
	set      bool
	fired    bool
	err      error
	done     func(error)
	log      *slog.Logger
}

// NewCoordinator returns a coordinator expecting n completions; n <= 0
// leaves the count open until SetExpected.
func NewCoordinator(n int, done func(error)) *Coordinator {
	return newCoordinator(n, done, slog.Default())
}

func newCoordinator(n int, done func(error), log *slog.Logger) *Coordinator {
	c := &Coordinator{done: done, log: log}
	if n > 0 {
		c.expected, c.set = n, true
	}
	return c
}

// SetExpected fixes the number of completions to wait for.
func (c *Coordinator) SetExpected(n int) {
	c.mu.Lock()
	c.expected, c.set = n, true
	done, err := c.ready()
	c.mu.Unlock()
	fire(done, err)
}

// Done records one completion.
func (c *Coordinator) Done(err error) {
	c.mu.Lock()
	c.count++
	if err != nil && c.err == nil {
		c.err = err
	}
	if c.fired {
		c.log.Debug("engine: completion after coordinator fired", "count", c.count, "expected", c.expected)
	}
	done, err := c.ready()
	c.mu.Unlock()
	fire(done, err)
}

// Fired reports whether the callback ran (or is running).
func (c *Coordinator) Fired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fired
}

// ready marks the coordinator fired when the count is complete and hands
// the callback over to the caller, releasing the coordinator's reference.
// It returns a nil callback when nothing is to run. Called with mu held.
func (c *Coordinator) ready() (func(error), error) {
	if c.fired || !c.set || c.count < c.expected {
		return nil, nil
	}
	c.fired = true
	done := c.done
	c.done = nil
	return done, c.err
}

// Released reports whether the coordinator dropped its callback.
func (c *Coordinator) Released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done == nil
}

// fire runs the callback outside the lock.
func fire(done func(error), err error) {
	if done != nil {
		done(err)
	}
}
