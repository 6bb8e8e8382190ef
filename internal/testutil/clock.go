// Package testutil provides deterministic helpers for tests: a stepping
// commit clock and a sequential id generator matching the production
// interfaces.
package testutil

import (
	"fmt"
	"sync"
	"time"
)

// epoch is the fixed base time deterministic clocks start from.
var epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock returns strictly increasing timestamps from a fixed
// epoch, one minute apart. The same test run always produces identical
// commit timestamps, which golden histories depend on.
//
// Implements engine.Clock.
//
// Thread-safety: all methods are safe for concurrent use via internal
// mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	ticks int64
}

// NewDeterministicClock creates a clock whose first Now() returns the
// epoch plus one minute.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Now returns the next timestamp: epoch + ticks minutes.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks++
	return epoch.Add(time.Duration(c.ticks) * time.Minute)
}

// Current returns the most recently handed-out timestamp without
// advancing.
func (c *DeterministicClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return epoch.Add(time.Duration(c.ticks) * time.Minute)
}

// Reset rewinds the clock to the epoch for test reuse.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}

// SequentialIDGenerator produces "prefix-1", "prefix-2", ... ids.
//
// Unlike model.FixedIDGenerator it never exhausts, which suits scenario
// runs where the number of allocated ids is not known up front.
//
// Implements model.IDGenerator.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int64
}

// NewSequentialIDGenerator creates a generator with the given prefix.
// An empty prefix defaults to "id".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// NewID returns the next sequential id.
func (g *SequentialIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
