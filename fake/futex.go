// File: fake/futex.go
// Author: momentics <momentics@gmail.com>
//
// CountingFutex wraps a real api.Futex and counts traffic, so tests can
// assert that a code path blocked (or provably never did).

package fake

import (
	"sync/atomic"
	"time"

	"github.com/momentics/idos-aio/api"
)

// CountingFutex delegates to an inner futex and tallies calls.
type CountingFutex struct {
	Inner api.Futex

	waits atomic.Int64
	wakes atomic.Int64
}

// NewCountingFutex wraps inner.
func NewCountingFutex(inner api.Futex) *CountingFutex {
	return &CountingFutex{Inner: inner}
}

// Wait implements api.Futex.
func (c *CountingFutex) Wait(addr *atomic.Uint32, expected uint32, timeout time.Duration) api.WaitStatus {
	c.waits.Add(1)
	return c.Inner.Wait(addr, expected, timeout)
}

// Wake implements api.Futex.
func (c *CountingFutex) Wake(addr *atomic.Uint32, count int) int {
	c.wakes.Add(1)
	return c.Inner.Wake(addr, count)
}

// Waits reports how many Wait calls went through.
func (c *CountingFutex) Waits() int64 { return c.waits.Load() }

// Wakes reports how many Wake calls went through.
func (c *CountingFutex) Wakes() int64 { return c.wakes.Load() }

var _ api.Futex = (*CountingFutex)(nil)
