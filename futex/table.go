// File: futex/table.go
// Author: momentics <momentics@gmail.com>
//
// Table is a parking-lot futex: a map from word address to the queue of
// waiters parked on it. The value check and the enqueue happen under one
// lock, which is what makes the check-then-block atomic with respect to
// Wake and rules out the lost-wakeup race.

package futex

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/idos-aio/api"
)

type waiter struct {
	ch chan struct{}
}

// Table implements api.Futex for words inside the current process.
type Table struct {
	mu      sync.Mutex
	waiters map[*atomic.Uint32][]*waiter
}

// NewTable creates an empty futex table.
func NewTable() *Table {
	return &Table{waiters: make(map[*atomic.Uint32][]*waiter)}
}

// Wait parks the caller on addr while it still holds expected.
func (t *Table) Wait(addr *atomic.Uint32, expected uint32, timeout time.Duration) api.WaitStatus {
	t.mu.Lock()
	if addr.Load() != expected {
		t.mu.Unlock()
		return api.Mismatch
	}
	if timeout == 0 {
		// Zero-timeout probe: the value matched, and there is nothing
		// to wait zero time for.
		t.mu.Unlock()
		return api.TimedOut
	}
	w := &waiter{ch: make(chan struct{})}
	t.waiters[addr] = append(t.waiters[addr], w)
	t.mu.Unlock()

	if timeout < 0 {
		<-w.ch
		return api.Woken
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-w.ch:
		return api.Woken
	case <-timer.C:
		t.mu.Lock()
		if t.removeLocked(addr, w) {
			t.mu.Unlock()
			return api.TimedOut
		}
		// A waker already popped us; the wake must not be lost.
		t.mu.Unlock()
		<-w.ch
		return api.Woken
	}
}

// Wake releases up to count waiters parked on addr and returns how many
// it released. With no waiter present it does nothing.
func (t *Table) Wake(addr *atomic.Uint32, count int) int {
	if count <= 0 {
		return 0
	}
	t.mu.Lock()
	q := t.waiters[addr]
	n := count
	if n > len(q) {
		n = len(q)
	}
	for i := 0; i < n; i++ {
		close(q[i].ch)
	}
	if rest := q[n:]; len(rest) == 0 {
		delete(t.waiters, addr)
	} else {
		t.waiters[addr] = rest
	}
	t.mu.Unlock()
	return n
}

// Waiters reports how many tasks are parked on addr. Exposed for debug
// probes.
func (t *Table) Waiters(addr *atomic.Uint32) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.waiters[addr])
}

func (t *Table) removeLocked(addr *atomic.Uint32, w *waiter) bool {
	q := t.waiters[addr]
	for i, cand := range q {
		if cand == w {
			q = append(q[:i], q[i+1:]...)
			if len(q) == 0 {
				delete(t.waiters, addr)
			} else {
				t.waiters[addr] = q
			}
			return true
		}
	}
	return false
}
