// File: api/futex.go
// Author: momentics <momentics@gmail.com>
//
// The futex contract: wait-on-address / wake-on-address without a kernel
// object per wait. All higher synchronization in idos-aio is expressed as
// repeated wait/wake cycles on ordinary memory words.

package api

import (
	"sync/atomic"
	"time"
)

// WaitStatus reports how a futex wait returned. The values double as the
// wire encoding of the SysFutexWait and SysBlockWakeSet results.
type WaitStatus uint32

const (
	// Woken means the task was woken by a Wake on the address. Wakes and
	// waiters do not pair 1:1; callers must re-check the word.
	Woken WaitStatus = iota
	// Mismatch means the word no longer held the expected value at the
	// atomic check, so the call returned without blocking.
	Mismatch
	// TimedOut means the timeout elapsed with no wake. The word was not
	// observed to change; callers must not act as if it did.
	TimedOut
)

func (s WaitStatus) String() string {
	switch s {
	case Woken:
		return "woken"
	case Mismatch:
		return "mismatch"
	case TimedOut:
		return "timeout"
	default:
		return "invalid"
	}
}

// Futex is the blocking primitive every higher-level wait builds on.
type Futex interface {
	// Wait blocks the caller only if the word at addr still equals
	// expected at the instant of the check; the check and the block are
	// atomic with respect to Wake, so a wake cannot be lost between
	// them. A negative timeout blocks indefinitely; a zero timeout
	// probes without blocking.
	Wait(addr *atomic.Uint32, expected uint32, timeout time.Duration) WaitStatus

	// Wake wakes up to count tasks blocked on addr and returns how many
	// it woke. Waking with no waiter present is a no-op, not an error.
	Wake(addr *atomic.Uint32, count int) int
}
