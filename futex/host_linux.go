//go:build linux
// +build linux

// File: futex/host_linux.go
// Author: momentics <momentics@gmail.com>
//
// Host backs api.Futex with the kernel futex syscall. Unlike Table it
// also synchronizes with waiters in other processes when the word lives
// in a shared mapping, which is how a descriptor's signal word is driven
// by an external completer.

package futex

import (
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/momentics/idos-aio/api"
)

// Futex operation codes from the Linux UAPI (include/uapi/linux/futex.h);
// x/sys exports the syscall number but not these.
const (
	futexWaitOp = 0
	futexWakeOp = 1
)

// Host implements api.Futex over the host kernel.
type Host struct{}

// NewHost returns the host futex backend.
func NewHost() (api.Futex, error) {
	return Host{}, nil
}

// Wait parks the caller in the kernel while *addr == expected. The
// kernel performs the value check and the sleep atomically; EAGAIN maps
// to Mismatch and ETIMEDOUT to TimedOut.
func (Host) Wait(addr *atomic.Uint32, expected uint32, timeout time.Duration) api.WaitStatus {
	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		var tsp *unix.Timespec
		if timeout >= 0 {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return api.TimedOut
			}
			ts := unix.NsecToTimespec(remaining.Nanoseconds())
			tsp = &ts
		}
		_, _, errno := unix.Syscall6(unix.SYS_FUTEX,
			uintptr(unsafe.Pointer(addr)),
			futexWaitOp,
			uintptr(expected),
			uintptr(unsafe.Pointer(tsp)),
			0, 0)
		switch errno {
		case 0:
			return api.Woken
		case unix.EAGAIN:
			return api.Mismatch
		case unix.ETIMEDOUT:
			return api.TimedOut
		case unix.EINTR:
			// Retry with the time actually left, not the full timeout.
			continue
		default:
			// Unwatchable address (EFAULT etc). Report Mismatch so the
			// caller re-checks the word instead of trusting a wake.
			return api.Mismatch
		}
	}
}

// Wake releases up to count kernel waiters parked on addr.
func (Host) Wake(addr *atomic.Uint32, count int) int {
	if count <= 0 {
		return 0
	}
	n, _, _ := unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		futexWakeOp,
		uintptr(count),
		0, 0, 0)
	return int(n)
}

var _ api.Futex = Host{}
