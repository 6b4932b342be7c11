// File: gate/gate.go
// Author: momentics <momentics@gmail.com>
//
// Typed syscall wrappers over an api.Gate. Unused trap arguments are
// always passed as zero.

package gate

import (
	"time"

	"github.com/momentics/idos-aio/api"
)

// SubmitIO enqueues the operation descriptor at opAddr against h. The
// result only reports whether the request was accepted; completion is
// observed on the descriptor itself, never here.
func SubmitIO(g api.Gate, h api.Handle, opAddr api.Word) error {
	res := g.Invoke(api.SysSubmitIO, api.Word(h), opAddr, 0)
	if uint32(res) == api.SubmitFail {
		return api.ErrSubmitRejected
	}
	return nil
}

// FutexWait blocks until the word at addr is woken, if it still holds
// expected. See api.Futex for the status semantics.
func FutexWait(g api.Gate, addr api.Word, expected uint32, timeout time.Duration) api.WaitStatus {
	res := g.Invoke(api.SysFutexWait, addr, api.Word(expected), TimeoutWord(timeout))
	return api.WaitStatus(uint32(res))
}

// FutexWake wakes up to count tasks blocked on addr and returns how many
// were woken. A wake with no waiter is a no-op.
func FutexWake(g api.Gate, addr api.Word, count int) int {
	return int(g.Invoke(api.SysFutexWake, addr, api.Word(count), 0))
}

// CreateWakeSet allocates a kernel wake-set object owned by the calling
// task.
func CreateWakeSet(g api.Gate) (api.Handle, error) {
	res := g.Invoke(api.SysCreateWakeSet, 0, 0, 0)
	if res == api.InvalidHandleWord {
		return 0, api.ErrNotSupported
	}
	return api.Handle(res), nil
}

// WakeSetAdd registers a futex address with a wake set.
func WakeSetAdd(g api.Gate, set api.Handle, addr api.Word) error {
	if g.Invoke(api.SysWakeSetAdd, api.Word(set), addr, 0) == api.InvalidHandleWord {
		return api.ErrInvalidHandle
	}
	return nil
}

// WakeSetRemove drops a futex address from a wake set.
func WakeSetRemove(g api.Gate, set api.Handle, addr api.Word) error {
	if g.Invoke(api.SysWakeSetRemove, api.Word(set), addr, 0) == api.InvalidHandleWord {
		return api.ErrInvalidHandle
	}
	return nil
}

// BlockWakeSet blocks until any member address of the set is woken, or
// the timeout elapses. On a Woken status the second result identifies the
// member address that became ready.
func BlockWakeSet(g api.Gate, set api.Handle, timeout time.Duration) (api.WaitStatus, api.Word) {
	status, addr := g.Invoke2(api.SysBlockWakeSet, api.Word(set), TimeoutWord(timeout), 0)
	return api.WaitStatus(uint32(status)), addr
}

// DupHandle returns a new handle naming the same underlying object, with
// an independent close lifecycle.
func DupHandle(g api.Gate, h api.Handle) (api.Handle, error) {
	res := g.Invoke(api.SysDupHandle, api.Word(h), 0, 0)
	if res == api.InvalidHandleWord {
		return 0, api.ErrInvalidHandle
	}
	return api.Handle(res), nil
}

// TransferHandle moves h to target. The returned handle value is only
// meaningful inside the target task; h is atomically invalidated in the
// caller.
func TransferHandle(g api.Gate, h api.Handle, target api.TaskID) (api.Handle, error) {
	res := g.Invoke(api.SysTransferHandle, api.Word(h), api.Word(target), 0)
	if res == api.InvalidHandleWord {
		return 0, api.ErrInvalidHandle
	}
	return api.Handle(res), nil
}

// CreatePipe allocates a pipe and returns its read and write ends.
func CreatePipe(g api.Gate) (rd, wr api.Handle, err error) {
	r0, r1 := g.Invoke2(api.SysCreatePipe, 0, 0, 0)
	if r0 == api.InvalidHandleWord {
		return 0, 0, api.ErrNotSupported
	}
	return api.Handle(r0), api.Handle(r1), nil
}

// CreateFileHandle allocates an unbound file handle; the caller opens it
// with an OpOpen descriptor.
func CreateFileHandle(g api.Gate) (api.Handle, error) {
	res := g.Invoke(api.SysCreateFileHandle, 0, 0, 0)
	if res == api.InvalidHandleWord {
		return 0, api.ErrNotSupported
	}
	return api.Handle(res), nil
}

// TaskID reports the calling task's identifier.
func TaskID(g api.Gate) api.TaskID {
	return api.TaskID(g.Invoke(api.SysGetTask, 0, 0, 0))
}

// Yield cedes the processor without blocking.
func Yield(g api.Gate) {
	g.Invoke(api.SysYield, 0, 0, 0)
}

// TimeoutWord encodes a Go duration as the gate's millisecond timeout
// word: all ones for no timeout, otherwise a rounded-up count so that a
// short finite wait never becomes an infinite one.
func TimeoutWord(d time.Duration) api.Word {
	if d < 0 {
		return api.TimeoutForever
	}
	ms := (d + time.Millisecond - 1) / time.Millisecond
	if api.Word(ms) >= api.TimeoutForever {
		return api.TimeoutForever - 1
	}
	return api.Word(ms)
}

// DurationFromWord is the inverse of TimeoutWord, used by gate
// implementations.
func DurationFromWord(w api.Word) time.Duration {
	if w == api.TimeoutForever {
		return api.NoTimeout
	}
	return time.Duration(w) * time.Millisecond
}
