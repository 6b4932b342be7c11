// File: aio/client.go
// Author: momentics <momentics@gmail.com>
//
// Submission and the synchronous facade over it. Submit only reports
// acceptance; Await loops on the signal word through the futex gate; the
// Sync helpers compose the two for callers that want blocking I/O.

package aio

import (
	"runtime"
	"time"
	"unsafe"

	"github.com/momentics/idos-aio/api"
	"github.com/momentics/idos-aio/gate"
)

// Submit enqueues op against h. A nil error means the kernel accepted
// the request: the descriptor is now owned by the completer until its
// signal word goes non-zero. A non-nil error means the descriptor never
// entered a queue and will never be completed; callers must not wait on
// it.
func Submit(g api.Gate, h api.Handle, op *Op) error {
	if op.Signal.Load() != 0 {
		return api.ErrOpNotReset
	}
	if op.submitted {
		return api.ErrOpInFlight
	}
	op.submitted = true
	if err := gate.SubmitIO(g, h, op.Addr()); err != nil {
		op.submitted = false
		return err
	}
	return nil
}

// Await blocks until op completes and returns its result word, decoded
// into a value or a completion error. The loop is deliberate: a futex
// wake with the signal still zero is spurious and must not be mistaken
// for completion, so only the signal word itself ends the wait.
func Await(g api.Gate, op *Op) (uint32, error) {
	for op.Signal.Load() == 0 {
		gate.FutexWait(g, op.SignalAddr(), 0, api.NoTimeout)
	}
	return api.DecodeReturn(op.Return.Load())
}

// AwaitTimeout is Await with a deadline. On api.ErrOperationTimeout the
// operation is still outstanding and its return value must not be read;
// the descriptor stays owned by the completer.
func AwaitTimeout(g api.Gate, op *Op, timeout time.Duration) (uint32, error) {
	if timeout < 0 {
		return Await(g, op)
	}
	deadline := time.Now().Add(timeout)
	for op.Signal.Load() == 0 {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, api.ErrOperationTimeout
		}
		gate.FutexWait(g, op.SignalAddr(), 0, remaining)
	}
	return api.DecodeReturn(op.Return.Load())
}

// PerformSync builds a descriptor, submits it against h and blocks until
// completion. A submission failure short-circuits before the wait loop:
// waiting on a rejected descriptor would hang forever.
func PerformSync(g api.Gate, h api.Handle, opCode uint32, a0, a1, a2 api.Word) (uint32, error) {
	op := NewOp(opCode, a0, a1, a2)
	if err := Submit(g, h, op); err != nil {
		return 0, err
	}
	return Await(g, op)
}

// OpenSync binds h to the object at path.
func OpenSync(g api.Gate, h api.Handle, path string) (uint32, error) {
	buf := []byte(path)
	ptr, n := bufArgs(buf)
	res, err := PerformSync(g, h, api.OpOpen, ptr, n, 0)
	runtime.KeepAlive(buf)
	return res, err
}

// ReadSync reads into buf at offset and returns the byte count.
func ReadSync(g api.Gate, h api.Handle, buf []byte, offset uint32) (uint32, error) {
	ptr, n := bufArgs(buf)
	res, err := PerformSync(g, h, api.OpRead, ptr, n, api.Word(offset))
	runtime.KeepAlive(buf)
	return res, err
}

// WriteSync writes buf at offset and returns the byte count.
func WriteSync(g api.Gate, h api.Handle, buf []byte, offset uint32) (uint32, error) {
	ptr, n := bufArgs(buf)
	res, err := PerformSync(g, h, api.OpWrite, ptr, n, api.Word(offset))
	runtime.KeepAlive(buf)
	return res, err
}

// CloseSync closes the object behind h. Other handles duplicated from h
// keep their own lifecycle.
func CloseSync(g api.Gate, h api.Handle) error {
	_, err := PerformSync(g, h, api.OpClose, 0, 0, 0)
	return err
}

// StatSync fills a StatInfo record through an OpStat control call.
func StatSync(g api.Gate, h api.Handle) (api.StatInfo, error) {
	var info api.StatInfo
	_, err := PerformSync(g, h, api.OpStat,
		api.Word(unsafe.Pointer(&info)),
		api.Word(unsafe.Sizeof(info)), 0)
	runtime.KeepAlive(&info)
	return info, err
}

// IoctlSync issues a control call carrying a fixed-layout record by
// address, the same pattern the I/O descriptor itself uses. The record
// must stay valid until the call returns; out-parameters in it are
// filled by the completer before the signal.
func IoctlSync(g api.Gate, h api.Handle, cmd uint32, recAddr, recSize api.Word) (uint32, error) {
	return PerformSync(g, h, api.OpIoctl, api.Word(cmd), recAddr, recSize)
}

// ShareSync grants the object behind h to the target task without
// giving up the caller's handle. The result is the handle value the
// target task sees.
func ShareSync(g api.Gate, h api.Handle, target api.TaskID) (api.Handle, error) {
	res, err := PerformSync(g, h, api.OpShare, api.Word(target), 0, 0)
	if err != nil {
		return 0, err
	}
	return api.Handle(res), nil
}

func bufArgs(b []byte) (api.Word, api.Word) {
	if len(b) == 0 {
		return 0, 0
	}
	return api.Word(unsafe.Pointer(&b[0])), api.Word(len(b))
}
