// File: aio/op.go
// Author: momentics <momentics@gmail.com>
//
// The asynchronous operation descriptor. Its layout mirrors the C
// struct async_op from the IDOS-NX sysroot: an op code, a signal word
// the completer flips from zero exactly once, a return value that is
// only meaningful after the signal, and three argument words.

package aio

import (
	"sync/atomic"
	"unsafe"

	"github.com/momentics/idos-aio/api"
)

// Op describes one in-flight asynchronous request. The submitting task
// owns the descriptor for its entire lifetime: it must keep the memory
// valid and unmoved from Submit until a completion is observed, and may
// reuse it only after Reset.
type Op struct {
	// OpCode identifies the requested action; immutable once submitted.
	OpCode uint32

	// Signal is the futex word. Zero while the operation is pending;
	// the completer stores a non-zero value exactly once, after Return.
	Signal atomic.Uint32

	// Return is the result word, written by the completer strictly
	// before Signal and read by the waiter strictly after it.
	Return atomic.Uint32

	// Args carries up to three operation-specific words, set by the
	// submitter and read-only to the completer.
	Args [3]api.Word

	submitted bool
}

// NewOp builds a descriptor ready for submission.
func NewOp(opCode uint32, a0, a1, a2 api.Word) *Op {
	return &Op{OpCode: opCode, Args: [3]api.Word{a0, a1, a2}}
}

// Completed reports whether the completer has signaled the descriptor.
func (o *Op) Completed() bool {
	return o.Signal.Load() != 0
}

// SignalAddr is the futex address of the signal word, as a gate word.
func (o *Op) SignalAddr() api.Word {
	return api.Word(unsafe.Pointer(&o.Signal))
}

// Addr is the descriptor's address, passed to SysSubmitIO.
func (o *Op) Addr() api.Word {
	return api.Word(unsafe.Pointer(o))
}

// Reset prepares the descriptor for reuse. It refuses while a submission
// is outstanding: freeing or reusing a pending descriptor is undefined,
// and the owning code is the only place that can prevent it.
func (o *Op) Reset(opCode uint32, a0, a1, a2 api.Word) error {
	if o.submitted && !o.Completed() {
		return api.ErrOpInFlight
	}
	o.OpCode = opCode
	o.Args = [3]api.Word{a0, a1, a2}
	o.Signal.Store(0)
	o.Return.Store(0)
	o.submitted = false
	return nil
}

// Complete finishes the descriptor from the completer side. The result
// is stored before the signal word so that a waiter observing the signal
// also observes the result; both stores synchronize. The caller still
// performs the futex wake.
func (o *Op) Complete(result uint32) {
	o.Return.Store(result)
	o.Signal.Store(1)
}
