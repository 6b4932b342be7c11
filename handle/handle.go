// File: handle/handle.go
// Author: momentics <momentics@gmail.com>
//
// The capability layer: duplication and cross-task transfer of opaque
// handles. Ownership is explicit and single-directional per call; the
// kernel never reference-counts across tasks on the client's behalf.

package handle

import (
	"github.com/momentics/idos-aio/aio"
	"github.com/momentics/idos-aio/api"
	"github.com/momentics/idos-aio/gate"
)

// Ref couples a handle with the gate of the task that owns it, so the
// capability operations cannot be issued through the wrong task.
type Ref struct {
	g api.Gate
	h api.Handle
}

// New wraps an existing handle.
func New(g api.Gate, h api.Handle) Ref {
	return Ref{g: g, h: h}
}

// Handle returns the raw handle value.
func (r Ref) Handle() api.Handle {
	return r.h
}

// Gate returns the owning task's gate.
func (r Ref) Gate() api.Gate {
	return r.g
}

// Dup returns a new handle naming the same underlying object. The two
// have independent close lifecycles: closing one leaves the other valid
// while any duplicate remains referenced.
func (r Ref) Dup() (Ref, error) {
	h2, err := gate.DupHandle(r.g, r.h)
	if err != nil {
		return Ref{}, err
	}
	return Ref{g: r.g, h: h2}, nil
}

// Transfer moves the handle to the target task. The flip is atomic: the
// handle is invalid here exactly when it becomes valid there, never both
// and never neither. The returned value only means something to the
// target task.
func (r Ref) Transfer(target api.TaskID) (api.Handle, error) {
	return gate.TransferHandle(r.g, r.h, target)
}

// Share grants the object to the target task while keeping this handle.
func (r Ref) Share(target api.TaskID) (api.Handle, error) {
	return aio.ShareSync(r.g, r.h, target)
}

// Close closes the object behind the handle via an async close op.
func (r Ref) Close() error {
	return aio.CloseSync(r.g, r.h)
}
