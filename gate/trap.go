// File: gate/trap.go
// Author: momentics <momentics@gmail.com>
//
// The hardware trap gate. Reaching INT 0x2b needs an IDOS-NX target,
// which no Go toolchain provides, so on every supported platform this
// constructor reports the gate unavailable; hosts drive the protocol
// through gatesim or a custom api.Gate instead. The constructor exists so
// call sites are already shaped for a native port.

package gate

import "github.com/momentics/idos-aio/api"

// NewTrapGate returns the gate bound to the INT 0x2b trap vector.
func NewTrapGate() (api.Gate, error) {
	return nil, api.ErrGateUnavailable
}
