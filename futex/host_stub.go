//go:build !linux
// +build !linux

// File: futex/host_stub.go
// Author: momentics <momentics@gmail.com>
//
// Non-Linux fallback: there is no host futex to delegate to.

package futex

import "github.com/momentics/idos-aio/api"

// NewHost reports that the host futex backend is unavailable; callers
// fall back to NewTable.
func NewHost() (api.Futex, error) {
	return nil, api.ErrNotSupported
}
