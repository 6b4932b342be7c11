// File: api/errors.go
// Author: momentics <momentics@gmail.com>
//
// Common error types for the idos-aio library, split along the protocol's
// four failure classes: transport sentinel, submission rejection,
// completion-reported code, and timeout.

package api

import "fmt"

// Common errors used across the library.
var (
	ErrSubmitRejected   = fmt.Errorf("submission rejected")
	ErrInvalidHandle    = fmt.Errorf("invalid handle")
	ErrOperationTimeout = fmt.Errorf("operation timeout")
	ErrNotSupported     = fmt.Errorf("operation not supported")
	ErrGateUnavailable  = fmt.Errorf("syscall gate unavailable on this platform")
	ErrOpInFlight       = fmt.Errorf("descriptor already submitted and not yet complete")
	ErrOpNotReset       = fmt.Errorf("descriptor signal not zero at submit")
	ErrKernelStopped    = fmt.Errorf("kernel stopped")
)

// IOError is a completion-reported failure: when the high bit of a
// descriptor's return value is set, the low 31 bits carry one of these
// codes. It is only ever surfaced after the signal word was observed
// non-zero.
type IOError uint32

const (
	IOErrFileSystem IOError = iota + 1
	IOErrNotFound
	IOErrHandleInvalid
	IOErrHandleWrongType
	IOErrOperationFailed
	IOErrUnsupportedOp
	IOErrUnsupportedCommand
	IOErrAlreadyOpen
	IOErrClosedIO
	IOErrInvalidArgument

	IOErrUnknown IOError = 0x7fffffff
)

func (e IOError) Error() string {
	switch e {
	case IOErrFileSystem:
		return "filesystem error"
	case IOErrNotFound:
		return "not found"
	case IOErrHandleInvalid:
		return "handle not open"
	case IOErrHandleWrongType:
		return "handle wrong type for operation"
	case IOErrOperationFailed:
		return "operation failed"
	case IOErrUnsupportedOp:
		return "unsupported operation"
	case IOErrUnsupportedCommand:
		return "unsupported control command"
	case IOErrAlreadyOpen:
		return "already open"
	case IOErrClosedIO:
		return "write to closed io"
	case IOErrInvalidArgument:
		return "invalid argument"
	default:
		return fmt.Sprintf("io error %d", uint32(e))
	}
}

// EncodeError packs an IOError into a descriptor return value.
func EncodeError(e IOError) uint32 {
	return CompletionErrorBit | uint32(e)
}

// DecodeReturn splits a completed descriptor's return value into a data
// word or a completion error.
func DecodeReturn(v uint32) (uint32, error) {
	if v&CompletionErrorBit != 0 {
		return 0, IOError(v &^ CompletionErrorBit)
	}
	return v, nil
}
