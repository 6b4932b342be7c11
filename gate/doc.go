// File: gate/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package gate wraps the raw IDOS-NX syscall trampoline with typed calls.
//
// The physical convention is fixed: syscalls trap through INT 0x2b with
// the number in EAX and arguments in EBX, ECX, EDX; the result comes back
// in EAX, with EBX carrying the second word of dual-result calls. That
// contract lives behind the narrow api.Gate interface so everything above
// it runs unchanged against a simulated gate.
//
// The wrappers in this package collapse the gate's sentinel conventions
// (0x80000000 for a rejected submission, all-ones for a failed handle
// call) into errors at one place instead of repeating the comparisons at
// every call site.
package gate
