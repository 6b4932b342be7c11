// File: futex/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package futex provides the two api.Futex implementations used by the
// library: Table, a portable in-process parking lot keyed by word
// address, and Host, a thin layer over the Linux futex syscall for words
// that live in shared mappings. The simulated kernel runs on Table by
// default; Host exists for driving descriptors against an out-of-process
// completer.
package futex
