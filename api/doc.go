// File: api/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package api declares the shared contracts of the idos-aio library:
// the syscall gate transport, the futex primitive, handle and descriptor
// word types, and the numeric ABI of the IDOS-NX trap gate.
//
// Every other package depends on api and communicates through its
// interfaces; no package below this one imports a concrete sibling.
package api
