// File: gatesim/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package gatesim is an in-process IDOS-NX kernel standing in for the
// real trap gate: a dispatch table over api.Gate, a refcounted object
// table with per-task handle maps, per-object submission queues drained
// by driver goroutines, futex-backed blocking, and kernel-side wake
// sets. Providers (console, pipe, memory file) complete descriptors the
// way the real drivers do: result word first, then the signal word, then
// the wake.
//
// gatesim exists so the whole submission/completion protocol can be
// exercised and tested on a development host; it is not an operating
// system.
package gatesim
