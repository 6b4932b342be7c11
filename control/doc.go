// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics, configuration control, and debug introspection for
// the idos-aio client and the simulated kernel.
//
// Provides concurrent-safe state handling primitives including:
//   - Immutable snapshot config reads and atomic updates
//   - Runtime observers for hot-reload
//   - Counter-style protocol telemetry (submissions, completions, wakes)
//   - Debug hooks and probe registration
package control
