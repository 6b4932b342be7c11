// File: api/control.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Control is the runtime management surface of an idos-aio client:
// configuration snapshots and merges, protocol counters (submissions,
// completions, futex traffic, timeouts), reload hooks, and debug probes
// over kernel internals.
type Control interface {
	// GetConfig returns a copy of the current configuration.
	GetConfig() map[string]any

	// SetConfig merges cfg into the configuration and runs the reload
	// hooks before returning.
	SetConfig(cfg map[string]any) error

	// Stats returns the protocol counters and probe outputs in one map.
	Stats() map[string]any

	// OnReload registers fn to run after every SetConfig.
	OnReload(fn func())

	// RegisterDebugProbe installs a named introspection hook, replacing
	// any previous probe under the same name.
	RegisterDebugProbe(name string, fn func() any)
}
