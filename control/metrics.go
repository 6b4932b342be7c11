// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for protocol-level monitoring. Counters
// cover the submission/completion path (ops submitted and completed,
// futex waits and wakes, timeouts, wake-set blocks); gauges hold
// whatever a component wants to export.

package control

import (
	"sync"
	"time"
)

// MetricsRegistry holds counters and free-form gauge values.
type MetricsRegistry struct {
	mu       sync.RWMutex
	counters map[string]uint64
	gauges   map[string]any
	updated  time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters: make(map[string]uint64),
		gauges:   make(map[string]any),
	}
}

// Inc adds one to a counter, creating it at zero first.
func (mr *MetricsRegistry) Inc(key string) {
	mr.Add(key, 1)
}

// Add bumps a counter by delta.
func (mr *MetricsRegistry) Add(key string, delta uint64) {
	mr.mu.Lock()
	mr.counters[key] += delta
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Counter reads one counter.
func (mr *MetricsRegistry) Counter(key string) uint64 {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.counters[key]
}

// Set sets or updates a gauge key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.gauges[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns the latest counters and gauges in one map.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.counters)+len(mr.gauges))
	for k, v := range mr.counters {
		out[k] = v
	}
	for k, v := range mr.gauges {
		out[k] = v
	}
	return out
}
