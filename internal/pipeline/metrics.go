package pipeline

import (
	"sync/atomic"
)

// Metrics contains per-pipeline counters. Prometheus collectors aggregate
// across pipelines; these stay local to one instance.
type Metrics struct {
	WorkersStarted atomic.Uint64
	WorkersFailed  atomic.Uint64
	Payloads       atomic.Uint64
	Messages       atomic.Uint64
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Reset resets all counters to zero.
func (m *Metrics) Reset() {
	m.WorkersStarted.Store(0)
	m.WorkersFailed.Store(0)
	m.Payloads.Store(0)
	m.Messages.Store(0)
}
