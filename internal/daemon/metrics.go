package daemon

import "sync/atomic"

// Metrics tracks daemon-level counters using atomic operations for
// lock-free concurrency.
type Metrics struct {
	updates      atomic.Int64
	updateErrors atomic.Int64
	pushFailures atomic.Int64
	replans      atomic.Int64
}

// RecordUpdate records a completed update run.
func (m *Metrics) RecordUpdate(err error) {
	m.updates.Add(1)
	if err != nil {
		m.updateErrors.Add(1)
	}
}

// RecordPushFailure records a non-fatal push failure.
func (m *Metrics) RecordPushFailure() {
	m.pushFailures.Add(1)
}

// RecordReplan records a daily plan regeneration.
func (m *Metrics) RecordReplan() {
	m.replans.Add(1)
}

// Snapshot returns a consistent point-in-time view of the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Updates:      m.updates.Load(),
		UpdateErrors: m.updateErrors.Load(),
		PushFailures: m.pushFailures.Load(),
		Replans:      m.replans.Load(),
	}
}

// MetricsSnapshot is a serializable point-in-time metrics view.
type MetricsSnapshot struct {
	Updates      int64 `json:"updates"`
	UpdateErrors int64 `json:"update_errors"`
	PushFailures int64 `json:"push_failures"`
	Replans      int64 `json:"replans"`
}
