package models

import "time"

// InstrumentState is the committed per-instrument view of one cycle: the raw
// quote plus everything derived from it. States are immutable once committed.
type InstrumentState struct {
	Quote    Quote
	Metrics  MetricSet
	Patterns []Pattern
}

// CycleResult is the atomically published output of one polling cycle.
// Readers receive a consistent snapshot; a new cycle swaps in a fresh value
// and never mutates a published one.
type CycleResult struct {
	Sequence    int64
	StartedAt   time.Time
	CommittedAt time.Time
	States      map[string]InstrumentState
	Alerts      []Alert
}

// State looks up one instrument's committed view.
func (r *CycleResult) State(code string) (InstrumentState, bool) {
	s, ok := r.States[code]
	return s, ok
}
