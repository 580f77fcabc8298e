package repository

import "time"

// Metrics records fetch-cycle observations.
type Metrics interface {
	RecordCycle(outcome string)
	RecordError(kind string)
	RecordHeatmapDegraded()
	RecordLatency(op string, d time.Duration)
	SetInstruments(n int)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordCycle(string)                  {}
func (NopMetrics) RecordError(string)                  {}
func (NopMetrics) RecordHeatmapDegraded()              {}
func (NopMetrics) RecordLatency(string, time.Duration) {}
func (NopMetrics) SetInstruments(int)                  {}

var _ Metrics = NopMetrics{}
