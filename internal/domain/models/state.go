package models

import "time"

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseFailed  Phase = "failed"
)

// RequestState is the orchestrator's published state. Exactly one phase holds;
// Result and Heatmap are only set in PhaseReady, Err only in PhaseFailed.
type RequestState struct {
	Phase     Phase
	CycleID   string
	Snapshot  Snapshot
	Result    *AnalyticsResult
	Heatmap   *HeatmapImage
	Err       *ErrorInfo
	UpdatedAt time.Time
}

func (s RequestState) Loading() bool { return s.Phase == PhaseLoading }
