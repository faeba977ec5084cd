package faults

import "time"

// StageFault is a persisted record of a stage-level failure inside one analysis:
// a detection failure that killed the run, or a tolerated per-finding
// enrichment failure. Kept for later inspection of flaky model behaviour.
type StageFault struct {
	ID         int64     `json:"id"`
	AnalysisID string    `json:"analysis_id"`
	Stage      string    `json:"stage"` // detection | explanation
	VulnID     string    `json:"vuln_id,omitempty"`
	Message    string    `json:"message"`
	RawOutput  string    `json:"raw_output,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	StageDetection   = "detection"
	StageExplanation = "explanation"
)
