package analyses

import (
	"time"
)

// ID tipe untuk Analysis
type AnalysisID string

// VulnID tipe untuk Vulnerability
type VulnID string

// Status enum: pending -> running -> (completed | failed)
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Severity enum
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
	SeverityNone     Severity = "none"
)

// rank orders severities for overall-risk comparison; higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// NormalizeSeverity maps free-text model output onto the closed enum.
// Unrecognized labels fall back to medium rather than rejecting the finding.
func NormalizeSeverity(raw string) Severity {
	switch Severity(raw) {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return Severity(raw)
	default:
		return SeverityMedium
	}
}

// VulnType enum
type VulnType string

const (
	VulnReentrancy      VulnType = "reentrancy"
	VulnIntegerOverflow VulnType = "integer_overflow"
	VulnAccessControl   VulnType = "access_control"
	VulnUncheckedCall   VulnType = "unchecked_call"
	VulnFrontrunning    VulnType = "frontrunning"
	VulnOther           VulnType = "other"
)

// NormalizeVulnType buckets model-invented categories into "other".
func NormalizeVulnType(raw string) VulnType {
	switch VulnType(raw) {
	case VulnReentrancy, VulnIntegerOverflow, VulnAccessControl, VulnUncheckedCall, VulnFrontrunning:
		return VulnType(raw)
	default:
		return VulnOther
	}
}

// Confidence enum
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

func NormalizeConfidence(raw string) Confidence {
	switch Confidence(raw) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return Confidence(raw)
	default:
		return ConfidenceMedium
	}
}

// Aggregate Root: Analysis
type Analysis struct {
	ID                 AnalysisID `json:"id"`
	ContractID         string     `json:"contract_id"`
	Status             Status     `json:"status"`
	OverallRisk        Severity   `json:"overall_risk,omitempty"`
	RiskScore          int        `json:"risk_score"`
	Summary            string     `json:"summary,omitempty"`
	ScanDurationMS     int64      `json:"scan_duration_ms"`
	TotalLines         int        `json:"total_lines"`
	FunctionsAnalyzed  int        `json:"functions_analyzed"`
	EnrichmentFailures int        `json:"enrichment_failures"`
	DetectionModel     string     `json:"detection_model,omitempty"`
	ExplanationModel   string     `json:"explanation_model,omitempty"`
	ErrorMessage       string     `json:"error_message,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// Vulnerability (finding) belongs to exactly one Analysis.
// Detection populates type/severity/location/snippet; Explanation fills the rest.
type Vulnerability struct {
	ID             VulnID     `json:"id"`
	AnalysisID     AnalysisID `json:"analysis_id"`
	Type           VulnType   `json:"type"`
	Severity       Severity   `json:"severity"`
	Confidence     Confidence `json:"confidence"`
	LineStart      int        `json:"line_start,omitempty"`
	LineEnd        int        `json:"line_end,omitempty"`
	FunctionName   string     `json:"function_name,omitempty"`
	CodeSnippet    string     `json:"code_snippet,omitempty"`
	Description    string     `json:"description,omitempty"`
	Impact         string     `json:"impact,omitempty"`
	Recommendation string     `json:"recommendation,omitempty"`
	FixedCode      string     `json:"fixed_code,omitempty"`
	GasEstimate    string     `json:"gas_estimate,omitempty"`
	References     []string   `json:"references,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Enriched reports whether the explanation stage filled this finding in.
func (v *Vulnerability) Enriched() bool {
	return v.Description != "" && v.Impact != "" && v.Recommendation != ""
}
