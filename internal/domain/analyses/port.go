package analyses

import (
	"context"
	"time"
)

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, a *Analysis) error
	Get(ctx context.Context, id AnalysisID) (*Analysis, error)
	// UpdateStatus must be durable before the orchestrator reports progress.
	UpdateStatus(ctx context.Context, id AnalysisID, status Status, errorMessage string) error
	Latest(ctx context.Context, limit int) ([]*Analysis, error)
	Summary(ctx context.Context, sinceDays int) (total, critical, high, medium int, err error)

	SaveVulnerabilities(ctx context.Context, vulns []*Vulnerability) error
	VulnerabilitiesByAnalysis(ctx context.Context, id AnalysisID) ([]*Vulnerability, error)
}

// TranscriptStore port: optional archive of raw model output per stage,
// kept for auditing malformed responses.
type TranscriptStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Clock abstraction supaya gampang ditest
type Clock interface {
	Now() time.Time
}
