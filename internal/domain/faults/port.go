package faults

import "context"

// Repository defines persistence for stage faults
type Repository interface {
	Save(ctx context.Context, f *StageFault) error
	ListByAnalysis(ctx context.Context, analysisID string, limit int) ([]*StageFault, error)
}
