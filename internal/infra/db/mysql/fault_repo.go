package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/solidity-sec/internal/domain/faults"
)

type FaultRepository struct {
	db *sql.DB
}

func NewFaultRepository(db *sql.DB) *FaultRepository {
	return &FaultRepository{db: db}
}

// Save inserts a stage fault record
func (r *FaultRepository) Save(ctx context.Context, f *domain.StageFault) error {
	const q = `
INSERT INTO analysis_faults
(analysis_id, stage, vuln_id, message, raw_output, created_at)
VALUES (?,?,?,?,?,?);
`
	created := f.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := r.db.ExecContext(ctx, q,
		f.AnalysisID, f.Stage, nullString(f.VulnID), f.Message,
		nullString(f.RawOutput), created,
	)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		f.ID = id
	}
	return nil
}

// ListByAnalysis returns fault records for one analysis, oldest first
func (r *FaultRepository) ListByAnalysis(ctx context.Context, analysisID string, limit int) ([]*domain.StageFault, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, analysis_id, stage, vuln_id, message, raw_output, created_at
FROM analysis_faults
WHERE analysis_id=?
ORDER BY created_at ASC, id ASC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, analysisID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.StageFault
	for rows.Next() {
		var f domain.StageFault
		var vulnID, raw sql.NullString
		if err := rows.Scan(&f.ID, &f.AnalysisID, &f.Stage, &vulnID, &f.Message, &raw, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.VulnID = vulnID.String
		f.RawOutput = raw.String
		out = append(out, &f)
	}
	return out, rows.Err()
}
