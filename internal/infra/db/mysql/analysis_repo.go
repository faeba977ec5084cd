package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/solidity-sec/internal/domain/analyses"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Save insert/update Analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO analyses
(id, contract_id, status, overall_risk, risk_score, summary,
 scan_duration_ms, total_lines, functions_analyzed, enrichment_failures,
 detection_model, explanation_model, error_message, created_at, completed_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 status=VALUES(status), overall_risk=VALUES(overall_risk), risk_score=VALUES(risk_score),
 summary=VALUES(summary), scan_duration_ms=VALUES(scan_duration_ms),
 total_lines=VALUES(total_lines), functions_analyzed=VALUES(functions_analyzed),
 enrichment_failures=VALUES(enrichment_failures), error_message=VALUES(error_message),
 completed_at=VALUES(completed_at);
`
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		a.ID, a.ContractID, string(a.Status), nullString(string(a.OverallRisk)), a.RiskScore,
		nullString(a.Summary), a.ScanDurationMS, a.TotalLines, a.FunctionsAnalyzed,
		a.EnrichmentFailures, nullString(a.DetectionModel), nullString(a.ExplanationModel),
		nullString(a.ErrorMessage), created, nullTime(a.CompletedAt),
	)
	return err
}

const analysisColumns = `id, contract_id, status, overall_risk, risk_score, summary,
 scan_duration_ms, total_lines, functions_analyzed, enrichment_failures,
 detection_model, explanation_model, error_message, created_at, completed_at`

func scanAnalysis(row interface{ Scan(...any) error }) (*domain.Analysis, error) {
	var a domain.Analysis
	var risk, summary, detModel, expModel, errMsg sql.NullString
	var completed sql.NullTime
	if err := row.Scan(
		&a.ID, &a.ContractID, &a.Status, &risk, &a.RiskScore, &summary,
		&a.ScanDurationMS, &a.TotalLines, &a.FunctionsAnalyzed, &a.EnrichmentFailures,
		&detModel, &expModel, &errMsg, &a.CreatedAt, &completed,
	); err != nil {
		return nil, err
	}
	a.OverallRisk = domain.Severity(risk.String)
	a.Summary = summary.String
	a.DetectionModel = detModel.String
	a.ExplanationModel = expModel.String
	a.ErrorMessage = errMsg.String
	if completed.Valid {
		t := completed.Time
		a.CompletedAt = &t
	}
	return &a, nil
}

// Get by ID
func (r *AnalysisRepository) Get(ctx context.Context, id domain.AnalysisID) (*domain.Analysis, error) {
	const q = `SELECT ` + analysisColumns + ` FROM analyses WHERE id=? LIMIT 1;`
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

// UpdateStatus commits a state transition; must be durable before callers
// can observe the new state.
func (r *AnalysisRepository) UpdateStatus(ctx context.Context, id domain.AnalysisID, status domain.Status, errorMessage string) error {
	const q = `UPDATE analyses SET status=?, error_message=? WHERE id=?;`
	res, err := r.db.ExecContext(ctx, q, string(status), nullString(errorMessage), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Latest analyses, most recent first
func (r *AnalysisRepository) Latest(ctx context.Context, limit int) ([]*domain.Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `SELECT ` + analysisColumns + ` FROM analyses ORDER BY created_at DESC LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Summary counts analyses and findings by severity since N days
func (r *AnalysisRepository) Summary(ctx context.Context, sinceDays int) (int, int, int, int, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().AddDate(0, 0, -sinceDays)

	const q = `
SELECT COUNT(DISTINCT a.id) AS total_analyses,
       COALESCE(SUM(v.severity='critical'),0) AS critical,
       COALESCE(SUM(v.severity='high'),0)     AS high,
       COALESCE(SUM(v.severity='medium'),0)   AS medium
FROM analyses a
LEFT JOIN vulnerabilities v ON v.analysis_id = a.id
WHERE a.created_at >= ?;
`
	var t, c, h, m int
	if err := r.db.QueryRowContext(ctx, q, cut).Scan(&t, &c, &h, &m); err != nil {
		return 0, 0, 0, 0, err
	}
	return t, c, h, m, nil
}

// SaveVulnerabilities batch-inserts the findings of one analysis.
func (r *AnalysisRepository) SaveVulnerabilities(ctx context.Context, vulns []*domain.Vulnerability) error {
	if len(vulns) == 0 {
		return nil
	}
	const q = `
INSERT INTO vulnerabilities
(id, analysis_id, type, severity, confidence, line_start, line_end, function_name,
 code_snippet, description, impact, recommendation, fixed_code, gas_estimate, refs, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 description=VALUES(description), impact=VALUES(impact),
 recommendation=VALUES(recommendation), fixed_code=VALUES(fixed_code);
`
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, v := range vulns {
		created := v.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		if _, err := tx.ExecContext(ctx, q,
			v.ID, v.AnalysisID, string(v.Type), string(v.Severity), string(v.Confidence),
			v.LineStart, v.LineEnd, nullString(v.FunctionName),
			nullString(v.CodeSnippet), nullString(v.Description), nullString(v.Impact),
			nullString(v.Recommendation), nullString(v.FixedCode), nullString(v.GasEstimate),
			jsonList(v.References), created,
		); err != nil {
			return fmt.Errorf("inserting vulnerability %s: %w", v.ID, err)
		}
	}
	return tx.Commit()
}

// VulnerabilitiesByAnalysis lists findings ordered by severity then line.
func (r *AnalysisRepository) VulnerabilitiesByAnalysis(ctx context.Context, id domain.AnalysisID) ([]*domain.Vulnerability, error) {
	const q = `
SELECT id, analysis_id, type, severity, confidence, line_start, line_end, function_name,
       code_snippet, description, impact, recommendation, fixed_code, gas_estimate, refs, created_at
FROM vulnerabilities
WHERE analysis_id=?
ORDER BY FIELD(severity,'critical','high','medium','low','info'), line_start;
`
	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Vulnerability
	for rows.Next() {
		var v domain.Vulnerability
		var fn, snippet, desc, impact, rec, fixed, gas, refs sql.NullString
		if err := rows.Scan(
			&v.ID, &v.AnalysisID, &v.Type, &v.Severity, &v.Confidence,
			&v.LineStart, &v.LineEnd, &fn,
			&snippet, &desc, &impact, &rec, &fixed, &gas, &refs, &v.CreatedAt,
		); err != nil {
			return nil, err
		}
		v.FunctionName = fn.String
		v.CodeSnippet = snippet.String
		v.Description = desc.String
		v.Impact = impact.String
		v.Recommendation = rec.String
		v.FixedCode = fixed.String
		v.GasEstimate = gas.String
		v.References = decodeJSONList(refs)
		out = append(out, &v)
	}
	return out, rows.Err()
}
