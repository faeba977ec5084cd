package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/solidity-sec/internal/domain/ai"
	domain "github.com/bryanwahyu/solidity-sec/internal/domain/analyses"
	"github.com/bryanwahyu/solidity-sec/internal/domain/faults"
)

// Orchestrator drives one analysis through its state machine:
//
//	pending -> running -> (completed | failed)
//
// Detection runs exactly once; explanations fan out per finding under a
// bounded concurrency cap; aggregation derives the risk fields. Failed and
// completed are terminal. Every status transition is persisted before any
// caller can observe it.
type Orchestrator struct {
	Analyses    domain.Repository
	Faults      faults.Repository      // optional; nil disables fault records
	Transcripts domain.TranscriptStore // optional; nil disables transcript archive
	Detector    *DetectionStage
	Explainer   *ExplanationStage
	Clock       domain.Clock

	// TotalTimeout bounds the whole run, detection plus all explanations.
	TotalTimeout time.Duration
	// ExplainFanout caps concurrent explanation calls within one analysis.
	ExplainFanout int
}

const (
	defaultTotalTimeout  = 10 * time.Minute
	defaultExplainFanout = 3
	persistTimeout       = 10 * time.Second
)

// Run executes the full pipeline for an already-persisted pending analysis.
// It always leaves the analysis in a terminal state unless persistence itself
// is down, in which case the last durable state is kept for inspection.
// Deadline expiry is enforced through ctx: in-flight model calls are abandoned
// only insofar as the configured ai.Client honors cancellation, which both
// shipped clients do.
func (o *Orchestrator) Run(ctx context.Context, an *domain.Analysis, sourceCode string) {
	total := o.TotalTimeout
	if total <= 0 {
		total = defaultTotalTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, total)
	defer cancel()

	start := o.Clock.Now()

	if err := o.Analyses.UpdateStatus(ctx, an.ID, domain.StatusRunning, ""); err != nil {
		log.Printf("analysis=%s persist running failed: %v", an.ID, err)
		return
	}
	an.Status = domain.StatusRunning

	res, err := o.Detector.Detect(ctx, sourceCode)
	if res != nil {
		o.archive(an.ID, "detection", res.Raw)
	}
	if err != nil {
		o.fail(an, detectionFailureMessage(err), rawOf(res))
		return
	}

	findings := res.Findings
	for _, v := range findings {
		v.ID = domain.VulnID(uuid.New().String())
		v.AnalysisID = an.ID
		v.CreatedAt = o.Clock.Now()
	}

	var enrichmentFailures int64
	if len(findings) > 0 {
		fanout := o.ExplainFanout
		if fanout <= 0 {
			fanout = defaultExplainFanout
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(fanout)
		for _, v := range findings {
			v := v
			g.Go(func() error {
				raw, err := o.Explainer.Explain(gctx, v)
				if err != nil {
					// Tolerated: the finding keeps its detection fields.
					atomic.AddInt64(&enrichmentFailures, 1)
					o.recordFault(an.ID, faults.StageExplanation, string(v.ID), err, raw)
					return nil
				}
				o.archive(an.ID, fmt.Sprintf("explanation-%s", v.ID), raw)
				return nil
			})
		}
		_ = g.Wait() // workers never return errors; Wait linearizes the terminal transition
	}

	overall, score := Aggregate(findings)

	// The deadline may have expired mid-explanation; finalize on a fresh
	// context so the terminal state is still committed.
	pctx, pcancel := context.WithTimeout(context.Background(), persistTimeout)
	defer pcancel()

	if len(findings) > 0 {
		if err := o.Analyses.SaveVulnerabilities(pctx, findings); err != nil {
			log.Printf("analysis=%s persist findings failed: %v", an.ID, err)
			return
		}
	}

	now := o.Clock.Now()
	an.Status = domain.StatusCompleted
	an.OverallRisk = overall
	an.RiskScore = score
	an.Summary = buildSummary(res.Summary, len(findings), int(enrichmentFailures))
	an.EnrichmentFailures = int(enrichmentFailures)
	an.ScanDurationMS = now.Sub(start).Milliseconds()
	an.TotalLines = countLines(sourceCode)
	an.FunctionsAnalyzed = strings.Count(sourceCode, "function ")
	an.CompletedAt = &now

	if err := o.Analyses.Save(pctx, an); err != nil {
		log.Printf("analysis=%s persist completion failed: %v", an.ID, err)
		return
	}
	log.Printf("analysis=%s completed findings=%d risk=%s score=%d enrichment_failures=%d duration_ms=%d",
		an.ID, len(findings), overall, score, enrichmentFailures, an.ScanDurationMS)
}

// fail transitions to the terminal failed state with a human-readable cause.
func (o *Orchestrator) fail(an *domain.Analysis, message, rawOutput string) {
	pctx, pcancel := context.WithTimeout(context.Background(), persistTimeout)
	defer pcancel()

	an.Status = domain.StatusFailed
	an.ErrorMessage = message
	if err := o.Analyses.UpdateStatus(pctx, an.ID, domain.StatusFailed, message); err != nil {
		log.Printf("analysis=%s persist failure failed: %v", an.ID, err)
		return
	}
	o.recordFault(an.ID, faults.StageDetection, "", errors.New(message), rawOutput)
	log.Printf("analysis=%s failed: %s", an.ID, message)
}

func (o *Orchestrator) recordFault(id domain.AnalysisID, stage, vulnID string, err error, raw string) {
	if o.Faults == nil {
		return
	}
	pctx, pcancel := context.WithTimeout(context.Background(), persistTimeout)
	defer pcancel()
	f := &faults.StageFault{
		AnalysisID: string(id),
		Stage:      stage,
		VulnID:     vulnID,
		Message:    err.Error(),
		RawOutput:  raw,
		CreatedAt:  o.Clock.Now(),
	}
	if serr := o.Faults.Save(pctx, f); serr != nil {
		log.Printf("analysis=%s fault record failed: %v", id, serr)
	}
}

func (o *Orchestrator) archive(id domain.AnalysisID, stage, raw string) {
	if o.Transcripts == nil || raw == "" {
		return
	}
	pctx, pcancel := context.WithTimeout(context.Background(), persistTimeout)
	defer pcancel()
	key := fmt.Sprintf("%s/%s.txt", id, stage)
	if _, err := o.Transcripts.Put(pctx, key, []byte(raw), "text/plain"); err != nil {
		log.Printf("analysis=%s transcript upload failed: %v", id, err)
	}
}

func detectionFailureMessage(err error) string {
	var parseErr *ParseError
	switch {
	case errors.As(err, &parseErr):
		return fmt.Sprintf("detection model returned unusable output: %s", parseErr.Reason)
	case errors.Is(err, context.DeadlineExceeded):
		return "detection timed out; the model may still be loading"
	case ai.IsUnavailable(err):
		return "detection model is unavailable; check that the inference service is running"
	default:
		return fmt.Sprintf("detection failed: %v", err)
	}
}

func buildSummary(modelSummary string, total, failures int) string {
	s := modelSummary
	if s == "" {
		s = fmt.Sprintf("Found %d potential vulnerabilities", total)
	}
	if failures > 0 {
		s += fmt.Sprintf(" (%d of %d findings could not be enriched)", failures, total)
	}
	return s
}

func countLines(code string) int {
	if code == "" {
		return 0
	}
	return strings.Count(code, "\n") + 1
}

func rawOf(res *DetectResult) string {
	if res == nil {
		return ""
	}
	return res.Raw
}
