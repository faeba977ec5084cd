package analysis

import (
	"context"
	"fmt"

	"github.com/bryanwahyu/solidity-sec/internal/domain/ai"
	domain "github.com/bryanwahyu/solidity-sec/internal/domain/analyses"
	"github.com/bryanwahyu/solidity-sec/internal/infra/ai/parser"
	"github.com/bryanwahyu/solidity-sec/internal/infra/ai/prompt"
)

// detectionSampling pins the detection model to near-deterministic output so
// repeated scans of the same code stay comparable.
var detectionSampling = ai.Sampling{Temperature: 0.1, MaxTokens: 4096}

// DetectionStage invokes the detection model once per contract and maps its
// raw findings onto the closed domain enums.
type DetectionStage struct {
	Client ai.Client
}

// DetectResult carries candidate findings plus the raw transcript for auditing.
type DetectResult struct {
	Findings []*domain.Vulnerability
	Summary  string
	Raw      string
}

// Detect runs the single detection call. A transport failure is retried once;
// a response that cannot be parsed is a *ParseError and is not retried.
func (s *DetectionStage) Detect(ctx context.Context, sourceCode string) (*DetectResult, error) {
	raw, err := generateWithRetry(ctx, s.Client, ai.Request{
		SystemPrompt: prompt.DetectionSystem(),
		UserPrompt:   prompt.DetectionUser(sourceCode),
		Sampling:     detectionSampling,
	})
	if err != nil {
		return nil, fmt.Errorf("detection call failed: %w", err)
	}

	rep, ok, reason := parser.ParseDetection(raw)
	if !ok {
		return &DetectResult{Raw: raw}, &ParseError{Stage: "detection", Reason: reason}
	}

	res := &DetectResult{Summary: rep.Summary, Raw: raw}
	for _, rf := range rep.Vulnerabilities {
		res.Findings = append(res.Findings, &domain.Vulnerability{
			Type:         domain.NormalizeVulnType(rf.Type),
			Severity:     domain.NormalizeSeverity(rf.Severity),
			Confidence:   domain.NormalizeConfidence(rf.Confidence),
			LineStart:    int(rf.LineStart),
			LineEnd:      int(rf.LineEnd),
			FunctionName: rf.FunctionName,
			CodeSnippet:  rf.VulnerableCode,
			Description:  rf.BriefReason,
		})
	}
	return res, nil
}

// generateWithRetry applies the shared retry policy: exactly one retry, and
// only for transient transport failures while the deadline still stands.
func generateWithRetry(ctx context.Context, client ai.Client, req ai.Request) (string, error) {
	out, err := client.Generate(ctx, req)
	if err != nil && ai.IsUnavailable(err) && ctx.Err() == nil {
		out, err = client.Generate(ctx, req)
	}
	return out, err
}
