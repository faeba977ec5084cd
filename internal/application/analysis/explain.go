package analysis

import (
	"context"
	"fmt"

	"github.com/bryanwahyu/solidity-sec/internal/domain/ai"
	domain "github.com/bryanwahyu/solidity-sec/internal/domain/analyses"
	"github.com/bryanwahyu/solidity-sec/internal/infra/ai/parser"
	"github.com/bryanwahyu/solidity-sec/internal/infra/ai/prompt"
)

var explanationSampling = ai.Sampling{Temperature: 0.1, MaxTokens: 2048}

// ExplanationStage enriches one finding per call. Each call carries only that
// finding's detection fields, never the whole contract prompt, so calls stay
// independent and a failure touches exactly one finding.
type ExplanationStage struct {
	Client ai.Client
}

// Explain fills description/impact/recommendation/fixed_code in place.
// Detection-owned fields (type, severity, location) are never altered.
func (s *ExplanationStage) Explain(ctx context.Context, v *domain.Vulnerability) (raw string, err error) {
	briefReason := v.Description // detection's one-line reason, if any

	raw, err = generateWithRetry(ctx, s.Client, ai.Request{
		SystemPrompt: prompt.ExplanationSystem(),
		UserPrompt: prompt.ExplanationUser(
			string(v.Type), string(v.Severity), v.FunctionName, v.CodeSnippet, briefReason),
		Sampling: explanationSampling,
	})
	if err != nil {
		return raw, fmt.Errorf("explanation call failed: %w", err)
	}

	ex, ok, reason := parser.ParseExplanation(raw)
	if !ok {
		return raw, &ParseError{Stage: "explanation", Reason: reason}
	}

	v.Description = ex.Description
	if v.Description == "" {
		v.Description = briefReason
	}
	v.Impact = ex.Impact
	v.Recommendation = ex.Recommendation
	v.FixedCode = ex.FixedCode
	return raw, nil
}
