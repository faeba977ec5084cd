package analyses

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

func TestSeverityRankOrdering(t *testing.T) {
	order := []Severity{SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(order); i++ {
		assert.Greater(t, order[i].Rank(), order[i-1].Rank())
	}
	assert.Equal(t, 0, SeverityNone.Rank())
	assert.Equal(t, 0, Severity("made-up").Rank())
}

func TestNormalizeSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, NormalizeSeverity("critical"))
	assert.Equal(t, SeverityInfo, NormalizeSeverity("info"))
	// model inventions fall back to medium, never drop the finding
	assert.Equal(t, SeverityMedium, NormalizeSeverity("CRITICAL!!"))
	assert.Equal(t, SeverityMedium, NormalizeSeverity(""))
	assert.Equal(t, SeverityMedium, NormalizeSeverity("severe"))
}

func TestNormalizeVulnType(t *testing.T) {
	assert.Equal(t, VulnReentrancy, NormalizeVulnType("reentrancy"))
	assert.Equal(t, VulnUncheckedCall, NormalizeVulnType("unchecked_call"))
	assert.Equal(t, VulnOther, NormalizeVulnType("cross-chain wormhole exploit"))
	assert.Equal(t, VulnOther, NormalizeVulnType(""))
}

func TestNormalizeConfidence(t *testing.T) {
	assert.Equal(t, ConfidenceLow, NormalizeConfidence("low"))
	assert.Equal(t, ConfidenceMedium, NormalizeConfidence("pretty sure"))
}

func TestVulnerabilityEnriched(t *testing.T) {
	v := &Vulnerability{Description: "d", Impact: "i", Recommendation: "r"}
	assert.True(t, v.Enriched())

	assert.False(t, (&Vulnerability{Description: "d", Impact: "i"}).Enriched())
	assert.False(t, (&Vulnerability{Description: "detection brief reason"}).Enriched())
	assert.False(t, (&Vulnerability{}).Enriched())
}
