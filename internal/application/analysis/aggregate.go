package analysis

import (
	domain "github.com/bryanwahyu/solidity-sec/internal/domain/analyses"
)

// Severity weights for the risk score. Monotonic in each severity count,
// bounded to [0,100], zero iff the finding set is empty.
var severityWeights = map[domain.Severity]int{
	domain.SeverityCritical: 40,
	domain.SeverityHigh:     25,
	domain.SeverityMedium:   15,
	domain.SeverityLow:      5,
	domain.SeverityInfo:     1,
}

const unknownSeverityWeight = 10

// Aggregate computes the derived risk fields from a finding set. Pure
// function over already-validated findings; it never fails and is the only
// source of overall_risk/risk_score, so they cannot diverge from the data.
func Aggregate(vulns []*domain.Vulnerability) (overallRisk domain.Severity, riskScore int) {
	if len(vulns) == 0 {
		return domain.SeverityNone, 0
	}

	overallRisk = domain.SeverityNone
	for _, v := range vulns {
		if v.Severity.Rank() > overallRisk.Rank() {
			overallRisk = v.Severity
		}
		w, ok := severityWeights[v.Severity]
		if !ok {
			w = unknownSeverityWeight
		}
		riskScore += w
	}
	if riskScore > 100 {
		riskScore = 100
	}
	return overallRisk, riskScore
}
