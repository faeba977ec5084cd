package prompt

import "fmt"

// ExplanationSystem directs the explanation model toward plain-language output.
func ExplanationSystem() string {
	return `You are a smart contract security expert who explains vulnerabilities in simple terms.

Your job is to:
1. Explain what the vulnerability is
2. Explain why it is dangerous
3. Provide a clear recommendation to fix it
4. Show the corrected code if possible

Be clear and concise. Avoid overly technical jargon when possible.`
}

// ExplanationUser carries only the single finding, not the detection prompt,
// so per-finding calls stay independent and cheap to retry.
func ExplanationUser(vulnType, severity, functionName, vulnerableCode, briefReason string) string {
	if functionName == "" {
		functionName = "unknown"
	}
	return fmt.Sprintf(`Explain this smart contract vulnerability:

VULNERABILITY TYPE: %s
SEVERITY: %s
FUNCTION NAME: %s

VULNERABLE CODE:
%s

BRIEF REASON: %s

Please provide:
1. DESCRIPTION: A clear explanation of what this vulnerability is (2-3 sentences)
2. IMPACT: What could happen if this is exploited (2-3 sentences)
3. RECOMMENDATION: How to fix this issue (2-3 sentences)
4. FIXED_CODE: The corrected version of the vulnerable code

Format your response as JSON:
{
    "description": "...",
    "impact": "...",
    "recommendation": "...",
    "fixed_code": "..."
}

Return ONLY the JSON object. No other text.`, vulnType, severity, functionName, vulnerableCode, briefReason)
}
