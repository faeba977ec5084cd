package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cleanDetection = `{
    "vulnerabilities": [
        {
            "type": "reentrancy",
            "severity": "critical",
            "confidence": "high",
            "line_start": 25,
            "line_end": 30,
            "function_name": "withdraw",
            "vulnerable_code": "payable(msg.sender).transfer(balance);",
            "brief_reason": "State update happens after external call"
        }
    ],
    "summary": "One critical issue found",
    "total_issues": 1
}`

func TestParseDetection_CleanJSON(t *testing.T) {
	rep, ok, reason := ParseDetection(cleanDetection)
	require.True(t, ok, reason)
	require.Len(t, rep.Vulnerabilities, 1)

	f := rep.Vulnerabilities[0]
	assert.Equal(t, "reentrancy", f.Type)
	assert.Equal(t, "critical", f.Severity)
	assert.Equal(t, "high", f.Confidence)
	assert.Equal(t, 25, int(f.LineStart))
	assert.Equal(t, 30, int(f.LineEnd))
	assert.Equal(t, "withdraw", f.FunctionName)
	assert.Equal(t, "One critical issue found", rep.Summary)
}

func TestParseDetection_SurroundingProse(t *testing.T) {
	raw := "Sure! I analyzed the contract. Here are the results:\n\n" +
		cleanDetection + "\n\nLet me know if you need anything else."
	rep, ok, reason := ParseDetection(raw)
	require.True(t, ok, reason)
	require.Len(t, rep.Vulnerabilities, 1)
	assert.Equal(t, "reentrancy", rep.Vulnerabilities[0].Type)
	assert.Equal(t, "One critical issue found", rep.Summary)
}

func TestParseDetection_CodeFence(t *testing.T) {
	raw := "```json\n" + cleanDetection + "\n```"
	rep, ok, reason := ParseDetection(raw)
	require.True(t, ok, reason)
	require.Len(t, rep.Vulnerabilities, 1)
}

func TestParseDetection_TrailingCommas(t *testing.T) {
	raw := `{
  "vulnerabilities": [
    {"type": "unchecked_call", "severity": "medium", "line_start": 7, "line_end": 7,},
  ],
  "summary": "ok",
}`
	rep, ok, reason := ParseDetection(raw)
	require.True(t, ok, reason)
	require.Len(t, rep.Vulnerabilities, 1)
	assert.Equal(t, "unchecked_call", rep.Vulnerabilities[0].Type)
}

func TestParseDetection_EmptyList(t *testing.T) {
	rep, ok, _ := ParseDetection(`{"vulnerabilities": [], "summary": "No vulnerabilities detected", "total_issues": 0}`)
	require.True(t, ok)
	assert.Empty(t, rep.Vulnerabilities)
	assert.Equal(t, "No vulnerabilities detected", rep.Summary)
}

func TestParseDetection_StringLineNumbers(t *testing.T) {
	raw := `{"vulnerabilities": [{"type": "access_control", "severity": "high", "line_start": "12", "line_end": "14"}], "summary": "s"}`
	rep, ok, reason := ParseDetection(raw)
	require.True(t, ok, reason)
	assert.Equal(t, 12, int(rep.Vulnerabilities[0].LineStart))
	assert.Equal(t, 14, int(rep.Vulnerabilities[0].LineEnd))
}

func TestParseDetection_TruncatedFallback(t *testing.T) {
	// cut off mid-object; structured decode cannot succeed
	raw := `{"vulnerabilities": [
  {"type": "reentrancy", "severity": "high", "line_start": 10, "line_end": 12, "function_name": "withdraw", "brief_reason": "external call first"},
  {"type": "frontrunning", "severity": "medium", "line_st`
	rep, ok, reason := ParseDetection(raw)
	require.True(t, ok, reason)
	require.Len(t, rep.Vulnerabilities, 2)
	assert.Equal(t, "reentrancy", rep.Vulnerabilities[0].Type)
	assert.Equal(t, "high", rep.Vulnerabilities[0].Severity)
	assert.Equal(t, 10, int(rep.Vulnerabilities[0].LineStart))
	assert.Equal(t, "withdraw", rep.Vulnerabilities[0].FunctionName)
	assert.Equal(t, "frontrunning", rep.Vulnerabilities[1].Type)
}

func TestParseDetection_Garbage(t *testing.T) {
	rep, ok, reason := ParseDetection("The contract looks mostly fine to me, great work!")
	assert.Nil(t, rep)
	assert.False(t, ok)
	assert.NotEmpty(t, reason)
}

func TestParseDetection_Empty(t *testing.T) {
	_, ok, reason := ParseDetection("")
	assert.False(t, ok)
	assert.Contains(t, reason, "(empty)")
}

func TestParseExplanation_CleanJSON(t *testing.T) {
	raw := `{"description": "Reentrancy allows repeated withdrawal.", "impact": "Funds can be drained.", "recommendation": "Use checks-effects-interactions.", "fixed_code": "balance = 0; msg.sender.call{value: b}(\"\");"}`
	ex, ok, reason := ParseExplanation(raw)
	require.True(t, ok, reason)
	assert.Equal(t, "Reentrancy allows repeated withdrawal.", ex.Description)
	assert.Equal(t, "Funds can be drained.", ex.Impact)
	assert.Equal(t, "Use checks-effects-interactions.", ex.Recommendation)
	assert.Contains(t, ex.FixedCode, "balance = 0")
}

func TestParseExplanation_ProseAndFence(t *testing.T) {
	raw := "Here is the explanation you asked for:\n```json\n" +
		`{"description": "d", "impact": "i", "recommendation": "r", "fixed_code": "f"}` +
		"\n```\nHope that helps!"
	ex, ok, reason := ParseExplanation(raw)
	require.True(t, ok, reason)
	assert.Equal(t, "d", ex.Description)
	assert.Equal(t, "f", ex.FixedCode)
}

func TestParseExplanation_TruncatedFieldRecovery(t *testing.T) {
	raw := `{"description": "An attacker can re-enter withdraw.", "impact": "Loss of all contract funds.", "recommendation": "Update state before exter`
	ex, ok, reason := ParseExplanation(raw)
	require.True(t, ok, reason)
	assert.Equal(t, "An attacker can re-enter withdraw.", ex.Description)
	assert.Equal(t, "Loss of all contract funds.", ex.Impact)
	assert.Empty(t, ex.Recommendation) // value was cut off before the closing quote
}

func TestParseExplanation_EscapedQuotes(t *testing.T) {
	raw := `{"description": "Uses \"call\" without checking the result.", "impact": "i", "recommendation": "r", "fixed_code": ""}`
	ex, ok, reason := ParseExplanation(raw)
	require.True(t, ok, reason)
	assert.Equal(t, `Uses "call" without checking the result.`, ex.Description)
}

func TestParseExplanation_Garbage(t *testing.T) {
	ex, ok, reason := ParseExplanation("I'm not sure what you mean.")
	assert.Nil(t, ex)
	assert.False(t, ok)
	assert.NotEmpty(t, reason)
}
