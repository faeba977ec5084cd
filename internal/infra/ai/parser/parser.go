package parser

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Model output is untrusted free text: JSON may arrive wrapped in prose or
// code fences, with trailing commas, or truncated mid-object. Parsing never
// returns an error; callers get ok/not-ok plus a diagnostic reason and apply
// their own partial-failure policy.

var (
	fenceRe = regexp.MustCompile("```(?:json)?\n?([\\s\\S]*?)\n?```")

	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// Intish tolerates line numbers arriving as numbers, numeric strings, or null.
type Intish int

func (n *Intish) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		// e.g. "approx. 25"; keep the finding, drop the location
		*n = 0
		return nil
	}
	*n = Intish(v)
	return nil
}

// RawFinding mirrors the detection prompt's output schema before
// normalization into the closed domain enums.
type RawFinding struct {
	Type           string `json:"type"`
	Severity       string `json:"severity"`
	Confidence     string `json:"confidence"`
	LineStart      Intish `json:"line_start"`
	LineEnd        Intish `json:"line_end"`
	FunctionName   string `json:"function_name"`
	VulnerableCode string `json:"vulnerable_code"`
	BriefReason    string `json:"brief_reason"`
}

// DetectionReport is the findings-list shape.
type DetectionReport struct {
	Vulnerabilities []RawFinding `json:"vulnerabilities"`
	Summary         string       `json:"summary"`
	TotalIssues     Intish       `json:"total_issues"`
}

// Explanation is the per-finding enrichment shape.
type Explanation struct {
	Description    string `json:"description"`
	Impact         string `json:"impact"`
	Recommendation string `json:"recommendation"`
	FixedCode      string `json:"fixed_code"`
}

// ParseDetection extracts a findings list from raw model text.
func ParseDetection(raw string) (*DetectionReport, bool, string) {
	for _, candidate := range candidates(raw) {
		var rep DetectionReport
		if err := json.Unmarshal([]byte(candidate), &rep); err == nil {
			if rep.Vulnerabilities == nil && !strings.Contains(candidate, `"vulnerabilities"`) {
				continue // decoded some unrelated object
			}
			return &rep, true, ""
		}
	}
	if rep, ok := detectionFallback(raw); ok {
		return rep, true, ""
	}
	return nil, false, "no findings list found in response: " + excerpt(raw)
}

// ParseExplanation extracts enrichment fields from raw model text.
func ParseExplanation(raw string) (*Explanation, bool, string) {
	for _, candidate := range candidates(raw) {
		var ex Explanation
		if err := json.Unmarshal([]byte(candidate), &ex); err == nil && ex.Description != "" {
			return &ex, true, ""
		}
	}
	// Field-by-field recovery for truncated or unfenced output.
	ex := Explanation{
		Description:    extractField(raw, "description"),
		Impact:         extractField(raw, "impact"),
		Recommendation: extractField(raw, "recommendation"),
		FixedCode:      extractField(raw, "fixed_code"),
	}
	if ex.Description != "" {
		return &ex, true, ""
	}
	return nil, false, "no explanation fields found in response: " + excerpt(raw)
}

// candidates yields decode attempts in decreasing order of trust:
// the text as-is, fenced blocks, then the outermost brace slice,
// each also retried with trailing commas stripped.
func candidates(raw string) []string {
	raw = strings.TrimSpace(raw)
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		out = append(out, s)
		if cleaned := trailingCommaRe.ReplaceAllString(s, "$1"); cleaned != s {
			out = append(out, cleaned)
		}
	}

	add(raw)
	for _, m := range fenceRe.FindAllStringSubmatch(raw, -1) {
		add(m[1])
	}
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		add(raw[start : end+1])
	}
	return out
}

var findingBlockRe = regexp.MustCompile(`"type"\s*:\s*"([^"]+)"`)

// detectionFallback recovers findings one field at a time when the JSON is
// too damaged to decode. Each "type" key anchors one finding; the remaining
// fields are read from the window up to the next anchor.
func detectionFallback(raw string) (*DetectionReport, bool) {
	anchors := findingBlockRe.FindAllStringSubmatchIndex(raw, -1)
	if len(anchors) == 0 {
		return nil, false
	}
	rep := &DetectionReport{}
	for i, a := range anchors {
		end := len(raw)
		if i+1 < len(anchors) {
			end = anchors[i+1][0]
		}
		window := raw[a[0]:end]
		f := RawFinding{
			Type:           raw[a[2]:a[3]],
			Severity:       extractField(window, "severity"),
			Confidence:     extractField(window, "confidence"),
			FunctionName:   extractField(window, "function_name"),
			VulnerableCode: extractField(window, "vulnerable_code"),
			BriefReason:    extractField(window, "brief_reason"),
		}
		if v, err := strconv.Atoi(extractField(window, "line_start")); err == nil {
			f.LineStart = Intish(v)
		}
		if v, err := strconv.Atoi(extractField(window, "line_end")); err == nil {
			f.LineEnd = Intish(v)
		}
		rep.Vulnerabilities = append(rep.Vulnerabilities, f)
	}
	rep.Summary = extractField(raw, "summary")
	rep.TotalIssues = Intish(len(rep.Vulnerabilities))
	return rep, true
}

// extractField pulls a single JSON string or number value by key, decoding
// escape sequences when present.
func extractField(raw, key string) string {
	re := regexp.MustCompile(`"` + key + `"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	if m := re.FindStringSubmatch(raw); m != nil {
		var s string
		if err := json.Unmarshal([]byte(`"`+m[1]+`"`), &s); err == nil {
			return s
		}
		return m[1]
	}
	numRe := regexp.MustCompile(`"` + key + `"\s*:\s*(-?\d+)`)
	if m := numRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

func excerpt(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > 120 {
		return raw[:120] + "..."
	}
	if raw == "" {
		return "(empty)"
	}
	return raw
}
