package analysis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"deardiary/internal/journal"
)

// Normalize parses raw provider output into a valid AnalysisResult.
//
// Providers are unreliable JSON emitters: output may be fenced in markdown,
// truncated, or use wrong field types. Normalization repairs what it can and
// substitutes the fixed fallback analysis for anything unusable; the second
// return value reports whether the fallback was used.
//
// The tactic pairing invariant is enforced strictly: whenever the coerced
// tactic_identified is false, tactic_name and tactic_explanation come back
// null no matter what the provider emitted.
func Normalize(raw string) (journal.AnalysisResult, bool) {
	fields, ok := decodeObject(raw)
	if !ok {
		return FallbackAnalysis(), true
	}

	result := journal.AnalysisResult{
		EmpathyResponse:    coerceString(pick(fields, "empathy_response", "empathyResponse")),
		TacticIdentified:   coerceBool(pick(fields, "tactic_identified", "tacticIdentified")),
		Confidence:         clampConfidence(pick(fields, "confidence")),
		ReflectionQuestion: coerceString(pick(fields, "reflection_question", "reflectionQuestion")),
	}

	// Required texts must be non-empty; an empty empathy response means the
	// provider did not do its job, so the whole result is untrustworthy.
	if result.EmpathyResponse == "" {
		return FallbackAnalysis(), true
	}
	if result.ReflectionQuestion == "" {
		result.ReflectionQuestion = fallbackReflectionQuestion
	}

	if result.TacticIdentified {
		result.TacticName = coerceNullableString(pick(fields, "tactic_name", "tacticName"))
		result.TacticExplanation = coerceNullableString(pick(fields, "tactic_explanation", "tacticExplanation"))
		// A flagged tactic without a name is not actionable; demote it.
		if result.TacticName == nil {
			result.TacticIdentified = false
			result.TacticExplanation = nil
		}
	}

	return result, false
}

// decodeObject extracts a JSON object from raw text, repairing malformed
// JSON with jsonrepair before giving up.
func decodeObject(raw string) (map[string]any, bool) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return nil, false
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(cleaned), &fields); err == nil {
		return fields, true
	}

	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal([]byte(repaired), &fields); err != nil {
		return nil, false
	}
	return fields, true
}

// stripFences removes a surrounding markdown code fence, if any, and trims
// to the outermost object braces.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return s
}

func pick(fields map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := fields[key]; ok {
			return v
		}
	}
	return nil
}

func coerceString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func coerceNullableString(v any) *string {
	s := coerceString(v)
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
		return nil
	}
	return &s
}

func coerceBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	case float64:
		return t != 0
	}
	return false
}

// clampConfidence coerces the confidence field into [0, 1]; anything
// non-numeric defaults to 0.
func clampConfidence(v any) float64 {
	var c float64
	switch t := v.(type) {
	case float64:
		c = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		c = parsed
	default:
		return 0
	}
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0
	}
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
