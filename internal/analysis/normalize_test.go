package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_ValidOutput(t *testing.T) {
	raw := `{
		"empathy_response": "That sounds exhausting, and you handled it with real patience.",
		"tactic_identified": true,
		"tactic_name": "guilt-tripping",
		"tactic_explanation": "He framed your evening out as something done to him.",
		"confidence": 0.82,
		"reflection_question": "What would feel different if the apology had come without conditions?"
	}`

	result, usedFallback := Normalize(raw)
	require.False(t, usedFallback)
	assert.Equal(t, "That sounds exhausting, and you handled it with real patience.", result.EmpathyResponse)
	assert.True(t, result.TacticIdentified)
	require.NotNil(t, result.TacticName)
	assert.Equal(t, "guilt-tripping", *result.TacticName)
	require.NotNil(t, result.TacticExplanation)
	assert.InDelta(t, 0.82, result.Confidence, 1e-9)
	assert.NotEmpty(t, result.ReflectionQuestion)
}

func TestNormalize_MarkdownFences(t *testing.T) {
	raw := "```json\n{\"empathy_response\": \"I hear you.\", \"tactic_identified\": false, \"confidence\": 0.1, \"reflection_question\": \"What helped today?\"}\n```"

	result, usedFallback := Normalize(raw)
	require.False(t, usedFallback)
	assert.Equal(t, "I hear you.", result.EmpathyResponse)
}

func TestNormalize_RepairsMalformedJSON(t *testing.T) {
	// Trailing comma and unquoted key, the kind of JSON providers actually emit.
	raw := `{"empathy_response": "I hear you.", "tactic_identified": false, confidence: 0.3, "reflection_question": "What helped?",}`

	result, usedFallback := Normalize(raw)
	require.False(t, usedFallback)
	assert.Equal(t, "I hear you.", result.EmpathyResponse)
	assert.InDelta(t, 0.3, result.Confidence, 1e-9)
}

func TestNormalize_GarbageYieldsFallback(t *testing.T) {
	for _, raw := range []string{"", "I'm sorry, I can't help with that.", "<html>502</html>"} {
		result, usedFallback := Normalize(raw)
		assert.True(t, usedFallback, "input %q", raw)
		assert.Equal(t, FallbackAnalysis(), result)
	}
}

func TestNormalize_ConfidenceClamp(t *testing.T) {
	cases := []struct {
		value string
		want  float64
	}{
		{"1.7", 1},
		{"-0.4", 0},
		{`"0.55"`, 0.55},
		{`"not a number"`, 0},
		{"null", 0},
	}
	for _, tc := range cases {
		raw := fmt.Sprintf(`{"empathy_response": "x", "tactic_identified": false, "confidence": %s, "reflection_question": "q"}`, tc.value)
		result, usedFallback := Normalize(raw)
		require.False(t, usedFallback, "confidence %s", tc.value)
		assert.InDelta(t, tc.want, result.Confidence, 1e-9, "confidence %s", tc.value)
	}
}

func TestNormalize_TacticPairingEnforced(t *testing.T) {
	// Provider says no tactic but still emits a name; normalization nulls it.
	raw := `{
		"empathy_response": "x",
		"tactic_identified": false,
		"tactic_name": "gaslighting",
		"tactic_explanation": "leftover text",
		"confidence": 0.4,
		"reflection_question": "q"
	}`

	result, usedFallback := Normalize(raw)
	require.False(t, usedFallback)
	assert.False(t, result.TacticIdentified)
	assert.Nil(t, result.TacticName)
	assert.Nil(t, result.TacticExplanation)
}

func TestNormalize_TacticWithoutNameDemoted(t *testing.T) {
	raw := `{"empathy_response": "x", "tactic_identified": true, "tactic_name": null, "confidence": 0.9, "reflection_question": "q"}`

	result, usedFallback := Normalize(raw)
	require.False(t, usedFallback)
	assert.False(t, result.TacticIdentified)
	assert.Nil(t, result.TacticName)
	assert.Nil(t, result.TacticExplanation)
}

func TestNormalize_CamelCaseFields(t *testing.T) {
	raw := `{"empathyResponse": "I hear you.", "tacticIdentified": true, "tacticName": "stonewalling", "confidence": 0.6, "reflectionQuestion": "q"}`

	result, usedFallback := Normalize(raw)
	require.False(t, usedFallback)
	assert.Equal(t, "I hear you.", result.EmpathyResponse)
	require.NotNil(t, result.TacticName)
	assert.Equal(t, "stonewalling", *result.TacticName)
}

func TestNormalize_MissingEmpathyYieldsFallback(t *testing.T) {
	raw := `{"tactic_identified": false, "confidence": 0.2, "reflection_question": "q"}`

	result, usedFallback := Normalize(raw)
	assert.True(t, usedFallback)
	assert.Equal(t, FallbackAnalysis(), result)
}

func TestFallbackAnalysis_Shape(t *testing.T) {
	fb := FallbackAnalysis()
	assert.NotEmpty(t, fb.EmpathyResponse)
	assert.NotEmpty(t, fb.ReflectionQuestion)
	assert.False(t, fb.TacticIdentified)
	assert.Nil(t, fb.TacticName)
	assert.Nil(t, fb.TacticExplanation)
	assert.Zero(t, fb.Confidence)
}
