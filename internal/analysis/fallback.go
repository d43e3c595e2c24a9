package analysis

import "deardiary/internal/journal"

// Fixed fallback texts. The product never shows a distressed user an error
// screen, so these must read as a genuine, if generic, response.
const (
	fallbackEmpathyResponse = "Thank you for trusting me with this. " +
		"What you're feeling is real and it matters, even when it's hard to put into words. " +
		"I'm here, and I'm listening."
	fallbackReflectionQuestion = "If a close friend told you they were going through " +
		"exactly this, what would you want them to know?"
)

// FallbackAnalysis returns the fixed, always-valid analysis substituted
// whenever the provider fails or returns output that cannot be normalized.
func FallbackAnalysis() journal.AnalysisResult {
	return journal.AnalysisResult{
		EmpathyResponse:    fallbackEmpathyResponse,
		TacticIdentified:   false,
		TacticName:         nil,
		TacticExplanation:  nil,
		Confidence:         0,
		ReflectionQuestion: fallbackReflectionQuestion,
	}
}
