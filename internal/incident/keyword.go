package incident

import (
	"context"
	"strings"
)

// Both lists carry transliterated terms as well as English ones.
var (
	highKeywords = []string{"fire", "smoke", "blood", "weapon", "gun", "attack", "unconscious", "agaa", "dhuwan", "aag"}
	medKeywords  = []string{"break", "door open", "darwaza", "tuta", "leak", "spark"}
)

// KeywordStrategy matches fixed keyword lists against the lower-cased text.
// HIGH keywords win over MED; anything else is LOW.
type KeywordStrategy struct{}

func (KeywordStrategy) Name() string { return "keyword" }

func (KeywordStrategy) Classify(_ context.Context, text string) (Classification, error) {
	return Classification{Summary: FallbackSummary(text), Severity: keywordSeverity(text)}, nil
}

func keywordSeverity(text string) Severity {
	lower := strings.ToLower(text)
	if containsAny(lower, highKeywords) {
		return SeverityHigh
	}
	if containsAny(lower, medKeywords) {
		return SeverityMed
	}
	return SeverityLow
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
