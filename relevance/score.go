package relevance

// phraseBonus is the score increment per matched multi-word phrase.
const phraseBonus = 0.15

// ScoreRelevance computes the relevance score in [0,1].
//
// score = min(1.0, matched/total + 0.15*phraseMatches)
//
// A total of zero terms always scores 0.
func ScoreRelevance(matched, total, phraseMatches int) float64 {
	if total <= 0 {
		return 0.0
	}

	score := float64(matched)/float64(total) + phraseBonus*float64(phraseMatches)
	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}
	return score
}

// MinMatchesRequired returns the minimum keyword matches needed for a record
// to be included, scaled to the size of the keyword set. The threshold is
// capped at 3 and never grows further.
func MinMatchesRequired(total int) int {
	switch {
	case total <= 0:
		return 0
	case total <= 3:
		return 1
	case total <= 6:
		return 2
	default:
		return 3
	}
}

// ShouldInclude decides whether a record passes the keyword filter.
//
// Condition A: matched count reaches the adaptive minimum threshold.
// Condition B: an exact multi-word phrase matched, which always overrides a
// low raw match count.
func ShouldInclude(matched, total int, hasPhraseMatch bool) bool {
	if hasPhraseMatch {
		return true
	}
	return matched >= MinMatchesRequired(total)
}
