package relevance

import "strings"

// MatchKeywords checks text against a keyword set with optional exclusions.
//
// A keyword matches only on whole-word boundaries; multi-word keywords match
// as contiguous phrases. The match is vetoed entirely when any exclusion
// term matches. Returns whether at least one keyword matched and the list of
// matched keywords as they were provided.
func MatchKeywords(text string, keywords, exclusions []string) (bool, []string) {
	normText := NormalizeText(text)
	if normText == "" {
		return false, nil
	}

	for _, excl := range exclusions {
		if containsWholeTerm(normText, NormalizeText(excl)) {
			return false, nil
		}
	}

	var matched []string
	for _, kw := range keywords {
		if containsWholeTerm(normText, NormalizeText(kw)) {
			matched = append(matched, kw)
		}
	}

	return len(matched) > 0, matched
}

// PhraseCount returns how many of the matched terms are multi-word phrases.
func PhraseCount(matched []string) int {
	count := 0
	for _, term := range matched {
		if strings.Contains(strings.TrimSpace(term), " ") {
			count++
		}
	}
	return count
}
