package relevance

import "strings"

// diacriticFolds maps accented Portuguese runes to their base letters.
// Applied after lowercasing, so only lowercase forms are listed.
var diacriticFolds = map[rune]rune{
	'á': 'a', 'à': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i',
	'ó': 'o', 'ò': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o',
	'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u',
	'ç': 'c', 'ñ': 'n',
}

// NormalizeText lowercases the input, folds diacritics, collapses
// punctuation into single spaces, and collapses repeated whitespace.
// The result contains only lowercase letters, digits, hyphens, and single
// spaces.
func NormalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range strings.ToLower(s) {
		if folded, ok := diacriticFolds[r]; ok {
			r = folded
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// containsWholeTerm reports whether term occurs in text on word boundaries.
// Both arguments must already be normalized. Multi-word terms match as
// contiguous phrases; substrings inside longer words never match.
func containsWholeTerm(text, term string) bool {
	if text == "" || term == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+term+" ")
}
