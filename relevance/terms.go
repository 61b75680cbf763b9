// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package relevance

import (
	"strings"
	"unicode"
)

// Stop words rejected as single-term searches. Common Portuguese function
// words that match almost every notice and carry no filtering power.
var stopWords = map[string]bool{
	"de": true, "da": true, "do": true, "das": true, "dos": true,
	"em": true, "no": true, "na": true, "nos": true, "nas": true,
	"para": true, "por": true, "com": true, "sem": true, "sob": true,
	"um": true, "uma": true, "uns": true, "umas": true,
	"os": true, "as": true, "ao": true, "aos": true,
	"que": true, "ser": true, "ter": true, "como": true,
	"mais": true, "pelo": true, "pela": true, "entre": true,
	"sobre": true, "outros": true, "outras": true,
}

const minTermLength = 4

// Reason strings for ignored terms. These are shown to users verbatim.
const (
	ReasonEmpty     = "term is empty"
	ReasonTooShort  = "term is shorter than 4 characters"
	ReasonStopWord  = "term is a common stopword"
	ReasonBadChars  = "term contains unsupported characters"
)

// IgnoredTerm is a user-supplied search term that was rejected, with a
// human-readable reason.
type IgnoredTerm struct {
	Term   string
	Reason string
}

// TermValidation partitions user-supplied search terms into the valid set
// and the ignored set. The two sets are always disjoint under normalized
// comparison.
type TermValidation struct {
	Valid   []string
	Ignored []IgnoredTerm
}

// ValidateTerms normalizes user-supplied search terms and rejects the
// unusable ones. A term is rejected when it is empty, shorter than four
// characters, a single-word stopword, or contains characters outside
// letters, digits, diacritics, and hyphens.
//
// Duplicate terms that differ only by case or whitespace are NOT collapsed:
// each occurrence lands in the valid set independently.
func ValidateTerms(terms []string) TermValidation {
	var result TermValidation

	for _, raw := range terms {
		if !hasAllowedChars(raw) {
			result.Ignored = append(result.Ignored, IgnoredTerm{Term: raw, Reason: ReasonBadChars})
			continue
		}

		norm := NormalizeText(raw)
		switch {
		case norm == "":
			result.Ignored = append(result.Ignored, IgnoredTerm{Term: raw, Reason: ReasonEmpty})
		case !strings.Contains(norm, " ") && stopWords[norm]:
			result.Ignored = append(result.Ignored, IgnoredTerm{Term: raw, Reason: ReasonStopWord})
		case len([]rune(norm)) < minTermLength:
			result.Ignored = append(result.Ignored, IgnoredTerm{Term: raw, Reason: ReasonTooShort})
		default:
			result.Valid = append(result.Valid, norm)
		}
	}

	return result
}

// hasAllowedChars reports whether the raw term contains only letters,
// digits, hyphens, and whitespace. Diacritics count as letters.
func hasAllowedChars(raw string) bool {
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || unicode.IsSpace(r) {
			continue
		}
		return false
	}
	return true
}
