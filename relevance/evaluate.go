package relevance

// Match-path names recorded on accepted records.
const (
	MatchSourcePhrase  = "phrase"
	MatchSourceKeyword = "keyword"
	MatchSourceBroad   = "broad"
)

// Confidence assigned per match path. Exact phrase matches rank highest,
// then keyword matches scaled by how much of the set they cover. Broad
// acceptances are handled by ClampBroadConfidence.
const (
	confidencePhrase      = 95
	confidenceFullKeyword = 90
	confidenceKeywordBase = 60
	confidenceKeywordSpan = 30
)

// Evaluation is the outcome of matching one record's text against a keyword
// set.
type Evaluation struct {
	Included    bool
	Matched     []string
	PhraseCount int
	Score       float64
	Confidence  int
	MatchSource string
}

// Evaluate runs the full keyword decision for one text: match, threshold
// check, relevance score, and confidence assignment.
func Evaluate(text string, keywords, exclusions []string) Evaluation {
	_, matched := MatchKeywords(text, keywords, exclusions)
	phrases := PhraseCount(matched)

	eval := Evaluation{
		Matched:     matched,
		PhraseCount: phrases,
		Score:       ScoreRelevance(len(matched), len(keywords), phrases),
	}

	if !ShouldInclude(len(matched), len(keywords), phrases > 0) {
		return eval
	}

	eval.Included = true
	switch {
	case phrases > 0:
		eval.Confidence = confidencePhrase
		eval.MatchSource = MatchSourcePhrase
	case len(matched) == len(keywords) && len(keywords) > 0:
		eval.Confidence = confidenceFullKeyword
		eval.MatchSource = MatchSourceKeyword
	case len(matched) > 0:
		coverage := float64(len(matched)) / float64(len(keywords))
		eval.Confidence = confidenceKeywordBase + int(confidenceKeywordSpan*coverage)
		eval.MatchSource = MatchSourceKeyword
	default:
		// No keywords configured: everything passes as a broad acceptance.
		eval.Confidence = ClampBroadConfidence(BroadMatchCap)
		eval.MatchSource = MatchSourceBroad
	}

	return eval
}
