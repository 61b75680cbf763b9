package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate_PhrasePath(t *testing.T) {
	eval := Evaluate("Fornecimento de merenda escolar", []string{"merenda escolar", "uniformes", "livros", "transporte", "mobiliario", "informatica", "limpeza"}, nil)

	assert.True(t, eval.Included, "one phrase match overrides the 3-of-7 threshold")
	assert.Equal(t, MatchSourcePhrase, eval.MatchSource)
	assert.Equal(t, confidencePhrase, eval.Confidence)
	assert.Equal(t, 1, eval.PhraseCount)
}

func TestEvaluate_KeywordPath(t *testing.T) {
	eval := Evaluate("Aquisição de uniformes e livros e transporte", []string{"merenda", "uniformes", "livros", "transporte", "mobiliario", "informatica", "limpeza"}, nil)

	assert.True(t, eval.Included)
	assert.Equal(t, MatchSourceKeyword, eval.MatchSource)
	assert.GreaterOrEqual(t, eval.Confidence, 50)
	assert.Less(t, eval.Confidence, confidencePhrase)
}

func TestEvaluate_BelowThreshold(t *testing.T) {
	eval := Evaluate("Aquisição de uniformes", []string{"merenda", "uniformes", "livros", "transporte", "mobiliario", "informatica", "limpeza"}, nil)

	assert.False(t, eval.Included, "1 of 7 does not meet the minimum of 3")
	assert.Equal(t, []string{"uniformes"}, eval.Matched)
	assert.Zero(t, eval.Confidence)
}

func TestEvaluate_NoKeywordsIsBroad(t *testing.T) {
	eval := Evaluate("qualquer objeto", nil, nil)

	assert.True(t, eval.Included)
	assert.Equal(t, MatchSourceBroad, eval.MatchSource)
	assert.LessOrEqual(t, eval.Confidence, BroadMatchCap)
	assert.Zero(t, eval.Score, "no terms means zero relevance score")
}
