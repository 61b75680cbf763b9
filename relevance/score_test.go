package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreRelevance(t *testing.T) {
	assert.Equal(t, 0.0, ScoreRelevance(0, 0, 0), "zero terms scores zero")
	assert.Equal(t, 0.0, ScoreRelevance(3, 0, 1), "zero terms scores zero even with matches")
	assert.InDelta(t, 0.5, ScoreRelevance(2, 4, 0), 1e-9)
	assert.InDelta(t, 0.65, ScoreRelevance(2, 4, 1), 1e-9, "each phrase adds 0.15")
	assert.Equal(t, 1.0, ScoreRelevance(10, 10, 3), "score is capped at 1.0")
}

func TestScoreRelevance_Monotonic(t *testing.T) {
	const total = 8

	// Non-decreasing in matched count and in phrase count, always <= 1.
	for phrases := 0; phrases <= 4; phrases++ {
		prev := -1.0
		for matched := 0; matched <= total; matched++ {
			score := ScoreRelevance(matched, total, phrases)
			assert.GreaterOrEqual(t, score, prev, "matched=%d phrases=%d", matched, phrases)
			assert.LessOrEqual(t, score, 1.0)
			prev = score
		}
	}
	for matched := 0; matched <= total; matched++ {
		prev := -1.0
		for phrases := 0; phrases <= 4; phrases++ {
			score := ScoreRelevance(matched, total, phrases)
			assert.GreaterOrEqual(t, score, prev, "matched=%d phrases=%d", matched, phrases)
			prev = score
		}
	}
}

func TestMinMatchesRequired(t *testing.T) {
	tests := []struct {
		total, want int
	}{
		{0, 0}, {1, 1}, {2, 1}, {3, 1},
		{4, 2}, {6, 2},
		{7, 3}, {12, 3}, {13, 3}, {100, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MinMatchesRequired(tt.total), "total=%d", tt.total)
	}
}

func TestShouldInclude(t *testing.T) {
	assert.False(t, ShouldInclude(1, 7, false), "below threshold")
	assert.True(t, ShouldInclude(3, 7, false), "meets threshold")
	assert.True(t, ShouldInclude(1, 7, true), "a phrase match overrides a low count")
	assert.True(t, ShouldInclude(0, 13, true), "a phrase match overrides even a zero count")
	assert.True(t, ShouldInclude(0, 0, false), "no keywords configured includes everything")
}
