package relevance

import (
	"slices"

	"github.com/poiesic/editais/core"
)

// Band is a confidence band used for re-ranking. Lower ordinal sorts first.
type Band int

const (
	// BandHigh holds records with confidence >= 80.
	BandHigh Band = iota + 1
	// BandMedium holds records with confidence in [50, 80).
	BandMedium
	// BandLow holds records with confidence < 50.
	BandLow
)

// String returns the band name in lowercase.
func (b Band) String() string {
	switch b {
	case BandHigh:
		return "high"
	case BandMedium:
		return "medium"
	default:
		return "low"
	}
}

// BandFor maps a confidence score (0-100) to its band.
func BandFor(confidence int) Band {
	switch {
	case confidence >= 80:
		return BandHigh
	case confidence >= 50:
		return BandMedium
	default:
		return BandLow
	}
}

// BroadMatchCap is the ceiling for records accepted without any keyword
// match. Whatever an upstream scorer proposed, a zero-keyword acceptance
// can never rank alongside exact matches.
const BroadMatchCap = 70

// ClampBroadConfidence caps a proposed confidence for the zero-keyword-match
// acceptance path.
func ClampBroadConfidence(proposed int) int {
	if proposed > BroadMatchCap {
		return BroadMatchCap
	}
	if proposed < 0 {
		return 0
	}
	return proposed
}

// RankByConfidence orders records in place: by band first (high before
// medium before low), then by confidence score descending within a band,
// then by estimated value descending as the final tie-break. The sort is
// stable, so equally-scored records keep their arrival order.
func RankByConfidence(records []*core.Record) {
	slices.SortStableFunc(records, func(a, b *core.Record) int {
		bandA, bandB := BandFor(a.ConfidenceScore), BandFor(b.ConfidenceScore)
		if bandA != bandB {
			return int(bandA) - int(bandB)
		}
		if a.ConfidenceScore != b.ConfidenceScore {
			return b.ConfidenceScore - a.ConfidenceScore
		}
		switch {
		case a.EstimatedValue > b.EstimatedValue:
			return -1
		case a.EstimatedValue < b.EstimatedValue:
			return 1
		default:
			return 0
		}
	})
}
