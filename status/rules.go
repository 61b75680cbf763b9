package status

import (
	"strings"
	"time"

	"github.com/poiesic/editais/core"
	"github.com/poiesic/editais/relevance"
)

// stalePublishAge is the age past which a still-open close date is treated
// as inconsistent source data rather than a genuinely open opportunity.
const stalePublishAge = 90 * 24 * time.Hour

// rule is one classification step. Evaluated in order; the first rule whose
// match function returns a non-unknown status wins.
type rule struct {
	name  string
	match func(rec *core.Record, now time.Time) core.Status
}

// rules is the full ordered classifier. The order is the contract:
// an awarded value beats every textual signal, the proposals-closed phrase
// beats the generic terminal keywords, and timestamps beat the looser
// open/judgment keyword tables.
var rules = []rule{
	{"homologated value", matchHomologatedValue},
	{"proposals closed phrase", matchProposalsClosedPhrase},
	{"terminal keyword", matchTerminalKeyword},
	{"open and close timestamps", matchFullWindow},
	{"close timestamp only", matchCloseOnly},
	{"judgment keyword", matchJudgmentKeyword},
	{"open keyword", matchOpenKeyword},
}

// Classify infers the lifecycle state of a record at the given instant.
// Returns core.StatusUnknown when no rule matches; unknown records must not
// be filtered out by callers.
func Classify(rec *core.Record, now time.Time) core.Status {
	for _, r := range rules {
		if status := r.match(rec, now); status != core.StatusUnknown {
			return status
		}
	}
	return core.StatusUnknown
}

func matchHomologatedValue(rec *core.Record, _ time.Time) core.Status {
	if rec.HomologatedValue != nil && *rec.HomologatedValue > 0 {
		return core.StatusClosed
	}
	return core.StatusUnknown
}

func matchProposalsClosedPhrase(rec *core.Record, _ time.Time) core.Status {
	if containsAny(rec.SituationText, proposalsClosedPhrases) {
		return core.StatusUnderJudgment
	}
	return core.StatusUnknown
}

func matchTerminalKeyword(rec *core.Record, _ time.Time) core.Status {
	if containsAny(rec.SituationText, terminalKeywords) {
		return core.StatusClosed
	}
	return core.StatusUnknown
}

func matchFullWindow(rec *core.Record, now time.Time) core.Status {
	if rec.ProposalOpensAt == nil || rec.ProposalClosesAt == nil {
		return core.StatusUnknown
	}
	if now.Before(*rec.ProposalClosesAt) {
		return core.StatusAcceptingProposals
	}
	return core.StatusUnderJudgment
}

func matchCloseOnly(rec *core.Record, now time.Time) core.Status {
	if rec.ProposalClosesAt == nil || rec.ProposalOpensAt != nil {
		return core.StatusUnknown
	}
	if !now.Before(*rec.ProposalClosesAt) {
		return core.StatusUnderJudgment
	}
	// Future close date with an old publish date is stale source data.
	if rec.PublishedAt != nil && now.Sub(*rec.PublishedAt) > stalePublishAge {
		return core.StatusUnderJudgment
	}
	return core.StatusAcceptingProposals
}

func matchJudgmentKeyword(rec *core.Record, _ time.Time) core.Status {
	if containsAny(rec.SituationText, judgmentKeywords) {
		return core.StatusUnderJudgment
	}
	return core.StatusUnknown
}

func matchOpenKeyword(rec *core.Record, _ time.Time) core.Status {
	if containsAny(rec.SituationText, openKeywords) {
		return core.StatusAcceptingProposals
	}
	return core.StatusUnknown
}

func containsAny(situation string, terms []string) bool {
	if situation == "" {
		return false
	}
	norm := relevance.NormalizeText(situation)
	if norm == "" {
		return false
	}
	for _, term := range terms {
		if strings.Contains(norm, term) {
			return true
		}
	}
	return false
}
