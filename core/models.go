package core

import "time"

// SourceName identifies a procurement portal.
type SourceName string

const (
	// SourcePNCP is the official federal procurement portal (highest trust).
	SourcePNCP SourceName = "pncp"
	// SourceComprasGov is the federal purchasing portal.
	SourceComprasGov SourceName = "comprasgov"
	// SourceLicitanet is a commercial aggregation portal.
	SourceLicitanet SourceName = "licitanet"
)

// Sphere is the level of government that published an opportunity.
type Sphere int

const (
	// SphereUnknown means the source did not report a government sphere.
	SphereUnknown Sphere = iota
	// SphereFederal represents the federal government.
	SphereFederal
	// SphereState represents a state government.
	SphereState
	// SphereMunicipal represents a municipal government.
	SphereMunicipal
)

// String returns the sphere name in lowercase.
func (s Sphere) String() string {
	switch s {
	case SphereFederal:
		return "federal"
	case SphereState:
		return "state"
	case SphereMunicipal:
		return "municipal"
	default:
		return "unknown"
	}
}

// Status is the canonical lifecycle state of an opportunity.
type Status int

const (
	// StatusUnknown means no classification rule matched. Callers must not
	// filter out unknown records.
	StatusUnknown Status = iota
	// StatusAcceptingProposals means the submission window is open or upcoming.
	StatusAcceptingProposals
	// StatusUnderJudgment means submissions closed and evaluation is ongoing.
	StatusUnderJudgment
	// StatusClosed means the process reached a terminal state.
	StatusClosed
)

// String returns the status name in snake_case.
func (s Status) String() string {
	switch s {
	case StatusAcceptingProposals:
		return "accepting_proposals"
	case StatusUnderJudgment:
		return "under_judgment"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Capability is a bitmask of server-side features a portal supports.
type Capability uint8

const (
	// CapStateFilter means the portal filters by state code server-side.
	CapStateFilter Capability = 1 << iota
	// CapValueFilter means the portal filters by estimated value server-side.
	CapValueFilter
	// CapKeywordFilter means the portal filters by keyword server-side.
	CapKeywordFilter
	// CapPagination means the portal paginates results.
	CapPagination
	// CapDateRange means the portal filters by publication date range.
	CapDateRange
)

// Has reports whether all bits of flag are set.
func (c Capability) Has(flag Capability) bool {
	return c&flag == flag
}

// SourceMetadata is the static configuration of one portal adapter.
type SourceMetadata struct {
	Name               string
	Code               SourceName
	BaseURL            string
	Capabilities       Capability
	RateLimitPerSecond float64
	// Priority is the dedup tie-break: lower value wins.
	Priority int
}

// Record is the canonical procurement opportunity.
//
// Core fields are immutable after the adapter produces the record. The
// derived fields at the bottom are filled in place by later pipeline stages
// and are never part of the source payload.
type Record struct {
	// SourceID is the opaque, source-scoped identifier of the raw record.
	SourceID string
	Source   SourceName

	Object           string
	EstimatedValue   float64  // non-negative, 0 when the source omits it
	HomologatedValue *float64 // final awarded value, nil until award
	AgencyName       string
	AgencyTaxID      string // digits only, see NormalizeTaxID
	StateCode        string // 2-letter, upper-cased
	Municipality     string

	PublishedAt      *time.Time
	ProposalOpensAt  *time.Time
	ProposalClosesAt *time.Time

	NoticeNumber  string
	Year          int
	Modality      string
	SituationText string // raw source status string
	Sphere        Sphere
	NoticeURL     string
	PortalURL     string

	// Raw is the original source payload, retained for debugging and audit
	// only. Business logic must never read it.
	Raw []byte `json:"-"`

	// Derived fields, attached during pipeline stages.
	InferredStatus  Status
	RelevanceScore  float64
	ConfidenceScore int
	MatchedKeywords []string
	MatchSource     string
}
