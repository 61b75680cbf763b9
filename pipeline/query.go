package pipeline

import (
	"strconv"
	"time"

	"github.com/poiesic/editais/cache"
	"github.com/poiesic/editais/core"
	"github.com/poiesic/editais/relevance"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500

	// maxDateRange bounds one query's fetch window; wider sweeps should be
	// issued as several queries so source pagination stays sane.
	maxDateRange = 366 * 24 * time.Hour
)

// Query is one incoming search request.
type Query struct {
	DateFrom time.Time
	DateTo   time.Time

	// States restricts the regions fetched; empty means nationwide.
	States []string

	// Sector names a configured keyword rule set. Optional when Terms are
	// given.
	Sector string

	// Terms are free-text search terms added to the sector's keywords.
	Terms []string

	Exclusions []string

	MinValue float64
	MaxValue float64
	Modality string

	// Statuses filters by inferred status. Records whose status could not
	// be inferred are always kept.
	Statuses []core.Status

	Page     int
	PageSize int

	// RequestedBy identifies the caller for quota accounting. Not part of
	// the cache identity.
	RequestedBy string
}

// Validate normalizes the query in place and rejects malformed input.
func (q *Query) Validate() error {
	if q.DateFrom.IsZero() || q.DateTo.IsZero() {
		return &ValidationError{Field: "dateRange", Reason: "is required"}
	}
	if q.DateTo.Before(q.DateFrom) {
		return &ValidationError{Field: "dateRange", Reason: "ends before it starts"}
	}
	if q.DateTo.Sub(q.DateFrom) > maxDateRange {
		return &ValidationError{Field: "dateRange", Reason: "spans more than one year"}
	}
	if q.MinValue < 0 || q.MaxValue < 0 {
		return &ValidationError{Field: "valueRange", Reason: "is negative"}
	}
	if q.MaxValue > 0 && q.MinValue > q.MaxValue {
		return &ValidationError{Field: "valueRange", Reason: "has min above max"}
	}
	if q.Sector == "" && len(q.Terms) == 0 {
		return &ValidationError{Field: "sector", Reason: "or search terms are required"}
	}

	normalized := make([]string, 0, len(q.States))
	for _, s := range q.States {
		code := core.NormalizeStateCode(s)
		if code == "" {
			return &ValidationError{Field: "states", Reason: "contains invalid code " + strconv.Quote(s)}
		}
		normalized = append(normalized, code)
	}
	q.States = normalized

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	return nil
}

// validTerms splits free-text terms into usable and ignored sets.
func (q *Query) validTerms() relevance.TermValidation {
	return relevance.ValidateTerms(q.Terms)
}

// CacheKey derives the stable cache identity of the query. Pagination and
// caller identity are deliberately excluded: pages are cut from one cached
// result set.
func (q *Query) CacheKey() string {
	statuses := make([]string, len(q.Statuses))
	for i, s := range q.Statuses {
		statuses[i] = s.String()
	}
	return cache.KeyFor(
		q.DateFrom.Format("2006-01-02"),
		q.DateTo.Format("2006-01-02"),
		cache.SortedSet(q.States),
		q.Sector,
		cache.SortedSet(q.Terms),
		cache.SortedSet(q.Exclusions),
		strconv.FormatInt(int64(q.MinValue), 10),
		strconv.FormatInt(int64(q.MaxValue), 10),
		q.Modality,
		cache.SortedSet(statuses),
	)
}
