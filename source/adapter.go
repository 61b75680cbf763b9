package source

import (
	"context"
	"time"

	"github.com/poiesic/editais/core"
)

// Health is the reachability state reported by an adapter's health check.
type Health int

const (
	// HealthAvailable means the portal responded normally.
	HealthAvailable Health = iota
	// HealthDegraded means the portal responded but slowly or partially.
	HealthDegraded
	// HealthUnavailable means the portal could not be reached.
	HealthUnavailable
)

// String returns the health name in lowercase.
func (h Health) String() string {
	switch h {
	case HealthAvailable:
		return "available"
	case HealthDegraded:
		return "degraded"
	default:
		return "unavailable"
	}
}

// FetchRequest describes one fetch against a portal.
type FetchRequest struct {
	DateFrom time.Time
	DateTo   time.Time
	// States restricts the fetch to the given two-letter state codes.
	// Empty means all states.
	States []string
	// Modality restricts to one procurement modality. Empty means all.
	Modality string
}

// Adapter is the uniform contract every portal implements.
//
// Fetch returns a record stream and an error channel. The adapter closes
// both when the fetch finishes; at most one terminal error is sent on the
// error channel. Cancelling the context stops the fetch and closes the
// stream. Records failing normalization are skipped with a ParseError
// logged, never streamed.
type Adapter interface {
	Metadata() core.SourceMetadata
	Fetch(ctx context.Context, req FetchRequest) (<-chan core.Record, <-chan error)
	HealthCheck(ctx context.Context) Health
}

// Drain collects a full adapter stream into a slice, returning the terminal
// error if the adapter reported one.
func Drain(records <-chan core.Record, errs <-chan error) ([]core.Record, error) {
	var out []core.Record
	for rec := range records {
		out = append(out, rec)
	}
	return out, <-errs
}
