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


// Package pipeline orchestrates one query end to end: quota gate, cache
// lookup, multi-source consolidation, status inference, keyword filtering,
// confidence re-ranking, and the cache write-back.
package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/editais/cache"
	"github.com/poiesic/editais/config"
	"github.com/poiesic/editais/consolidate"
	"github.com/poiesic/editais/core"
	"github.com/poiesic/editais/relevance"
	"github.com/poiesic/editais/source"
	"github.com/poiesic/editais/status"
)

// Freshness tags on a response.
const (
	FreshnessLive        = "live"
	FreshnessCachedFresh = "cached_fresh"
	FreshnessCachedStale = "cached_stale"
)

const defaultGlobalTimeout = 2 * time.Minute

// Consolidator is the fan-out stage contract, satisfied by
// *consolidate.Service.
type Consolidator interface {
	Run(ctx context.Context, req source.FetchRequest) (*consolidate.Result, error)
}

// Response is the caller-facing result of one query.
type Response struct {
	Records []core.Record `json:"records"`

	// Count is the total matching record count before pagination.
	Count      int     `json:"count"`
	TotalValue float64 `json:"totalValue"`

	CoveragePercent float64           `json:"coveragePercent"`
	SourceBreakdown map[string]string `json:"sourceBreakdown"`
	Freshness       string            `json:"freshness"`

	// IgnoredTerms lists free-text terms that were dropped during
	// validation, with the reason each was dropped.
	IgnoredTerms []relevance.IgnoredTerm `json:"ignoredTerms,omitempty"`

	Page          int    `json:"page"`
	PageSize      int    `json:"pageSize"`
	CorrelationID string `json:"correlationId"`
}

// Pipeline runs queries. Construct with New; all dependencies are
// explicit, nothing is package-level state.
type Pipeline struct {
	consolidator Consolidator
	cache        *cache.Tiered
	sectors      []config.SectorConfig
	quota        QuotaChecker
	telemetry    Telemetry
	timeout      time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithQuotaChecker installs a quota gate. Default allows everything.
func WithQuotaChecker(qc QuotaChecker) Option {
	return func(p *Pipeline) {
		if qc != nil {
			p.quota = qc
		}
	}
}

// WithTelemetry installs a fire-and-forget event sink. Default is a noop.
func WithTelemetry(t Telemetry) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.telemetry = t
		}
	}
}

// WithGlobalTimeout bounds one whole run.
func WithGlobalTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// withClock overrides time for tests.
func withClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a pipeline over the consolidation service and the tiered
// cache. Sectors supply the named keyword rule sets queries refer to.
func New(consolidator Consolidator, tiered *cache.Tiered, sectors []config.SectorConfig, opts ...Option) (*Pipeline, error) {
	if consolidator == nil {
		return nil, errors.New("consolidator required")
	}
	if tiered == nil {
		return nil, errors.New("tiered cache required")
	}
	p := &Pipeline{
		consolidator: consolidator,
		cache:        tiered,
		sectors:      sectors,
		quota:        allowAll{},
		telemetry:    noopTelemetry{},
		timeout:      defaultGlobalTimeout,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run executes one query. Errors are always *APIError.
func (p *Pipeline) Run(ctx context.Context, q *Query) (*Response, error) {
	return p.RunWithMonitor(ctx, q, nil)
}

// RunWithMonitor executes one query with stage callbacks.
func (p *Pipeline) RunWithMonitor(ctx context.Context, q *Query, monitor Monitor) (*Response, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	correlationID := newCorrelationID()
	logger := p.logger.With("correlationId", correlationID)

	if err := q.Validate(); err != nil {
		return nil, toAPIError(err, correlationID)
	}
	keywords, exclusions, ttl, err := p.resolveRules(q)
	if err != nil {
		return nil, toAPIError(err, correlationID)
	}
	if err := p.quota.Check(ctx, q.RequestedBy); err != nil {
		return nil, toAPIError(err, correlationID)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	monitor.Start(q)
	key := q.CacheKey()

	cached, cacheStatus, lookupErr := p.cache.Lookup(ctx, key, ttl)
	if lookupErr == nil {
		monitor.CacheHit(key, cacheStatus)
		switch {
		case cacheStatus == cache.StatusFresh:
			p.telemetry.Emit("cache", "served fresh entry", map[string]any{"key": key})
			return p.respond(q, cached, FreshnessCachedFresh, correlationID, monitor), nil
		case p.cache.SuppressRefetch(cached):
			// The entry is inside its degradation window; serve what we have
			// and let the window elapse.
			monitor.ServedStale(key)
			p.telemetry.Emit("cache", "served degraded entry", map[string]any{"key": key})
			return p.respond(q, cached, FreshnessCachedStale, correlationID, monitor), nil
		}
	} else {
		monitor.CacheMiss(key)
	}

	fresh, fetchErr := p.cache.DoOnce(key, func() (*cache.Entry, error) {
		return p.refresh(ctx, q, key, keywords, exclusions, monitor)
	})
	if fetchErr != nil {
		p.cache.MarkFailure(ctx, key)
		p.telemetry.Emit("refresh", "refresh failed", map[string]any{"key": key, "err": fetchErr.Error()})
		if cached != nil {
			logger.Warn("refresh failed, serving stale entry", "key", key, "err", fetchErr)
			monitor.ServedStale(key)
			return p.respond(q, cached, FreshnessCachedStale, correlationID, monitor), nil
		}
		logger.Error("pipeline run failed", "key", key, "err", fetchErr)
		return nil, toAPIError(fetchErr, correlationID)
	}

	return p.respond(q, fresh, FreshnessLive, correlationID, monitor), nil
}

// resolveRules merges the sector's keyword set with the query's free-text
// terms. An unknown sector is a validation failure; ignored terms are not.
func (p *Pipeline) resolveRules(q *Query) (keywords, exclusions []string, ttl time.Duration, err error) {
	if q.Sector != "" {
		var found bool
		for _, s := range p.sectors {
			if s.Name == q.Sector {
				keywords = append(keywords, s.Keywords...)
				exclusions = append(exclusions, s.Exclusions...)
				ttl = s.StalenessTTL()
				found = true
				break
			}
		}
		if !found {
			return nil, nil, 0, &ValidationError{Field: "sector", Reason: "is unknown"}
		}
	}

	keywords = append(keywords, q.validTerms().Valid...)
	exclusions = append(exclusions, q.Exclusions...)
	return keywords, exclusions, ttl, nil
}

// refresh performs the live path: consolidate, infer status, filter,
// re-rank, and write the entry back through the cache.
func (p *Pipeline) refresh(ctx context.Context, q *Query, key string, keywords, exclusions []string, monitor Monitor) (*cache.Entry, error) {
	result, err := p.consolidator.Run(ctx, source.FetchRequest{
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
		States:   q.States,
		Modality: q.Modality,
	})
	if err != nil {
		return nil, err
	}
	monitor.AfterConsolidation(result)

	now := p.now()
	kept := make([]*core.Record, 0, len(result.Records))
	for i := range result.Records {
		rec := &result.Records[i]
		rec.InferredStatus = status.Classify(rec, now)

		if !p.admit(q, rec, keywords, exclusions) {
			continue
		}
		kept = append(kept, rec)
	}
	monitor.AfterFiltering(len(kept), len(result.Records)-len(kept))
	p.telemetry.Emit("filter", "records admitted", map[string]any{
		"kept":    len(kept),
		"dropped": len(result.Records) - len(kept),
	})

	relevance.RankByConfidence(kept)

	records := make([]core.Record, len(kept))
	for i, rec := range kept {
		records[i] = *rec
	}

	entry := &cache.Entry{
		Key:      key,
		Records:  records,
		Coverage: coverageFrom(result),
	}
	p.cache.Write(ctx, entry)
	return entry, nil
}

// admit applies keyword relevance, the value window, and the status filter
// to one record, enriching its derived fields when it passes.
func (p *Pipeline) admit(q *Query, rec *core.Record, keywords, exclusions []string) bool {
	eval := relevance.Evaluate(rec.Object, keywords, exclusions)
	if !eval.Included {
		return false
	}

	// Portals only narrow by state upstream when a single-state parameter
	// fits their API, so multi-state queries fetch wider and are narrowed
	// here. Records without a state code are kept rather than guessed at.
	if len(q.States) > 0 && rec.StateCode != "" && !slices.Contains(q.States, rec.StateCode) {
		return false
	}

	if q.MinValue > 0 && rec.EstimatedValue < q.MinValue {
		return false
	}
	if q.MaxValue > 0 && rec.EstimatedValue > q.MaxValue {
		return false
	}
	if len(q.Statuses) > 0 &&
		rec.InferredStatus != core.StatusUnknown &&
		!slices.Contains(q.Statuses, rec.InferredStatus) {
		return false
	}

	rec.RelevanceScore = eval.Score
	rec.ConfidenceScore = eval.Confidence
	rec.MatchedKeywords = eval.Matched
	rec.MatchSource = eval.MatchSource
	return true
}

// respond cuts the requested page from an entry and assembles the summary
// aggregates.
func (p *Pipeline) respond(q *Query, entry *cache.Entry, freshness, correlationID string, monitor Monitor) *Response {
	all := entry.Records

	var total float64
	for i := range all {
		total += all[i].EstimatedValue
	}

	start := (q.Page - 1) * q.PageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + q.PageSize
	if end > len(all) {
		end = len(all)
	}

	resp := &Response{
		Records:         all[start:end],
		Count:           len(all),
		TotalValue:      total,
		CoveragePercent: entry.Coverage.Percent(),
		SourceBreakdown: entry.Coverage.Breakdown,
		Freshness:       freshness,
		IgnoredTerms:    q.validTerms().Ignored,
		Page:            q.Page,
		PageSize:        q.PageSize,
		CorrelationID:   correlationID,
	}
	monitor.Finish(resp)
	return resp
}

// coverageFrom condenses the per-source reports into the coverage shape
// stored on the cache entry.
func coverageFrom(result *consolidate.Result) cache.Coverage {
	cov := cache.Coverage{Breakdown: make(map[string]string, len(result.Reports))}
	for _, report := range result.Reports {
		name := string(report.Source)
		cov.Requested = append(cov.Requested, name)
		switch {
		case report.Err == nil:
			cov.Succeeded = append(cov.Succeeded, name)
			cov.Breakdown[name] = "ok"
		case errors.Is(report.Err, context.DeadlineExceeded):
			cov.Breakdown[name] = "timeout"
		default:
			cov.Breakdown[name] = "error"
		}
	}
	return cov
}

func newCorrelationID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(buf)
}
