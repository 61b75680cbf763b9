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


// Package consolidate fans a fetch out to every registered source adapter,
// tolerates partial failure, and merges the streams into a single
// deduplicated result set.
package consolidate

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/editais/core"
	"github.com/poiesic/editais/source"
)

const defaultPerSourceTimeout = 45 * time.Second

// SourceReport describes the outcome of one source within a run.
type SourceReport struct {
	Source   core.SourceName
	Count    int
	Duration time.Duration
	Err      error
}

// Failed reports whether this source contributed nothing usable.
func (r SourceReport) Failed() bool {
	return r.Err != nil && r.Count == 0
}

// Result is a consolidated, deduplicated record set with per-source
// accounting.
type Result struct {
	Records          []core.Record
	Reports          []SourceReport
	TotalBeforeDedup int
	TotalAfterDedup  int

	// Partial is true when at least one source failed but others delivered.
	Partial bool
}

// Service runs consolidation over a fixed adapter set.
type Service struct {
	adapters         []source.Adapter
	pool             *ants.Pool
	timeout          time.Duration
	failOnAllSources bool
	logger           *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPerSourceTimeout bounds each adapter's fetch independently, so one
// slow source cannot exhaust the whole run's deadline.
func WithPerSourceTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithPool runs adapter fetches on a shared worker pool instead of raw
// goroutines. The pool is caller-owned.
func WithPool(pool *ants.Pool) Option {
	return func(s *Service) { s.pool = pool }
}

// WithFailOnAllSources controls the outcome when every source fails.
// When true (the default) Run returns an AllSourcesFailedError, letting the
// caller fall back to stale cache. When false Run returns an empty result,
// which callers surface as "no opportunities found".
func WithFailOnAllSources(fail bool) Option {
	return func(s *Service) { s.failOnAllSources = fail }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a consolidation service over the given adapters.
func New(adapters []source.Adapter, opts ...Option) *Service {
	s := &Service{
		adapters:         adapters,
		timeout:          defaultPerSourceTimeout,
		failOnAllSources: true,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type sourceFetch struct {
	meta    core.SourceMetadata
	records []core.Record
	report  SourceReport
}

// Run fetches from every adapter concurrently and merges the results.
// A source that fails is reported and skipped; the run errors only when
// every source failed or the parent context ended.
func (s *Service) Run(ctx context.Context, req source.FetchRequest) (*Result, error) {
	if len(s.adapters) == 0 {
		return nil, ErrNoAdapters
	}

	fetches := make([]sourceFetch, len(s.adapters))
	var wg sync.WaitGroup
	for i, adapter := range s.adapters {
		i, adapter := i, adapter
		wg.Add(1)
		task := func() {
			defer wg.Done()
			fetches[i] = s.fetchOne(ctx, adapter, req)
		}
		if s.pool != nil {
			if err := s.pool.Submit(task); err != nil {
				wg.Done()
				fetches[i] = sourceFetch{
					meta:   adapter.Metadata(),
					report: SourceReport{Source: adapter.Metadata().Code, Err: err},
				}
			}
		} else {
			go task()
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.merge(fetches)
}

// fetchOne drains a single adapter under its own deadline. A failed source
// contributes zero records: anything streamed before a mid-fetch timeout or
// error is discarded, so an incomplete page can never shadow a complete
// record from a healthier source during dedup.
func (s *Service) fetchOne(ctx context.Context, adapter source.Adapter, req source.FetchRequest) sourceFetch {
	meta := adapter.Metadata()
	fctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	records, errs := adapter.Fetch(fctx, req)
	fetched, err := source.Drain(records, errs)
	elapsed := time.Since(start)

	var valid []core.Record
	for i := range fetched {
		if verr := core.ValidateRecord(&fetched[i]); verr != nil {
			s.logger.Warn("dropping invalid record",
				"source", meta.Code, "sourceID", fetched[i].SourceID, "err", verr)
			continue
		}
		valid = append(valid, fetched[i])
	}

	if err != nil {
		s.logger.Warn("source fetch failed",
			"source", meta.Code, "discarded", len(valid), "duration", elapsed, "err", err)
		valid = nil
	} else {
		s.logger.Debug("source fetch done",
			"source", meta.Code, "count", len(valid), "duration", elapsed)
	}

	return sourceFetch{
		meta:    meta,
		records: valid,
		report: SourceReport{
			Source:   meta.Code,
			Count:    len(valid),
			Duration: elapsed,
			Err:      err,
		},
	}
}

// merge concatenates the per-source batches in trust order and drops
// duplicates. The first occurrence of a key wins, so a higher-priority
// source always beats a lower one and order within a source is preserved.
func (s *Service) merge(fetches []sourceFetch) (*Result, error) {
	// Stable sort keeps registration order for equal priorities.
	sort.SliceStable(fetches, func(i, j int) bool {
		return fetches[i].meta.Priority < fetches[j].meta.Priority
	})

	result := &Result{}
	var failures []error
	seen := make(map[core.DedupKey]struct{})

	for _, fetch := range fetches {
		result.Reports = append(result.Reports, fetch.report)
		if fetch.report.Err != nil {
			result.Partial = true
			if fetch.report.Failed() {
				failures = append(failures, fetch.report.Err)
			}
		}

		result.TotalBeforeDedup += len(fetch.records)
		for i := range fetch.records {
			key := fetch.records[i].DedupKey()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			result.Records = append(result.Records, fetch.records[i])
		}
	}
	result.TotalAfterDedup = len(result.Records)

	if len(failures) == len(fetches) && s.failOnAllSources {
		return nil, &AllSourcesFailedError{Errs: failures}
	}
	return result, nil
}
