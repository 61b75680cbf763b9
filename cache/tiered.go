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


package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultTTL           = 15 * time.Minute
	defaultFailThreshold = 3
	defaultDegradeWindow = 5 * time.Minute
)

// Tiered consults its tiers fastest-first and keeps them coherent:
// read-through promotion on hit, write-through on store. Tier failures are
// logged and absorbed; the next tier or a live fetch covers for them.
type Tiered struct {
	tiers         []Tier
	ttl           time.Duration
	failThreshold int
	degradeWindow time.Duration
	logger        *slog.Logger

	mu     sync.Mutex
	flight map[string]*flightCall
}

// TieredOption configures the orchestrator.
type TieredOption func(*Tiered)

// WithDefaultTTL sets the staleness threshold used when a lookup does not
// carry its own.
func WithDefaultTTL(ttl time.Duration) TieredOption {
	return func(t *Tiered) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// WithFailThreshold sets how many consecutive refresh failures degrade an
// entry.
func WithFailThreshold(n int) TieredOption {
	return func(t *Tiered) {
		if n > 0 {
			t.failThreshold = n
		}
	}
}

// WithDegradeWindow sets how long refetches stay suppressed once an entry
// degrades.
func WithDegradeWindow(d time.Duration) TieredOption {
	return func(t *Tiered) {
		if d > 0 {
			t.degradeWindow = d
		}
	}
}

// WithTieredLogger sets the structured logger.
func WithTieredLogger(logger *slog.Logger) TieredOption {
	return func(t *Tiered) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTiered assembles the cache over the given tiers, fastest first.
func NewTiered(tiers []Tier, opts ...TieredOption) *Tiered {
	t := &Tiered{
		tiers:         tiers,
		ttl:           defaultTTL,
		failThreshold: defaultFailThreshold,
		degradeWindow: defaultDegradeWindow,
		logger:        slog.Default(),
		flight:        make(map[string]*flightCall),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Lookup finds the entry for a key, searching tiers fastest-first. A hit
// in a slower tier populates every faster tier. The returned status uses
// ttl as the staleness threshold; a non-positive ttl falls back to the
// configured default. Misses return ErrNotFound.
func (t *Tiered) Lookup(ctx context.Context, key string, ttl time.Duration) (*Entry, Status, error) {
	if ttl <= 0 {
		ttl = t.ttl
	}
	now := time.Now()

	for i, tier := range t.tiers {
		entry, err := tier.Get(ctx, key)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				t.logger.Warn("cache tier read failed", "tier", tier.Name(), "key", key, "err", err)
			}
			continue
		}

		// Copy before touching so concurrent readers of the same pointer
		// never observe a half-updated entry.
		touched := *entry
		touched.Touch(now)

		// Write the refreshed bookkeeping back through this tier and
		// populate every faster one.
		for j := i; j >= 0; j-- {
			if err := t.tiers[j].Set(ctx, &touched); err != nil {
				t.logger.Warn("cache tier promote failed", "tier", t.tiers[j].Name(), "key", key, "err", err)
			}
		}

		return &touched, touched.StatusAt(now, ttl), nil
	}

	return nil, StatusStale, ErrNotFound
}

// Write stores a freshly fetched result set under key, propagating to
// every tier. A successful fetch clears the failure streak. Tier failures
// are logged, never returned.
func (t *Tiered) Write(ctx context.Context, entry *Entry) {
	entry.FetchedAt = time.Now()
	entry.FailStreak = 0
	entry.DegradedUntil = time.Time{}

	for _, tier := range t.tiers {
		if err := tier.Set(ctx, entry); err != nil {
			t.logger.Warn("cache tier write failed", "tier", tier.Name(), "key", entry.Key, "err", err)
		}
	}
}

// Invalidate removes a key from every tier.
func (t *Tiered) Invalidate(ctx context.Context, key string) {
	for _, tier := range t.tiers {
		if err := tier.Delete(ctx, key); err != nil {
			t.logger.Warn("cache tier delete failed", "tier", tier.Name(), "key", key, "err", err)
		}
	}
}

// MarkFailure records one failed refresh for a key. Past the threshold the
// entry degrades, suppressing refetch attempts for the degrade window so a
// down source is not hammered. An absent entry gets a bookkeeping-only
// record. Returns the updated entry.
func (t *Tiered) MarkFailure(ctx context.Context, key string) *Entry {
	now := time.Now()

	entry, _, err := t.Lookup(ctx, key, t.ttl)
	if err != nil {
		entry = &Entry{Key: key}
	}

	entry.FailStreak++
	if entry.FailStreak >= t.failThreshold {
		entry.DegradedUntil = now.Add(t.degradeWindow)
		t.logger.Warn("cache entry degraded",
			"key", key, "failStreak", entry.FailStreak, "until", entry.DegradedUntil)
	}

	for _, tier := range t.tiers {
		if err := tier.Set(ctx, entry); err != nil {
			t.logger.Warn("cache tier write failed", "tier", tier.Name(), "key", key, "err", err)
		}
	}
	return entry
}

// SuppressRefetch reports whether a refetch for this entry should be
// skipped because the entry is inside its degradation window.
func (t *Tiered) SuppressRefetch(entry *Entry) bool {
	return entry != nil && time.Now().Before(entry.DegradedUntil)
}

type flightCall struct {
	wg    sync.WaitGroup
	entry *Entry
	err   error
}

// DoOnce serializes refreshes per key: concurrent callers for the same key
// share one execution of fn and its result, so identical queries never
// trigger duplicate upstream fetches.
func (t *Tiered) DoOnce(key string, fn func() (*Entry, error)) (*Entry, error) {
	t.mu.Lock()
	if call, inFlight := t.flight[key]; inFlight {
		t.mu.Unlock()
		call.wg.Wait()
		return call.entry, call.err
	}
	call := new(flightCall)
	call.wg.Add(1)
	t.flight[key] = call
	t.mu.Unlock()

	call.entry, call.err = fn()
	call.wg.Done()

	t.mu.Lock()
	delete(t.flight, key)
	t.mu.Unlock()

	return call.entry, call.err
}
