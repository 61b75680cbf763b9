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


// Package mock provides a test double for the source.Adapter contract.
package mock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/poiesic/editais/core"
	"github.com/poiesic/editais/source"
)

// Adapter is a test double for source.Adapter. Behavior is injected via
// function fields; unset fields fall back to a benign default.
type Adapter struct {
	// Meta is returned by Metadata().
	Meta core.SourceMetadata

	// FetchFunc supplies the records (or error) for a fetch. If nil, Fetch
	// returns Records.
	FetchFunc func(ctx context.Context, req source.FetchRequest) ([]core.Record, error)

	// Records is the default fetch result when FetchFunc is nil.
	Records []core.Record

	// Delay is slept before any records are streamed. Used to simulate a
	// slow or hanging source.
	Delay time.Duration

	// RecordDelay is slept before each record after the first, simulating
	// a source that starts streaming and then stalls mid-way.
	RecordDelay time.Duration

	// HealthFunc overrides HealthCheck. If nil, reports available.
	HealthFunc func(ctx context.Context) source.Health

	fetchCount atomic.Int32
}

var _ source.Adapter = (*Adapter)(nil)

// Metadata returns the configured metadata.
func (a *Adapter) Metadata() core.SourceMetadata {
	return a.Meta
}

// Fetch streams the configured records after the configured delay.
// Cancellation stops the stream mid-way like a real adapter.
func (a *Adapter) Fetch(ctx context.Context, req source.FetchRequest) (<-chan core.Record, <-chan error) {
	a.fetchCount.Add(1)

	records := make(chan core.Record)
	errs := make(chan error, 1)

	go func() {
		defer close(records)
		defer close(errs)

		if a.Delay > 0 {
			timer := time.NewTimer(a.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				errs <- ctx.Err()
				return
			case <-timer.C:
			}
		}

		out := a.Records
		if a.FetchFunc != nil {
			var err error
			out, err = a.FetchFunc(ctx, req)
			if err != nil {
				errs <- err
				return
			}
		}

		for i, rec := range out {
			if i > 0 && a.RecordDelay > 0 {
				timer := time.NewTimer(a.RecordDelay)
				select {
				case <-ctx.Done():
					timer.Stop()
					errs <- ctx.Err()
					return
				case <-timer.C:
				}
			}
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case records <- rec:
			}
		}
	}()

	return records, errs
}

// HealthCheck reports available unless HealthFunc is set.
func (a *Adapter) HealthCheck(ctx context.Context) source.Health {
	if a.HealthFunc != nil {
		return a.HealthFunc(ctx)
	}
	return source.HealthAvailable
}

// FetchCount returns how many times Fetch was called.
func (a *Adapter) FetchCount() int {
	return int(a.fetchCount.Load())
}
