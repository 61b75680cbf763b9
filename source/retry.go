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


package source

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy configures the backoff loop applied to every portal request.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts (must be > 0).
	MaxAttempts int

	// BaseDelay is the delay before the second attempt.
	BaseDelay time.Duration

	// Multiplier grows the delay between consecutive attempts.
	Multiplier float64

	// MaxDelay caps the computed backoff delay.
	MaxDelay time.Duration

	// Jitter applies ±50% multiplicative jitter to each delay so concurrent
	// callers do not retry in lockstep.
	Jitter bool

	// RetryAfterDefault is the wait applied to a 429 response that carries
	// no Retry-After header.
	RetryAfterDefault time.Duration
}

// DefaultRetryPolicy returns the policy used by adapters unless configured
// otherwise.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       4,
		BaseDelay:         500 * time.Millisecond,
		Multiplier:        2.0,
		MaxDelay:          30 * time.Second,
		Jitter:            true,
		RetryAfterDefault: 60 * time.Second,
	}
}

// Backoff computes the delay before the given retry (attempt is 1-based,
// counting the attempt that just failed).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	if p.Jitter {
		// Uniform in [0.5, 1.5] of the computed delay.
		delay *= 0.5 + rand.Float64()
	}
	return time.Duration(delay)
}

// outcomeKind drives the attempt state machine:
// Attempting -> Succeeded | RetryableFailure -> Attempting | TerminalFailure.
type outcomeKind int

const (
	kindSucceeded outcomeKind = iota
	kindRetryable
	kindTerminal
)

// Outcome is the explicit result of one attempt. Operations classify their
// own failures instead of throwing; the retry loop only schedules.
type Outcome struct {
	kind outcomeKind
	err  error
	// wait overrides the computed backoff when > 0 (Retry-After).
	wait time.Duration
}

// Succeeded marks the attempt as successful.
func Succeeded() Outcome {
	return Outcome{kind: kindSucceeded}
}

// RetryableFailure marks the attempt as failed but worth retrying after the
// policy's backoff.
func RetryableFailure(err error) Outcome {
	return Outcome{kind: kindRetryable, err: err}
}

// RetryableAfter marks the attempt as failed with a server-advertised wait
// before the next attempt.
func RetryableAfter(err error, wait time.Duration) Outcome {
	return Outcome{kind: kindRetryable, err: err, wait: wait}
}

// TerminalFailure marks the attempt as failed with no point in retrying.
func TerminalFailure(err error) Outcome {
	return Outcome{kind: kindTerminal, err: err}
}

// Do runs op under the policy until it succeeds, fails terminally, exhausts
// MaxAttempts, or the context ends. Returns the error of the last attempt.
func (p RetryPolicy) Do(ctx context.Context, op func() Outcome) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		outcome := op()
		switch outcome.kind {
		case kindSucceeded:
			if attempt > 1 {
				slog.Debug("attempt succeeded after retry", "attempt", attempt)
			}
			return nil
		case kindTerminal:
			return outcome.err
		}

		lastErr = outcome.err
		if attempt == p.MaxAttempts {
			break
		}

		wait := outcome.wait
		if wait <= 0 {
			wait = p.Backoff(attempt)
		}
		slog.Debug("attempt failed, will retry",
			"attempt", attempt, "maxAttempts", p.MaxAttempts, "wait", wait, "error", outcome.err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}
