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
	"errors"
	"fmt"

	"github.com/poiesic/editais/core"
)

var (
	// ErrCircuitOpen indicates the adapter's circuit breaker is open and the
	// fetch was short-circuited without touching the portal.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrInvalidBatchSize indicates a non-positive region batch size.
	ErrInvalidBatchSize = errors.New("batch size must be positive")
)

// ParseError indicates a raw source record could not be normalized, most
// commonly because no stable identity field exists in the payload.
type ParseError struct {
	Source core.SourceName
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error from %s: %s", e.Source, e.Reason)
}

// SourceAPIError is the terminal failure of a fetch after the retry policy
// is exhausted or a non-retryable response arrives. It carries the last
// HTTP status (0 for transport-level failures) and the last error.
type SourceAPIError struct {
	Source     core.SourceName
	StatusCode int
	Attempts   int
	Err        error
}

func (e *SourceAPIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("source %s failed after %d attempts (status %d): %v",
			e.Source, e.Attempts, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("source %s failed after %d attempts: %v", e.Source, e.Attempts, e.Err)
}

func (e *SourceAPIError) Unwrap() error {
	return e.Err
}
