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


package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/poiesic/editais/consolidate"
	"github.com/poiesic/editais/source"
)

// ErrorCode classifies caller-visible failures.
type ErrorCode string

const (
	CodeSourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE"
	CodeAllSourcesFailed  ErrorCode = "ALL_SOURCES_FAILED"
	CodeTimeout           ErrorCode = "TIMEOUT"
	CodeQuotaExceeded     ErrorCode = "QUOTA_EXCEEDED"
	CodeRateLimited       ErrorCode = "RATE_LIMITED"
	CodeValidation        ErrorCode = "VALIDATION_ERROR"
	CodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// Retryable reports whether a caller may reasonably retry the request.
// Quota and validation failures are terminal by definition.
func (c ErrorCode) Retryable() bool {
	switch c {
	case CodeQuotaExceeded, CodeValidation:
		return false
	default:
		return true
	}
}

// ErrQuotaExceeded is returned by a QuotaChecker when the caller has
// exhausted their allowance. Terminal; never retried.
var ErrQuotaExceeded = errors.New("query quota exceeded")

// ErrUnauthorized is returned by a CurrentUserFunc when a required
// credential is absent or invalid.
var ErrUnauthorized = errors.New("unauthorized")

// ValidationError describes malformed query input. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid query: %s %s", e.Field, e.Reason)
}

// APIError is the structured failure shape surfaced to callers. It never
// carries internal detail; unexpected errors are logged server-side and
// reduced to a generic message here.
type APIError struct {
	Message       string    `json:"message"`
	ErrorCode     ErrorCode `json:"errorCode"`
	CorrelationID string    `json:"correlationId"`
	Timestamp     time.Time `json:"timestamp"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s [%s]", e.ErrorCode, e.Message, e.CorrelationID)
}

// toAPIError maps an internal failure onto the caller-facing taxonomy.
func toAPIError(err error, correlationID string) *APIError {
	api := &APIError{
		CorrelationID: correlationID,
		Timestamp:     time.Now().UTC(),
	}

	var validation *ValidationError
	var allFailed *consolidate.AllSourcesFailedError
	var apiErr *source.SourceAPIError

	switch {
	case errors.As(err, &validation):
		api.ErrorCode = CodeValidation
		api.Message = validation.Error()
	case errors.Is(err, ErrQuotaExceeded):
		api.ErrorCode = CodeQuotaExceeded
		api.Message = "query quota exceeded"
	case errors.Is(err, context.DeadlineExceeded):
		api.ErrorCode = CodeTimeout
		api.Message = "pipeline deadline exceeded"
	case errors.As(err, &allFailed):
		api.ErrorCode = CodeAllSourcesFailed
		api.Message = "no procurement source is currently reachable"
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests:
		api.ErrorCode = CodeRateLimited
		api.Message = "an upstream source is throttling requests"
	case errors.As(err, &apiErr):
		api.ErrorCode = CodeSourceUnavailable
		api.Message = "a procurement source is currently unavailable"
	default:
		api.ErrorCode = CodeInternal
		api.Message = "internal error"
	}

	return api
}
