package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/editais/consolidate"
	"github.com/poiesic/editais/core"
	"github.com/poiesic/editais/source"
	"github.com/stretchr/testify/assert"
)

func TestToAPIError_Taxonomy(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code ErrorCode
	}{
		{"validation", &ValidationError{Field: "dateRange", Reason: "is required"}, CodeValidation},
		{"quota", fmt.Errorf("checking: %w", ErrQuotaExceeded), CodeQuotaExceeded},
		{"deadline", context.DeadlineExceeded, CodeTimeout},
		{"all failed", &consolidate.AllSourcesFailedError{Errs: []error{errors.New("x")}}, CodeAllSourcesFailed},
		{"rate limited", &source.SourceAPIError{Source: core.SourcePNCP, StatusCode: 429}, CodeRateLimited},
		{"source down", &source.SourceAPIError{Source: core.SourcePNCP, StatusCode: 503}, CodeSourceUnavailable},
		{"unexpected", errors.New("nil pointer dereference in handler"), CodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := toAPIError(tc.err, "corr-1")
			assert.Equal(t, tc.code, api.ErrorCode)
			assert.Equal(t, "corr-1", api.CorrelationID)
			assert.False(t, api.Timestamp.IsZero())
		})
	}
}

func TestToAPIError_InternalNeverLeaksDetail(t *testing.T) {
	api := toAPIError(errors.New("pq: connection refused host=10.0.3.7"), "corr-2")

	assert.Equal(t, CodeInternal, api.ErrorCode)
	assert.Equal(t, "internal error", api.Message)
	assert.NotContains(t, api.Error(), "10.0.3.7")
}
