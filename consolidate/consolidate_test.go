package consolidate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/editais/core"
	"github.com/poiesic/editais/source"
	"github.com/poiesic/editais/source/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metaFor(code core.SourceName, priority int) core.SourceMetadata {
	return core.SourceMetadata{Name: string(code), Code: code, Priority: priority}
}

func record(src core.SourceName, id, object string) core.Record {
	return core.Record{Source: src, SourceID: id, Object: object}
}

// noticeRecord builds a record carrying the full notice identity, so copies
// of the same notice collapse across sources.
func noticeRecord(src core.SourceName, id string) core.Record {
	return core.Record{
		Source:       src,
		SourceID:     id,
		Object:       "aquisição de insumos",
		AgencyTaxID:  "12.345.678/0001-90",
		NoticeNumber: "42",
		Year:         2026,
	}
}

func TestRun_MergesAllSources(t *testing.T) {
	svc := New([]source.Adapter{
		&mock.Adapter{
			Meta:    metaFor(core.SourcePNCP, 1),
			Records: []core.Record{record(core.SourcePNCP, "a", "obra A"), record(core.SourcePNCP, "b", "obra B")},
		},
		&mock.Adapter{
			Meta:    metaFor(core.SourceComprasGov, 2),
			Records: []core.Record{record(core.SourceComprasGov, "c", "obra C")},
		},
	})

	result, err := svc.Run(context.Background(), source.FetchRequest{})
	require.NoError(t, err)

	assert.Len(t, result.Records, 3)
	assert.Equal(t, 3, result.TotalBeforeDedup)
	assert.Equal(t, 3, result.TotalAfterDedup)
	assert.False(t, result.Partial)
	require.Len(t, result.Reports, 2)
	for _, report := range result.Reports {
		assert.NoError(t, report.Err)
	}
}

func TestRun_DuplicateKeptFromHigherPrioritySource(t *testing.T) {
	// Same notice on both portals; the official portal is registered last
	// but carries higher trust.
	svc := New([]source.Adapter{
		&mock.Adapter{
			Meta:    metaFor(core.SourceLicitanet, 3),
			Records: []core.Record{noticeRecord(core.SourceLicitanet, "ln-1")},
		},
		&mock.Adapter{
			Meta:    metaFor(core.SourcePNCP, 1),
			Records: []core.Record{noticeRecord(core.SourcePNCP, "pncp-1")},
		},
	})

	result, err := svc.Run(context.Background(), source.FetchRequest{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalBeforeDedup)
	assert.Equal(t, 1, result.TotalAfterDedup)
	require.Len(t, result.Records, 1)
	assert.Equal(t, core.SourcePNCP, result.Records[0].Source)
}

func TestRun_EqualPriorityTieBreaksByRegistrationOrder(t *testing.T) {
	svc := New([]source.Adapter{
		&mock.Adapter{
			Meta:    metaFor(core.SourceComprasGov, 2),
			Records: []core.Record{noticeRecord(core.SourceComprasGov, "cg-1")},
		},
		&mock.Adapter{
			Meta:    metaFor(core.SourceLicitanet, 2),
			Records: []core.Record{noticeRecord(core.SourceLicitanet, "ln-1")},
		},
	})

	result, err := svc.Run(context.Background(), source.FetchRequest{})
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, core.SourceComprasGov, result.Records[0].Source)
}

func TestRun_SlowSourceIsIsolated(t *testing.T) {
	svc := New([]source.Adapter{
		&mock.Adapter{
			Meta:    metaFor(core.SourcePNCP, 1),
			Records: []core.Record{record(core.SourcePNCP, "a", "obra A")},
		},
		&mock.Adapter{
			Meta:  metaFor(core.SourceComprasGov, 2),
			Delay: time.Second,
		},
	}, WithPerSourceTimeout(20*time.Millisecond))

	start := time.Now()
	result, err := svc.Run(context.Background(), source.FetchRequest{})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 500*time.Millisecond, "the slow source is cut at its own deadline")
	assert.Len(t, result.Records, 1)
	assert.True(t, result.Partial)

	var timedOut bool
	for _, report := range result.Reports {
		if report.Source == core.SourceComprasGov {
			timedOut = errors.Is(report.Err, context.DeadlineExceeded)
		}
	}
	assert.True(t, timedOut, "the slow source's report carries the deadline error")
}

func TestRun_MidStreamTimeoutDiscardsPartialBatch(t *testing.T) {
	// The stalling source shares a notice with the healthy one; its partial
	// page must not shadow the complete record despite its higher trust.
	svc := New([]source.Adapter{
		&mock.Adapter{
			Meta: metaFor(core.SourcePNCP, 1),
			Records: []core.Record{
				noticeRecord(core.SourcePNCP, "pncp-1"),
				noticeRecord(core.SourcePNCP, "pncp-2"),
			},
			RecordDelay: time.Second,
		},
		&mock.Adapter{
			Meta:    metaFor(core.SourceComprasGov, 2),
			Records: []core.Record{noticeRecord(core.SourceComprasGov, "cg-1")},
		},
	}, WithPerSourceTimeout(50*time.Millisecond))

	result, err := svc.Run(context.Background(), source.FetchRequest{})
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, core.SourceComprasGov, result.Records[0].Source)
	assert.True(t, result.Partial)

	for _, report := range result.Reports {
		if report.Source == core.SourcePNCP {
			assert.Equal(t, 0, report.Count, "a timed-out source must report zero records")
			assert.ErrorIs(t, report.Err, context.DeadlineExceeded)
		}
	}
}

func TestRun_PartialFailureKeepsHealthySources(t *testing.T) {
	svc := New([]source.Adapter{
		&mock.Adapter{
			Meta: metaFor(core.SourcePNCP, 1),
			FetchFunc: func(ctx context.Context, req source.FetchRequest) ([]core.Record, error) {
				return nil, &source.SourceAPIError{Source: core.SourcePNCP, StatusCode: 503}
			},
		},
		&mock.Adapter{
			Meta:    metaFor(core.SourceComprasGov, 2),
			Records: []core.Record{record(core.SourceComprasGov, "c", "obra C")},
		},
	})

	result, err := svc.Run(context.Background(), source.FetchRequest{})
	require.NoError(t, err)

	assert.Len(t, result.Records, 1)
	assert.True(t, result.Partial)
}

func TestRun_AllSourcesFailed(t *testing.T) {
	failing := func(code core.SourceName, priority int) source.Adapter {
		return &mock.Adapter{
			Meta: metaFor(code, priority),
			FetchFunc: func(ctx context.Context, req source.FetchRequest) ([]core.Record, error) {
				return nil, &source.SourceAPIError{Source: code, StatusCode: 500}
			},
		}
	}
	svc := New([]source.Adapter{
		failing(core.SourcePNCP, 1),
		failing(core.SourceComprasGov, 2),
	})

	_, err := svc.Run(context.Background(), source.FetchRequest{})

	var allFailed *AllSourcesFailedError
	require.ErrorAs(t, err, &allFailed)
	assert.Len(t, allFailed.Errs, 2)
}

func TestRun_AllSourcesFailedDegradesToEmptyWhenConfigured(t *testing.T) {
	svc := New([]source.Adapter{
		&mock.Adapter{
			Meta: metaFor(core.SourcePNCP, 1),
			FetchFunc: func(ctx context.Context, req source.FetchRequest) ([]core.Record, error) {
				return nil, &source.SourceAPIError{Source: core.SourcePNCP, StatusCode: 500}
			},
		},
	}, WithFailOnAllSources(false))

	result, err := svc.Run(context.Background(), source.FetchRequest{})

	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.True(t, result.Partial)
}

func TestRun_InvalidRecordsAreDropped(t *testing.T) {
	svc := New([]source.Adapter{
		&mock.Adapter{
			Meta: metaFor(core.SourcePNCP, 1),
			Records: []core.Record{
				record(core.SourcePNCP, "ok", "obra"),
				{Source: core.SourcePNCP, Object: "sem identidade"},
			},
		},
	})

	result, err := svc.Run(context.Background(), source.FetchRequest{})
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "ok", result.Records[0].SourceID)
}

func TestRun_NoAdapters(t *testing.T) {
	_, err := New(nil).Run(context.Background(), source.FetchRequest{})
	require.ErrorIs(t, err, ErrNoAdapters)
}

func TestRun_ParentContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := New([]source.Adapter{
		&mock.Adapter{Meta: metaFor(core.SourcePNCP, 1), Delay: 50 * time.Millisecond},
	})
	_, err := svc.Run(ctx, source.FetchRequest{})

	require.ErrorIs(t, err, context.Canceled)
}
