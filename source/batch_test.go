package source

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitBatches(t *testing.T) {
	regions := []string{"AC", "AL", "AM", "AP", "BA", "CE", "DF", "ES", "GO", "MA", "MG", "MS"}

	batches, err := SplitBatches(regions, 5)
	require.NoError(t, err)
	require.Len(t, batches, 3, "12 regions at size 5 split into [5, 5, 2]")
	assert.Len(t, batches[0], 5)
	assert.Len(t, batches[1], 5)
	assert.Len(t, batches[2], 2)

	single, err := SplitBatches([]string{"SP"}, 5)
	require.NoError(t, err)
	require.Len(t, single, 1, "a single region produces exactly one batch")

	empty, err := SplitBatches(nil, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = SplitBatches(regions, 0)
	assert.ErrorIs(t, err, ErrInvalidBatchSize)
}

func newTestRunner(t *testing.T, batchSize int, delay time.Duration) *BatchRunner {
	t.Helper()
	pool, err := ants.NewPool(4)
	require.NoError(t, err)
	t.Cleanup(pool.Release)

	runner, err := NewBatchRunner(pool, batchSize, delay)
	require.NoError(t, err)
	return runner
}

func TestBatchRunner_ProgressEvents(t *testing.T) {
	runner := newTestRunner(t, 5, 0)

	regions := []string{"AC", "AL", "AM", "AP", "BA", "CE", "DF", "ES", "GO", "MA", "MG", "MS"}
	var (
		mu      sync.Mutex
		fetched []string
		events  []BatchProgress
	)

	err := runner.Run(context.Background(), regions, func(ctx context.Context, region string) error {
		mu.Lock()
		fetched = append(fetched, region)
		mu.Unlock()
		return nil
	}, func(p BatchProgress) {
		events = append(events, p)
	})

	require.NoError(t, err)
	assert.Len(t, fetched, 12, "every region is fetched exactly once")
	require.Len(t, events, 3)
	assert.Equal(t, 0, events[0].BatchIndex)
	assert.Equal(t, 3, events[0].TotalBatches)
	assert.Len(t, events[2].Regions, 2)
}

func TestBatchRunner_SingleBatchNoDelay(t *testing.T) {
	runner := newTestRunner(t, 10, 200*time.Millisecond)

	start := time.Now()
	err := runner.Run(context.Background(), []string{"SP", "RJ"}, func(ctx context.Context, region string) error {
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 100*time.Millisecond,
		"a single batch must not incur the inter-batch delay")
}

func TestBatchRunner_InterBatchDelay(t *testing.T) {
	runner := newTestRunner(t, 1, 50*time.Millisecond)

	start := time.Now()
	err := runner.Run(context.Background(), []string{"SP", "RJ", "MG"}, func(ctx context.Context, region string) error {
		return nil
	}, nil)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond,
		"three batches incur two inter-batch delays")
}

func TestBatchRunner_RegionErrorsDoNotStopOthers(t *testing.T) {
	runner := newTestRunner(t, 2, 0)

	bad := errors.New("region down")
	var (
		mu      sync.Mutex
		fetched int
	)

	err := runner.Run(context.Background(), []string{"SP", "RJ", "MG", "BA"}, func(ctx context.Context, region string) error {
		mu.Lock()
		fetched++
		mu.Unlock()
		if region == "RJ" {
			return bad
		}
		return nil
	}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, bad)
	assert.Equal(t, 4, fetched, "one failed region must not stop the rest")
}
