package source

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

// BatchProgress is emitted after each completed batch of region sub-fetches.
type BatchProgress struct {
	BatchIndex   int // 0-based
	TotalBatches int
	Regions      []string
}

// ProgressFunc receives batch progress events. A nil func disables
// reporting.
type ProgressFunc func(BatchProgress)

// SplitBatches splits region codes into fixed-size batches. The final batch
// holds the remainder. 12 regions with size 5 split into [5, 5, 2].
func SplitBatches(regions []string, size int) ([][]string, error) {
	if size <= 0 {
		return nil, ErrInvalidBatchSize
	}
	var batches [][]string
	for start := 0; start < len(regions); start += size {
		end := start + size
		if end > len(regions) {
			end = len(regions)
		}
		batches = append(batches, regions[start:end])
	}
	return batches, nil
}

// BatchRunner executes one sub-fetch per region in fixed-size batches,
// bounded by a shared worker pool so the in-flight request total across all
// adapters stays under the global cap.
type BatchRunner struct {
	pool       *ants.Pool
	batchSize  int
	interDelay time.Duration
	logger     *slog.Logger
}

// NewBatchRunner creates a runner. The pool is shared and owned by the
// caller; the runner never releases it.
func NewBatchRunner(pool *ants.Pool, batchSize int, interDelay time.Duration) (*BatchRunner, error) {
	if batchSize <= 0 {
		return nil, ErrInvalidBatchSize
	}
	return &BatchRunner{
		pool:       pool,
		batchSize:  batchSize,
		interDelay: interDelay,
		logger:     slog.Default(),
	}, nil
}

// Run fetches every region through fn. Batches run sequentially with the
// mandatory inter-batch delay between them; a single batch incurs no delay.
// Regions within a batch run concurrently on the pool. Per-region errors
// are collected and joined; one failed region does not stop the others.
func (r *BatchRunner) Run(ctx context.Context, regions []string, fn func(ctx context.Context, region string) error, progress ProgressFunc) error {
	batches, err := SplitBatches(regions, r.batchSize)
	if err != nil {
		return err
	}

	var (
		mu      sync.Mutex
		errList []error
	)

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return err
		}

		var wg sync.WaitGroup
		for _, region := range batch {
			region := region
			wg.Add(1)
			submitErr := r.pool.Submit(func() {
				defer wg.Done()
				if err := fn(ctx, region); err != nil {
					r.logger.Warn("region fetch failed", "region", region, "err", err)
					mu.Lock()
					errList = append(errList, err)
					mu.Unlock()
				}
			})
			if submitErr != nil {
				wg.Done()
				mu.Lock()
				errList = append(errList, submitErr)
				mu.Unlock()
			}
		}
		wg.Wait()

		if progress != nil {
			progress(BatchProgress{BatchIndex: i, TotalBatches: len(batches), Regions: batch})
		}

		// Mandatory delay between batches, skipped after the last one.
		if i < len(batches)-1 && r.interDelay > 0 {
			timer := time.NewTimer(r.interDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	return errors.Join(errList...)
}
