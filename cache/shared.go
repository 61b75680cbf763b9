package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

const (
	// sharedCounters sizes ristretto's frequency sketch; ~10x the expected
	// live entry count.
	sharedCounters = 100_000

	// sharedMaxCost caps the tier at roughly this many cached records
	// across all entries.
	sharedMaxCost = 500_000

	defaultSharedTTL = 30 * time.Minute
)

// SharedTier is the low-latency middle tier, backed by ristretto. Admission
// is probabilistic: a Set may be silently rejected for a low-frequency key,
// which is acceptable because the durable tier below always holds the
// entry.
type SharedTier struct {
	cache *ristretto.Cache[string, *Entry]
	ttl   time.Duration
}

// NewSharedTier creates the shared tier. A non-positive ttl falls back to
// the default.
func NewSharedTier(ttl time.Duration) (*SharedTier, error) {
	if ttl <= 0 {
		ttl = defaultSharedTTL
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, *Entry]{
		NumCounters: sharedCounters,
		MaxCost:     sharedMaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &SharedTier{cache: cache, ttl: ttl}, nil
}

func (s *SharedTier) Name() string { return "shared" }

func (s *SharedTier) Get(ctx context.Context, key string) (*Entry, error) {
	entry, ok := s.cache.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return entry, nil
}

func (s *SharedTier) Set(ctx context.Context, entry *Entry) error {
	// Cost tracks record volume rather than entry count, so one giant
	// result set competes fairly with many small ones.
	cost := int64(1 + len(entry.Records))
	s.cache.SetWithTTL(entry.Key, entry, cost, s.ttl)
	return nil
}

func (s *SharedTier) Delete(ctx context.Context, key string) error {
	s.cache.Del(key)
	return nil
}

// Wait blocks until buffered writes have been applied. Intended for tests.
func (s *SharedTier) Wait() {
	s.cache.Wait()
}

// Close releases the tier's internal goroutines.
func (s *SharedTier) Close() {
	s.cache.Close()
}
