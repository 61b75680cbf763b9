package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTier_RoundTrip(t *testing.T) {
	tier := NewMemoryTier(8)
	ctx := context.Background()

	require.NoError(t, tier.Set(ctx, &Entry{Key: "q1"}))

	got, err := tier.Get(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "q1", got.Key)

	_, err = tier.Get(ctx, "absent")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryTier_EvictsAtCapacity(t *testing.T) {
	tier := NewMemoryTier(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, tier.Set(ctx, &Entry{Key: fmt.Sprintf("q%d", i)}))
	}

	assert.Equal(t, 3, tier.Len(), "capacity is a hard bound")
}

func TestMemoryTier_OverwriteDoesNotEvict(t *testing.T) {
	tier := NewMemoryTier(2)
	ctx := context.Background()

	require.NoError(t, tier.Set(ctx, &Entry{Key: "a"}))
	require.NoError(t, tier.Set(ctx, &Entry{Key: "b"}))
	require.NoError(t, tier.Set(ctx, &Entry{Key: "a", AccessCount: 9}))

	assert.Equal(t, 2, tier.Len())
	got, err := tier.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 9, got.AccessCount)
}

func TestKeyFor(t *testing.T) {
	a := KeyFor("2026-01-01", "2026-01-31", SortedSet([]string{"SP", "RJ"}), "merenda")
	b := KeyFor("2026-01-01", "2026-01-31", SortedSet([]string{"RJ", "SP"}), "merenda")
	c := KeyFor("2026-01-01", "2026-01-31", SortedSet([]string{"RJ"}), "merenda")

	assert.Equal(t, a, b, "state order does not split the key")
	assert.NotEqual(t, a, c)
	assert.NotEmpty(t, a)
}
