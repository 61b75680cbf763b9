package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedTier_RoundTrip(t *testing.T) {
	tier, err := NewSharedTier(time.Minute)
	require.NoError(t, err)
	defer tier.Close()
	ctx := context.Background()

	require.NoError(t, tier.Set(ctx, &Entry{Key: "q1", AccessCount: 2}))
	tier.Wait()

	got, err := tier.Get(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.AccessCount)

	_, err = tier.Get(ctx, "absent")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSharedTier_Delete(t *testing.T) {
	tier, err := NewSharedTier(time.Minute)
	require.NoError(t, err)
	defer tier.Close()
	ctx := context.Background()

	require.NoError(t, tier.Set(ctx, &Entry{Key: "q1"}))
	tier.Wait()
	require.NoError(t, tier.Delete(ctx, "q1"))
	tier.Wait()

	_, err = tier.Get(ctx, "q1")
	require.ErrorIs(t, err, ErrNotFound)
}
