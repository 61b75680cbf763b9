package cache

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/editais/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore("", true)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SetGetRoundTrip(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	entry := &Entry{
		Key:       "q1",
		FetchedAt: time.Now().UTC().Truncate(time.Second),
		Records: []core.Record{
			{Source: core.SourcePNCP, SourceID: "a", Object: "obra"},
		},
	}
	require.NoError(t, store.Set(ctx, entry))

	got, err := store.Get(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, entry.Key, got.Key)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "a", got.Records[0].SourceID)
	assert.True(t, entry.FetchedAt.Equal(got.FetchedAt))
}

func TestStore_GetMiss(t *testing.T) {
	store := newMemoryStore(t)

	_, err := store.Get(context.Background(), "absent")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, &Entry{Key: "q1"}))
	require.NoError(t, store.Delete(ctx, "q1"))

	_, err := store.Get(ctx, "q1")
	require.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "never-existed"))
}

func TestStore_ListWithFilter(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, &Entry{Key: "hot1", Priority: PriorityHot}))
	require.NoError(t, store.Set(ctx, &Entry{Key: "hot2", Priority: PriorityHot}))
	require.NoError(t, store.Set(ctx, &Entry{Key: "cold1", Priority: PriorityCold}))

	all, err := store.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	hot, err := store.List(ctx, func(e *Entry) bool { return e.Priority == PriorityHot })
	require.NoError(t, err)
	assert.Len(t, hot, 2)
}

func TestStore_ClosedStoreErrors(t *testing.T) {
	store, err := OpenStore("", true)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.Get(context.Background(), "q1")
	require.ErrorIs(t, err, ErrStoreClosed)
}

func TestStore_OpenOnDisk(t *testing.T) {
	dir := t.TempDir() + "/cache"
	store, err := OpenStore(dir, false)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, &Entry{Key: "persisted"}))
	require.NoError(t, store.Close())

	reopened, err := OpenStore(dir, false)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Key)
}
