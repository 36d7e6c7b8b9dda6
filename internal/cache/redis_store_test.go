//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cfbfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests for the Redis snapshot store
// Run with: go test -v -tags=integration ./internal/cache/...

func setupTestRedis(t *testing.T) *RedisStore {
	ctx := context.Background()

	store, err := NewRedisStore(ctx, Config{
		Addr:   "localhost:6379",
		DB:     15,
		Prefix: fmt.Sprintf("cfbfeed:test:%d", time.Now().UnixNano()),
	})
	require.NoError(t, err, "Failed to connect to test redis")

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisStore_WriteOnce(t *testing.T) {
	store := setupTestRedis(t)
	ctx := context.Background()
	key := models.SnapshotKey{Season: 2024, Week: 9, Datatype: models.DatatypeLines}

	_, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "Key should start absent")

	require.NoError(t, store.Put(ctx, key, []byte(`{"v":1}`)))
	assert.ErrorIs(t, store.Put(ctx, key, []byte(`{"v":2}`)), ErrKeyExists)

	data, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"v":1}`, string(data), "First write should win")
}

func TestRedisStore_GetOrFetch(t *testing.T) {
	c := New(setupTestRedis(t))
	ctx := context.Background()
	key := models.SnapshotKey{Season: 2024, Week: 9, Datatype: models.DatatypeRankingsAP}

	fetch, calls := countingFetcher(apSnapshot(9, "oregon", "georgia"), nil)
	_, err := GetOrFetch(ctx, c, key, fetch)
	require.NoError(t, err)
	snap, err := GetOrFetch(ctx, c, key, fetch)
	require.NoError(t, err)

	assert.Equal(t, 1, *calls)
	assert.Equal(t, "oregon", snap.Entries[0].SubjectID)
}
