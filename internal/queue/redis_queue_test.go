//go:build integration

package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cfbfeed/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run with: go test -v -tags=integration ./internal/queue/...

func TestRedisQueue_Append(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	require.NoError(t, client.Ping(ctx).Err(), "Failed to connect to test redis")

	key := fmt.Sprintf("cfbfeed:test:queue:%d", time.Now().UnixNano())
	t.Cleanup(func() {
		client.Del(ctx, key)
		_ = client.Close()
	})

	q := NewRedisQueue(client, key)
	require.NoError(t, q.Append(ctx, []models.PostDraft{draft("a"), draft("b")}))
	require.NoError(t, q.Append(ctx, []models.PostDraft{draft("c")}))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	first, err := client.LIndex(ctx, key, 0).Result()
	require.NoError(t, err)
	assert.Contains(t, first, `"id":"a"`)
}
