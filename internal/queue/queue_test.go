package queue

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cfbfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draft(id string) models.PostDraft {
	return models.PostDraft{
		ID:        id,
		Kind:      models.KindRankingMover,
		Text:      "Texas climbs 3 spots",
		Priority:  50,
		ExpiresAt: time.Date(2024, 10, 27, 0, 0, 0, 0, time.UTC),
		Source:    "cfbd:rankings:ap",
		Season:    2024,
		Week:      8,
	}
}

func TestFileQueue_AppendsAcrossRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out", "queue.jsonl")

	require.NoError(t, NewFileQueue(path).Append(ctx, []models.PostDraft{draft("a"), draft("b")}))
	require.NoError(t, NewFileQueue(path).Append(ctx, []models.PostDraft{draft("c")}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(raw), "\n"))

	got, err := NewFileQueue(path).ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[2].ID)
	assert.Equal(t, draft("b"), got[1])
}

func TestFileQueue_EmptyAppendWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.jsonl")
	require.NoError(t, NewFileQueue(path).Append(context.Background(), nil))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	got, err := NewFileQueue(path).ReadAll()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileQueue_RepairsMissingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"old"}`), 0o644))

	require.NoError(t, NewFileQueue(path).Append(context.Background(), []models.PostDraft{draft("new")}))

	got, err := NewFileQueue(path).ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "old", got[0].ID)
	assert.Equal(t, "new", got[1].ID)
}
