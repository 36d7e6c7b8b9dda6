package cache

import (
	"context"
	"errors"
	"os"
	"testing"

	"cfbfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apSnapshot(week int, names ...string) models.RankingSnapshot {
	snap := models.RankingSnapshot{Season: 2024, Week: week, Poll: models.PollAP}
	for i, n := range names {
		snap.Entries = append(snap.Entries, models.RankedEntry{SubjectID: n, Name: n, Rank: i + 1})
	}
	return snap
}

func countingFetcher[T models.Snapshot](payload T, err error) (Fetcher[T], *int) {
	calls := 0
	return func(context.Context) (T, error) {
		calls++
		return payload, err
	}, &calls
}

func TestGetOrFetch_ReusesStoredSnapshot(t *testing.T) {
	ctx := context.Background()
	c := New(NewFileStore(t.TempDir()))
	key := models.SnapshotKey{Season: 2024, Week: 5, Datatype: models.DatatypeRankingsAP}

	fetch, calls := countingFetcher(apSnapshot(5, "georgia", "texas"), nil)

	first, err := GetOrFetch(ctx, c, key, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Len())
	assert.Equal(t, 1, *calls)

	for i := 0; i < 3; i++ {
		again, err := GetOrFetch(ctx, c, key, fetch)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, 1, *calls, "fetcher must not run after a successful fetch")
}

func TestGetOrFetch_EmptyPayloadNotCached(t *testing.T) {
	ctx := context.Background()
	c := New(NewFileStore(t.TempDir()))
	key := models.SnapshotKey{Season: 2024, Week: 6, Datatype: models.DatatypeLines}

	fetch, calls := countingFetcher(models.LinePool{Season: 2024, Week: 6}, nil)

	for i := 0; i < 2; i++ {
		pool, err := GetOrFetch(ctx, c, key, fetch)
		require.NoError(t, err)
		assert.Zero(t, pool.Len())
	}
	assert.Equal(t, 2, *calls, "empty results must be retried")

	_, ok, err := Peek[models.LinePool](ctx, c, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetOrFetch_FetchErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c := New(NewFileStore(t.TempDir()))
	key := models.SnapshotKey{Season: 2024, Week: 6, Datatype: models.DatatypeRecords}
	boom := errors.New("upstream down")

	fetch, calls := countingFetcher(models.RecordSet{}, boom)
	_, err := GetOrFetch(ctx, c, key, fetch)
	require.ErrorIs(t, err, boom)

	good, _ := countingFetcher(models.RecordSet{Season: 2024, Week: 6, Records: []models.RecordEntry{{SubjectID: "a", Wins: 1}}}, nil)
	recs, err := GetOrFetch(ctx, c, key, good)
	require.NoError(t, err)
	assert.Equal(t, 1, recs.Len())
	assert.Equal(t, 1, *calls)
}

func TestGetOrFetch_DatatypeMismatch(t *testing.T) {
	ctx := context.Background()
	c := New(NewFileStore(t.TempDir()))

	linesKey := models.SnapshotKey{Season: 2024, Week: 3, Datatype: models.DatatypeLines}
	fetch, _ := countingFetcher(apSnapshot(3, "a"), nil)
	_, err := GetOrFetch(ctx, c, linesKey, fetch)
	require.ErrorIs(t, err, ErrDatatypeMismatch)

	apKey := models.SnapshotKey{Season: 2024, Week: 3, Datatype: models.DatatypeRankingsAP}
	_, err = GetOrFetch(ctx, c, apKey, fetch)
	require.NoError(t, err)

	// a coaches key does not see the AP document
	_, ok, err := Peek[models.RankingSnapshot](ctx, c, models.SnapshotKey{Season: 2024, Week: 3, Datatype: models.DatatypeRankingsCoaches})
	require.NoError(t, err)
	assert.False(t, ok)
}

// racingStore lets another writer win the first Put
type racingStore struct {
	*FileStore
	winner []byte
}

func (s *racingStore) Put(ctx context.Context, key models.SnapshotKey, data []byte) error {
	if s.winner != nil {
		if err := s.FileStore.Put(ctx, key, s.winner); err != nil {
			return err
		}
		s.winner = nil
	}
	return s.FileStore.Put(ctx, key, data)
}

func TestGetOrFetch_LostWriteReturnsStoredCopy(t *testing.T) {
	ctx := context.Background()
	key := models.SnapshotKey{Season: 2024, Week: 4, Datatype: models.DatatypeRankingsAP}

	writer := New(NewFileStore(t.TempDir()))
	winner, err := writer.encode(apSnapshot(4, "ohio-state", "oregon"))
	require.NoError(t, err)

	c := New(&racingStore{FileStore: NewFileStore(t.TempDir()), winner: winner})
	fetch, _ := countingFetcher(apSnapshot(4, "texas"), nil)

	got, err := GetOrFetch(ctx, c, key, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
	assert.Equal(t, "ohio-state", got.Entries[0].SubjectID)

	again, err := GetOrFetch(ctx, c, key, fetch)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestFileStore_WriteOnce(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir())
	key := models.SnapshotKey{Season: 2024, Week: 1, Datatype: models.DatatypeResults}

	require.NoError(t, store.Put(ctx, key, []byte(`{"a":1}`)))
	err := store.Put(ctx, key, []byte(`{"a":2}`))
	require.ErrorIs(t, err, ErrKeyExists)

	data, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(data))

	// a second week lands in the same season document
	require.NoError(t, store.Put(ctx, models.SnapshotKey{Season: 2024, Week: 2, Datatype: models.DatatypeResults}, []byte(`{"b":1}`)))
	_, err = os.Stat(store.DocumentPath(2024, models.DatatypeResults))
	require.NoError(t, err)
	_, err = os.Stat(store.DocumentPath(2024, models.DatatypeResults) + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must be renamed away")

	data, ok, err = store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(data))
}

func TestFileStore_RejectsInvalidJSON(t *testing.T) {
	store := NewFileStore(t.TempDir())
	err := store.Put(context.Background(), models.SnapshotKey{Season: 2024, Week: 1, Datatype: models.DatatypeTeams}, []byte(`{`))
	assert.Error(t, err)
}

func TestFileStore_CorruptDocument(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	path := store.DocumentPath(2024, models.DatatypeLines)
	require.NoError(t, os.MkdirAll(dir+"/2024", 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, _, err := store.Get(context.Background(), models.SnapshotKey{Season: 2024, Week: 1, Datatype: models.DatatypeLines})
	assert.Error(t, err)
}
