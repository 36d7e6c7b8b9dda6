package rankings

import (
	"fmt"
	"testing"

	"cfbfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func poll(week int, ids ...string) models.RankingSnapshot {
	snap := models.RankingSnapshot{Season: 2024, Week: week, Poll: models.PollAP}
	for i, id := range ids {
		snap.Entries = append(snap.Entries, models.RankedEntry{SubjectID: id, Name: id, Rank: i + 1})
	}
	return snap
}

func fullPoll(week int, prefix string) models.RankingSnapshot {
	ids := make([]string, models.PollSize)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%02d", prefix, i+1)
	}
	return poll(week, ids...)
}

func TestComputeMovers_Fixture(t *testing.T) {
	previous := poll(1, "A", "B", "C")
	current := poll(2, "B", "A", "D")

	movers, err := ComputeMovers(current, previous, 1)
	require.NoError(t, err)
	require.Len(t, movers, 3)

	assert.Equal(t, models.MoverRecord{SubjectID: "B", Name: "B", PreviousRank: 2, CurrentRank: 1, Delta: 1}, movers[0])
	assert.Equal(t, models.MoverRecord{SubjectID: "A", Name: "A", PreviousRank: 1, CurrentRank: 2, Delta: -1}, movers[1])
	assert.Equal(t, models.MoverRecord{SubjectID: "D", Name: "D", CurrentRank: 3, New: true}, movers[2])
}

func TestComputeMovers_EmptyPrevious(t *testing.T) {
	movers, err := ComputeMovers(poll(1, "A", "B"), models.RankingSnapshot{}, 1)
	assert.ErrorIs(t, err, ErrNoBaseline)
	assert.Empty(t, movers)
}

func TestComputeMovers_NoSignificantMovement(t *testing.T) {
	movers, err := ComputeMovers(poll(2, "A", "B", "C"), poll(1, "A", "B", "C"), 1)
	require.NoError(t, err, "an unchanged poll is a valid diff")
	assert.Empty(t, movers)
}

func TestComputeMovers_ThresholdAndOrdering(t *testing.T) {
	previous := poll(4, "A", "B", "C", "D", "E", "F", "G", "H")
	// H jumps 7, A drops 5, D drops 3, E and F rise 1 and G drops 1 (below threshold)
	current := poll(5, "H", "B", "C", "E", "F", "A", "D", "G")

	movers, err := ComputeMovers(current, previous, 3)
	require.NoError(t, err)

	var got []string
	for _, m := range movers {
		got = append(got, fmt.Sprintf("%s%+d", m.SubjectID, m.Delta))
	}
	assert.Equal(t, []string{"H+7", "A-5", "D-3"}, got)
}

func TestComputeMovers_TieBrokenByCurrentRank(t *testing.T) {
	previous := poll(4, "A", "B", "C", "D")
	current := poll(5, "C", "D", "A", "B")

	movers, err := ComputeMovers(current, previous, 2)
	require.NoError(t, err)
	require.Len(t, movers, 4)
	assert.Equal(t, []int{1, 2, 3, 4}, []int{movers[0].CurrentRank, movers[1].CurrentRank, movers[2].CurrentRank, movers[3].CurrentRank})
}

func TestComputeMovers_CapFavorsNewEntrants(t *testing.T) {
	previous := fullPoll(6, "old")
	// reverse the previous poll to create 24 movers, then swap in 4 new teams
	var ids []string
	for i := models.PollSize; i >= 1; i-- {
		ids = append(ids, fmt.Sprintf("old%02d", i))
	}
	ids = append([]string{"new1", "new2", "new3", "new4"}, ids[:models.PollSize-4]...)
	current := poll(7, ids...)

	movers, err := ComputeMovers(current, previous, 1)
	require.NoError(t, err)
	require.Len(t, movers, MaxMovers)

	var entrants int
	for i, m := range movers {
		if m.New {
			entrants++
			assert.GreaterOrEqual(t, i, MaxMovers-4, "new entrants follow movers")
		}
	}
	assert.Equal(t, 4, entrants)
	assert.False(t, movers[0].New)
}

func TestComputeMovers_TooManyEntrants(t *testing.T) {
	previous := fullPoll(1, "a")
	current := fullPoll(2, "b")

	movers, err := ComputeMovers(current, previous, 1)
	require.NoError(t, err)
	require.Len(t, movers, MaxMovers)
	for i, m := range movers {
		assert.True(t, m.New)
		assert.Equal(t, i+1, m.CurrentRank)
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(fullPoll(1, "t"), MinEntries))

	err := Validate(poll(1, "A", "B"), MinEntries)
	assert.ErrorIs(t, err, ErrUnderfilled)

	dup := fullPoll(1, "t")
	dup.Entries[3].Rank = 3
	assert.ErrorIs(t, Validate(dup, MinEntries), ErrDuplicateRank)

	out := fullPoll(1, "t")
	out.Entries[0].Rank = 26
	assert.Error(t, Validate(out, MinEntries))

	twice := fullPoll(1, "t")
	twice.Entries[1].SubjectID = twice.Entries[0].SubjectID
	assert.Error(t, Validate(twice, MinEntries))
}
