package drafts

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"cfbfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 10, 20, 12, 0, 0, 0, time.UTC)

func newTestAssembler() *Assembler {
	return NewAssembler(func() time.Time { return fixedNow })
}

func sp(v float64) *float64 { return &v }

func testFacts() Facts {
	p := models.Period{Season: 2024, Week: 8}
	ranking := models.RankingSnapshot{Season: 2024, Week: 8, Poll: models.PollAP, Entries: []models.RankedEntry{
		{SubjectID: "texas", Name: "Texas", Rank: 1},
		{SubjectID: "georgia", Name: "Georgia", Rank: 5},
		{SubjectID: "alabama", Name: "Alabama", Rank: 7},
	}}

	return Facts{
		Period:  p,
		Poll:    models.PollAP,
		Ranking: ranking,
		Records: models.RecordSet{Records: []models.RecordEntry{
			{SubjectID: "texas", Wins: 6},
			{SubjectID: "georgia", Wins: 5, Losses: 1},
		}},
		Movers: []models.MoverRecord{
			{SubjectID: "georgia", Name: "Georgia", PreviousRank: 2, CurrentRank: 5, Delta: -3},
			{SubjectID: "indiana", Name: "Indiana", CurrentRank: 18, New: true},
		},
		Games: []models.GameScore{{
			Line: models.LineEntry{
				GameID: 401, HomeID: "texas", AwayID: "georgia", HomeName: "Texas", AwayName: "Georgia",
				Provider: "consensus", Spread: sp(-3.5), OverUnder: sp(55.5),
			},
			HomeRank: 1, AwayRank: 5, Score: 1500,
		}},
		Results: []models.GameResult{
			{GameID: 10, HomeID: "vanderbilt", AwayID: "alabama", HomeName: "Vanderbilt", AwayName: "Alabama", HomePoints: 40, AwayPoints: 35, Completed: true},
			{GameID: 11, HomeID: "utah", AwayID: "byu", HomeName: "Utah", AwayName: "BYU", HomePoints: 21, AwayPoints: 24, Completed: true},
			{GameID: 12, HomeID: "texas", AwayID: "ut-sa", HomeName: "Texas", AwayName: "UTSA", Completed: false},
		},
	}
}

func TestAssemble_Kinds(t *testing.T) {
	drafts := newTestAssembler().Assemble(testFacts())
	require.Len(t, drafts, 4)

	final := drafts[0]
	assert.Equal(t, models.KindFinalScore, final.Kind)
	assert.Equal(t, "UPSET FINAL: Vanderbilt 40, No. 7 Alabama 35", final.Text)
	assert.Equal(t, PriorityUpset, final.Priority)
	assert.Equal(t, fixedNow.Add(FinalScoreTTL), final.ExpiresAt)
	assert.Equal(t, "https://www.espn.com/college-football/game/_/gameId/10", final.Link)

	game := drafts[1]
	assert.Equal(t, models.KindMarqueeGame, game.Kind)
	assert.Equal(t, "Game of the week: No. 5 Georgia (5-1) at No. 1 Texas (6-0). Line: Texas -3.5, O/U 55.5.", game.Text)
	assert.Equal(t, PriorityMarqueeGame, game.Priority)
	assert.Equal(t, "cfbd:lines:consensus", game.Source)
	assert.Equal(t, fixedNow.Add(MarqueeGameTTL), game.ExpiresAt)

	mover := drafts[2]
	assert.Equal(t, models.KindRankingMover, mover.Kind)
	assert.Equal(t, "Georgia (5-1) falls 3 spots to No. 5 in the AP poll (was No. 2).", mover.Text)
	assert.Equal(t, fixedNow.Add(PollFactTTL), mover.ExpiresAt)

	entrant := drafts[3]
	assert.Equal(t, models.KindNewEntrant, entrant.Kind)
	assert.Equal(t, "Indiana enters the AP poll at No. 18.", entrant.Text)
	assert.Equal(t, PriorityNewEntrant, entrant.Priority)

	for _, d := range drafts {
		assert.Equal(t, 2024, d.Season)
		assert.Equal(t, 8, d.Week)
	}
}

func TestAssemble_DeterministicIDs(t *testing.T) {
	first := newTestAssembler().Assemble(testFacts())

	later := NewAssembler(func() time.Time { return fixedNow.Add(48 * time.Hour) })
	second := later.Assemble(testFacts())

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.NotEqual(t, first[i].ExpiresAt, second[i].ExpiresAt)
	}
}

func TestDraftID(t *testing.T) {
	p := models.Period{Season: 2024, Week: 8}
	id := DraftID(p, models.KindRankingMover, "AP", "texas")

	assert.Equal(t, id, DraftID(p, models.KindRankingMover, "AP", "texas"))
	assert.NotEqual(t, id, DraftID(p, models.KindRankingMover, "Coaches", "texas"))
	assert.NotEqual(t, id, DraftID(models.Period{Season: 2024, Week: 9}, models.KindRankingMover, "AP", "texas"))
	assert.NotEqual(t, id, DraftID(p, models.KindNewEntrant, "AP", "texas"))
	assert.Len(t, id, 36)
}

func TestAssemble_FinalScoreRequiresRankedTeam(t *testing.T) {
	f := testFacts()
	f.Movers, f.Games = nil, nil

	drafts := newTestAssembler().Assemble(f)
	require.Len(t, drafts, 1, "unranked and unfinished games produce no final score")
	assert.Contains(t, drafts[0].Text, "Vanderbilt")
}

func TestAssemble_FavoriteWinIsNotUpset(t *testing.T) {
	f := Facts{
		Period:  models.Period{Season: 2024, Week: 3},
		Ranking: models.RankingSnapshot{Entries: []models.RankedEntry{{SubjectID: "oregon", Rank: 2}}},
		Results: []models.GameResult{
			{GameID: 1, HomeID: "oregon", AwayID: "idaho", HomeName: "Oregon", AwayName: "Idaho", HomePoints: 24, AwayPoints: 14, Completed: true},
		},
	}

	drafts := newTestAssembler().Assemble(f)
	require.Len(t, drafts, 1)
	assert.Equal(t, "FINAL: No. 2 Oregon 24, Idaho 14", drafts[0].Text)
	assert.Equal(t, PriorityFinalScore, drafts[0].Priority)
}

func TestIsUpset(t *testing.T) {
	assert.True(t, IsUpset(0, 5))
	assert.True(t, IsUpset(12, 3))
	assert.False(t, IsUpset(3, 12))
	assert.False(t, IsUpset(4, 0))
	assert.False(t, IsUpset(0, 0))
}

func TestAssemble_DropsDuplicateFacts(t *testing.T) {
	f := testFacts()
	f.Results = nil
	f.Games = append(f.Games, f.Games[0])
	f.Movers = append(f.Movers, f.Movers[0])

	drafts := newTestAssembler().Assemble(f)
	assert.Len(t, drafts, 3)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeText("  a \n b\t\tc ", MaxTextLength))

	long := strings.Repeat("é", 300)
	got := NormalizeText(long, MaxTextLength)
	assert.Equal(t, MaxTextLength, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.True(t, utf8.ValidString(got))

	words := strings.Repeat("word ", 100)
	got = NormalizeText(words, 20)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), 20)
	assert.NotContains(t, got, " …")
}

func TestFormatLine(t *testing.T) {
	l := models.LineEntry{HomeName: "Home", AwayName: "Away"}
	assert.Equal(t, "", formatLine(l))

	l.Spread = sp(7)
	assert.Equal(t, "Away -7", formatLine(l))

	l.Spread = sp(0)
	l.OverUnder = sp(48)
	assert.Equal(t, "Pick'em, O/U 48", formatLine(l))
}
