// Package drafts turns derived facts into post drafts with deterministic identities.
package drafts

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cfbfeed/internal/models"

	"github.com/google/uuid"
)

// Priorities used by the downstream publisher to order output
const (
	PriorityUpset       = 95
	PriorityFinalScore  = 90
	PriorityMarqueeGame = 70
	PriorityMover       = 50
	PriorityNewEntrant  = 40
)

// Expiry horizons per fact kind
const (
	FinalScoreTTL  = 18 * time.Hour
	MarqueeGameTTL = 72 * time.Hour
	PollFactTTL    = 7 * 24 * time.Hour
)

const (
	gameLinkFormat = "https://www.espn.com/college-football/game/_/gameId/%d"
	rankingsLink   = "https://www.espn.com/college-football/rankings"
)

// namespace scopes every draft id to this feed
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("cfbfeed/drafts"))

// DraftID derives a stable id from the fact identity. It never depends on time or text.
func DraftID(p models.Period, kind models.DraftKind, subjects ...string) string {
	name := strings.Join([]string{
		strconv.Itoa(p.Season),
		strconv.Itoa(p.Week),
		string(kind),
		strings.Join(subjects, ","),
	}, "|")
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

// Facts is everything one run derived for a period
type Facts struct {
	Period  models.Period
	Poll    models.Poll
	Movers  []models.MoverRecord
	Games   []models.GameScore
	Results []models.GameResult
	// Ranking is the poll in force when Results were played
	Ranking models.RankingSnapshot
	Records models.RecordSet
}

// Assembler builds PostDrafts from Facts
type Assembler struct {
	now     func() time.Time
	maxText int
}

// NewAssembler creates an assembler that stamps expiry relative to now
func NewAssembler(now func() time.Time) *Assembler {
	if now == nil {
		now = time.Now
	}
	return &Assembler{now: now, maxText: MaxTextLength}
}

// Assemble returns drafts for final scores, marquee games, movers and new entrants, in that order.
// Duplicate ids within one batch are dropped.
func (a *Assembler) Assemble(f Facts) []models.PostDraft {
	now := a.now().UTC()
	records := f.Records.Lookup()
	ranks := f.Ranking.Ranks()

	var out []models.PostDraft
	seen := make(map[string]bool)
	add := func(d models.PostDraft) {
		if seen[d.ID] {
			return
		}
		seen[d.ID] = true
		d.Text = NormalizeText(d.Text, a.maxText)
		d.Season = f.Period.Season
		d.Week = f.Period.Week
		out = append(out, d)
	}

	for _, g := range f.Results {
		if d, ok := a.finalScore(f.Period, g, ranks, now); ok {
			add(d)
		}
	}
	for _, gs := range f.Games {
		add(a.marqueeGame(f.Period, gs, records, now))
	}
	for _, m := range f.Movers {
		add(a.mover(f.Period, f.Poll, m, records, now))
	}

	return out
}

// finalScore reports completed games involving at least one ranked team
func (a *Assembler) finalScore(p models.Period, g models.GameResult, ranks map[string]int, now time.Time) (models.PostDraft, bool) {
	if !g.Completed {
		return models.PostDraft{}, false
	}
	homeRank, awayRank := ranks[g.HomeID], ranks[g.AwayID]
	if homeRank == 0 && awayRank == 0 {
		return models.PostDraft{}, false
	}

	winner, loser := rankedName(g.HomeName, homeRank), rankedName(g.AwayName, awayRank)
	winPts, losePts := g.HomePoints, g.AwayPoints
	winRank, loseRank := homeRank, awayRank
	if g.AwayPoints > g.HomePoints {
		winner, loser = loser, winner
		winPts, losePts = losePts, winPts
		winRank, loseRank = loseRank, winRank
	}

	upset := g.HomePoints != g.AwayPoints && IsUpset(winRank, loseRank)

	text := fmt.Sprintf("FINAL: %s %d, %s %d", winner, winPts, loser, losePts)
	priority := PriorityFinalScore
	if upset {
		text = "UPSET " + text
		priority = PriorityUpset
	}

	return models.PostDraft{
		ID:        DraftID(p, models.KindFinalScore, strconv.Itoa(g.GameID)),
		Kind:      models.KindFinalScore,
		Text:      text,
		Priority:  priority,
		Link:      fmt.Sprintf(gameLinkFormat, g.GameID),
		ExpiresAt: now.Add(FinalScoreTTL),
		Source:    "cfbd:games",
	}, true
}

// IsUpset reports whether a winner at winRank beating a loser at loseRank is an upset.
// Rank 0 is unranked; only a ranked loser can be upset.
func IsUpset(winRank, loseRank int) bool {
	if loseRank == 0 {
		return false
	}
	return winRank == 0 || winRank > loseRank
}

func (a *Assembler) marqueeGame(p models.Period, gs models.GameScore, records map[string]models.RecordEntry, now time.Time) models.PostDraft {
	l := gs.Line
	awayRec, awayOK := records[l.AwayID]
	homeRec, homeOK := records[l.HomeID]

	text := fmt.Sprintf("Game of the week: %s at %s.",
		withRecord(rankedName(l.AwayName, gs.AwayRank), awayRec, awayOK),
		withRecord(rankedName(l.HomeName, gs.HomeRank), homeRec, homeOK),
	)
	if line := formatLine(l); line != "" {
		text += " Line: " + line + "."
	}

	source := "cfbd:lines"
	if l.Provider != "" {
		source += ":" + strings.ToLower(l.Provider)
	}

	return models.PostDraft{
		ID:        DraftID(p, models.KindMarqueeGame, strconv.Itoa(l.GameID)),
		Kind:      models.KindMarqueeGame,
		Text:      text,
		Priority:  PriorityMarqueeGame,
		Link:      fmt.Sprintf(gameLinkFormat, l.GameID),
		ExpiresAt: now.Add(MarqueeGameTTL),
		Source:    source,
	}
}

func (a *Assembler) mover(p models.Period, poll models.Poll, m models.MoverRecord, records map[string]models.RecordEntry, now time.Time) models.PostDraft {
	rec, ok := records[m.SubjectID]
	name := withRecord(m.Name, rec, ok)
	label := poll.Short()

	var (
		kind     models.DraftKind
		text     string
		priority int
	)
	switch {
	case m.New:
		kind, priority = models.KindNewEntrant, PriorityNewEntrant
		text = fmt.Sprintf("%s enters the %s poll at No. %d.", name, label, m.CurrentRank)
	case m.Delta > 0:
		kind, priority = models.KindRankingMover, PriorityMover
		text = fmt.Sprintf("%s climbs %s to No. %d in the %s poll (was No. %d).",
			name, plural(m.Delta, "spot"), m.CurrentRank, label, m.PreviousRank)
	default:
		kind, priority = models.KindRankingMover, PriorityMover
		text = fmt.Sprintf("%s falls %s to No. %d in the %s poll (was No. %d).",
			name, plural(-m.Delta, "spot"), m.CurrentRank, label, m.PreviousRank)
	}

	return models.PostDraft{
		ID:        DraftID(p, kind, label, m.SubjectID),
		Kind:      kind,
		Text:      text,
		Priority:  priority,
		Link:      rankingsLink,
		ExpiresAt: now.Add(PollFactTTL),
		Source:    "cfbd:rankings:" + strings.ToLower(label),
	}
}
