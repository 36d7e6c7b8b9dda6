// Package scoring ranks candidate games by a composite newsworthiness score.
package scoring

import (
	"sort"
	"strings"

	"cfbfeed/internal/models"
)

// Tier orders conferences by general interest
type Tier int

const (
	TierOther Tier = iota
	TierMajor
	TierMarquee
)

// DefaultConferenceTiers lists the conferences that earn tier bonuses.
// Conferences not listed are TierOther.
var DefaultConferenceTiers = map[string]Tier{
	"SEC":     TierMarquee,
	"Big Ten": TierMarquee,
	"Big 12":  TierMajor,
	"ACC":     TierMajor,
}

// SpreadBonus awards Points when |spread| <= Max. Only the tightest matching band applies.
type SpreadBonus struct {
	Max    float64
	Points float64
}

// Weights are the additive contributions of each signal
type Weights struct {
	BothRanked     float64
	AnyRanked      float64
	SameConference float64
	MajorBonus     float64
	MarqueeBonus   float64
	SpreadBands    []SpreadBonus
}

// DefaultWeights are the production weights
var DefaultWeights = Weights{
	BothRanked:     1000,
	AnyRanked:      300,
	SameConference: 100,
	MajorBonus:     50,
	MarqueeBonus:   50,
	SpreadBands: []SpreadBonus{
		{Max: 3, Points: 75},
		{Max: 7, Points: 50},
		{Max: 14, Points: 25},
	},
}

// Scorer computes GameScores
type Scorer struct {
	weights  Weights
	tiers    map[string]Tier
	pollSize int
}

// NewScorer returns a scorer with the default weights and tiers
func NewScorer() *Scorer {
	return &Scorer{
		weights:  DefaultWeights,
		tiers:    DefaultConferenceTiers,
		pollSize: models.PollSize,
	}
}

// WithTiers returns a copy of s using tiers
func (s *Scorer) WithTiers(tiers map[string]Tier) *Scorer {
	cp := *s
	cp.tiers = tiers
	return &cp
}

// ScoreAndSelect scores pool with the default scorer
func ScoreAndSelect(pool models.LinePool, ranking models.RankingSnapshot, records models.RecordSet, limit int) []models.GameScore {
	return NewScorer().ScoreAndSelect(pool, ranking, records, limit)
}

// ScoreAndSelect returns at most limit games in descending score order.
// Ties go to the lower combined rank (unranked counts as pollSize+1), then input order.
func (s *Scorer) ScoreAndSelect(pool models.LinePool, ranking models.RankingSnapshot, records models.RecordSet, limit int) []models.GameScore {
	if limit <= 0 || pool.Len() == 0 {
		return nil
	}

	ranks := ranking.Ranks()
	recs := records.Lookup()

	scored := make([]models.GameScore, 0, pool.Len())
	for _, line := range pool.Lines {
		line = fillConferences(line, recs)
		gs := models.GameScore{
			Line:     line,
			HomeRank: ranks[line.HomeID],
			AwayRank: ranks[line.AwayID],
		}
		gs.Score = s.Score(gs)
		scored = append(scored, gs)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return s.combinedRank(scored[i]) < s.combinedRank(scored[j])
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// Score computes the composite score for one game with its rank context filled in
func (s *Scorer) Score(gs models.GameScore) float64 {
	var score float64
	w := s.weights

	if gs.HomeRank > 0 && gs.AwayRank > 0 {
		score += w.BothRanked
		score += float64(s.pollSize + 1 - gs.HomeRank)
		score += float64(s.pollSize + 1 - gs.AwayRank)
	}

	if gs.Line.SameConference() {
		score += w.SameConference
		switch s.tier(gs.Line.HomeConference) {
		case TierMarquee:
			score += w.MajorBonus + w.MarqueeBonus
		case TierMajor:
			score += w.MajorBonus
		}
	}

	if spread, ok := gs.Line.SpreadMagnitude(); ok {
		for _, band := range w.SpreadBands {
			if spread <= band.Max {
				score += band.Points
				break
			}
		}
	}

	if gs.HomeRank > 0 || gs.AwayRank > 0 {
		score += w.AnyRanked
	}

	return score
}

func (s *Scorer) tier(conference string) Tier {
	for name, t := range s.tiers {
		if strings.EqualFold(name, conference) {
			return t
		}
	}
	return TierOther
}

func (s *Scorer) combinedRank(gs models.GameScore) int {
	return rankOrUnranked(gs.HomeRank, s.pollSize) + rankOrUnranked(gs.AwayRank, s.pollSize)
}

func rankOrUnranked(rank, pollSize int) int {
	if rank <= 0 {
		return pollSize + 1
	}
	return rank
}

// fillConferences uses season records when the line omits a conference
func fillConferences(line models.LineEntry, recs map[string]models.RecordEntry) models.LineEntry {
	if line.HomeConference == "" {
		line.HomeConference = recs[line.HomeID].Conference
	}
	if line.AwayConference == "" {
		line.AwayConference = recs[line.AwayID].Conference
	}
	return line
}
