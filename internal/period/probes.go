package period

import (
	"context"

	"cfbfeed/internal/models"
)

// RankingsFetcher is the subset of the upstream client needed to probe polls
type RankingsFetcher interface {
	FetchRankings(ctx context.Context, season, week int, poll models.Poll, ids models.SubjectResolver) (models.RankingSnapshot, error)
}

// LinesFetcher is the subset of the upstream client needed to probe lines
type LinesFetcher interface {
	FetchLines(ctx context.Context, season, week int, ids models.SubjectResolver) (models.LinePool, error)
}

// ProbeRankings treats the week of the latest published poll as current
func ProbeRankings(src RankingsFetcher, poll models.Poll) Probe {
	return ProbeFunc{
		Label: "rankings-" + poll.Short(),
		Fn: func(ctx context.Context, p models.Period) (int, error) {
			snap, err := src.FetchRankings(ctx, p.Season, p.Week, poll, nil)
			if err != nil {
				return 0, err
			}
			return snap.Len(), nil
		},
	}
}

// ProbeLines treats the latest week with posted betting lines as current
func ProbeLines(src LinesFetcher) Probe {
	return ProbeFunc{
		Label: "lines",
		Fn: func(ctx context.Context, p models.Period) (int, error) {
			pool, err := src.FetchLines(ctx, p.Season, p.Week, nil)
			if err != nil {
				return 0, err
			}
			return pool.Len(), nil
		},
	}
}
