// Package pipeline runs one fetch, cache, diff, select and emit cycle.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cfbfeed/internal/cache"
	"cfbfeed/internal/drafts"
	"cfbfeed/internal/ledger"
	"cfbfeed/internal/metrics"
	"cfbfeed/internal/models"
	"cfbfeed/internal/period"
	"cfbfeed/internal/queue"
	"cfbfeed/internal/rankings"
	"cfbfeed/internal/scoring"
	"cfbfeed/internal/teams"

	"github.com/rs/zerolog/log"
)

// Source is the read-only upstream query surface
type Source interface {
	period.Lister
	period.RankingsFetcher
	period.LinesFetcher
	FetchRecords(ctx context.Context, season int, ids models.SubjectResolver) (models.RecordSet, error)
	FetchResults(ctx context.Context, season, week int, ids models.SubjectResolver) (models.ResultSet, error)
	FetchTeams(ctx context.Context, season int) (models.TeamSet, error)
}

// Probe names the datatype that defines the authoritative week
type Probe string

const (
	ProbeRankings Probe = "rankings"
	ProbeLines    Probe = "lines"
)

// Settings are the tunable constants of a run
type Settings struct {
	Poll       models.Poll
	Probe      Probe
	Threshold  int
	MinEntries int
	GameLimit  int
}

// DefaultSettings diff the AP poll and pick the top three games
var DefaultSettings = Settings{
	Poll:       models.PollAP,
	Probe:      ProbeRankings,
	Threshold:  rankings.DefaultThreshold,
	MinEntries: rankings.MinEntries,
	GameLimit:  3,
}

// Runner carries every handle one run needs. It holds no state between runs.
type Runner struct {
	source   Source
	cache    *cache.Cache
	ledger   ledger.Ledger
	queue    queue.Queue
	scorer   *scoring.Scorer
	settings Settings
	now      func() time.Time
}

// NewRunner wires a runner; zero settings fields take their defaults
func NewRunner(src Source, c *cache.Cache, l ledger.Ledger, q queue.Queue, settings Settings) *Runner {
	if settings.Poll == "" {
		settings.Poll = DefaultSettings.Poll
	}
	if settings.Probe == "" {
		settings.Probe = DefaultSettings.Probe
	}
	if settings.Threshold <= 0 {
		settings.Threshold = DefaultSettings.Threshold
	}
	if settings.MinEntries <= 0 {
		settings.MinEntries = DefaultSettings.MinEntries
	}
	if settings.GameLimit <= 0 {
		settings.GameLimit = DefaultSettings.GameLimit
	}

	return &Runner{
		source:   src,
		cache:    c,
		ledger:   l,
		queue:    q,
		scorer:   scoring.NewScorer(),
		settings: settings,
		now:      time.Now,
	}
}

// WithClock returns a copy of r using now for expiry stamps
func (r *Runner) WithClock(now func() time.Time) *Runner {
	cp := *r
	cp.now = now
	return &cp
}

// Resolver returns the period resolver configured for this runner
func (r *Runner) Resolver() *period.Resolver {
	var probe period.Probe
	switch r.settings.Probe {
	case ProbeLines:
		probe = period.ProbeLines(r.source)
	default:
		probe = period.ProbeRankings(r.source, r.settings.Poll)
	}
	return period.NewResolver(r.source, probe)
}

// Run executes one cycle for season. A run that finds nothing to post returns a
// report naming the aborting stage and a nil error; only listing, ledger and queue
// failures are returned as errors.
func (r *Runner) Run(ctx context.Context, season int) (*Report, error) {
	report := &Report{Season: season, StartedAt: r.now()}
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	p, err := r.Resolver().Resolve(ctx, season)
	if err != nil {
		report.record(StageResolve, StatusFailed, 0, err)
		report.AbortedAt = StageResolve
		if errors.Is(err, period.ErrNotFound) {
			log.Warn().Err(err).Int("season", season).Msg("No period with data, nothing to do")
			return report, nil
		}
		return report, err
	}
	report.Period = p
	report.record(StageResolve, StatusOK, 1, nil)
	metrics.ResolvedWeek.Set(float64(p.Week))

	dir := r.loadDirectory(ctx, report, season)
	facts := drafts.Facts{Period: p, Poll: r.settings.Poll}

	current := r.loadRanking(ctx, report, StageRankings, p, dir)
	previous := models.RankingSnapshot{}
	prevPeriod, hasPrev := p.Previous()
	if hasPrev {
		previous = r.loadRanking(ctx, report, StageBaseline, prevPeriod, dir)
	} else {
		report.record(StageBaseline, StatusSkipped, 0, nil)
	}

	if current.Len() > 0 {
		movers, err := rankings.ComputeMovers(current, previous, r.settings.Threshold)
		if err != nil {
			log.Info().Err(err).Str("period", p.String()).Msg("Skipping movers")
		}
		facts.Movers = movers
	}

	pool := r.loadLines(ctx, report, p, dir)
	records := r.loadRecords(ctx, report, p, dir)
	facts.Records = records
	if pool.Len() > 0 {
		facts.Games = r.scorer.ScoreAndSelect(pool.FBSOnly(), current, records, r.settings.GameLimit)
	}

	// Final scores come from the games played before this period's poll, ranked as of kickoff
	if hasPrev {
		results := r.loadResults(ctx, report, prevPeriod, dir)
		facts.Results = results.Completed()
		facts.Ranking = previous
	} else {
		report.record(StageResults, StatusSkipped, 0, nil)
	}

	assembled := drafts.NewAssembler(r.now).Assemble(facts)
	report.Assembled = len(assembled)
	report.ByKind = countByKind(assembled)
	if len(assembled) == 0 {
		report.record(StageAssemble, StatusEmpty, 0, nil)
		report.AbortedAt = report.firstUnproductive()
		r.logReport(report)
		return report, nil
	}
	report.record(StageAssemble, StatusOK, len(assembled), nil)

	fresh, err := ledger.FilterUnposted(ctx, r.ledger, assembled)
	if err != nil {
		report.record(StageFilter, StatusFailed, 0, err)
		report.AbortedAt = StageFilter
		return report, err
	}
	report.Suppressed = len(assembled) - len(fresh)
	if len(fresh) == 0 {
		report.record(StageFilter, StatusEmpty, 0, nil)
		report.AbortedAt = StageFilter
		metrics.RecordDrafts(report.ByKind, report.Suppressed, 0)
		r.logReport(report)
		return report, nil
	}
	report.record(StageFilter, StatusOK, len(fresh), nil)

	// Commit before publishing: a crash in between drops drafts rather than duplicating them
	if err := ledger.Commit(ctx, r.ledger, fresh); err != nil {
		report.record(StageCommit, StatusFailed, 0, err)
		report.AbortedAt = StageCommit
		metrics.RecordError("ledger", "commit")
		return report, err
	}
	report.record(StageCommit, StatusOK, len(fresh), nil)

	if err := r.queue.Append(ctx, fresh); err != nil {
		report.record(StageQueue, StatusFailed, 0, err)
		report.AbortedAt = StageQueue
		metrics.RecordError("queue", "append")
		ids := make([]string, len(fresh))
		for i, d := range fresh {
			ids[i] = d.ID
		}
		log.Error().
			Err(err).
			Strs("draft_ids", ids).
			Msg("Drafts committed to ledger but not queued")
		return report, fmt.Errorf("failed to queue drafts: %w", err)
	}
	report.record(StageQueue, StatusOK, len(fresh), nil)
	report.Queued = len(fresh)
	report.Drafts = fresh

	metrics.RecordDrafts(report.ByKind, report.Suppressed, report.Queued)
	r.logReport(report)
	return report, nil
}

// loadDirectory builds the identity table; without it names fall back to slugs
func (r *Runner) loadDirectory(ctx context.Context, report *Report, season int) *teams.Directory {
	key := models.SnapshotKey{Season: season, Datatype: models.DatatypeTeams}
	set, err := cache.GetOrFetch(ctx, r.cache, key, func(ctx context.Context) (models.TeamSet, error) {
		return r.source.FetchTeams(ctx, season)
	})
	if err != nil {
		r.stageError(report, StageTeams, err)
		return teams.NewDirectory(models.TeamSet{})
	}
	report.record(StageTeams, statusFor(set.Len()), set.Len(), nil)
	return teams.NewDirectory(set)
}

// loadRanking fetches a poll and rejects under-filled or malformed snapshots before caching
func (r *Runner) loadRanking(ctx context.Context, report *Report, stage string, p models.Period, ids models.SubjectResolver) models.RankingSnapshot {
	poll := r.settings.Poll
	snap, err := cache.GetOrFetch(ctx, r.cache, p.Key(poll.Datatype()), func(ctx context.Context) (models.RankingSnapshot, error) {
		snap, err := r.source.FetchRankings(ctx, p.Season, p.Week, poll, ids)
		if err != nil || snap.Len() == 0 {
			return snap, err
		}
		if err := rankings.Validate(snap, r.settings.MinEntries); err != nil {
			return models.RankingSnapshot{}, fmt.Errorf("rejected %s poll for %s: %w", poll.Short(), p, err)
		}
		return snap, nil
	})
	if err != nil {
		r.stageError(report, stage, err)
		return models.RankingSnapshot{}
	}
	report.record(stage, statusFor(snap.Len()), snap.Len(), nil)
	return snap
}

func (r *Runner) loadLines(ctx context.Context, report *Report, p models.Period, ids models.SubjectResolver) models.LinePool {
	pool, err := cache.GetOrFetch(ctx, r.cache, p.Key(models.DatatypeLines), func(ctx context.Context) (models.LinePool, error) {
		return r.source.FetchLines(ctx, p.Season, p.Week, ids)
	})
	if err != nil {
		r.stageError(report, StageLines, err)
		return models.LinePool{}
	}
	report.record(StageLines, statusFor(pool.Len()), pool.Len(), nil)
	return pool
}

func (r *Runner) loadRecords(ctx context.Context, report *Report, p models.Period, ids models.SubjectResolver) models.RecordSet {
	set, err := cache.GetOrFetch(ctx, r.cache, p.Key(models.DatatypeRecords), func(ctx context.Context) (models.RecordSet, error) {
		set, err := r.source.FetchRecords(ctx, p.Season, ids)
		set.Week = p.Week
		return set, err
	})
	if err != nil {
		r.stageError(report, StageRecords, err)
		return models.RecordSet{}
	}
	report.record(StageRecords, statusFor(set.Len()), set.Len(), nil)
	return set
}

// loadResults caches a week's games only once every game is final, so late
// finishes are not frozen out of the write-once cache
func (r *Runner) loadResults(ctx context.Context, report *Report, p models.Period, ids models.SubjectResolver) models.ResultSet {
	key := p.Key(models.DatatypeResults)
	if set, ok, err := cache.Peek[models.ResultSet](ctx, r.cache, key); err != nil {
		r.stageError(report, StageResults, err)
		return models.ResultSet{}
	} else if ok {
		report.record(StageResults, statusFor(set.Len()), set.Len(), nil)
		return set
	}

	set, err := r.source.FetchResults(ctx, p.Season, p.Week, ids)
	if err != nil {
		r.stageError(report, StageResults, err)
		return models.ResultSet{}
	}

	if set.Len() > 0 && len(set.Completed()) == set.Len() {
		if _, err := cache.GetOrFetch(ctx, r.cache, key, func(context.Context) (models.ResultSet, error) {
			return set, nil
		}); err != nil {
			log.Warn().Err(err).Str("key", key.String()).Msg("Failed to cache final results")
		}
	}

	report.record(StageResults, statusFor(set.Len()), set.Len(), nil)
	return set
}

// stageError records an upstream failure as "no data" for that stage
func (r *Runner) stageError(report *Report, stage string, err error) {
	metrics.RecordError("pipeline", stage)
	log.Warn().
		Err(err).
		Str("stage", stage).
		Msg("Stage failed, continuing without its data")
	report.record(stage, StatusFailed, 0, err)
}

func (r *Runner) logReport(report *Report) {
	evt := log.Info().
		Int("season", report.Season).
		Int("week", report.Period.Week).
		Int("assembled", report.Assembled).
		Int("suppressed", report.Suppressed).
		Int("queued", report.Queued)
	if report.AbortedAt != "" {
		evt = evt.Str("aborted_at", report.AbortedAt)
	}
	evt.Msg("Feed run complete")
}

func statusFor(n int) string {
	if n == 0 {
		return StatusEmpty
	}
	return StatusOK
}

func countByKind(ds []models.PostDraft) map[string]int {
	out := make(map[string]int)
	for _, d := range ds {
		out[string(d.Kind)]++
	}
	return out
}
