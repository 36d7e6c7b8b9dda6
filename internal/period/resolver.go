// Package period finds the most recent week with published upstream data.
package period

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"cfbfeed/internal/models"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNotFound is returned when no listed week has data for the probe
	ErrNotFound = errors.New("no period with published data")

	// ErrListing is returned when the weeks of a season cannot be listed
	ErrListing = errors.New("failed to list periods")
)

// Lister enumerates the weeks defined for a season
type Lister interface {
	ListPeriods(ctx context.Context, season int) ([]models.Period, error)
}

// Probe reports how many entries of the authoritative datatype exist for p
type Probe interface {
	Name() string
	Count(ctx context.Context, p models.Period) (int, error)
}

// ProbeFunc adapts a function into a named Probe
type ProbeFunc struct {
	Label string
	Fn    func(ctx context.Context, p models.Period) (int, error)
}

func (f ProbeFunc) Name() string { return f.Label }

func (f ProbeFunc) Count(ctx context.Context, p models.Period) (int, error) {
	return f.Fn(ctx, p)
}

// Resolver walks weeks newest first and returns the first one the probe finds data for
type Resolver struct {
	lister Lister
	probe  Probe
}

// NewResolver creates a resolver using probe to decide which week is authoritative
func NewResolver(lister Lister, probe Probe) *Resolver {
	return &Resolver{lister: lister, probe: probe}
}

// Resolve returns the newest period of season with data. Probe errors count as
// "no data" for that week; only a listing failure is fatal.
func (r *Resolver) Resolve(ctx context.Context, season int) (models.Period, error) {
	periods, err := r.lister.ListPeriods(ctx, season)
	if err != nil {
		return models.Period{}, fmt.Errorf("%w for season %d: %v", ErrListing, season, err)
	}

	sorted := make([]models.Period, 0, len(periods))
	for _, p := range periods {
		if p.Season == season || p.Season == 0 {
			sorted = append(sorted, models.Period{Season: season, Week: p.Week})
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Week > sorted[j].Week
	})

	for _, p := range sorted {
		if err := ctx.Err(); err != nil {
			return models.Period{}, err
		}

		n, err := r.probe.Count(ctx, p)
		if err != nil {
			log.Warn().
				Err(err).
				Str("probe", r.probe.Name()).
				Int("season", p.Season).
				Int("week", p.Week).
				Msg("Probe failed, treating week as empty")
			continue
		}
		if n > 0 {
			log.Info().
				Str("probe", r.probe.Name()).
				Int("season", p.Season).
				Int("week", p.Week).
				Int("entries", n).
				Msg("Resolved current period")
			return p, nil
		}

		log.Debug().
			Str("probe", r.probe.Name()).
			Int("week", p.Week).
			Msg("No data for week")
	}

	return models.Period{}, fmt.Errorf("%w: season %d, probe %s", ErrNotFound, season, r.probe.Name())
}
