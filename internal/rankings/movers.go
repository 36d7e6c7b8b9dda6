// Package rankings diffs two poll snapshots into significant movers and new entrants.
package rankings

import (
	"errors"
	"fmt"
	"sort"

	"cfbfeed/internal/models"
)

const (
	// DefaultThreshold is the minimum |delta| reported as a mover
	DefaultThreshold = 3

	// MaxMovers caps the combined movers and new entrants
	MaxMovers = 9

	// MinEntries is the smallest snapshot accepted as a genuine poll
	MinEntries = 20
)

var (
	// ErrNoBaseline is returned when there is no previous poll to diff against
	ErrNoBaseline = errors.New("no previous ranking to compare against")

	// ErrUnderfilled is returned for snapshots too small to be a real poll
	ErrUnderfilled = errors.New("ranking snapshot has too few entries")

	// ErrDuplicateRank is returned when two entries share a rank
	ErrDuplicateRank = errors.New("ranking snapshot has duplicate ranks")
)

// Validate enforces the poll invariants: at least minEntries entries, ranks within
// 1..PollSize, no shared ranks and no repeated subjects.
func Validate(snap models.RankingSnapshot, minEntries int) error {
	if snap.Len() < minEntries {
		return fmt.Errorf("%w: %d < %d", ErrUnderfilled, snap.Len(), minEntries)
	}

	ranks := make(map[int]struct{}, snap.Len())
	subjects := make(map[string]struct{}, snap.Len())
	for _, e := range snap.Entries {
		if e.Rank < 1 || e.Rank > models.PollSize {
			return fmt.Errorf("rank %d for %s outside 1..%d", e.Rank, e.SubjectID, models.PollSize)
		}
		if _, dup := ranks[e.Rank]; dup {
			return fmt.Errorf("%w: rank %d", ErrDuplicateRank, e.Rank)
		}
		if _, dup := subjects[e.SubjectID]; dup {
			return fmt.Errorf("subject %s ranked twice", e.SubjectID)
		}
		ranks[e.Rank] = struct{}{}
		subjects[e.SubjectID] = struct{}{}
	}
	return nil
}

// ComputeMovers reports every entry of current whose rank changed by at least threshold,
// ordered by |delta| descending then current rank, followed by new entrants in rank order.
// The result is capped at MaxMovers; new entrants keep their slots first.
// An empty previous snapshot returns ErrNoBaseline and no records, which is distinct from
// a successful diff with no significant movement.
func ComputeMovers(current, previous models.RankingSnapshot, threshold int) ([]models.MoverRecord, error) {
	if previous.Len() == 0 {
		return nil, ErrNoBaseline
	}

	before := previous.Ranks()

	var movers, entrants []models.MoverRecord
	for _, e := range current.Entries {
		prev, ok := before[e.SubjectID]
		if !ok {
			entrants = append(entrants, models.MoverRecord{
				SubjectID:   e.SubjectID,
				Name:        e.Name,
				CurrentRank: e.Rank,
				New:         true,
			})
			continue
		}

		delta := prev - e.Rank
		if abs(delta) < threshold || delta == 0 {
			continue
		}
		movers = append(movers, models.MoverRecord{
			SubjectID:    e.SubjectID,
			Name:         e.Name,
			PreviousRank: prev,
			CurrentRank:  e.Rank,
			Delta:        delta,
		})
	}

	sort.SliceStable(movers, func(i, j int) bool {
		di, dj := abs(movers[i].Delta), abs(movers[j].Delta)
		if di != dj {
			return di > dj
		}
		return movers[i].CurrentRank < movers[j].CurrentRank
	})
	sort.SliceStable(entrants, func(i, j int) bool {
		return entrants[i].CurrentRank < entrants[j].CurrentRank
	})

	if len(entrants) > MaxMovers {
		entrants = entrants[:MaxMovers]
	}
	if room := MaxMovers - len(entrants); len(movers) > room {
		movers = movers[:room]
	}

	out := make([]models.MoverRecord, 0, len(movers)+len(entrants))
	out = append(out, movers...)
	return append(out, entrants...), nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
