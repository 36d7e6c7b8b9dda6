package period

import (
	"context"
	"errors"
	"testing"

	"cfbfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLister struct {
	periods []models.Period
	err     error
}

func (l staticLister) ListPeriods(_ context.Context, _ int) ([]models.Period, error) {
	return l.periods, l.err
}

func weeks(season int, ws ...int) []models.Period {
	out := make([]models.Period, 0, len(ws))
	for _, w := range ws {
		out = append(out, models.Period{Season: season, Week: w})
	}
	return out
}

// probeOf returns a probe with fixed counts per week; weeks in failing return an error
func probeOf(counts map[int]int, failing ...int) (ProbeFunc, *[]int) {
	var calls []int
	fail := make(map[int]bool, len(failing))
	for _, w := range failing {
		fail[w] = true
	}
	return ProbeFunc{
		Label: "test",
		Fn: func(_ context.Context, p models.Period) (int, error) {
			calls = append(calls, p.Week)
			if fail[p.Week] {
				return 0, errors.New("upstream timeout")
			}
			return counts[p.Week], nil
		},
	}, &calls
}

func TestResolve_NewestWithData(t *testing.T) {
	probe, calls := probeOf(map[int]int{1: 25, 2: 25, 3: 25})
	r := NewResolver(staticLister{periods: weeks(2024, 1, 2, 3, 4, 5)}, probe)

	p, err := r.Resolve(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, models.Period{Season: 2024, Week: 3}, p)
	assert.Equal(t, []int{5, 4, 3}, *calls)
}

func TestResolve_UnorderedListing(t *testing.T) {
	probe, _ := probeOf(map[int]int{2: 10, 7: 25})
	r := NewResolver(staticLister{periods: weeks(2024, 7, 2, 9, 8)}, probe)

	p, err := r.Resolve(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Week)
}

func TestResolve_ProbeErrorFallsBack(t *testing.T) {
	probe, calls := probeOf(map[int]int{5: 25, 4: 25}, 5)
	r := NewResolver(staticLister{periods: weeks(2024, 1, 2, 3, 4, 5)}, probe)

	p, err := r.Resolve(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Week)
	assert.Equal(t, []int{5, 4}, *calls)
}

func TestResolve_NoData(t *testing.T) {
	probe, _ := probeOf(map[int]int{})
	r := NewResolver(staticLister{periods: weeks(2024, 1, 2)}, probe)

	_, err := r.Resolve(context.Background(), 2024)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_EmptyListing(t *testing.T) {
	probe, calls := probeOf(map[int]int{1: 25})
	r := NewResolver(staticLister{}, probe)

	_, err := r.Resolve(context.Background(), 2024)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, *calls)
}

func TestResolve_ListingFailureIsFatal(t *testing.T) {
	probe, calls := probeOf(map[int]int{1: 25})
	r := NewResolver(staticLister{err: errors.New("503")}, probe)

	_, err := r.Resolve(context.Background(), 2024)
	assert.ErrorIs(t, err, ErrListing)
	assert.Empty(t, *calls)
}

func TestResolve_CancelledContext(t *testing.T) {
	probe, _ := probeOf(map[int]int{1: 25})
	r := NewResolver(staticLister{periods: weeks(2024, 1, 2)}, probe)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Resolve(ctx, 2024)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve_NeverReturnsLaterThanNewestWithData(t *testing.T) {
	for newest := 1; newest <= 15; newest++ {
		counts := map[int]int{}
		for w := 1; w <= newest; w++ {
			counts[w] = 25
		}
		probe, _ := probeOf(counts)
		r := NewResolver(staticLister{periods: weeks(2024, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15)}, probe)

		p, err := r.Resolve(context.Background(), 2024)
		require.NoError(t, err)
		assert.Equal(t, newest, p.Week)
	}
}
