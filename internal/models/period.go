package models

import (
	"fmt"
	"time"
)

// Period identifies one reporting week within a season
type Period struct {
	Season int `json:"season"`
	Week   int `json:"week"`
}

// Previous returns the period before p in the same season and false when p is the first week
func (p Period) Previous() (Period, bool) {
	if p.Week <= 1 {
		return Period{}, false
	}
	return Period{Season: p.Season, Week: p.Week - 1}, true
}

func (p Period) String() string {
	return fmt.Sprintf("%d week %d", p.Season, p.Week)
}

// Key returns the snapshot key for datatype in this period
func (p Period) Key(dt Datatype) SnapshotKey {
	return SnapshotKey{Season: p.Season, Week: p.Week, Datatype: dt}
}

// CalendarWeekInput is one entry of the CFBD /calendar response
type CalendarWeekInput struct {
	Season         int    `json:"season"`
	Week           int    `json:"week"`
	SeasonType     string `json:"seasonType"`
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate"`
	FirstGameStart string `json:"firstGameStart"`
	LastGameStart  string `json:"lastGameStart"`
}

// IsRegular returns true for regular season weeks
func (c *CalendarWeekInput) IsRegular() bool {
	return c.SeasonType == "" || c.SeasonType == "regular"
}

// ToPeriod converts a calendar entry into a Period
func (c *CalendarWeekInput) ToPeriod() Period {
	return Period{Season: c.Season, Week: c.Week}
}

// Start returns the first scheduled kickoff of the week, or the zero time
func (c *CalendarWeekInput) Start() time.Time {
	for _, s := range []string{c.FirstGameStart, c.StartDate} {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
