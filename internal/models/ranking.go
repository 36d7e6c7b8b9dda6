package models

import (
	"sort"
	"strings"
)

// Poll is the upstream name of a ranking poll
type Poll string

const (
	PollAP      Poll = "AP Top 25"
	PollCoaches Poll = "Coaches Poll"
)

// PollSize is the number of ranked slots in both supported polls
const PollSize = 25

// Datatype returns the snapshot datatype used to cache this poll
func (p Poll) Datatype() Datatype {
	switch p {
	case PollCoaches:
		return DatatypeRankingsCoaches
	default:
		return DatatypeRankingsAP
	}
}

// Short returns a compact label for draft text and sources
func (p Poll) Short() string {
	switch p {
	case PollCoaches:
		return "Coaches"
	default:
		return "AP"
	}
}

// RankedEntry is one team's position in a poll
type RankedEntry struct {
	SubjectID       string `json:"subject_id"`
	Name            string `json:"name"`
	Rank            int    `json:"rank"`
	Conference      string `json:"conference,omitempty"`
	FirstPlaceVotes int    `json:"first_place_votes,omitempty"`
	Points          int    `json:"points,omitempty"`
}

// RankingSnapshot is an ordered poll for one season, week and poll
type RankingSnapshot struct {
	Season  int           `json:"season"`
	Week    int           `json:"week"`
	Poll    Poll          `json:"poll"`
	Entries []RankedEntry `json:"entries"`
}

func (s RankingSnapshot) Datatype() Datatype { return s.Poll.Datatype() }
func (s RankingSnapshot) Len() int           { return len(s.Entries) }
func (RankingSnapshot) isSnapshot()          {}

// Ranks returns a subjectID -> rank lookup
func (s RankingSnapshot) Ranks() map[string]int {
	out := make(map[string]int, len(s.Entries))
	for _, e := range s.Entries {
		out[e.SubjectID] = e.Rank
	}
	return out
}

// RankingsWeekInput is one element of the CFBD /rankings response
type RankingsWeekInput struct {
	Season     int         `json:"season"`
	SeasonType string      `json:"seasonType"`
	Week       int         `json:"week"`
	Polls      []PollInput `json:"polls"`
}

// PollInput is a single poll inside a rankings week
type PollInput struct {
	Poll  string      `json:"poll"`
	Ranks []RankInput `json:"ranks"`
}

// RankInput is a single ranked school
type RankInput struct {
	Rank            int    `json:"rank"`
	School          string `json:"school"`
	Conference      string `json:"conference"`
	FirstPlaceVotes int    `json:"firstPlaceVotes"`
	Points          int    `json:"points"`
}

// ToSnapshot extracts poll from the week. Missing polls yield an empty snapshot.
func (in *RankingsWeekInput) ToSnapshot(poll Poll, ids SubjectResolver) RankingSnapshot {
	snap := RankingSnapshot{Season: in.Season, Week: in.Week, Poll: poll}
	for _, p := range in.Polls {
		if !strings.EqualFold(p.Poll, string(poll)) {
			continue
		}
		for _, r := range p.Ranks {
			snap.Entries = append(snap.Entries, RankedEntry{
				SubjectID:       ids.SubjectID(r.School),
				Name:            r.School,
				Rank:            r.Rank,
				Conference:      r.Conference,
				FirstPlaceVotes: r.FirstPlaceVotes,
				Points:          r.Points,
			})
		}
	}
	sort.SliceStable(snap.Entries, func(i, j int) bool {
		return snap.Entries[i].Rank < snap.Entries[j].Rank
	})
	return snap
}
