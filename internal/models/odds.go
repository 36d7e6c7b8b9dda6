package models

import (
	"math"
	"strings"
	"time"
)

// Classification values reported by the upstream for a game's division
const (
	ClassificationFBS = "fbs"
	ClassificationFCS = "fcs"
)

// LineEntry is a scheduled or completed game with its betting line
type LineEntry struct {
	GameID         int       `json:"game_id"`
	HomeID         string    `json:"home_id"`
	AwayID         string    `json:"away_id"`
	HomeName       string    `json:"home_name"`
	AwayName       string    `json:"away_name"`
	HomeConference string    `json:"home_conference,omitempty"`
	AwayConference string    `json:"away_conference,omitempty"`
	Classification string    `json:"classification,omitempty"`
	Provider       string    `json:"provider,omitempty"`
	StartDate      time.Time `json:"start_date"`

	// Spread is home relative: negative means the home team is favored
	Spread    *float64 `json:"spread,omitempty"`
	OverUnder *float64 `json:"over_under,omitempty"`
}

// SpreadMagnitude returns |spread| and false when no spread was posted
func (l LineEntry) SpreadMagnitude() (float64, bool) {
	if l.Spread == nil {
		return 0, false
	}
	return math.Abs(*l.Spread), true
}

// SameConference returns true when both teams share a non-empty conference
func (l LineEntry) SameConference() bool {
	return l.HomeConference != "" && strings.EqualFold(l.HomeConference, l.AwayConference)
}

// LinePool is every line posted for one week
type LinePool struct {
	Season int         `json:"season"`
	Week   int         `json:"week"`
	Lines  []LineEntry `json:"lines"`
}

func (p LinePool) Datatype() Datatype { return DatatypeLines }
func (p LinePool) Len() int           { return len(p.Lines) }
func (LinePool) isSnapshot()          {}

// FBSOnly drops games not classified as FBS. Unclassified games are kept.
func (p LinePool) FBSOnly() LinePool {
	out := LinePool{Season: p.Season, Week: p.Week}
	for _, l := range p.Lines {
		if l.Classification == "" || l.Classification == ClassificationFBS {
			out.Lines = append(out.Lines, l)
		}
	}
	return out
}

// GameLinesInput is one element of the CFBD /lines response
type GameLinesInput struct {
	ID                 int         `json:"id"`
	Season             int         `json:"season"`
	SeasonType         string      `json:"seasonType"`
	Week               int         `json:"week"`
	StartDate          string      `json:"startDate"`
	HomeTeam           string      `json:"homeTeam"`
	HomeConference     string      `json:"homeConference"`
	HomeClassification string      `json:"homeClassification"`
	AwayTeam           string      `json:"awayTeam"`
	AwayConference     string      `json:"awayConference"`
	AwayClassification string      `json:"awayClassification"`
	Lines              []LineInput `json:"lines"`
}

// LineInput is a single sportsbook line
type LineInput struct {
	Provider        string   `json:"provider"`
	Spread          *float64 `json:"spread"`
	FormattedSpread string   `json:"formattedSpread"`
	OverUnder       *float64 `json:"overUnder"`
}

// preferredProviders are tried in order before falling back to the first line
var preferredProviders = []string{"consensus", "DraftKings", "ESPN Bet", "Bovada"}

// BestLine picks the preferred provider's line, or nil when none have a spread or total
func (in *GameLinesInput) BestLine() *LineInput {
	for _, name := range preferredProviders {
		for i := range in.Lines {
			if strings.EqualFold(in.Lines[i].Provider, name) && in.Lines[i].hasNumbers() {
				return &in.Lines[i]
			}
		}
	}
	for i := range in.Lines {
		if in.Lines[i].hasNumbers() {
			return &in.Lines[i]
		}
	}
	return nil
}

func (li *LineInput) hasNumbers() bool {
	return li.Spread != nil || li.OverUnder != nil
}

// ToLineEntry converts the API game lines into a LineEntry
func (in *GameLinesInput) ToLineEntry(ids SubjectResolver) LineEntry {
	entry := LineEntry{
		GameID:         in.ID,
		HomeID:         ids.SubjectID(in.HomeTeam),
		AwayID:         ids.SubjectID(in.AwayTeam),
		HomeName:       in.HomeTeam,
		AwayName:       in.AwayTeam,
		HomeConference: in.HomeConference,
		AwayConference: in.AwayConference,
		Classification: classify(in.HomeClassification, in.AwayClassification),
	}

	if t, err := time.Parse(time.RFC3339, in.StartDate); err == nil {
		entry.StartDate = t
	}

	if line := in.BestLine(); line != nil {
		entry.Provider = line.Provider
		entry.Spread = line.Spread
		entry.OverUnder = line.OverUnder
	}

	return entry
}

// classify reports fbs only when both sides are fbs
func classify(home, away string) string {
	home, away = strings.ToLower(home), strings.ToLower(away)
	switch {
	case home == "" && away == "":
		return ""
	case home == ClassificationFBS && away == ClassificationFBS:
		return ClassificationFBS
	case home != ClassificationFBS:
		return home
	default:
		return away
	}
}
