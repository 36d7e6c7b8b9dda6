package models

import "time"

// GameResult is a game outcome as reported by the upstream
type GameResult struct {
	GameID     int       `json:"game_id"`
	HomeID     string    `json:"home_id"`
	AwayID     string    `json:"away_id"`
	HomeName   string    `json:"home_name"`
	AwayName   string    `json:"away_name"`
	HomePoints int       `json:"home_points"`
	AwayPoints int       `json:"away_points"`
	Completed  bool      `json:"completed"`
	StartDate  time.Time `json:"start_date"`
}

// Winner returns the winning subject and loser, and false for ties or unfinished games
func (g GameResult) Winner() (winner, loser string, ok bool) {
	if !g.Completed || g.HomePoints == g.AwayPoints {
		return "", "", false
	}
	if g.HomePoints > g.AwayPoints {
		return g.HomeID, g.AwayID, true
	}
	return g.AwayID, g.HomeID, true
}

// ResultSet is every game reported for one week
type ResultSet struct {
	Season int          `json:"season"`
	Week   int          `json:"week"`
	Games  []GameResult `json:"games"`
}

func (r ResultSet) Datatype() Datatype { return DatatypeResults }
func (r ResultSet) Len() int           { return len(r.Games) }
func (ResultSet) isSnapshot()          {}

// Completed returns only the finished games
func (r ResultSet) Completed() []GameResult {
	var out []GameResult
	for _, g := range r.Games {
		if g.Completed {
			out = append(out, g)
		}
	}
	return out
}

// GameInput is one element of the CFBD /games response
type GameInput struct {
	ID                 int    `json:"id"`
	Season             int    `json:"season"`
	Week               int    `json:"week"`
	SeasonType         string `json:"seasonType"`
	StartDate          string `json:"startDate"`
	Completed          bool   `json:"completed"`
	HomeTeam           string `json:"homeTeam"`
	HomeConference     string `json:"homeConference"`
	HomeClassification string `json:"homeClassification"`
	HomePoints         *int   `json:"homePoints"`
	AwayTeam           string `json:"awayTeam"`
	AwayConference     string `json:"awayConference"`
	AwayClassification string `json:"awayClassification"`
	AwayPoints         *int   `json:"awayPoints"`
}

// ToGameResult converts GameInput (from API) to a GameResult.
// A game without both scores is never treated as completed.
func (gi *GameInput) ToGameResult(ids SubjectResolver) GameResult {
	result := GameResult{
		GameID:    gi.ID,
		HomeID:    ids.SubjectID(gi.HomeTeam),
		AwayID:    ids.SubjectID(gi.AwayTeam),
		HomeName:  gi.HomeTeam,
		AwayName:  gi.AwayTeam,
		Completed: gi.Completed && gi.HomePoints != nil && gi.AwayPoints != nil,
	}

	if t, err := time.Parse(time.RFC3339, gi.StartDate); err == nil {
		result.StartDate = t
	}
	if gi.HomePoints != nil {
		result.HomePoints = *gi.HomePoints
	}
	if gi.AwayPoints != nil {
		result.AwayPoints = *gi.AwayPoints
	}

	return result
}
