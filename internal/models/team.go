package models

import "fmt"

// Team is one entry of the canonical team reference table
type Team struct {
	SubjectID      string   `json:"subject_id"`
	TeamID         int      `json:"team_id"`
	School         string   `json:"school"`
	Mascot         string   `json:"mascot,omitempty"`
	Abbreviation   string   `json:"abbreviation,omitempty"`
	AlternateNames []string `json:"alternate_names,omitempty"`
	Conference     string   `json:"conference,omitempty"`
	Classification string   `json:"classification,omitempty"`
}

// TeamSet is the team reference table for a season
type TeamSet struct {
	Season int    `json:"season"`
	Teams  []Team `json:"teams"`
}

func (t TeamSet) Datatype() Datatype { return DatatypeTeams }
func (t TeamSet) Len() int           { return len(t.Teams) }
func (TeamSet) isSnapshot()          {}

// TeamInput is one element of the CFBD /teams response
type TeamInput struct {
	ID             int      `json:"id"`
	School         string   `json:"school"`
	Mascot         string   `json:"mascot"`
	Abbreviation   string   `json:"abbreviation"`
	AlternateNames []string `json:"alternateNames"`
	Conference     string   `json:"conference"`
	Classification string   `json:"classification"`
}

// ToTeam converts TeamInput (from API) to Team. The subject ID is assigned by the directory.
func (ti *TeamInput) ToTeam() Team {
	team := Team{
		TeamID:         ti.ID,
		School:         ti.School,
		Mascot:         ti.Mascot,
		Abbreviation:   ti.Abbreviation,
		Conference:     ti.Conference,
		Classification: ti.Classification,
	}

	for _, alt := range ti.AlternateNames {
		if alt != "" && alt != ti.School {
			team.AlternateNames = append(team.AlternateNames, alt)
		}
	}

	return team
}

// RecordEntry is a team's cumulative season record as of a week
type RecordEntry struct {
	SubjectID  string `json:"subject_id"`
	Name       string `json:"name"`
	Wins       int    `json:"wins"`
	Losses     int    `json:"losses"`
	Ties       int    `json:"ties,omitempty"`
	Conference string `json:"conference,omitempty"`
}

// String formats the record as W-L or W-L-T
func (r RecordEntry) String() string {
	if r.Ties > 0 {
		return fmt.Sprintf("%d-%d-%d", r.Wins, r.Losses, r.Ties)
	}
	return fmt.Sprintf("%d-%d", r.Wins, r.Losses)
}

// RecordSet is every team record as of one week
type RecordSet struct {
	Season  int           `json:"season"`
	Week    int           `json:"week"`
	Records []RecordEntry `json:"records"`
}

func (r RecordSet) Datatype() Datatype { return DatatypeRecords }
func (r RecordSet) Len() int           { return len(r.Records) }
func (RecordSet) isSnapshot()          {}

// Lookup returns a subjectID -> record index
func (r RecordSet) Lookup() map[string]RecordEntry {
	out := make(map[string]RecordEntry, len(r.Records))
	for _, rec := range r.Records {
		out[rec.SubjectID] = rec
	}
	return out
}

// TeamRecordInput is one element of the CFBD /records response
type TeamRecordInput struct {
	Year       int         `json:"year"`
	Team       string      `json:"team"`
	Conference string      `json:"conference"`
	Total      RecordInput `json:"total"`
}

// RecordInput is a games/wins/losses/ties block
type RecordInput struct {
	Games  int `json:"games"`
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

// ToRecordEntry converts TeamRecordInput (from API) to a RecordEntry
func (ri *TeamRecordInput) ToRecordEntry(ids SubjectResolver) RecordEntry {
	return RecordEntry{
		SubjectID:  ids.SubjectID(ri.Team),
		Name:       ri.Team,
		Wins:       ri.Total.Wins,
		Losses:     ri.Total.Losses,
		Ties:       ri.Total.Ties,
		Conference: ri.Conference,
	}
}
