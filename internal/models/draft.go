package models

import "time"

// DraftKind classifies the fact a draft was derived from
type DraftKind string

const (
	KindRankingMover DraftKind = "ranking_mover"
	KindNewEntrant   DraftKind = "new_entrant"
	KindMarqueeGame  DraftKind = "marquee_game"
	KindFinalScore   DraftKind = "final_score"
)

// MoverRecord is a significant rank change between two polls.
// PreviousRank is 0 and New is true for teams absent from the previous poll.
type MoverRecord struct {
	SubjectID    string `json:"subject_id"`
	Name         string `json:"name"`
	PreviousRank int    `json:"previous_rank,omitempty"`
	CurrentRank  int    `json:"current_rank"`
	Delta        int    `json:"delta"`
	New          bool   `json:"new,omitempty"`
}

// GameScore is a candidate game with its composite importance score.
// A rank of 0 means unranked.
type GameScore struct {
	Line     LineEntry `json:"line"`
	AwayRank int       `json:"away_rank,omitempty"`
	HomeRank int       `json:"home_rank,omitempty"`
	Score    float64   `json:"score"`
}

// PostDraft is one candidate post. Drafts are never mutated after assembly.
type PostDraft struct {
	ID        string    `json:"id"`
	Kind      DraftKind `json:"kind"`
	Text      string    `json:"text"`
	Priority  int       `json:"priority"`
	Link      string    `json:"link,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	Source    string    `json:"source"`
	Season    int       `json:"season"`
	Week      int       `json:"week"`
}
