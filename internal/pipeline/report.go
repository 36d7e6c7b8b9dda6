package pipeline

import (
	"time"

	"cfbfeed/internal/models"
)

// Stage names in execution order
const (
	StageResolve  = "resolve"
	StageTeams    = "teams"
	StageRankings = "rankings"
	StageBaseline = "baseline"
	StageLines    = "lines"
	StageRecords  = "records"
	StageResults  = "results"
	StageAssemble = "assemble"
	StageFilter   = "filter"
	StageCommit   = "commit"
	StageQueue    = "queue"
)

// Stage outcomes
const (
	StatusOK      = "ok"
	StatusEmpty   = "empty"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// StageResult is the outcome of one stage
type StageResult struct {
	Stage  string `json:"stage"`
	Status string `json:"status"`
	Count  int    `json:"count"`
	Error  string `json:"error,omitempty"`
}

// Report summarizes one run
type Report struct {
	Season     int                `json:"season"`
	Period     models.Period      `json:"period"`
	Stages     []StageResult      `json:"stages"`
	Assembled  int                `json:"assembled"`
	Suppressed int                `json:"suppressed"`
	Queued     int                `json:"queued"`
	ByKind     map[string]int     `json:"by_kind,omitempty"`
	AbortedAt  string             `json:"aborted_at,omitempty"`
	Drafts     []models.PostDraft `json:"-"`
	StartedAt  time.Time          `json:"started_at"`
	Duration   time.Duration      `json:"duration"`
}

func (r *Report) record(stage, status string, count int, err error) {
	res := StageResult{Stage: stage, Status: status, Count: count}
	if err != nil {
		res.Error = err.Error()
	}
	r.Stages = append(r.Stages, res)
}

// Stage returns the recorded result for stage
func (r *Report) Stage(stage string) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Stage == stage {
			return s, true
		}
	}
	return StageResult{}, false
}

// firstUnproductive names the earliest data stage that produced nothing
func (r *Report) firstUnproductive() string {
	for _, s := range r.Stages {
		if s.Status == StatusFailed || s.Status == StatusEmpty {
			return s.Stage
		}
	}
	return StageAssemble
}
