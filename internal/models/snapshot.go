package models

import "fmt"

// Datatype names a kind of cached upstream snapshot
type Datatype string

const (
	DatatypeRankingsAP      Datatype = "rankings-ap"
	DatatypeRankingsCoaches Datatype = "rankings-coaches"
	DatatypeLines           Datatype = "lines"
	DatatypeRecords         Datatype = "records"
	DatatypeResults         Datatype = "results"
	DatatypeTeams           Datatype = "teams"
)

// Snapshot is the closed set of payloads the snapshot cache can hold.
// Implementations live in this package only.
type Snapshot interface {
	Datatype() Datatype
	Len() int
	isSnapshot()
}

// SnapshotKey identifies one immutable snapshot
type SnapshotKey struct {
	Season   int      `json:"season"`
	Week     int      `json:"week"`
	Datatype Datatype `json:"datatype"`
}

func (k SnapshotKey) String() string {
	return fmt.Sprintf("%d/%d/%s", k.Season, k.Week, k.Datatype)
}

// SubjectResolver maps an upstream team name to a canonical subject ID
type SubjectResolver interface {
	SubjectID(name string) string
}
