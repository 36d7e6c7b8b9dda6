// Package teams resolves upstream team names to canonical subject IDs.
package teams

import (
	"sort"
	"strings"
	"unicode"

	"cfbfeed/internal/models"

	"github.com/rs/zerolog/log"
)

// Normalize folds a team name into its lookup key
func Normalize(name string) string {
	name = strings.ToLower(strings.ReplaceAll(name, "&", " and "))

	var b strings.Builder
	space := true
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			space = false
		case !space:
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Slug returns the subject ID derived from a school name
func Slug(name string) string {
	return strings.ReplaceAll(Normalize(name), " ", "-")
}

// FromInputs builds the reference table with subject IDs assigned
func FromInputs(season int, inputs []models.TeamInput) models.TeamSet {
	set := models.TeamSet{Season: season}
	for i := range inputs {
		team := inputs[i].ToTeam()
		if team.School == "" {
			continue
		}
		team.SubjectID = Slug(team.School)
		set.Teams = append(set.Teams, team)
	}
	return set
}

// Directory is an exact-match name table with an isolated alias fallback
type Directory struct {
	byKey map[string]string
	names map[string]string
	teams map[string]models.Team
	keys  []string
}

// NewDirectory indexes school names first, then abbreviations and alternate names
func NewDirectory(set models.TeamSet) *Directory {
	d := &Directory{
		byKey: make(map[string]string),
		names: make(map[string]string),
		teams: make(map[string]models.Team),
	}

	for _, t := range set.Teams {
		id := t.SubjectID
		if id == "" {
			id = Slug(t.School)
			t.SubjectID = id
		}
		d.teams[id] = t
		d.names[id] = t.School
		d.add(t.School, id)
	}

	for _, t := range set.Teams {
		id := d.teamID(t)
		for _, alt := range append([]string{t.Abbreviation}, t.AlternateNames...) {
			d.add(alt, id)
		}
	}

	d.keys = make([]string, 0, len(d.byKey))
	for k := range d.byKey {
		d.keys = append(d.keys, k)
	}
	sort.Strings(d.keys)

	return d
}

func (d *Directory) teamID(t models.Team) string {
	if t.SubjectID != "" {
		return t.SubjectID
	}
	return Slug(t.School)
}

func (d *Directory) add(name, id string) {
	key := Normalize(name)
	if key == "" {
		return
	}
	if existing, ok := d.byKey[key]; ok && existing != id {
		log.Debug().
			Str("name", name).
			Str("kept", existing).
			Str("dropped", id).
			Msg("Duplicate team alias ignored")
		return
	}
	d.byKey[key] = id
}

// Len returns the number of known teams
func (d *Directory) Len() int {
	return len(d.teams)
}

// Resolve finds the subject ID for name. Exact matches win; otherwise a
// word-boundary alias match is accepted only when it is unambiguous.
func (d *Directory) Resolve(name string) (string, bool) {
	key := Normalize(name)
	if key == "" {
		return "", false
	}
	if id, ok := d.byKey[key]; ok {
		return id, true
	}
	return d.resolveAlias(name, key)
}

func (d *Directory) resolveAlias(name, key string) (string, bool) {
	padded := " " + key + " "
	best := 0
	var candidates []string
	for _, k := range d.keys {
		pk := " " + k + " "
		if !strings.Contains(pk, padded) && !strings.Contains(padded, pk) {
			continue
		}
		// the longest overlapping key is the most specific match
		n := min(len(k), len(key))
		if n < best {
			continue
		}
		if n > best {
			best = n
			candidates = candidates[:0]
		}
		if id := d.byKey[k]; !contains(candidates, id) {
			candidates = append(candidates, id)
		}
	}

	switch len(candidates) {
	case 0:
		return "", false
	case 1:
		log.Debug().
			Str("name", name).
			Str("subject_id", candidates[0]).
			Msg("Resolved team by alias")
		return candidates[0], true
	default:
		log.Warn().
			Str("name", name).
			Strs("candidates", candidates).
			Msg("Ambiguous team alias, leaving unresolved")
		return "", false
	}
}

// SubjectID implements models.SubjectResolver. Unknown names fall back to their slug.
func (d *Directory) SubjectID(name string) string {
	if id, ok := d.Resolve(name); ok {
		return id
	}
	return Slug(name)
}

// Name returns the display school for id, or id itself when unknown
func (d *Directory) Name(id string) string {
	if n, ok := d.names[id]; ok {
		return n
	}
	return id
}

// Team returns the reference entry for id
func (d *Directory) Team(id string) (models.Team, bool) {
	t, ok := d.teams[id]
	return t, ok
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
