package drafts

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"cfbfeed/internal/models"
)

// MaxTextLength is the longest draft text in runes
const MaxTextLength = 280

const ellipsis = "…"

// NormalizeText collapses whitespace and truncates to max runes, ending in an ellipsis when cut
func NormalizeText(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}

	runes := []rune(s)
	cut := strings.TrimRight(string(runes[:max-1]), " ")
	return cut + ellipsis
}

// rankedName prefixes name with its rank when ranked
func rankedName(name string, rank int) string {
	if rank > 0 {
		return fmt.Sprintf("No. %d %s", rank, name)
	}
	return name
}

func withRecord(name string, rec models.RecordEntry, ok bool) string {
	if !ok || rec.Wins+rec.Losses+rec.Ties == 0 {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, rec)
}

// formatLine renders the home-relative spread as the favorite's line
func formatLine(l models.LineEntry) string {
	var parts []string
	if l.Spread != nil {
		switch sp := *l.Spread; {
		case sp < 0:
			parts = append(parts, fmt.Sprintf("%s %s", l.HomeName, formatPoints(sp)))
		case sp > 0:
			parts = append(parts, fmt.Sprintf("%s %s", l.AwayName, formatPoints(-sp)))
		default:
			parts = append(parts, "Pick'em")
		}
	}
	if l.OverUnder != nil {
		parts = append(parts, "O/U "+formatPoints(*l.OverUnder))
	}
	return strings.Join(parts, ", ")
}

func formatPoints(v float64) string {
	if v == float64(int(v)) {
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%.1f", v)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
