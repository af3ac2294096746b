package cv

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ByLCY/scholarcv/cvdata"
)

// ReviewerGroup is one venue with every year it was reviewed for.
type ReviewerGroup struct {
	Name  string   `json:"name"`
	Years []string `json:"years"`
}

// YearsLabel joins the years the way the CV prints them.
func (g ReviewerGroup) YearsLabel() string { return strings.Join(g.Years, " / ") }

// AggregateReviewers groups one-record-per-year reviewer entries by venue.
// Years are deduplicated and ascending; venues are ordered by a collator for
// lang. Records without a venue are ignored.
func AggregateReviewers(records []cvdata.Reviewer, lang string) []ReviewerGroup {
	index := map[string]int{}
	var groups []ReviewerGroup
	for _, r := range records {
		name := strings.TrimSpace(r.Venue())
		if name == "" {
			continue
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, ReviewerGroup{Name: name})
		}
		year := strings.TrimSpace(r.Year.String())
		if year == "" || slices.Contains(groups[i].Years, year) {
			continue
		}
		groups[i].Years = append(groups[i].Years, year)
	}

	for i := range groups {
		sort.SliceStable(groups[i].Years, func(a, b int) bool {
			return yearLess(groups[i].Years[a], groups[i].Years[b])
		})
	}
	col := collate.New(collationTag(lang))
	sort.SliceStable(groups, func(a, b int) bool {
		return col.CompareString(groups[a].Name, groups[b].Name) < 0
	})
	return groups
}

func collationTag(lang string) language.Tag {
	tag, err := language.Parse(lang)
	if err != nil {
		return language.English
	}
	return tag
}

func yearLess(a, b string) bool {
	x, errX := strconv.Atoi(a)
	y, errY := strconv.Atoi(b)
	if errX == nil && errY == nil {
		return x < y
	}
	return a < b
}
