// Package cvdata defines the homepage configuration records consumed by the CV
// layout and loads them from a directory or a base URL.
package cvdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FlexString accepts a JSON string or number. Year fields are written both ways
// in the homepage configs.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// Info is the title block record (info.json).
type Info struct {
	Name        string `json:"name" validate:"required"`
	Address     string `json:"address"`
	Institution string `json:"institution"`
	Email       string `json:"email"`
}

// Fields exposes the record for template interpolation.
func (i Info) Fields() map[string]any {
	return map[string]any{
		"name":        i.Name,
		"address":     i.Address,
		"institution": i.Institution,
		"email":       i.Email,
	}
}

type Education struct {
	School  string            `json:"school"`
	Details []EducationDetail `json:"details"`
}

type EducationDetail struct {
	Degree       string `json:"degree"`
	Major        string `json:"major"`
	College      string `json:"college,omitempty"`
	Time         string `json:"time"`
	Tutor        string `json:"tutor,omitempty"`
	Dissertation string `json:"dissertation,omitempty"`
}

type Employment struct {
	Company string             `json:"company"`
	Details []EmploymentDetail `json:"details"`
}

type EmploymentDetail struct {
	Position   string `json:"position"`
	Department string `json:"department"`
	Time       string `json:"time"`
	Project    string `json:"project,omitempty"`
}

// Paper is one publication. Year is attached from the enclosing map key while
// rendering and is never read from or written to JSON.
type Paper struct {
	Authors    string     `json:"authors"`
	Title      string     `json:"title"`
	Type       string     `json:"type"`
	Conference string     `json:"conference,omitempty"`
	Journal    string     `json:"journal,omitempty"`
	Location   string     `json:"location,omitempty"`
	Volume     FlexString `json:"volume,omitempty"`
	Abbr       string     `json:"abbr,omitempty"`
	Year       string     `json:"-"`
}

// Venue returns the conference name, or the journal name when no conference is set.
func (p Paper) Venue() string {
	if p.Conference != "" {
		return p.Conference
	}
	return p.Journal
}

// Kind classifies the paper by its type field.
func (p Paper) Kind() VenueKind { return ParseVenueKind(p.Type) }

// Papers maps a year string to that year's papers, as in papers.json.
type Papers map[string][]Paper

// YearGroup is one year of recognised papers.
type YearGroup struct {
	Year   string
	Papers []Paper
}

// ByYear returns years in descending numeric order. Papers keep input order,
// get their Year set, and are dropped when their type is not recognised.
// Years left empty are omitted.
func (p Papers) ByYear() []YearGroup {
	years := make([]string, 0, len(p))
	for y := range p {
		years = append(years, y)
	}
	sort.SliceStable(years, func(i, j int) bool {
		a, errA := strconv.Atoi(strings.TrimSpace(years[i]))
		b, errB := strconv.Atoi(strings.TrimSpace(years[j]))
		switch {
		case errA == nil && errB == nil && a != b:
			return a > b
		case errA == nil && errB != nil:
			return true
		case errA != nil && errB == nil:
			return false
		default:
			return years[i] > years[j]
		}
	})
	var groups []YearGroup
	for _, y := range years {
		var kept []Paper
		for _, paper := range p[y] {
			if paper.Kind() == VenueUnknown {
				continue
			}
			paper.Year = y
			kept = append(kept, paper)
		}
		if len(kept) > 0 {
			groups = append(groups, YearGroup{Year: y, Papers: kept})
		}
	}
	return groups
}

// PatentList is the patents.json envelope.
type PatentList struct {
	Patents []Patent `json:"patents"`
}

type Patent struct {
	Title   string     `json:"title"`
	Authors string     `json:"authors"`
	Type    string     `json:"type"`
	Number  string     `json:"number"`
	Date    FlexString `json:"date"`
	Link    string     `json:"link,omitempty"`
}

type Teaching struct {
	Identity string     `json:"identity"`
	Season   string     `json:"season"`
	Year     FlexString `json:"year"`
	Code     string     `json:"code"`
	Course   string     `json:"course"`
	School   string     `json:"school"`
}

type Honor struct {
	Award string     `json:"award"`
	Unit  string     `json:"unit"`
	Time  FlexString `json:"time"`
}

// Reviewer is one reviewed venue-year.
type Reviewer struct {
	Conference string     `json:"conference,omitempty"`
	Journal    string     `json:"journal,omitempty"`
	Year       FlexString `json:"year"`
}

// Venue returns the grouping key: the conference name, else the journal name.
func (r Reviewer) Venue() string {
	if r.Conference != "" {
		return r.Conference
	}
	return r.Journal
}

// Site mirrors configs/config.json. DefaultLanguage is used when no language
// is requested; SingleLanguageMode disables every other language.
type Site struct {
	DefaultLanguage    string `json:"defaultLanguage"`
	SingleLanguageMode bool   `json:"singleLanguageMode"`
}

// Data is one language's snapshot of every source, fetched once per generation.
type Data struct {
	Lang       string
	Site       Site
	Info       Info
	Education  []Education
	Employment []Employment
	Papers     Papers
	Patents    []Patent
	Teaching   []Teaching
	Honors     []Honor
	Reviewers  []Reviewer
	// Warnings lists sources dropped in lenient mode.
	Warnings []string
}
