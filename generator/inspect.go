package generator

import (
	"context"

	"github.com/ByLCY/scholarcv/cv"
	"github.com/ByLCY/scholarcv/cvdata"
)

// Report summarises the data one language would render, without laying it out.
type Report struct {
	Lang      string             `json:"lang"`
	Name      string             `json:"name"`
	Counts    map[string]int     `json:"counts"`
	Reviewers []cv.ReviewerGroup `json:"reviewers"`
	Warnings  []string           `json:"warnings,omitempty"`
}

// Inspect loads every source for lang and reports per-section entry counts.
func (g *Generator) Inspect(ctx context.Context, lang string) (*Report, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}
	lang, err := g.lang(lang, g.loader().Site(ctx))
	if err != nil {
		return nil, err
	}
	data, err := g.loader().Load(ctx, lang)
	if err != nil {
		return nil, err
	}
	papers := 0
	for _, group := range data.Papers.ByYear() {
		papers += len(group.Papers)
	}
	return &Report{
		Lang: lang,
		Name: data.Info.Name,
		Counts: map[string]int{
			cvdata.SourceEducation:  len(data.Education),
			cvdata.SourceEmployment: len(data.Employment),
			cvdata.SourcePapers:     papers,
			cvdata.SourcePatents:    len(data.Patents),
			cvdata.SourceTeaching:   len(data.Teaching),
			cvdata.SourceHonors:     len(data.Honors),
			cvdata.SourceReviewer:   len(data.Reviewers),
		},
		Reviewers: cv.AggregateReviewers(data.Reviewers, lang),
		Warnings:  data.Warnings,
	}, nil
}
