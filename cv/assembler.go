// Package cv lays out a one-page academic CV from homepage data.
package cv

import (
	"fmt"
	"log"
	"strings"

	"github.com/ByLCY/scholarcv/binding"
	"github.com/ByLCY/scholarcv/cvdata"
	"github.com/ByLCY/scholarcv/layout"
)

// Vertical rhythm, in layout units.
const (
	// EntryGap separates Education and Employment entries.
	EntryGap = 25.0
	// ItemGap separates entries of every other section.
	ItemGap    = 18.0
	SectionGap = 22.0
	HeaderGap  = 20.0
	RuleOffset = 4.0
	SublineGap = 18.0
	LegendGap  = 18.0
)

// Options configures one Build.
type Options struct {
	Lang     string
	Measurer layout.Measurer
	// Styles defaults to layout.DefaultStyleSet when left zero.
	Styles layout.StyleSet
	Margin layout.Margin
	// Labels overrides the table picked from Lang.
	Labels *Labels
	// Subline is a ${field} template over info; empty joins address,
	// institution and email with " | ".
	Subline string
	// Watermark is centred on the page under the content. Width and Height
	// must be set; X and Y are computed.
	Watermark *layout.ImageBox
	// Stamp is drawn in the page's stamp slot, outside the content.
	Stamp  string
	Logger *log.Logger
}

type builder struct {
	s      *layout.Surface
	st     layout.StyleSet
	labels Labels
	lang   string
}

// Build lays out data in one pass: title, Education, Employment,
// Publications with Patents, then Academic Service. Sections without data
// draw nothing and take no space.
func Build(data *cvdata.Data, opts Options) (*layout.Result, error) {
	if data == nil {
		return nil, fmt.Errorf("cv: 缺少数据")
	}
	styles := opts.Styles
	if styles.BodySize == 0 {
		styles = layout.DefaultStyleSet()
	}
	lang := opts.Lang
	if lang == "" {
		lang = data.Lang
	}
	labels := LabelsFor(lang)
	if opts.Labels != nil {
		labels = *opts.Labels
	}
	s, err := layout.NewSurface(layout.SurfaceOptions{
		Margin:   opts.Margin,
		Styles:   styles,
		Measurer: opts.Measurer,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	b := &builder{s: s, st: styles, labels: labels, lang: lang}

	b.watermark(opts.Watermark)
	b.title(data.Info, opts.Subline)
	b.educationSection(data.Education)
	b.employmentSection(data.Employment)
	b.publicationSection(data.Papers.ByYear(), data.Patents)
	b.serviceSection(data.Teaching, data.Honors, AggregateReviewers(data.Reviewers, lang))
	b.stamp(opts.Stamp)

	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("cv: 排版失败: %w", err)
	}
	return s.Result(layout.DocumentMeta{
		Title:    strings.TrimSpace(data.Info.Name + " CV"),
		Author:   data.Info.Name,
		Subject:  "Curriculum Vitae",
		Creator:  "scholarcv",
		Keywords: []string{"CV", lang},
	}), nil
}

func (b *builder) watermark(img *layout.ImageBox) {
	if img == nil || len(img.Bytes) == 0 || img.Width <= 0 || img.Height <= 0 {
		return
	}
	wm := *img
	wm.X = (b.s.Width() - wm.Width) / 2
	wm.Y = (b.s.Height() - wm.Height) / 2
	b.s.DrawImage(wm)
}

func (b *builder) title(info cvdata.Info, tmpl string) {
	y := b.s.Cursor() - b.st.TitleSize
	b.s.DrawCentered(layout.TextRun{Text: info.Name, Font: layout.Bold, Size: b.st.TitleSize, Color: b.st.Brand}, y)
	if sub := subline(info, tmpl); sub != "" {
		y -= SublineGap
		b.s.DrawCentered(b.st.Run(sub, layout.Regular, b.st.Gray), y)
	}
	b.s.MoveTo(y - SectionGap - b.st.SectionSize)
}

func subline(info cvdata.Info, tmpl string) string {
	if tmpl == "" {
		tmpl = "${address} | ${institution} | ${email}"
	}
	var parts []string
	for _, p := range strings.Split(binding.Expand(tmpl, info.Fields()), "|") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " | ")
}

// header draws a section title with a rule to the right margin and returns
// the baseline of the first entry.
func (b *builder) header(title string, y float64) float64 {
	left, right := b.s.LeftMargin(), b.s.RightMargin()
	b.s.DrawText(layout.TextRun{Text: title, Font: layout.Bold, Size: b.st.SectionSize, Color: b.st.Brand}, left, y)
	b.s.DrawLine(left, y-RuleOffset, right, y-RuleOffset, b.st.Brand, 0.8)
	return y - HeaderGap
}

// subheader draws a smaller title followed by a dot leader.
func (b *builder) subheader(title string, y float64) float64 {
	left, right := b.s.LeftMargin(), b.s.RightMargin()
	run := layout.TextRun{Text: title, Font: layout.Bold, Size: b.st.SubsectionSize, Color: b.st.Black}
	b.s.DrawText(run, left, y)
	dot := layout.TextRun{Text: ".", Font: layout.Regular, Size: b.st.SubsectionSize, Color: b.st.Gray}
	start := left + b.s.MeasureText(run) + RuleOffset
	if dw := b.s.MeasureText(dot); dw > 0 {
		if n := int((right-start)/dw) - 1; n > 0 {
			dot.Text = strings.Repeat(".", n)
			b.s.DrawText(dot, start, y)
		}
	}
	return y - HeaderGap
}

func (b *builder) legend(y float64) float64 {
	x := b.s.LeftMargin()
	for _, k := range cvdata.VenueKinds {
		run := b.st.Run(b.labels.Legend[k], layout.Bold, b.kindColor(k))
		b.s.DrawText(run, x, y)
		x += b.s.MeasureText(run) + 2*layout.MinSpacing
	}
	return y - LegendGap
}

// entries draws n entries from y with gap between them and returns the last
// entry's lowest baseline.
func entries(y float64, n int, gap float64, draw func(i int, y float64) float64) float64 {
	for i := 0; i < n; i++ {
		if i > 0 {
			y -= gap
		}
		y = draw(i, y)
	}
	return y
}

func (b *builder) educationSection(list []cvdata.Education) {
	type item struct {
		school string
		detail cvdata.EducationDetail
	}
	var items []item
	for _, e := range list {
		for _, d := range e.Details {
			items = append(items, item{e.School, d})
		}
	}
	if len(items) == 0 {
		return
	}
	y := b.header(b.labels.Education, b.s.Cursor())
	y = entries(y, len(items), EntryGap, func(i int, y float64) float64 {
		return b.education(items[i].school, items[i].detail, y)
	})
	b.s.MoveTo(y - SectionGap - b.st.SectionSize)
}

func (b *builder) employmentSection(list []cvdata.Employment) {
	type item struct {
		company string
		detail  cvdata.EmploymentDetail
	}
	var items []item
	for _, e := range list {
		for _, d := range e.Details {
			items = append(items, item{e.Company, d})
		}
	}
	if len(items) == 0 {
		return
	}
	y := b.header(b.labels.Employment, b.s.Cursor())
	y = entries(y, len(items), EntryGap, func(i int, y float64) float64 {
		return b.employment(items[i].company, items[i].detail, y)
	})
	b.s.MoveTo(y - SectionGap - b.st.SectionSize)
}

// publicationSection draws Publications and its Patents subsection, followed
// by one shared gap when either drew anything.
func (b *builder) publicationSection(years []cvdata.YearGroup, patents []cvdata.Patent) {
	if len(years) == 0 && len(patents) == 0 {
		return
	}
	y := b.s.Cursor()
	if len(years) > 0 {
		y = b.header(b.labels.Publications, y)
		y = b.legend(y)
		first := true
		for _, g := range years {
			for _, p := range g.Papers {
				if !first {
					y -= ItemGap
				}
				y = b.publication(p, y)
				first = false
			}
		}
		b.s.MoveTo(y)
	}
	if len(patents) > 0 {
		if len(years) > 0 {
			y -= ItemGap + b.st.LineHeight
		}
		y = b.subheader(b.labels.Patents, y)
		y = entries(y, len(patents), ItemGap, func(i int, y float64) float64 {
			return b.patent(patents[i], y)
		})
	}
	b.s.MoveTo(y - SectionGap - b.st.SectionSize)
}

// serviceSection gates Teaching, Honors and Reviewer independently under one
// Academic Service header.
func (b *builder) serviceSection(teaching []cvdata.Teaching, honors []cvdata.Honor, reviewers []ReviewerGroup) {
	subs := []struct {
		title string
		n     int
		draw  func(i int, y float64) float64
	}{
		{b.labels.Teaching, len(teaching), func(i int, y float64) float64 { return b.teaching(teaching[i], y) }},
		{b.labels.Honors, len(honors), func(i int, y float64) float64 { return b.honor(honors[i], y) }},
		{b.labels.Reviewer, len(reviewers), func(i int, y float64) float64 { return b.reviewer(reviewers[i], y) }},
	}
	if len(teaching)+len(honors)+len(reviewers) == 0 {
		return
	}
	y := b.header(b.labels.AcademicService, b.s.Cursor())
	first := true
	for _, sub := range subs {
		if sub.n == 0 {
			continue
		}
		if !first {
			y -= ItemGap + b.st.LineHeight
		}
		y = b.subheader(sub.title, y)
		y = entries(y, sub.n, ItemGap, sub.draw)
		first = false
	}
	b.s.MoveTo(y - SectionGap - b.st.SectionSize)
}

func (b *builder) stamp(text string) {
	if text == "" {
		return
	}
	run := layout.TextRun{Text: text, Font: layout.Italic, Size: b.st.BodySize - 2, Color: b.st.Gray}
	w := b.s.MeasureText(run)
	b.s.SetStamp(run, b.s.RightMargin()-w, b.s.BottomMargin()/2)
}
