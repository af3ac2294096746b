package cv

import (
	"strings"

	"github.com/ByLCY/scholarcv/cvdata"
	"github.com/ByLCY/scholarcv/layout"
	"github.com/ByLCY/scholarcv/markup"
)

const (
	// BulletIndent is the distance from the bullet glyph to the entry text.
	BulletIndent = 12.0
	// DateColumn is kept free of wrapped text on the right for dates and tags.
	DateColumn = 90.0

	bulletGlyph = "•"
)

// piece is one styled fragment of an entry line.
type piece struct {
	text string
	font layout.Variant
}

// line threads the wrap cursor through the runs of one entry.
type line struct {
	b         *builder
	color     layout.Color
	x, y      float64
	startY    float64
	truncated bool
}

func (b *builder) textX() float64 { return b.s.LeftMargin() + BulletIndent }
func (b *builder) maxX() float64  { return b.s.RightMargin() - DateColumn }

// bullet draws the bullet glyph at y and opens a line right of it.
func (b *builder) bullet(y float64, c layout.Color) *line {
	b.s.DrawText(b.st.Run(bulletGlyph, layout.Regular, c), b.s.LeftMargin(), y)
	return &line{b: b, color: c, x: b.textX(), y: y, startY: y}
}

func (l *line) write(text string, v layout.Variant) {
	if text == "" {
		return
	}
	st := l.b.st
	r := l.b.s.WrapText(st.Run(text, v, l.color), l.x, l.y, l.b.maxX(), st.LineHeight, l.b.textX())
	l.x, l.y = r.X, r.Y
	l.truncated = l.truncated || r.Truncated
}

// join writes the non-empty pieces separated by sep in regular weight.
func (l *line) join(sep string, pieces ...piece) {
	first := true
	for _, p := range pieces {
		if strings.TrimSpace(p.text) == "" {
			continue
		}
		if !first {
			l.write(sep, layout.Regular)
		}
		l.write(p.text, p.font)
		first = false
	}
}

func (l *line) spans(spans []markup.Span) {
	for _, sp := range spans {
		v := layout.Regular
		if sp.Bold {
			v = layout.Bold
		}
		l.write(sp.Text, v)
	}
}

// right draws the trailing column and returns the lowest baseline of the entry.
func (l *line) right(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return l.y
	}
	st := l.b.st
	y := l.b.s.DrawRightAligned(st.Run(text, layout.Regular, l.color), l.x, l.startY, l.truncated, st.LineHeight)
	return min(l.y, y)
}

// continuation draws an indented "label value" line below y.
func (b *builder) continuation(label, value string, y float64, c layout.Color) float64 {
	if strings.TrimSpace(value) == "" {
		return y
	}
	y -= b.st.LineHeight
	l := &line{b: b, color: c, x: b.textX(), y: y, startY: y}
	l.write(label, layout.Italic)
	l.write(value, layout.Regular)
	return l.y
}

func (b *builder) education(school string, d cvdata.EducationDetail, y float64) float64 {
	c := b.st.Black
	l := b.bullet(y, c)
	l.join(", ",
		piece{d.Degree, layout.Bold},
		piece{d.Major, layout.Italic},
		piece{school, layout.Regular},
		piece{d.College, layout.Regular},
	)
	y = l.right(d.Time)
	y = b.continuation(b.labels.Tutor, d.Tutor, y, c)
	return b.continuation(b.labels.Dissertation, d.Dissertation, y, c)
}

func (b *builder) employment(company string, d cvdata.EmploymentDetail, y float64) float64 {
	c := b.st.Black
	l := b.bullet(y, c)
	l.join(", ",
		piece{d.Position, layout.Bold},
		piece{d.Department, layout.Italic},
		piece{company, layout.Regular},
	)
	y = l.right(d.Time)
	return b.continuation(b.labels.Project, d.Project, y, c)
}

// publication colours the whole entry by venue kind.
func (b *builder) publication(p cvdata.Paper, y float64) float64 {
	kind := p.Kind()
	l := b.bullet(y, b.kindColor(kind))
	if spans := markup.Parse(p.Authors); len(spans) > 0 {
		l.spans(spans)
		l.write(". ", layout.Regular)
	}
	if p.Title != "" {
		l.write(p.Title, layout.Regular)
		l.write(". ", layout.Regular)
	}
	b.venueClause(l, p)
	return l.right(strings.TrimSpace(p.Abbr + " " + p.Year))
}

// venueClause renders "Submitted to *venue*." for work in submission and
// "In *venue*, *location* (volume)." otherwise.
func (b *builder) venueClause(l *line, p cvdata.Paper) {
	venue := strings.TrimSpace(p.Venue())
	if venue == "" {
		return
	}
	if p.Kind() == cvdata.VenueInSubmission {
		l.write(b.labels.SubmittedTo, layout.Regular)
		l.write(venue, layout.Italic)
		l.write(".", layout.Regular)
		return
	}
	l.write(b.labels.In, layout.Regular)
	l.write(venue, layout.Italic)
	if loc := strings.TrimSpace(p.Location); loc != "" {
		l.write(", ", layout.Regular)
		l.write(loc, layout.Italic)
	}
	if vol := strings.TrimSpace(p.Volume.String()); vol != "" {
		l.write(" ("+vol+")", layout.Regular)
	}
	l.write(".", layout.Regular)
}

func (b *builder) patent(p cvdata.Patent, y float64) float64 {
	l := b.bullet(y, b.st.Black)
	if spans := markup.Parse(p.Authors); len(spans) > 0 {
		l.spans(spans)
		l.write(". ", layout.Regular)
	}
	l.write(p.Title, layout.Bold)
	l.write(". ", layout.Regular)
	l.write(strings.TrimSpace(p.Type+" "+p.Number), layout.Regular)
	return l.right(p.Date.String())
}

func (b *builder) teaching(t cvdata.Teaching, y float64) float64 {
	l := b.bullet(y, b.st.Black)
	l.write(t.Course, layout.Bold)
	if code := strings.TrimSpace(t.Code); code != "" {
		l.write(" ("+code+")", layout.Regular)
	}
	if t.Identity != "" || t.School != "" {
		l.write(", ", layout.Regular)
	}
	l.join(", ",
		piece{t.Identity, layout.Italic},
		piece{t.School, layout.Regular},
	)
	return l.right(t.Season + " " + t.Year.String())
}

func (b *builder) honor(h cvdata.Honor, y float64) float64 {
	l := b.bullet(y, b.st.Black)
	l.join(", ",
		piece{h.Award, layout.Bold},
		piece{h.Unit, layout.Regular},
	)
	return l.right(h.Time.String())
}

func (b *builder) reviewer(g ReviewerGroup, y float64) float64 {
	l := b.bullet(y, b.st.Black)
	l.write(g.Name, layout.Bold)
	return l.right(g.YearsLabel())
}

func (b *builder) kindColor(k cvdata.VenueKind) layout.Color {
	a := b.st.Accents
	switch k {
	case cvdata.VenueConference:
		return a.Conference
	case cvdata.VenueJournal:
		return a.Journal
	case cvdata.VenueWorkshop:
		return a.Workshop
	case cvdata.VenueInSubmission:
		return a.Submission
	default:
		return b.st.Black
	}
}
