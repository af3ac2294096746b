package cv

import (
	"time"

	"github.com/ByLCY/scholarcv/cvdata"
)

// Labels holds the fixed strings of one CV language.
type Labels struct {
	Education       string
	Employment      string
	Publications    string
	Patents         string
	AcademicService string
	Teaching        string
	Honors          string
	Reviewer        string

	Legend map[cvdata.VenueKind]string

	// Venue clause prefixes, including their trailing space.
	In          string
	SubmittedTo string

	// Continuation line prefixes.
	Tutor        string
	Dissertation string
	Project      string

	GeneratedOn string
	DateLayout  string
}

var english = Labels{
	Education:       "Education",
	Employment:      "Employment",
	Publications:    "Publications",
	Patents:         "Patents",
	AcademicService: "Academic Service",
	Teaching:        "Teaching",
	Honors:          "Honors and Awards",
	Reviewer:        "Reviewer",
	Legend: map[cvdata.VenueKind]string{
		cvdata.VenueConference:   "Conference",
		cvdata.VenueJournal:      "Journal",
		cvdata.VenueWorkshop:     "Workshop",
		cvdata.VenueInSubmission: "In submission",
	},
	In:           "In ",
	SubmittedTo:  "Submitted to ",
	Tutor:        "Tutor: ",
	Dissertation: "Dissertation: ",
	Project:      "Project: ",
	GeneratedOn:  "Generated on: ",
	DateLayout:   "January 2, 2006",
}

var chinese = Labels{
	Education:       "教育背景",
	Employment:      "工作经历",
	Publications:    "学术论文",
	Patents:         "专利",
	AcademicService: "学术服务",
	Teaching:        "教学经历",
	Honors:          "荣誉奖项",
	Reviewer:        "审稿经历",
	Legend: map[cvdata.VenueKind]string{
		cvdata.VenueConference:   "会议",
		cvdata.VenueJournal:      "期刊",
		cvdata.VenueWorkshop:     "研讨会",
		cvdata.VenueInSubmission: "在投",
	},
	In:           "收录于 ",
	SubmittedTo:  "投稿至 ",
	Tutor:        "导师：",
	Dissertation: "学位论文：",
	Project:      "项目：",
	GeneratedOn:  "生成于 ",
	DateLayout:   "2006年1月2日",
}

// LabelsFor returns the label table for lang, falling back to English.
func LabelsFor(lang string) Labels {
	if lang == "zh" {
		return chinese
	}
	return english
}

// StampText formats the "generated on" stamp for t.
func (l Labels) StampText(t time.Time) string {
	return l.GeneratedOn + t.Format(l.DateLayout)
}
