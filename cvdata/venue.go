package cvdata

import "strings"

// VenueKind classifies a publication and drives both its colour and its phrasing.
type VenueKind int

const (
	VenueUnknown VenueKind = iota
	VenueConference
	VenueJournal
	VenueWorkshop
	VenueInSubmission
)

// VenueKinds lists the recognised kinds in legend order.
var VenueKinds = []VenueKind{VenueConference, VenueJournal, VenueWorkshop, VenueInSubmission}

func (k VenueKind) String() string {
	switch k {
	case VenueConference:
		return "Conference"
	case VenueJournal:
		return "Journal"
	case VenueWorkshop:
		return "Workshop"
	case VenueInSubmission:
		return "In submission"
	default:
		return "Unknown"
	}
}

// ParseVenueKind matches the English and Chinese type keywords the homepage
// uses. Submission is checked first, so "Journal (in submission)" counts as
// in submission.
func ParseVenueKind(typ string) VenueKind {
	t := strings.ToLower(strings.TrimSpace(typ))
	switch {
	case t == "":
		return VenueUnknown
	case strings.Contains(t, "submission"), strings.Contains(t, "在投"):
		return VenueInSubmission
	case strings.Contains(t, "workshop"), strings.Contains(t, "研讨会"):
		return VenueWorkshop
	case strings.Contains(t, "journal"), strings.Contains(t, "期刊"):
		return VenueJournal
	case strings.Contains(t, "conference"), strings.Contains(t, "会议"):
		return VenueConference
	default:
		return VenueUnknown
	}
}
