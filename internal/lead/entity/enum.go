package entity

type LeadStatus int16

const (
	// LeadStatusUnknown means the status is not known / not set.
	LeadStatusUnknown LeadStatus = 0

	// LeadStatusNew means the lead was captured but not yet contacted.
	LeadStatusNew LeadStatus = 1

	// LeadStatusContacted means first contact has been made.
	LeadStatusContacted LeadStatus = 2

	// LeadStatusQualified means the lead matches the target profile.
	LeadStatusQualified LeadStatus = 3

	// LeadStatusConverted means the lead became a customer.
	LeadStatusConverted LeadStatus = 4

	// LeadStatusLost means the lead was dropped or went cold.
	LeadStatusLost LeadStatus = 5
)

func (ls LeadStatus) String() string {
	switch ls {
	case LeadStatusNew:
		return "new"
	case LeadStatusContacted:
		return "contacted"
	case LeadStatusQualified:
		return "qualified"
	case LeadStatusConverted:
		return "converted"
	case LeadStatusLost:
		return "lost"
	default:
		return "unknown"
	}
}

func (ls LeadStatus) Ensure() LeadStatus {
	switch ls {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusConverted, LeadStatusLost:
		return ls
	default:
		return LeadStatusUnknown
	}
}

// ParseLeadStatus maps the wire name to its status; unknown names map to
// LeadStatusUnknown.
func ParseLeadStatus(s string) LeadStatus {
	switch s {
	case "new":
		return LeadStatusNew
	case "contacted":
		return LeadStatusContacted
	case "qualified":
		return LeadStatusQualified
	case "converted":
		return LeadStatusConverted
	case "lost":
		return LeadStatusLost
	default:
		return LeadStatusUnknown
	}
}
