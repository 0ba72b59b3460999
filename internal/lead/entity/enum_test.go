package entity

import "testing"

func TestLeadStatusRoundTrip(t *testing.T) {
	statuses := []LeadStatus{
		LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
		LeadStatusConverted, LeadStatusLost,
	}

	for _, status := range statuses {
		if got := ParseLeadStatus(status.String()); got != status {
			t.Fatalf("ParseLeadStatus(%q) = %v, want %v", status.String(), got, status)
		}
	}
}

func TestParseLeadStatusUnknown(t *testing.T) {
	for _, name := range []string{"", "bogus", "NEW", "won"} {
		if got := ParseLeadStatus(name); got != LeadStatusUnknown {
			t.Fatalf("ParseLeadStatus(%q) = %v, want unknown", name, got)
		}
	}
}
