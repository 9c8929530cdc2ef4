package domain

import "testing"

func TestLeadStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to LeadStatus
		want     bool
	}{
		{LeadNew, LeadContacted, true},
		{LeadNew, LeadLost, true},
		{LeadContacted, LeadQualified, true},
		{LeadContacted, LeadLost, true},
		{LeadQualified, LeadConverted, true},
		{LeadQualified, LeadLost, true},
		{LeadLost, LeadNew, true},

		// No skipping forward.
		{LeadNew, LeadQualified, false},
		{LeadNew, LeadConverted, false},
		{LeadContacted, LeadConverted, false},

		// No moving backward except the reopen edge.
		{LeadContacted, LeadNew, false},
		{LeadQualified, LeadContacted, false},
		{LeadLost, LeadContacted, false},

		// Terminal states.
		{LeadConverted, LeadNew, false},
		{LeadConverted, LeadLost, false},

		// Self-loops are not edges.
		{LeadNew, LeadNew, false},
		{LeadLost, LeadLost, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestValidLeadStatus(t *testing.T) {
	for _, s := range []LeadStatus{LeadNew, LeadContacted, LeadQualified, LeadConverted, LeadLost} {
		if !ValidLeadStatus(s) {
			t.Errorf("ValidLeadStatus(%s) = false, want true", s)
		}
	}
	if ValidLeadStatus("archived") {
		t.Error("ValidLeadStatus(archived) = true, want false")
	}
	if ValidLeadStatus("") {
		t.Error("ValidLeadStatus(\"\") = true, want false")
	}
}
