package indemnity

import (
	"testing"

	"github.com/fantadynasty/transfer-market/internal/domain/player"
)

func TestCompensation(t *testing.T) {
	cases := []struct {
		name      string
		reason    player.ExitReason
		clause    int64
		allowance int64
		want      int64
	}{
		{"abroad under allowance", player.ExitAbroad, 40, 50, 40},
		{"abroad capped by allowance", player.ExitAbroad, 110, 50, 50},
		{"relegated pays nothing", player.ExitRelegated, 110, 50, 0},
		{"retired pays nothing", player.ExitRetired, 110, 50, 0},
	}

	for _, tc := range cases {
		if got := Compensation(tc.reason, tc.clause, tc.allowance); got != tc.want {
			t.Fatalf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestSettlement_MembersPending(t *testing.T) {
	s := Settlement{
		ID:        "set-1",
		SessionID: "s-1",
		Entries: []AffectedEntry{
			{RosterID: "r-1", MemberID: "m-a", Reason: player.ExitAbroad},
			{RosterID: "r-2", MemberID: "m-a", Reason: player.ExitRelegated},
			{RosterID: "r-3", MemberID: "m-b", Reason: player.ExitRetired, Resolved: true},
			{RosterID: "r-4", MemberID: "m-c", Reason: player.ExitAbroad},
		},
		Submitted: map[string]bool{},
	}

	pending := s.MembersPending()
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending members, got %v", pending)
	}
	if s.Settled() {
		t.Fatal("settlement should not be settled")
	}

	s.Submitted["m-a"] = true
	s.Submitted["m-c"] = true
	if !s.Settled() {
		t.Fatal("settlement should be settled once all members submitted")
	}
}

func TestSettlement_EntriesFor(t *testing.T) {
	s := Settlement{
		Entries: []AffectedEntry{
			{RosterID: "r-1", MemberID: "m-a"},
			{RosterID: "r-2", MemberID: "m-a", Resolved: true},
			{RosterID: "r-3", MemberID: "m-b"},
		},
	}

	got := s.EntriesFor("m-a")
	if len(got) != 1 || got[0].RosterID != "r-1" {
		t.Fatalf("unexpected entries: %+v", got)
	}
}
