package indemnity

import (
	"errors"
	"fmt"
	"time"

	"github.com/fantadynasty/transfer-market/internal/domain/player"
)

// Action is the member's choice for one affected roster entry.
type Action string

const (
	ActionKeep    Action = "KEEP"
	ActionRelease Action = "RELEASE"
)

var (
	ErrMissingDecision  = errors.New("decision missing for an affected roster entry")
	ErrAlreadySubmitted = errors.New("decisions already submitted for this session")
	ErrNotAffected      = errors.New("roster entry is not part of the settlement")
)

// AffectedEntry is one contracted roster entry whose player exited the
// source league with a classified reason.
type AffectedEntry struct {
	RosterID   string
	MemberID   string
	PlayerID   string
	PlayerName string
	Reason     player.ExitReason
	Clause     int64
	// Resolved entries no longer need a member decision (retired players
	// are resolved automatically when the settlement is prepared).
	Resolved     bool
	Action       Action
	Compensation int64
}

// Settlement gates the market phase until every affected member decided.
type Settlement struct {
	ID        string
	SessionID string
	Entries   []AffectedEntry
	// Submitted marks members whose full decision set has been applied.
	Submitted map[string]bool
	Version   int64
	CreatedAt time.Time
}

// MembersPending lists members who still owe a decision on at least one
// unresolved entry.
func (s Settlement) MembersPending() []string {
	pending := make([]string, 0)
	seen := make(map[string]struct{})
	for _, e := range s.Entries {
		if e.Resolved || s.Submitted[e.MemberID] {
			continue
		}
		if _, ok := seen[e.MemberID]; ok {
			continue
		}
		seen[e.MemberID] = struct{}{}
		pending = append(pending, e.MemberID)
	}
	return pending
}

// Settled reports whether every unresolved entry has a recorded decision.
func (s Settlement) Settled() bool {
	return len(s.MembersPending()) == 0
}

// EntriesFor returns the unresolved entries owned by one member.
func (s Settlement) EntriesFor(memberID string) []AffectedEntry {
	out := make([]AffectedEntry, 0)
	for _, e := range s.Entries {
		if e.MemberID == memberID && !e.Resolved {
			out = append(out, e)
		}
	}
	return out
}

// Compensation computes the payout for releasing an exited player:
// min(clause, allowance) for players moved abroad, zero otherwise.
func Compensation(reason player.ExitReason, clause, allowance int64) int64 {
	if reason != player.ExitAbroad {
		return 0
	}
	if clause < allowance {
		return clause
	}
	return allowance
}

// Decision is the immutable record of one member's submitted choices.
type Decision struct {
	ID          string
	SessionID   string
	MemberID    string
	Items       []DecisionItem
	SubmittedAt time.Time
}

type DecisionItem struct {
	RosterID     string
	Action       Action
	Compensation int64
}

func (d Decision) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("decision id is required")
	}
	if d.SessionID == "" {
		return fmt.Errorf("decision session id is required")
	}
	if d.MemberID == "" {
		return fmt.Errorf("decision member id is required")
	}
	if len(d.Items) == 0 {
		return fmt.Errorf("decision items are required")
	}
	for _, item := range d.Items {
		if item.RosterID == "" {
			return fmt.Errorf("decision roster id is required")
		}
		if item.Action != ActionKeep && item.Action != ActionRelease {
			return fmt.Errorf("invalid decision action: %s", item.Action)
		}
		if item.Compensation < 0 {
			return fmt.Errorf("decision compensation cannot be negative")
		}
	}

	return nil
}
