package rubata

import (
	"errors"
	"fmt"

	"github.com/fantadynasty/transfer-market/internal/domain/player"
)

// Queue drives the forced, sequential claim-auction phase. Turn order is
// fixed when the queue is built and never changes afterwards; only the
// cursor moves.
type Queue struct {
	ID        string
	SessionID string
	Status    Status
	// CompletionReason is set when the queue finishes without walking every
	// turn, e.g. all remaining members below the minimum stake.
	CompletionReason string
	Turns            []Turn
	Cursor           int
	Version          int64
}

// Status is the queue lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

const ReasonAllInsufficientBudget = "all_insufficient_budget"

// TurnStatus is the per-element state machine.
type TurnStatus string

const (
	TurnPending  TurnStatus = "pending"
	TurnBidding  TurnStatus = "bidding"
	TurnResolved TurnStatus = "resolved"
	TurnSkipped  TurnStatus = "skipped"
)

// SkipReason records why a turn was passed over.
type SkipReason string

const (
	SkipInsufficientBudget SkipReason = "insufficient_budget"
	SkipNoEligiblePlayer   SkipReason = "no_eligible_player"
)

var (
	ErrQueueExhausted = errors.New("claim queue has no remaining turns")
	ErrNotYourTurn    = errors.New("not this member's turn")
	ErrNoClaimAuction = errors.New("bidding turn has no claim auction")
	ErrTurnInProgress = errors.New("turn already has a claim in progress")
)

// Turn is one (member, required-position) element of the queue.
type Turn struct {
	Index    int
	MemberID string
	Position player.Position
	Status   TurnStatus
	Skip     SkipReason
	// TargetRosterID is the roster entry put up for the claim auction.
	TargetRosterID string
	AuctionID      string
	// Acks collects members who confirmed the resolved turn; the queue only
	// advances once every participant acknowledged.
	Acks []string
}

func (t Turn) Acknowledged(memberID string) bool {
	for _, id := range t.Acks {
		if id == memberID {
			return true
		}
	}
	return false
}

// Build derives the full turn sequence: the fixed position order crossed
// with the manager-defined team order, position-major.
func Build(sessionID, queueID string, teamOrder []string) (Queue, error) {
	if sessionID == "" {
		return Queue{}, fmt.Errorf("session id is required")
	}
	if len(teamOrder) == 0 {
		return Queue{}, fmt.Errorf("team order is required")
	}
	seen := make(map[string]struct{}, len(teamOrder))
	for _, memberID := range teamOrder {
		if memberID == "" {
			return Queue{}, fmt.Errorf("team order cannot contain empty member ids")
		}
		if _, dup := seen[memberID]; dup {
			return Queue{}, fmt.Errorf("duplicate member %s in team order", memberID)
		}
		seen[memberID] = struct{}{}
	}

	turns := make([]Turn, 0, len(teamOrder)*len(player.ClaimOrder))
	for _, pos := range player.ClaimOrder {
		for _, memberID := range teamOrder {
			turns = append(turns, Turn{
				Index:    len(turns),
				MemberID: memberID,
				Position: pos,
				Status:   TurnPending,
			})
		}
	}

	return Queue{
		ID:        queueID,
		SessionID: sessionID,
		Status:    StatusPending,
		Turns:     turns,
		Cursor:    0,
	}, nil
}

// Current returns the turn under the cursor.
func (q Queue) Current() (Turn, bool) {
	if q.Cursor < 0 || q.Cursor >= len(q.Turns) {
		return Turn{}, false
	}
	return q.Turns[q.Cursor], true
}

// SkippedTurns lists every turn recorded as skipped so far.
func (q Queue) SkippedTurns() []Turn {
	out := make([]Turn, 0)
	for _, t := range q.Turns {
		if t.Status == TurnSkipped {
			out = append(out, t)
		}
	}
	return out
}

// LastTurn reports whether the cursor sits on the final queue element.
func (q Queue) LastTurn() bool {
	return q.Cursor == len(q.Turns)-1
}
