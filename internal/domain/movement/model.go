package movement

import (
	"fmt"
	"time"
)

// Type classifies an ownership or contract change.
type Type string

const (
	TypeAuctionWin Type = "auction_win"
	TypeClaim      Type = "claim"
	// TypeClaimLoss marks the stripped side of a completed claim: losing a
	// player to a claim is not a voluntary release, so it never blocks the
	// ex-owner from claiming or bidding later in the session.
	TypeClaimLoss        Type = "claim_loss"
	TypeRelease          Type = "release"
	TypeRetirement       Type = "retirement"
	TypeIndemnityRelease Type = "indemnity_release"
	TypeRenewal          Type = "renewal"
	TypeTrade            Type = "trade"
)

var AllTypes = map[Type]struct{}{
	TypeAuctionWin:       {},
	TypeClaim:            {},
	TypeClaimLoss:        {},
	TypeRelease:          {},
	TypeRetirement:       {},
	TypeIndemnityRelease: {},
	TypeRenewal:          {},
	TypeTrade:            {},
}

// Movement is the append-only audit record of every ownership or contract
// change. Rows are never mutated after creation; the ledger is the single
// source of historical truth.
type Movement struct {
	ID           string
	SessionID    string
	Type         Type
	PlayerID     string
	FromMemberID string
	ToMemberID   string
	Price        int64
	AuctionID    string
	OldSalary    int64
	NewSalary    int64
	OldDuration  int
	NewDuration  int
	CreatedAt    time.Time
}

func (m Movement) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("movement id is required")
	}
	if m.SessionID == "" {
		return fmt.Errorf("movement session id is required")
	}
	if _, ok := AllTypes[m.Type]; !ok {
		return fmt.Errorf("invalid movement type: %s", m.Type)
	}
	if m.PlayerID == "" {
		return fmt.Errorf("movement player id is required")
	}
	if m.Price < 0 {
		return fmt.Errorf("movement price cannot be negative")
	}

	return nil
}
