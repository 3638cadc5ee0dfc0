package auction

import (
	"errors"
	"fmt"
	"time"
)

// Status is the auction lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusNoBids    Status = "no_bids"
	StatusCancelled Status = "cancelled"
)

var (
	ErrNotActive  = errors.New("auction is not active")
	ErrBidTooLow  = errors.New("bid must exceed the current price")
	ErrSelfOutbid = errors.New("bidder already holds the winning bid")
	ErrClosed     = errors.New("auction already closed")
)

// validTransitions is the closed transition table; anything absent is illegal.
var validTransitions = map[Status][]Status{
	StatusPending: {StatusActive, StatusCancelled},
	StatusActive:  {StatusCompleted, StatusNoBids, StatusCancelled},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func Terminal(s Status) bool {
	return len(validTransitions[s]) == 0
}

// Bid is one accepted offer inside an auction. Amounts across the bid list
// are strictly increasing; exactly one bid carries the winning flag.
type Bid struct {
	ID            string
	MemberID      string
	Amount        int64
	Winning       bool
	ReservationID string
	PlacedAt      time.Time
}

// Result is the recorded outcome of a closed auction, kept so a duplicate
// close returns the original answer instead of re-applying effects.
type Result struct {
	WinnerID   string
	FinalPrice int64
	NoBids     bool
	MovementID string
}

// Auction is one open-bid contest over one player within a market session.
type Auction struct {
	ID          string
	SessionID   string
	PlayerID    string
	NominatorID string
	// OwnerID is set for forced claim auctions: the member who loses the
	// player when the auction completes.
	OwnerID      string
	BasePrice    int64
	CurrentPrice int64
	Status       Status
	ExpiresAt    time.Time
	Bids         []Bid
	Result       *Result
	// Version guards optimistic updates; a stale write is a lost bid race.
	Version   int64
	CreatedAt time.Time
}

func (a Auction) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("auction id is required")
	}
	if a.SessionID == "" {
		return fmt.Errorf("auction session id is required")
	}
	if a.PlayerID == "" {
		return fmt.Errorf("auction player id is required")
	}
	if a.BasePrice <= 0 {
		return fmt.Errorf("auction base price must be greater than zero")
	}
	switch a.Status {
	case StatusPending, StatusActive, StatusCompleted, StatusNoBids, StatusCancelled:
	default:
		return fmt.Errorf("invalid auction status: %s", a.Status)
	}

	return nil
}

// WinningBid returns the bid currently flagged winning.
func (a Auction) WinningBid() (Bid, bool) {
	for i := len(a.Bids) - 1; i >= 0; i-- {
		if a.Bids[i].Winning {
			return a.Bids[i], true
		}
	}
	return Bid{}, false
}

// CheckBid validates a prospective bid against the auction state. Equal
// amounts are rejected outright so no two bids can ever tie.
func (a Auction) CheckBid(memberID string, amount int64) error {
	if a.Status != StatusActive {
		if Terminal(a.Status) {
			return ErrClosed
		}
		return ErrNotActive
	}
	floor := a.CurrentPrice
	if len(a.Bids) == 0 {
		// The first bid may match the base price exactly.
		floor = a.BasePrice - 1
	}
	if amount <= floor {
		return fmt.Errorf("%w: price is %d, got %d", ErrBidTooLow, a.CurrentPrice, amount)
	}
	if winning, ok := a.WinningBid(); ok && winning.MemberID == memberID {
		return ErrSelfOutbid
	}

	return nil
}

// ApplyBid records an accepted bid: the prior winning flag is cleared, the
// new bid becomes winning and the current price moves up. The expiry is
// extended only when the remaining time has dropped under the anti-snipe
// threshold.
func (a Auction) ApplyBid(b Bid, now time.Time, antiSnipeThreshold, extension time.Duration) Auction {
	for i := range a.Bids {
		a.Bids[i].Winning = false
	}
	b.Winning = true
	a.Bids = append(a.Bids, b)
	a.CurrentPrice = b.Amount
	if a.ExpiresAt.Sub(now) < antiSnipeThreshold {
		a.ExpiresAt = now.Add(extension)
	}
	return a
}

// Expired reports whether the timer has run out on an active auction.
func (a Auction) Expired(now time.Time) bool {
	return a.Status == StatusActive && !a.ExpiresAt.After(now)
}
