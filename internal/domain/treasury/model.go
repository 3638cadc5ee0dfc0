package treasury

import (
	"fmt"
	"time"
)

// Reservation is a budget hold on one member, taken before an assignment is
// final. The budget is decremented when the reservation is taken; releasing
// re-credits, debiting makes the decrement permanent.
type Reservation struct {
	ID       string
	MemberID string
	Amount   int64
	// Ref ties the hold to the operation that took it (auction id), so at
	// most one reservation is outstanding per auction.
	Ref       string
	CreatedAt time.Time
}

func (r Reservation) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("reservation id is required")
	}
	if r.MemberID == "" {
		return fmt.Errorf("reservation member id is required")
	}
	if r.Amount <= 0 {
		return fmt.Errorf("reservation amount must be greater than zero")
	}

	return nil
}
