package movement

import "context"

// Repository describes ledger access from use cases. Append-only: there is
// no update or delete.
type Repository interface {
	Append(ctx context.Context, m Movement) error
	ListBySession(ctx context.Context, sessionID string) ([]Movement, error)
	ListByAuction(ctx context.Context, auctionID string) ([]Movement, error)
	// HasRelease reports whether the member released the player within the
	// session through any release-flavoured movement.
	HasRelease(ctx context.Context, sessionID, memberID, playerID string) (bool, error)
}
