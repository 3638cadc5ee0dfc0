package auction

import (
	"context"
	"errors"
	"time"
)

// ErrStaleVersion is returned when an optimistic update loses a race; the
// caller rereads and retries, or surfaces a stale-bid conflict.
var ErrStaleVersion = errors.New("auction version is stale")

// Repository describes auction persistence needs from use cases. Update is
// compare-and-swap on Version: commit order, not arrival order, decides
// which concurrent bid wins.
type Repository interface {
	GetByID(ctx context.Context, auctionID string) (Auction, bool, error)
	GetActiveBySession(ctx context.Context, sessionID string) (Auction, bool, error)
	Create(ctx context.Context, a Auction) error
	Update(ctx context.Context, a Auction, expectedVersion int64) error
	ListExpiredActive(ctx context.Context, now time.Time) ([]Auction, error)
}
