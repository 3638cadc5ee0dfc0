package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fantadynasty/transfer-market/internal/domain/auction"
)

type AuctionRepository struct {
	mu     sync.RWMutex
	items  map[string]auction.Auction
	orders []string
}

func NewAuctionRepository() *AuctionRepository {
	return &AuctionRepository{items: make(map[string]auction.Auction)}
}

func (r *AuctionRepository) GetByID(_ context.Context, auctionID string) (auction.Auction, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.items[auctionID]
	if !ok {
		return auction.Auction{}, false, nil
	}

	return cloneAuction(a), true, nil
}

func (r *AuctionRepository) GetActiveBySession(_ context.Context, sessionID string) (auction.Auction, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.orders {
		a := r.items[id]
		if a.SessionID == sessionID && a.Status == auction.StatusActive {
			return cloneAuction(a), true, nil
		}
	}

	return auction.Auction{}, false, nil
}

func (r *AuctionRepository) Create(_ context.Context, a auction.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[a.ID]; exists {
		return fmt.Errorf("auction %s already exists", a.ID)
	}
	r.items[a.ID] = cloneAuction(a)
	r.orders = append(r.orders, a.ID)

	return nil
}

func (r *AuctionRepository) Update(_ context.Context, a auction.Auction, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[a.ID]
	if !ok {
		return fmt.Errorf("auction %s does not exist", a.ID)
	}
	if current.Version != expectedVersion {
		return auction.ErrStaleVersion
	}
	r.items[a.ID] = cloneAuction(a)

	return nil
}

func (r *AuctionRepository) ListExpiredActive(_ context.Context, now time.Time) ([]auction.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]auction.Auction, 0)
	for _, id := range r.orders {
		a := r.items[id]
		if a.Expired(now) {
			out = append(out, cloneAuction(a))
		}
	}

	return out, nil
}

// cloneAuction copies the bid slice so callers never share backing arrays
// with the stored row.
func cloneAuction(a auction.Auction) auction.Auction {
	bids := make([]auction.Bid, len(a.Bids))
	copy(bids, a.Bids)
	a.Bids = bids
	if a.Result != nil {
		result := *a.Result
		a.Result = &result
	}
	return a
}
