package memory

import (
	"context"
	"sync"

	"github.com/fantadynasty/transfer-market/internal/domain/movement"
)

type MovementRepository struct {
	mu    sync.RWMutex
	items []movement.Movement
}

func NewMovementRepository() *MovementRepository {
	return &MovementRepository{items: make([]movement.Movement, 0)}
}

func (r *MovementRepository) Append(_ context.Context, m movement.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, m)

	return nil
}

func (r *MovementRepository) ListBySession(_ context.Context, sessionID string) ([]movement.Movement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]movement.Movement, 0)
	for _, m := range r.items {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}

	return out, nil
}

func (r *MovementRepository) ListByAuction(_ context.Context, auctionID string) ([]movement.Movement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]movement.Movement, 0)
	for _, m := range r.items {
		if m.AuctionID == auctionID {
			out = append(out, m)
		}
	}

	return out, nil
}

func (r *MovementRepository) HasRelease(_ context.Context, sessionID, memberID, playerID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.items {
		if m.SessionID != sessionID || m.PlayerID != playerID || m.FromMemberID != memberID {
			continue
		}
		switch m.Type {
		case movement.TypeRelease, movement.TypeRetirement, movement.TypeIndemnityRelease:
			return true, nil
		}
	}

	return false, nil
}
