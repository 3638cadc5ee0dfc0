package memory

import (
	"context"
	"sync"

	"github.com/fantadynasty/transfer-market/internal/domain/player"
	"github.com/fantadynasty/transfer-market/internal/domain/roster"
)

type RosterRepository struct {
	mu     sync.RWMutex
	items  map[string]roster.Entry
	orders []string
}

func NewRosterRepository(entries []roster.Entry) *RosterRepository {
	items := make(map[string]roster.Entry, len(entries))
	orders := make([]string, 0, len(entries))

	for _, e := range entries {
		items[e.ID] = e
		orders = append(orders, e.ID)
	}

	return &RosterRepository{
		items:  items,
		orders: orders,
	}
}

func (r *RosterRepository) GetByID(_ context.Context, entryID string) (roster.Entry, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.items[entryID]
	if !ok {
		return roster.Entry{}, false, nil
	}

	return e, true, nil
}

func (r *RosterRepository) GetActiveByPlayer(_ context.Context, playerID string) (roster.Entry, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.orders {
		e := r.items[id]
		if e.PlayerID == playerID && e.Status == roster.StatusActive {
			return e, true, nil
		}
	}

	return roster.Entry{}, false, nil
}

func (r *RosterRepository) ListActiveByMember(_ context.Context, memberID string) ([]roster.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]roster.Entry, 0)
	for _, id := range r.orders {
		e := r.items[id]
		if e.MemberID == memberID && e.Status == roster.StatusActive {
			out = append(out, e)
		}
	}

	return out, nil
}

func (r *RosterRepository) ListActiveByMemberPosition(_ context.Context, memberID string, pos player.Position) ([]roster.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]roster.Entry, 0)
	for _, id := range r.orders {
		e := r.items[id]
		if e.MemberID == memberID && e.Position == pos && e.Status == roster.StatusActive {
			out = append(out, e)
		}
	}

	return out, nil
}

func (r *RosterRepository) CountActiveByMemberPosition(ctx context.Context, memberID string, pos player.Position) (int, error) {
	entries, err := r.ListActiveByMemberPosition(ctx, memberID, pos)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (r *RosterRepository) Save(_ context.Context, e roster.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[e.ID]; !ok {
		r.orders = append(r.orders, e.ID)
	}
	r.items[e.ID] = e

	return nil
}
