package memory

import (
	"context"
	"sync"

	"github.com/fantadynasty/transfer-market/internal/domain/member"
)

type MemberRepository struct {
	mu     sync.RWMutex
	items  map[string]member.Member
	orders []string
}

func NewMemberRepository(members []member.Member) *MemberRepository {
	items := make(map[string]member.Member, len(members))
	orders := make([]string, 0, len(members))

	for _, m := range members {
		items[m.ID] = m
		orders = append(orders, m.ID)
	}

	return &MemberRepository{
		items:  items,
		orders: orders,
	}
}

func (r *MemberRepository) GetByID(_ context.Context, memberID string) (member.Member, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[memberID]
	if !ok {
		return member.Member{}, false, nil
	}

	return m, true, nil
}

func (r *MemberRepository) ListByLeague(_ context.Context, leagueID string) ([]member.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]member.Member, 0)
	for _, id := range r.orders {
		if m := r.items[id]; m.LeagueID == leagueID {
			out = append(out, m)
		}
	}

	return out, nil
}

func (r *MemberRepository) CompareAndSwapBudget(_ context.Context, memberID string, expected, next int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[memberID]
	if !ok {
		return member.ErrBudgetConflict
	}
	if m.Budget != expected {
		return member.ErrBudgetConflict
	}
	m.Budget = next
	r.items[memberID] = m

	return nil
}
