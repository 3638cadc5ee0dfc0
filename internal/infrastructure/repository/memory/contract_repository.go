package memory

import (
	"context"
	"sync"

	"github.com/fantadynasty/transfer-market/internal/domain/contract"
)

// ContractRepository keeps contracts keyed by id. League-scoped queries join
// through the roster and member repositories, mirroring the SQL joins of
// the persistent implementation.
type ContractRepository struct {
	mu      sync.RWMutex
	items   map[string]contract.Contract
	orders  []string
	rosters *RosterRepository
	members *MemberRepository
}

func NewContractRepository(contracts []contract.Contract, rosters *RosterRepository, members *MemberRepository) *ContractRepository {
	items := make(map[string]contract.Contract, len(contracts))
	orders := make([]string, 0, len(contracts))

	for _, c := range contracts {
		items[c.ID] = c
		orders = append(orders, c.ID)
	}

	return &ContractRepository{
		items:   items,
		orders:  orders,
		rosters: rosters,
		members: members,
	}
}

func (r *ContractRepository) GetByID(_ context.Context, contractID string) (contract.Contract, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[contractID]
	if !ok {
		return contract.Contract{}, false, nil
	}

	return c, true, nil
}

func (r *ContractRepository) GetByRoster(_ context.Context, rosterID string) (contract.Contract, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.orders {
		c := r.items[id]
		if c.RosterID == rosterID && c.Status != contract.StatusDissolved {
			return c, true, nil
		}
	}

	return contract.Contract{}, false, nil
}

func (r *ContractRepository) ListActiveByRosterIDs(_ context.Context, rosterIDs []string) ([]contract.Contract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(rosterIDs))
	for _, id := range rosterIDs {
		wanted[id] = struct{}{}
	}

	out := make([]contract.Contract, 0)
	for _, id := range r.orders {
		c := r.items[id]
		if c.Status != contract.StatusActive {
			continue
		}
		if _, ok := wanted[c.RosterID]; ok {
			out = append(out, c)
		}
	}

	return out, nil
}

func (r *ContractRepository) ListActiveByLeague(ctx context.Context, leagueID string) ([]contract.Contract, error) {
	r.mu.RLock()
	active := make([]contract.Contract, 0)
	for _, id := range r.orders {
		if c := r.items[id]; c.Status == contract.StatusActive {
			active = append(active, c)
		}
	}
	r.mu.RUnlock()

	out := make([]contract.Contract, 0, len(active))
	for _, c := range active {
		entry, ok, err := r.rosters.GetByID(ctx, c.RosterID)
		if err != nil || !ok {
			continue
		}
		m, ok, err := r.members.GetByID(ctx, entry.MemberID)
		if err != nil || !ok {
			continue
		}
		if m.LeagueID == leagueID {
			out = append(out, c)
		}
	}

	return out, nil
}

func (r *ContractRepository) CountExpiredActive(ctx context.Context, leagueID string) (int, error) {
	contracts, err := r.ListActiveByLeague(ctx, leagueID)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, c := range contracts {
		if c.Duration == 0 {
			n++
		}
	}

	return n, nil
}

func (r *ContractRepository) Save(_ context.Context, c contract.Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[c.ID]; !ok {
		r.orders = append(r.orders, c.ID)
	}
	r.items[c.ID] = c

	return nil
}
