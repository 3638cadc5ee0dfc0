package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/fantadynasty/transfer-market/internal/domain/market"
)

type MarketRepository struct {
	mu          sync.RWMutex
	items       map[string]market.Session
	orders      []string
	transitions map[string][]market.Transition
}

func NewMarketRepository() *MarketRepository {
	return &MarketRepository{
		items:       make(map[string]market.Session),
		transitions: make(map[string][]market.Transition),
	}
}

func (r *MarketRepository) GetByID(_ context.Context, sessionID string) (market.Session, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[sessionID]
	if !ok {
		return market.Session{}, false, nil
	}

	return s, true, nil
}

func (r *MarketRepository) GetActiveByLeague(_ context.Context, leagueID string) (market.Session, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.orders {
		if s := r.items[id]; s.LeagueID == leagueID {
			return s, true, nil
		}
	}

	return market.Session{}, false, nil
}

func (r *MarketRepository) Create(_ context.Context, s market.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[s.ID]; exists {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	r.items[s.ID] = s
	r.orders = append(r.orders, s.ID)

	return nil
}

func (r *MarketRepository) Update(_ context.Context, s market.Session, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[s.ID]
	if !ok {
		return fmt.Errorf("session %s does not exist", s.ID)
	}
	if current.Version != expectedVersion {
		return market.ErrStaleVersion
	}
	r.items[s.ID] = s

	return nil
}

func (r *MarketRepository) AppendTransition(_ context.Context, t market.Transition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.transitions[t.SessionID] = append(r.transitions[t.SessionID], t)

	return nil
}

func (r *MarketRepository) ListTransitions(_ context.Context, sessionID string) ([]market.Transition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]market.Transition, len(r.transitions[sessionID]))
	copy(out, r.transitions[sessionID])

	return out, nil
}
