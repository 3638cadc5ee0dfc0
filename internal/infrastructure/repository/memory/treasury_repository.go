package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/fantadynasty/transfer-market/internal/domain/treasury"
)

type TreasuryRepository struct {
	mu     sync.RWMutex
	items  map[string]treasury.Reservation
	orders []string
}

func NewTreasuryRepository() *TreasuryRepository {
	return &TreasuryRepository{items: make(map[string]treasury.Reservation)}
}

func (r *TreasuryRepository) GetByID(_ context.Context, reservationID string) (treasury.Reservation, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.items[reservationID]
	if !ok {
		return treasury.Reservation{}, false, nil
	}

	return res, true, nil
}

func (r *TreasuryRepository) Create(_ context.Context, res treasury.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[res.ID]; exists {
		return fmt.Errorf("reservation %s already exists", res.ID)
	}
	r.items[res.ID] = res
	r.orders = append(r.orders, res.ID)

	return nil
}

func (r *TreasuryRepository) Delete(_ context.Context, reservationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[reservationID]; !exists {
		return fmt.Errorf("reservation %s does not exist", reservationID)
	}
	delete(r.items, reservationID)

	return nil
}

func (r *TreasuryRepository) ListByRef(_ context.Context, ref string) ([]treasury.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]treasury.Reservation, 0)
	for _, id := range r.orders {
		if res, ok := r.items[id]; ok && res.Ref == ref {
			out = append(out, res)
		}
	}

	return out, nil
}
