package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/fantadynasty/transfer-market/internal/domain/indemnity"
)

type IndemnityRepository struct {
	mu          sync.RWMutex
	settlements map[string]indemnity.Settlement
	decisions   map[string]indemnity.Decision
}

func NewIndemnityRepository() *IndemnityRepository {
	return &IndemnityRepository{
		settlements: make(map[string]indemnity.Settlement),
		decisions:   make(map[string]indemnity.Decision),
	}
}

func (r *IndemnityRepository) GetSettlementBySession(_ context.Context, sessionID string) (indemnity.Settlement, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.settlements[sessionID]
	if !ok {
		return indemnity.Settlement{}, false, nil
	}

	return cloneSettlement(s), true, nil
}

func (r *IndemnityRepository) CreateSettlement(_ context.Context, s indemnity.Settlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.settlements[s.SessionID]; exists {
		return fmt.Errorf("settlement for session %s already exists", s.SessionID)
	}
	r.settlements[s.SessionID] = cloneSettlement(s)

	return nil
}

func (r *IndemnityRepository) UpdateSettlement(_ context.Context, s indemnity.Settlement, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.settlements[s.SessionID]
	if !ok {
		return fmt.Errorf("settlement for session %s does not exist", s.SessionID)
	}
	if current.Version != expectedVersion {
		return indemnity.ErrStaleVersion
	}
	r.settlements[s.SessionID] = cloneSettlement(s)

	return nil
}

func (r *IndemnityRepository) GetDecision(_ context.Context, sessionID, memberID string) (indemnity.Decision, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.decisions[sessionID+"/"+memberID]
	if !ok {
		return indemnity.Decision{}, false, nil
	}

	return d, true, nil
}

func (r *IndemnityRepository) CreateDecision(_ context.Context, d indemnity.Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := d.SessionID + "/" + d.MemberID
	if _, exists := r.decisions[key]; exists {
		return fmt.Errorf("decision for member %s in session %s already exists", d.MemberID, d.SessionID)
	}
	r.decisions[key] = d

	return nil
}

func cloneSettlement(s indemnity.Settlement) indemnity.Settlement {
	entries := make([]indemnity.AffectedEntry, len(s.Entries))
	copy(entries, s.Entries)
	s.Entries = entries

	submitted := make(map[string]bool, len(s.Submitted))
	for k, v := range s.Submitted {
		submitted[k] = v
	}
	s.Submitted = submitted

	return s
}
