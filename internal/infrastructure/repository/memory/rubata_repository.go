package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/fantadynasty/transfer-market/internal/domain/rubata"
)

type RubataRepository struct {
	mu        sync.RWMutex
	bySession map[string]rubata.Queue
}

func NewRubataRepository() *RubataRepository {
	return &RubataRepository{bySession: make(map[string]rubata.Queue)}
}

func (r *RubataRepository) GetBySession(_ context.Context, sessionID string) (rubata.Queue, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.bySession[sessionID]
	if !ok {
		return rubata.Queue{}, false, nil
	}

	return cloneQueue(q), true, nil
}

func (r *RubataRepository) Create(_ context.Context, q rubata.Queue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySession[q.SessionID]; exists {
		return fmt.Errorf("claim queue for session %s already exists", q.SessionID)
	}
	r.bySession[q.SessionID] = cloneQueue(q)

	return nil
}

func (r *RubataRepository) Update(_ context.Context, q rubata.Queue, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.bySession[q.SessionID]
	if !ok {
		return fmt.Errorf("claim queue for session %s does not exist", q.SessionID)
	}
	if current.Version != expectedVersion {
		return rubata.ErrStaleVersion
	}
	r.bySession[q.SessionID] = cloneQueue(q)

	return nil
}

func cloneQueue(q rubata.Queue) rubata.Queue {
	turns := make([]rubata.Turn, len(q.Turns))
	copy(turns, q.Turns)
	for i := range turns {
		acks := make([]string, len(turns[i].Acks))
		copy(acks, turns[i].Acks)
		turns[i].Acks = acks
	}
	q.Turns = turns
	return q
}
