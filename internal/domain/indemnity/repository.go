package indemnity

import (
	"context"
	"errors"
)

// ErrStaleVersion is returned when a settlement update loses a race.
var ErrStaleVersion = errors.New("settlement version is stale")

// Repository describes indemnity persistence needs from use cases.
// Decisions are append-only: once created they are never updated.
type Repository interface {
	GetSettlementBySession(ctx context.Context, sessionID string) (Settlement, bool, error)
	CreateSettlement(ctx context.Context, s Settlement) error
	UpdateSettlement(ctx context.Context, s Settlement, expectedVersion int64) error
	GetDecision(ctx context.Context, sessionID, memberID string) (Decision, bool, error)
	CreateDecision(ctx context.Context, d Decision) error
}
