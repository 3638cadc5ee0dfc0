package rubata

import (
	"context"
	"errors"
)

// ErrStaleVersion is returned when a queue update loses an optimistic race.
var ErrStaleVersion = errors.New("claim queue version is stale")

// Repository describes claim-queue persistence needs from use cases.
type Repository interface {
	GetBySession(ctx context.Context, sessionID string) (Queue, bool, error)
	Create(ctx context.Context, q Queue) error
	Update(ctx context.Context, q Queue, expectedVersion int64) error
}
