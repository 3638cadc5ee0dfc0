package market

import (
	"context"
	"errors"
)

// ErrStaleVersion is returned when a session update loses a race.
var ErrStaleVersion = errors.New("session version is stale")

// Repository describes market-session persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, sessionID string) (Session, bool, error)
	GetActiveByLeague(ctx context.Context, leagueID string) (Session, bool, error)
	Create(ctx context.Context, s Session) error
	Update(ctx context.Context, s Session, expectedVersion int64) error
	AppendTransition(ctx context.Context, t Transition) error
	ListTransitions(ctx context.Context, sessionID string) ([]Transition, error)
}
