package contract

import "context"

// Repository describes contract persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, contractID string) (Contract, bool, error)
	GetByRoster(ctx context.Context, rosterID string) (Contract, bool, error)
	ListActiveByRosterIDs(ctx context.Context, rosterIDs []string) ([]Contract, error)
	ListActiveByLeague(ctx context.Context, leagueID string) ([]Contract, error)
	// CountExpiredActive counts active contracts whose duration has counted
	// down to zero, i.e. unresolved renewals blocking the contracts phase.
	CountExpiredActive(ctx context.Context, leagueID string) (int, error)
	Save(ctx context.Context, c Contract) error
}
