package league

import "context"

// Repository describes league policy lookups from use cases.
type Repository interface {
	GetByID(ctx context.Context, leagueID string) (League, bool, error)
}
