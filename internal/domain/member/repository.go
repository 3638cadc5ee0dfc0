package member

import (
	"context"
	"errors"
)

// ErrBudgetConflict is returned when a compare-and-swap on a member budget
// loses against a concurrent mutation.
var ErrBudgetConflict = errors.New("member budget changed concurrently")

// Repository describes member persistence needs from use cases. Budget is
// only ever mutated through CompareAndSwapBudget so all contention funnels
// through one optimistic path.
type Repository interface {
	GetByID(ctx context.Context, memberID string) (Member, bool, error)
	ListByLeague(ctx context.Context, leagueID string) ([]Member, error)
	CompareAndSwapBudget(ctx context.Context, memberID string, expected, next int64) error
}
