package player

import "context"

// Repository describes read access to the external player catalog.
type Repository interface {
	GetByID(ctx context.Context, playerID string) (Player, bool, error)
	GetByIDs(ctx context.Context, playerIDs []string) ([]Player, error)
	ListExited(ctx context.Context) ([]Player, error)
}
