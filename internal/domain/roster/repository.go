package roster

import (
	"context"

	"github.com/fantadynasty/transfer-market/internal/domain/player"
)

// Repository describes roster persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, entryID string) (Entry, bool, error)
	GetActiveByPlayer(ctx context.Context, playerID string) (Entry, bool, error)
	ListActiveByMember(ctx context.Context, memberID string) ([]Entry, error)
	ListActiveByMemberPosition(ctx context.Context, memberID string, pos player.Position) ([]Entry, error)
	CountActiveByMemberPosition(ctx context.Context, memberID string, pos player.Position) (int, error)
	Save(ctx context.Context, e Entry) error
}
