package usecase

import (
	"context"
	"fmt"

	"github.com/fantadynasty/transfer-market/internal/domain/movement"
)

// MovementService exposes the read side of the audit ledger.
type MovementService struct {
	movementRepo movement.Repository
}

func NewMovementService(movementRepo movement.Repository) *MovementService {
	return &MovementService{movementRepo: movementRepo}
}

// ListBySession returns every ledger row of a session in creation order.
func (s *MovementService) ListBySession(ctx context.Context, sessionID string) ([]movement.Movement, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MovementService.ListBySession")
	defer span.End()

	movements, err := s.movementRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}

// ListByAuction returns the ledger rows produced by one auction.
func (s *MovementService) ListByAuction(ctx context.Context, auctionID string) ([]movement.Movement, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MovementService.ListByAuction")
	defer span.End()

	movements, err := s.movementRepo.ListByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}
