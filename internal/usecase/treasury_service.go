package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fantadynasty/transfer-market/internal/domain/contract"
	"github.com/fantadynasty/transfer-market/internal/domain/league"
	"github.com/fantadynasty/transfer-market/internal/domain/member"
	"github.com/fantadynasty/transfer-market/internal/domain/player"
	"github.com/fantadynasty/transfer-market/internal/domain/roster"
	"github.com/fantadynasty/transfer-market/internal/domain/treasury"
	idgen "github.com/fantadynasty/transfer-market/internal/platform/id"
)

// budgetCASRetries bounds the optimistic retry loop on a contended budget.
const budgetCASRetries = 5

// TreasuryService is the single path for every budget and roster-slot
// mutation. No other component does budget arithmetic.
type TreasuryService struct {
	memberRepo      member.Repository
	reservationRepo treasury.Repository
	rosterRepo      roster.Repository
	contractRepo    contract.Repository
	leagueRepo      league.Repository
	idGen           idgen.Generator
	logger          *slog.Logger
	now             func() time.Time
}

func NewTreasuryService(
	memberRepo member.Repository,
	reservationRepo treasury.Repository,
	rosterRepo roster.Repository,
	contractRepo contract.Repository,
	leagueRepo league.Repository,
	idGen idgen.Generator,
	logger *slog.Logger,
) *TreasuryService {
	if logger == nil {
		logger = slog.Default()
	}

	return &TreasuryService{
		memberRepo:      memberRepo,
		reservationRepo: reservationRepo,
		rosterRepo:      rosterRepo,
		contractRepo:    contractRepo,
		leagueRepo:      leagueRepo,
		idGen:           idGen,
		logger:          logger,
		now:             time.Now,
	}
}

// Reserve holds amount from the member's budget and records the hold.
// Callers run Reserve inside an atomic block, so the budget decrement and
// the reservation row commit or roll back together.
func (s *TreasuryService) Reserve(ctx context.Context, memberID string, amount int64, ref string) (treasury.Reservation, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TreasuryService.Reserve")
	defer span.End()

	if memberID == "" {
		return treasury.Reservation{}, fmt.Errorf("%w: member id is required", ErrInvalidInput)
	}
	if amount <= 0 {
		return treasury.Reservation{}, fmt.Errorf("%w: reservation amount must be greater than zero", ErrInvalidInput)
	}

	if err := s.adjustBudget(ctx, memberID, -amount); err != nil {
		return treasury.Reservation{}, err
	}

	reservationID, err := s.idGen.NewID()
	if err != nil {
		return treasury.Reservation{}, fmt.Errorf("generate reservation id: %w", err)
	}

	res := treasury.Reservation{
		ID:        reservationID,
		MemberID:  memberID,
		Amount:    amount,
		Ref:       ref,
		CreatedAt: s.now().UTC(),
	}
	if err := s.reservationRepo.Create(ctx, res); err != nil {
		return treasury.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}

	return res, nil
}

// Release reverses a reservation, re-crediting the member.
func (s *TreasuryService) Release(ctx context.Context, reservationID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TreasuryService.Release")
	defer span.End()

	res, exists, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return fmt.Errorf("get reservation: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: reservation %s", ErrNotFound, reservationID)
	}

	if err := s.reservationRepo.Delete(ctx, res.ID); err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if err := s.adjustBudget(ctx, res.MemberID, res.Amount); err != nil {
		return fmt.Errorf("%w: reservation %s deleted but budget restore failed: %v", ErrInvariantViolation, res.ID, err)
	}

	return nil
}

// ReleaseAllByRef reverses every outstanding hold tied to an operation.
func (s *TreasuryService) ReleaseAllByRef(ctx context.Context, ref string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TreasuryService.ReleaseAllByRef")
	defer span.End()

	holds, err := s.reservationRepo.ListByRef(ctx, ref)
	if err != nil {
		return fmt.Errorf("list reservations: %w", err)
	}
	for _, hold := range holds {
		if err := s.Release(ctx, hold.ID); err != nil {
			return fmt.Errorf("release reservation %s: %w", hold.ID, err)
		}
	}

	return nil
}

// Debit consolidates a reservation into a permanent decrement and returns
// the debited amount. The budget was already reduced when the hold was
// taken; only the hold row goes away.
func (s *TreasuryService) Debit(ctx context.Context, reservationID string) (int64, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TreasuryService.Debit")
	defer span.End()

	res, exists, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return 0, fmt.Errorf("get reservation: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: reservation %s", ErrNotFound, reservationID)
	}

	if err := s.reservationRepo.Delete(ctx, res.ID); err != nil {
		return 0, fmt.Errorf("delete reservation: %w", err)
	}

	return res.Amount, nil
}

// Credit adds to a member's budget (indemnity compensation payouts).
func (s *TreasuryService) Credit(ctx context.Context, memberID string, amount int64) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TreasuryService.Credit")
	defer span.End()

	if amount < 0 {
		return fmt.Errorf("%w: credit amount cannot be negative", ErrInvalidInput)
	}
	if amount == 0 {
		return nil
	}
	return s.adjustBudget(ctx, memberID, amount)
}

// AssertSlotAvailable checks the league's per-position roster cap before an
// assignment.
func (s *TreasuryService) AssertSlotAvailable(ctx context.Context, memberID string, pos player.Position) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TreasuryService.AssertSlotAvailable")
	defer span.End()

	m, exists, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return fmt.Errorf("get member: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: member %s", ErrNotFound, memberID)
	}

	lg, exists, err := s.leagueRepo.GetByID(ctx, m.LeagueID)
	if err != nil {
		return fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: league %s", ErrNotFound, m.LeagueID)
	}

	count, err := s.rosterRepo.CountActiveByMemberPosition(ctx, memberID, pos)
	if err != nil {
		return fmt.Errorf("count roster slots: %w", err)
	}
	if count >= lg.SlotLimit(pos) {
		return fmt.Errorf("%w: no free %s slot (limit %d)", ErrSlotsFull, pos, lg.SlotLimit(pos))
	}

	return nil
}

// DisposableBudget is budget minus the sum of active contract salaries.
func (s *TreasuryService) DisposableBudget(ctx context.Context, memberID string) (int64, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TreasuryService.DisposableBudget")
	defer span.End()

	m, exists, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return 0, fmt.Errorf("get member: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: member %s", ErrNotFound, memberID)
	}

	entries, err := s.rosterRepo.ListActiveByMember(ctx, memberID)
	if err != nil {
		return 0, fmt.Errorf("list roster entries: %w", err)
	}
	rosterIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		rosterIDs = append(rosterIDs, e.ID)
	}

	contracts, err := s.contractRepo.ListActiveByRosterIDs(ctx, rosterIDs)
	if err != nil {
		return 0, fmt.Errorf("list contracts: %w", err)
	}

	var salaries int64
	for _, c := range contracts {
		salaries += c.Salary
	}

	return m.Budget - salaries, nil
}

func (s *TreasuryService) adjustBudget(ctx context.Context, memberID string, delta int64) error {
	for attempt := 0; attempt < budgetCASRetries; attempt++ {
		m, exists, err := s.memberRepo.GetByID(ctx, memberID)
		if err != nil {
			return fmt.Errorf("get member: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: member %s", ErrNotFound, memberID)
		}

		next := m.Budget + delta
		if next < 0 {
			return fmt.Errorf("%w: you cannot afford this (budget %d, needed %d)", ErrInsufficientFunds, m.Budget, -delta)
		}

		err = s.memberRepo.CompareAndSwapBudget(ctx, memberID, m.Budget, next)
		if err == nil {
			return nil
		}
		if !errors.Is(err, member.ErrBudgetConflict) {
			return fmt.Errorf("swap budget: %w", err)
		}
	}

	return fmt.Errorf("%w: budget for member %s changed concurrently, retry", ErrConflict, memberID)
}
