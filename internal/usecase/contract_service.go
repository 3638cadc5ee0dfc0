package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fantadynasty/transfer-market/internal/domain/contract"
	"github.com/fantadynasty/transfer-market/internal/domain/market"
	"github.com/fantadynasty/transfer-market/internal/domain/member"
	"github.com/fantadynasty/transfer-market/internal/domain/movement"
	"github.com/fantadynasty/transfer-market/internal/domain/roster"
	idgen "github.com/fantadynasty/transfer-market/internal/platform/id"
)

// ContractService handles renewals during the contracts phase and the
// duration countdown that opens each market cycle.
type ContractService struct {
	tx           TxRunner
	contractRepo contract.Repository
	rosterRepo   roster.Repository
	sessionRepo  market.Repository
	memberRepo   member.Repository
	movementRepo movement.Repository
	treasury     *TreasuryService
	idGen        idgen.Generator
	logger       *slog.Logger
	now          func() time.Time
}

func NewContractService(
	tx TxRunner,
	contractRepo contract.Repository,
	rosterRepo roster.Repository,
	sessionRepo market.Repository,
	memberRepo member.Repository,
	movementRepo movement.Repository,
	treasurySvc *TreasuryService,
	idGen idgen.Generator,
	logger *slog.Logger,
) *ContractService {
	if tx == nil {
		tx = passthroughTx{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ContractService{
		tx:           tx,
		contractRepo: contractRepo,
		rosterRepo:   rosterRepo,
		sessionRepo:  sessionRepo,
		memberRepo:   memberRepo,
		movementRepo: movementRepo,
		treasury:     treasurySvc,
		idGen:        idGen,
		logger:       logger,
		now:          time.Now,
	}
}

// Get returns the active contract attached to a roster entry.
func (s *ContractService) Get(ctx context.Context, rosterID string) (contract.Contract, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ContractService.Get")
	defer span.End()

	c, exists, err := s.contractRepo.GetByRoster(ctx, rosterID)
	if err != nil {
		return contract.Contract{}, fmt.Errorf("get contract: %w", err)
	}
	if !exists {
		return contract.Contract{}, fmt.Errorf("%w: no contract for roster entry %s", ErrNotFound, rosterID)
	}
	return c, nil
}

// Renew applies new salary and duration to an owned contract. Only legal
// during the contracts phase, only on the caller's own roster entry, and
// only when the new yearly salary still fits the member's disposable budget.
func (s *ContractService) Renew(ctx context.Context, principal member.Principal, sessionID, rosterID string, newSalary int64, newDuration int) (contract.Contract, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ContractService.Renew")
	defer span.End()

	sess, exists, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return contract.Contract{}, fmt.Errorf("get session: %w", err)
	}
	if !exists {
		return contract.Contract{}, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	if sess.Phase != market.PhaseContracts {
		return contract.Contract{}, fmt.Errorf("%w: renewals only run during the contracts phase, session is in %s", ErrForbidden, sess.Phase)
	}

	entry, exists, err := s.rosterRepo.GetByID(ctx, rosterID)
	if err != nil {
		return contract.Contract{}, fmt.Errorf("get roster entry: %w", err)
	}
	if !exists || entry.Status != roster.StatusActive {
		return contract.Contract{}, fmt.Errorf("%w: roster entry %s", ErrNotFound, rosterID)
	}
	if entry.MemberID != principal.MemberID {
		return contract.Contract{}, fmt.Errorf("%w: you can only renew contracts on your own roster", ErrForbidden)
	}

	current, exists, err := s.contractRepo.GetByRoster(ctx, entry.ID)
	if err != nil {
		return contract.Contract{}, fmt.Errorf("get contract: %w", err)
	}
	if !exists || current.Status != contract.StatusActive {
		return contract.Contract{}, fmt.Errorf("%w: roster entry %s has no active contract", ErrNotFound, rosterID)
	}

	now := s.now().UTC()
	renewed, err := contract.Renew(current, newSalary, newDuration, now)
	if err != nil {
		return contract.Contract{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	disposable, err := s.treasury.DisposableBudget(ctx, principal.MemberID)
	if err != nil {
		return contract.Contract{}, err
	}
	// The disposable budget already subtracts the old salary; the renewal
	// only has to cover the raise.
	if disposable < renewed.Salary-current.Salary {
		return contract.Contract{}, fmt.Errorf("%w: the new salary does not fit the disposable budget (%d available)", ErrInsufficientFunds, disposable)
	}

	movementID, err := s.idGen.NewID()
	if err != nil {
		return contract.Contract{}, fmt.Errorf("generate movement id: %w", err)
	}

	// The new terms and their ledger row commit together.
	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.contractRepo.Save(ctx, renewed); err != nil {
			return fmt.Errorf("save contract: %w", err)
		}
		if err := s.movementRepo.Append(ctx, movement.Movement{
			ID:          movementID,
			SessionID:   sessionID,
			Type:        movement.TypeRenewal,
			PlayerID:    entry.PlayerID,
			ToMemberID:  entry.MemberID,
			OldSalary:   current.Salary,
			NewSalary:   renewed.Salary,
			OldDuration: current.Duration,
			NewDuration: renewed.Duration,
			CreatedAt:   now,
		}); err != nil {
			return fmt.Errorf("append movement: %w", err)
		}
		return nil
	})
	if err != nil {
		return contract.Contract{}, err
	}

	return renewed, nil
}

// Countdown burns one year off every active contract in the league; called
// once when a new market cycle opens. Contracts already at zero are left
// waiting for their renewal.
func (s *ContractService) Countdown(ctx context.Context, leagueID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ContractService.Countdown")
	defer span.End()

	contracts, err := s.contractRepo.ListActiveByLeague(ctx, leagueID)
	if err != nil {
		return fmt.Errorf("list active contracts: %w", err)
	}

	now := s.now().UTC()
	for _, c := range contracts {
		if c.Duration == 0 {
			continue
		}
		next, err := contract.Countdown(c, now)
		if err != nil {
			return fmt.Errorf("count down contract %s: %w", c.ID, err)
		}
		if err := s.contractRepo.Save(ctx, next); err != nil {
			return fmt.Errorf("save contract %s: %w", c.ID, err)
		}
	}

	return nil
}

// UnresolvedRenewals counts active contracts that counted down to zero and
// still await new terms; a non-zero count blocks leaving the contracts
// phase.
func (s *ContractService) UnresolvedRenewals(ctx context.Context, leagueID string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ContractService.UnresolvedRenewals")
	defer span.End()

	n, err := s.contractRepo.CountExpiredActive(ctx, leagueID)
	if err != nil {
		return 0, fmt.Errorf("count expired contracts: %w", err)
	}
	return n, nil
}
