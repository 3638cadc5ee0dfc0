package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fantadynasty/transfer-market/internal/domain/contract"
	"github.com/fantadynasty/transfer-market/internal/domain/event"
	"github.com/fantadynasty/transfer-market/internal/domain/indemnity"
	"github.com/fantadynasty/transfer-market/internal/domain/league"
	"github.com/fantadynasty/transfer-market/internal/domain/market"
	"github.com/fantadynasty/transfer-market/internal/domain/member"
	"github.com/fantadynasty/transfer-market/internal/domain/movement"
	"github.com/fantadynasty/transfer-market/internal/domain/player"
	"github.com/fantadynasty/transfer-market/internal/domain/roster"
	idgen "github.com/fantadynasty/transfer-market/internal/platform/id"
)

// DecisionInput is one member choice on an affected roster entry.
type DecisionInput struct {
	RosterID string          `json:"rosterId" validate:"required"`
	Action   indemnity.Action `json:"action" validate:"required,oneof=KEEP RELEASE"`
}

// IndemnityService coordinates the settlement of exited players: it builds
// the affected set when the phase opens, collects all-or-nothing decisions
// per member, and pays out compensation on releases.
type IndemnityService struct {
	tx             TxRunner
	settlementRepo indemnity.Repository
	sessionRepo    market.Repository
	playerRepo     player.Repository
	rosterRepo     roster.Repository
	contractRepo   contract.Repository
	movementRepo   movement.Repository
	memberRepo     member.Repository
	leagueRepo     league.Repository
	treasury       *TreasuryService
	sink           event.Sink
	idGen          idgen.Generator
	logger         *slog.Logger
	now            func() time.Time
}

func NewIndemnityService(
	tx TxRunner,
	settlementRepo indemnity.Repository,
	sessionRepo market.Repository,
	playerRepo player.Repository,
	rosterRepo roster.Repository,
	contractRepo contract.Repository,
	movementRepo movement.Repository,
	memberRepo member.Repository,
	leagueRepo league.Repository,
	treasurySvc *TreasuryService,
	sink event.Sink,
	idGen idgen.Generator,
	logger *slog.Logger,
) *IndemnityService {
	if tx == nil {
		tx = passthroughTx{}
	}
	if sink == nil {
		sink = event.NopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &IndemnityService{
		tx:             tx,
		settlementRepo: settlementRepo,
		sessionRepo:    sessionRepo,
		playerRepo:     playerRepo,
		rosterRepo:     rosterRepo,
		contractRepo:   contractRepo,
		movementRepo:   movementRepo,
		memberRepo:     memberRepo,
		leagueRepo:     leagueRepo,
		treasury:       treasurySvc,
		sink:           sink,
		idGen:          idGen,
		logger:         logger,
		now:            time.Now,
	}
}

// Prepare builds the settlement for a session from the exited-player set.
// Retired players resolve immediately: the roster entry closes and the
// contract dissolves with no decision owed and no payout. Idempotent: an
// existing settlement is returned as is.
func (s *IndemnityService) Prepare(ctx context.Context, sessionID string) (indemnity.Settlement, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IndemnityService.Prepare")
	defer span.End()

	if existing, exists, err := s.settlementRepo.GetSettlementBySession(ctx, sessionID); err != nil {
		return indemnity.Settlement{}, fmt.Errorf("get settlement: %w", err)
	} else if exists {
		return existing, nil
	}

	sess, exists, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return indemnity.Settlement{}, fmt.Errorf("get session: %w", err)
	}
	if !exists {
		return indemnity.Settlement{}, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}

	exited, err := s.playerRepo.ListExited(ctx)
	if err != nil {
		return indemnity.Settlement{}, fmt.Errorf("list exited players: %w", err)
	}

	settlementID, err := s.idGen.NewID()
	if err != nil {
		return indemnity.Settlement{}, fmt.Errorf("generate settlement id: %w", err)
	}

	now := s.now().UTC()
	var settlement indemnity.Settlement

	// The retirements resolved here and the settlement row commit together.
	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		entries := make([]indemnity.AffectedEntry, 0, len(exited))
		for _, p := range exited {
			entry, owned, err := s.rosterRepo.GetActiveByPlayer(ctx, p.ID)
			if err != nil {
				return fmt.Errorf("get roster entry for player %s: %w", p.ID, err)
			}
			if !owned {
				continue
			}
			c, hasContract, err := s.contractRepo.GetByRoster(ctx, entry.ID)
			if err != nil {
				return fmt.Errorf("get contract for roster %s: %w", entry.ID, err)
			}
			if !hasContract || c.Status != contract.StatusActive {
				continue
			}

			affected := indemnity.AffectedEntry{
				RosterID:   entry.ID,
				MemberID:   entry.MemberID,
				PlayerID:   p.ID,
				PlayerName: p.Name,
				Reason:     p.ExitReason,
				Clause:     c.Clause,
			}
			if p.ExitReason == player.ExitRetired {
				if err := s.forceRelease(ctx, sessionID, entry, c, movement.TypeRetirement, now); err != nil {
					return err
				}
				affected.Resolved = true
				affected.Action = indemnity.ActionRelease
			}
			entries = append(entries, affected)
		}

		settlement = indemnity.Settlement{
			ID:        settlementID,
			SessionID: sess.ID,
			Entries:   entries,
			Submitted: make(map[string]bool),
			Version:   1,
			CreatedAt: now,
		}
		if err := s.settlementRepo.CreateSettlement(ctx, settlement); err != nil {
			return fmt.Errorf("create settlement: %w", err)
		}
		return nil
	})
	if err != nil {
		return indemnity.Settlement{}, err
	}

	return settlement, nil
}

// Settlement returns the session's settlement.
func (s *IndemnityService) Settlement(ctx context.Context, sessionID string) (indemnity.Settlement, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IndemnityService.Settlement")
	defer span.End()

	settlement, exists, err := s.settlementRepo.GetSettlementBySession(ctx, sessionID)
	if err != nil {
		return indemnity.Settlement{}, fmt.Errorf("get settlement: %w", err)
	}
	if !exists {
		return indemnity.Settlement{}, fmt.Errorf("%w: no settlement for session %s", ErrNotFound, sessionID)
	}
	return settlement, nil
}

// PendingFor lists the affected entries the member still has to decide on.
func (s *IndemnityService) PendingFor(ctx context.Context, principal member.Principal, sessionID string) ([]indemnity.AffectedEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IndemnityService.PendingFor")
	defer span.End()

	settlement, err := s.Settlement(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if settlement.Submitted[principal.MemberID] {
		return []indemnity.AffectedEntry{}, nil
	}
	return settlement.EntriesFor(principal.MemberID), nil
}

// SubmitDecisions applies one member's full decision set in a single shot.
// Every unresolved entry of the member must be covered; a partial set is
// rejected with nothing applied. Releasing a player who moved abroad pays
// min(clause, allowance) into the member's budget.
func (s *IndemnityService) SubmitDecisions(ctx context.Context, principal member.Principal, sessionID string, inputs []DecisionInput) (indemnity.Decision, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IndemnityService.SubmitDecisions")
	defer span.End()

	settlement, err := s.Settlement(ctx, sessionID)
	if err != nil {
		return indemnity.Decision{}, err
	}
	if settlement.Submitted[principal.MemberID] {
		return indemnity.Decision{}, fmt.Errorf("%w: %v", ErrConflict, indemnity.ErrAlreadySubmitted)
	}

	owed := settlement.EntriesFor(principal.MemberID)
	if len(owed) == 0 {
		return indemnity.Decision{}, fmt.Errorf("%w: no pending decisions for this member", ErrInvalidInput)
	}

	owedByRoster := make(map[string]indemnity.AffectedEntry, len(owed))
	for _, e := range owed {
		owedByRoster[e.RosterID] = e
	}
	chosen := make(map[string]indemnity.Action, len(inputs))
	for _, in := range inputs {
		if _, ok := owedByRoster[in.RosterID]; !ok {
			return indemnity.Decision{}, fmt.Errorf("%w: %v (roster %s)", ErrInvalidInput, indemnity.ErrNotAffected, in.RosterID)
		}
		if in.Action != indemnity.ActionKeep && in.Action != indemnity.ActionRelease {
			return indemnity.Decision{}, fmt.Errorf("%w: invalid action %s", ErrInvalidInput, in.Action)
		}
		if _, dup := chosen[in.RosterID]; dup {
			return indemnity.Decision{}, fmt.Errorf("%w: duplicate decision for roster %s", ErrInvalidInput, in.RosterID)
		}
		chosen[in.RosterID] = in.Action
	}
	for rosterID := range owedByRoster {
		if _, ok := chosen[rosterID]; !ok {
			return indemnity.Decision{}, fmt.Errorf("%w: %v (roster %s)", ErrInvalidInput, indemnity.ErrMissingDecision, rosterID)
		}
	}

	sess, lg, m, err := s.sessionLeagueMember(ctx, sessionID, principal.MemberID)
	if err != nil {
		return indemnity.Decision{}, err
	}
	allowance := lg.AllowanceFor(m.IndemnityAllowance)

	decisionID, err := s.idGen.NewID()
	if err != nil {
		return indemnity.Decision{}, fmt.Errorf("generate decision id: %w", err)
	}

	now := s.now().UTC()
	var decision indemnity.Decision

	// Releases, payouts, the decision row and the settlement swap are one
	// commit; a failed release leaves every entry undecided.
	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		items := make([]indemnity.DecisionItem, 0, len(owed))
		for i, e := range settlement.Entries {
			action, ok := chosen[e.RosterID]
			if !ok || e.MemberID != principal.MemberID || e.Resolved {
				continue
			}

			comp := int64(0)
			if action == indemnity.ActionRelease {
				comp = indemnity.Compensation(e.Reason, e.Clause, allowance)
				if err := s.applyRelease(ctx, sess.ID, e, comp, now); err != nil {
					return err
				}
			}

			settlement.Entries[i].Resolved = true
			settlement.Entries[i].Action = action
			settlement.Entries[i].Compensation = comp
			items = append(items, indemnity.DecisionItem{
				RosterID:     e.RosterID,
				Action:       action,
				Compensation: comp,
			})
		}

		decision = indemnity.Decision{
			ID:          decisionID,
			SessionID:   sess.ID,
			MemberID:    principal.MemberID,
			Items:       items,
			SubmittedAt: now,
		}
		if err := decision.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if err := s.settlementRepo.CreateDecision(ctx, decision); err != nil {
			return fmt.Errorf("create decision: %w", err)
		}

		settlement.Submitted[principal.MemberID] = true
		expected := settlement.Version
		settlement.Version++
		if err := s.settlementRepo.UpdateSettlement(ctx, settlement, expected); err != nil {
			if errors.Is(err, indemnity.ErrStaleVersion) {
				return fmt.Errorf("%w: settlement changed concurrently, retry", ErrConflict)
			}
			return fmt.Errorf("update settlement: %w", err)
		}
		return nil
	})
	if err != nil {
		return indemnity.Decision{}, err
	}

	s.publish(ctx, sess, event.KindDecisionSubmitted, map[string]any{
		"memberId":  principal.MemberID,
		"decisions": len(decision.Items),
	})
	if settlement.Settled() {
		s.publish(ctx, sess, event.KindAllDecided, map[string]any{
			"settlementId": settlement.ID,
		})
	}

	return decision, nil
}

// CanAdvance reports whether the settlement gate is open, and if not, the
// names of the members still blocking it.
func (s *IndemnityService) CanAdvance(ctx context.Context, sessionID string) (bool, []string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IndemnityService.CanAdvance")
	defer span.End()

	settlement, exists, err := s.settlementRepo.GetSettlementBySession(ctx, sessionID)
	if err != nil {
		return false, nil, fmt.Errorf("get settlement: %w", err)
	}
	if !exists {
		// No settlement means no exited players, nothing gates the phase.
		return true, nil, nil
	}
	pending := settlement.MembersPending()
	if len(pending) == 0 {
		return true, nil, nil
	}

	names := make([]string, 0, len(pending))
	for _, memberID := range pending {
		m, ok, err := s.memberRepo.GetByID(ctx, memberID)
		if err != nil {
			return false, nil, fmt.Errorf("get member: %w", err)
		}
		if ok {
			names = append(names, m.Name)
		} else {
			names = append(names, memberID)
		}
	}
	return false, names, nil
}

// AffectedExists reports whether any exited player still sits on an active
// contracted roster. Read-only: unlike Prepare it never mutates anything.
func (s *IndemnityService) AffectedExists(ctx context.Context) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IndemnityService.AffectedExists")
	defer span.End()

	exited, err := s.playerRepo.ListExited(ctx)
	if err != nil {
		return false, fmt.Errorf("list exited players: %w", err)
	}
	for _, p := range exited {
		entry, owned, err := s.rosterRepo.GetActiveByPlayer(ctx, p.ID)
		if err != nil {
			return false, fmt.Errorf("get roster entry for player %s: %w", p.ID, err)
		}
		if !owned {
			continue
		}
		c, hasContract, err := s.contractRepo.GetByRoster(ctx, entry.ID)
		if err != nil {
			return false, fmt.Errorf("get contract for roster %s: %w", entry.ID, err)
		}
		if hasContract && c.Status == contract.StatusActive {
			return true, nil
		}
	}
	return false, nil
}

// applyRelease closes the roster entry, dissolves its contract, credits the
// compensation and writes the ledger row.
func (s *IndemnityService) applyRelease(ctx context.Context, sessionID string, e indemnity.AffectedEntry, comp int64, now time.Time) error {
	entry, exists, err := s.rosterRepo.GetByID(ctx, e.RosterID)
	if err != nil {
		return fmt.Errorf("get roster entry: %w", err)
	}
	if !exists || entry.Status != roster.StatusActive {
		return fmt.Errorf("%w: roster entry %s is not active", ErrInvariantViolation, e.RosterID)
	}
	c, exists, err := s.contractRepo.GetByRoster(ctx, entry.ID)
	if err != nil {
		return fmt.Errorf("get contract: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: roster entry %s has no contract", ErrInvariantViolation, e.RosterID)
	}
	if err := s.forceRelease(ctx, sessionID, entry, c, movement.TypeIndemnityRelease, now); err != nil {
		return err
	}
	if comp > 0 {
		if err := s.treasury.Credit(ctx, entry.MemberID, comp); err != nil {
			return err
		}
	}
	return nil
}

func (s *IndemnityService) forceRelease(ctx context.Context, sessionID string, entry roster.Entry, c contract.Contract, movementType movement.Type, now time.Time) error {
	if err := s.rosterRepo.Save(ctx, entry.Release(now)); err != nil {
		return fmt.Errorf("release roster entry: %w", err)
	}
	c.Status = contract.StatusDissolved
	c.UpdatedAt = now
	if err := s.contractRepo.Save(ctx, c); err != nil {
		return fmt.Errorf("dissolve contract: %w", err)
	}

	movementID, err := s.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate movement id: %w", err)
	}
	return s.movementRepo.Append(ctx, movement.Movement{
		ID:           movementID,
		SessionID:    sessionID,
		Type:         movementType,
		PlayerID:     entry.PlayerID,
		FromMemberID: entry.MemberID,
		CreatedAt:    now,
	})
}

func (s *IndemnityService) sessionLeagueMember(ctx context.Context, sessionID, memberID string) (market.Session, league.League, member.Member, error) {
	sess, exists, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return market.Session{}, league.League{}, member.Member{}, fmt.Errorf("get session: %w", err)
	}
	if !exists {
		return market.Session{}, league.League{}, member.Member{}, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	lg, exists, err := s.leagueRepo.GetByID(ctx, sess.LeagueID)
	if err != nil {
		return market.Session{}, league.League{}, member.Member{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return market.Session{}, league.League{}, member.Member{}, fmt.Errorf("%w: league %s", ErrNotFound, sess.LeagueID)
	}
	m, exists, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return market.Session{}, league.League{}, member.Member{}, fmt.Errorf("get member: %w", err)
	}
	if !exists {
		return market.Session{}, league.League{}, member.Member{}, fmt.Errorf("%w: member %s", ErrNotFound, memberID)
	}
	return sess, lg, m, nil
}

func (s *IndemnityService) publish(ctx context.Context, sess market.Session, kind event.Kind, data map[string]any) {
	evt := event.Event{Kind: kind, SessionID: sess.ID, At: s.now().UTC(), Data: data}
	if err := s.sink.Publish(ctx, event.SessionChannel(sess.LeagueID, sess.ID), evt); err != nil {
		s.logger.WarnContext(ctx, "publish event",
			slog.String("kind", string(kind)), slog.Any("error", err))
	}
}
