package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fantadynasty/transfer-market/internal/domain/event"
	"github.com/fantadynasty/transfer-market/internal/domain/market"
	"github.com/fantadynasty/transfer-market/internal/domain/member"
	"github.com/fantadynasty/transfer-market/internal/domain/rubata"
	idgen "github.com/fantadynasty/transfer-market/internal/platform/id"
)

// PhaseStatus is the orchestrator's answer to "where are we and what is in
// the way". During the claim phase it also carries the queue cursor and the
// members whose acknowledgement the current turn still waits on.
type PhaseStatus struct {
	Session     market.Session
	Blockers    []string
	TurnCursor  *int
	PendingAcks []string
}

// PhaseService is the market phase orchestrator: it owns the session state
// machine, enforces the transition guards, and writes the phase audit log.
type PhaseService struct {
	sessionRepo market.Repository
	queueRepo   rubata.Repository
	memberRepo  member.Repository
	contracts   *ContractService
	indemnity   *IndemnityService
	sink        event.Sink
	idGen       idgen.Generator
	logger      *slog.Logger
	now         func() time.Time
}

func NewPhaseService(
	sessionRepo market.Repository,
	queueRepo rubata.Repository,
	memberRepo member.Repository,
	contracts *ContractService,
	indemnitySvc *IndemnityService,
	sink event.Sink,
	idGen idgen.Generator,
	logger *slog.Logger,
) *PhaseService {
	if sink == nil {
		sink = event.NopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PhaseService{
		sessionRepo: sessionRepo,
		queueRepo:   queueRepo,
		memberRepo:  memberRepo,
		contracts:   contracts,
		indemnity:   indemnitySvc,
		sink:        sink,
		idGen:       idGen,
		logger:      logger,
		now:         time.Now,
	}
}

// StartSession opens a new market session for a league in the first-market
// phase. Only one session may be active per league.
func (s *PhaseService) StartSession(ctx context.Context, principal member.Principal, leagueID string) (market.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PhaseService.StartSession")
	defer span.End()

	if principal.Role != member.RoleAdmin {
		return market.Session{}, fmt.Errorf("%w: only the league admin can open a market session", ErrForbidden)
	}
	if _, exists, err := s.sessionRepo.GetActiveByLeague(ctx, leagueID); err != nil {
		return market.Session{}, fmt.Errorf("check active session: %w", err)
	} else if exists {
		return market.Session{}, fmt.Errorf("%w: the league already has an active market session", ErrConflict)
	}

	sessionID, err := s.idGen.NewID()
	if err != nil {
		return market.Session{}, fmt.Errorf("generate session id: %w", err)
	}
	now := s.now().UTC()
	sess := market.Session{
		ID:        sessionID,
		LeagueID:  leagueID,
		Phase:     market.PhaseFirstMarket,
		StartedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	if err := sess.Validate(); err != nil {
		return market.Session{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return market.Session{}, fmt.Errorf("create session: %w", err)
	}

	return sess, nil
}

// Status returns the session with the guard blockers currently standing in
// the way of the next transition.
func (s *PhaseService) Status(ctx context.Context, sessionID string) (PhaseStatus, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PhaseService.Status")
	defer span.End()

	sess, exists, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return PhaseStatus{}, fmt.Errorf("get session: %w", err)
	}
	if !exists {
		return PhaseStatus{}, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}

	blockers, err := s.blockers(ctx, sess)
	if err != nil {
		return PhaseStatus{}, err
	}
	status := PhaseStatus{Session: sess, Blockers: blockers}

	if sess.Phase == market.PhaseRubata {
		if err := s.attachQueueState(ctx, sess, &status); err != nil {
			return PhaseStatus{}, err
		}
	}
	return status, nil
}

// attachQueueState adds the claim-queue cursor and the outstanding
// acknowledgements to the status. A resolved turn waits on every active
// member who has not confirmed it yet; any other turn waits on nobody.
func (s *PhaseService) attachQueueState(ctx context.Context, sess market.Session, status *PhaseStatus) error {
	q, exists, err := s.queueRepo.GetBySession(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("get claim queue: %w", err)
	}
	if !exists {
		return nil
	}

	cursor := q.Cursor
	status.TurnCursor = &cursor
	status.PendingAcks = []string{}

	turn, ok := q.Current()
	if !ok || q.Status != rubata.StatusActive || turn.Status != rubata.TurnResolved {
		return nil
	}

	members, err := s.memberRepo.ListByLeague(ctx, sess.LeagueID)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}
	for _, m := range members {
		if !m.Active || turn.Acknowledged(m.ID) {
			continue
		}
		status.PendingAcks = append(status.PendingAcks, m.ID)
	}
	return nil
}

// ActiveSession resolves the running session of a league. Callers that only
// know the league (every non-auction route) go through here.
func (s *PhaseService) ActiveSession(ctx context.Context, leagueID string) (market.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PhaseService.ActiveSession")
	defer span.End()

	sess, exists, err := s.sessionRepo.GetActiveByLeague(ctx, leagueID)
	if err != nil {
		return market.Session{}, fmt.Errorf("get active session: %w", err)
	}
	if !exists {
		return market.Session{}, fmt.Errorf("%w: no active session for league %s", ErrNotFound, leagueID)
	}
	return sess, nil
}

// Transitions returns the session's phase audit log.
func (s *PhaseService) Transitions(ctx context.Context, sessionID string) ([]market.Transition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PhaseService.Transitions")
	defer span.End()

	transitions, err := s.sessionRepo.ListTransitions(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	return transitions, nil
}

// Advance moves the session to the requested phase. Admin only; the target
// must be a legal successor, and the guards must be clear unless the admin
// forces past them. Every transition lands in the audit log.
func (s *PhaseService) Advance(ctx context.Context, principal member.Principal, sessionID string, to market.Phase, forced bool) (market.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PhaseService.Advance")
	defer span.End()

	if principal.Role != member.RoleAdmin {
		return market.Session{}, fmt.Errorf("%w: only the league admin can advance the market phase", ErrForbidden)
	}
	if _, ok := market.AllPhases[to]; !ok {
		return market.Session{}, fmt.Errorf("%w: unknown phase %s", ErrInvalidInput, to)
	}

	sess, exists, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return market.Session{}, fmt.Errorf("get session: %w", err)
	}
	if !exists {
		return market.Session{}, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	if !market.CanTransition(sess.Phase, to) {
		return market.Session{}, fmt.Errorf("%w: %v (%s -> %s)", ErrConflict, market.ErrIllegalTransition, sess.Phase, to)
	}
	if sess.ActiveAuctionID != "" {
		return market.Session{}, fmt.Errorf("%w: an auction is still running, close it before advancing", ErrConflict)
	}

	if !forced {
		blockers, err := s.guard(ctx, sess, to)
		if err != nil {
			return market.Session{}, err
		}
		if len(blockers) > 0 {
			return market.Session{}, fmt.Errorf("%w: transition blocked: %s", ErrConflict, strings.Join(blockers, "; "))
		}
	}

	from := sess.Phase
	now := s.now().UTC()
	sess.Phase = to
	sess.UpdatedAt = now
	expected := sess.Version
	sess.Version++
	if err := s.sessionRepo.Update(ctx, sess, expected); err != nil {
		if errors.Is(err, market.ErrStaleVersion) {
			return market.Session{}, fmt.Errorf("%w: session changed concurrently, retry", ErrConflict)
		}
		return market.Session{}, fmt.Errorf("update session: %w", err)
	}

	transitionID, err := s.idGen.NewID()
	if err != nil {
		return market.Session{}, fmt.Errorf("generate transition id: %w", err)
	}
	if err := s.sessionRepo.AppendTransition(ctx, market.Transition{
		ID:        transitionID,
		SessionID: sess.ID,
		From:      from,
		To:        to,
		ActorID:   principal.MemberID,
		Forced:    forced,
		At:        now,
	}); err != nil {
		return market.Session{}, fmt.Errorf("append transition: %w", err)
	}

	if err := s.onEnter(ctx, sess, to); err != nil {
		return market.Session{}, err
	}

	evt := event.Event{Kind: event.KindPhaseChanged, SessionID: sess.ID, At: now, Data: map[string]any{
		"from":   from,
		"to":     to,
		"forced": forced,
	}}
	if err := s.sink.Publish(ctx, event.SessionChannel(sess.LeagueID, sess.ID), evt); err != nil {
		s.logger.WarnContext(ctx, "publish event",
			slog.String("kind", string(event.KindPhaseChanged)), slog.Any("error", err))
	}

	return sess, nil
}

// guard returns the blockers standing between the session and the target
// phase.
func (s *PhaseService) guard(ctx context.Context, sess market.Session, to market.Phase) ([]string, error) {
	blockers := make([]string, 0)

	if sess.Phase == market.PhaseIndemnity {
		open, names, err := s.indemnity.CanAdvance(ctx, sess.ID)
		if err != nil {
			return nil, err
		}
		if !open {
			blockers = append(blockers, fmt.Sprintf("indemnity decisions pending from: %s", strings.Join(names, ", ")))
		}
	}

	switch {
	case sess.Phase == market.PhaseContracts && to == market.PhaseRubata:
		n, err := s.contracts.UnresolvedRenewals(ctx, sess.LeagueID)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			blockers = append(blockers, fmt.Sprintf("%d contracts still await renewal", n))
		}
	case sess.Phase == market.PhaseRubata && to == market.PhaseFreeAgents:
		q, exists, err := s.queueRepo.GetBySession(ctx, sess.ID)
		if err != nil {
			return nil, fmt.Errorf("get claim queue: %w", err)
		}
		if !exists || q.Status != rubata.StatusCompleted {
			blockers = append(blockers, "the claim queue has not completed")
		}
	case sess.Phase == market.PhaseTradeWindow && to == market.PhaseContracts:
		// Exited players force the detour through indemnity settlement.
		affected, err := s.indemnity.AffectedExists(ctx)
		if err != nil {
			return nil, err
		}
		if affected {
			blockers = append(blockers, "exited players need an indemnity settlement first")
		}
	case sess.Phase == market.PhaseTradeWindow && to == market.PhaseIndemnity:
		affected, err := s.indemnity.AffectedExists(ctx)
		if err != nil {
			return nil, err
		}
		if !affected {
			blockers = append(blockers, "no exited players to settle")
		}
	}

	return blockers, nil
}

// blockers evaluates the guards of every legal successor, for status
// reporting.
func (s *PhaseService) blockers(ctx context.Context, sess market.Session) ([]string, error) {
	all := make([]string, 0)
	seen := make(map[string]struct{})
	for _, to := range market.Successors(sess.Phase) {
		list, err := s.guard(ctx, sess, to)
		if err != nil {
			return nil, err
		}
		for _, b := range list {
			if _, dup := seen[b]; dup {
				continue
			}
			seen[b] = struct{}{}
			all = append(all, b)
		}
	}
	return all, nil
}

// onEnter runs the phase-entry hooks: contracts count down on entering the
// contracts phase, the settlement builds on entering indemnity.
func (s *PhaseService) onEnter(ctx context.Context, sess market.Session, to market.Phase) error {
	switch to {
	case market.PhaseContracts:
		if err := s.contracts.Countdown(ctx, sess.LeagueID); err != nil {
			return err
		}
	case market.PhaseIndemnity:
		if _, err := s.indemnity.Prepare(ctx, sess.ID); err != nil {
			return err
		}
	}
	return nil
}
