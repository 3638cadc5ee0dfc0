package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/fantadynasty/transfer-market/internal/domain/auction"
	"github.com/fantadynasty/transfer-market/internal/domain/contract"
	"github.com/fantadynasty/transfer-market/internal/domain/event"
	"github.com/fantadynasty/transfer-market/internal/domain/league"
	"github.com/fantadynasty/transfer-market/internal/domain/market"
	"github.com/fantadynasty/transfer-market/internal/domain/member"
	"github.com/fantadynasty/transfer-market/internal/domain/player"
	"github.com/fantadynasty/transfer-market/internal/domain/roster"
	"github.com/fantadynasty/transfer-market/internal/domain/rubata"
	idgen "github.com/fantadynasty/transfer-market/internal/platform/id"
)

// queueCASRetries bounds retries when ack traffic contends on the queue row.
const queueCASRetries = 5

// RubataService drives the forced claim-auction phase: a fixed turn queue
// walked position by position, one claim auction at a time, gated on every
// member acknowledging each resolution.
type RubataService struct {
	tx           TxRunner
	queueRepo    rubata.Repository
	sessionRepo  market.Repository
	memberRepo   member.Repository
	leagueRepo   league.Repository
	rosterRepo   roster.Repository
	contractRepo contract.Repository
	playerRepo   player.Repository
	auctions     *AuctionService
	treasury     *TreasuryService
	sink         event.Sink
	idGen        idgen.Generator
	logger       *slog.Logger
	now          func() time.Time
}

func NewRubataService(
	tx TxRunner,
	queueRepo rubata.Repository,
	sessionRepo market.Repository,
	memberRepo member.Repository,
	leagueRepo league.Repository,
	rosterRepo roster.Repository,
	contractRepo contract.Repository,
	playerRepo player.Repository,
	auctions *AuctionService,
	treasurySvc *TreasuryService,
	sink event.Sink,
	idGen idgen.Generator,
	logger *slog.Logger,
) *RubataService {
	if tx == nil {
		tx = passthroughTx{}
	}
	if sink == nil {
		sink = event.NopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RubataService{
		tx:           tx,
		queueRepo:    queueRepo,
		sessionRepo:  sessionRepo,
		memberRepo:   memberRepo,
		leagueRepo:   leagueRepo,
		rosterRepo:   rosterRepo,
		contractRepo: contractRepo,
		playerRepo:   playerRepo,
		auctions:     auctions,
		treasury:     treasurySvc,
		sink:         sink,
		idGen:        idGen,
		logger:       logger,
		now:          time.Now,
	}
}

// StartPhase builds the claim queue from the admin-chosen team order and
// activates it. Leading ineligible turns are skipped immediately; if no
// member can afford the minimum stake the queue completes on the spot.
func (s *RubataService) StartPhase(ctx context.Context, principal member.Principal, sessionID string, teamOrder []string) (rubata.Queue, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RubataService.StartPhase")
	defer span.End()

	if principal.Role != member.RoleAdmin {
		return rubata.Queue{}, fmt.Errorf("%w: only the league admin can start the claim phase", ErrForbidden)
	}

	sess, lg, err := s.sessionLeague(ctx, sessionID)
	if err != nil {
		return rubata.Queue{}, err
	}
	if sess.Phase != market.PhaseRubata {
		return rubata.Queue{}, fmt.Errorf("%w: session is in phase %s", ErrConflict, sess.Phase)
	}
	if _, exists, err := s.queueRepo.GetBySession(ctx, sessionID); err != nil {
		return rubata.Queue{}, fmt.Errorf("check existing queue: %w", err)
	} else if exists {
		return rubata.Queue{}, fmt.Errorf("%w: claim queue already exists for this session", ErrConflict)
	}

	members, err := s.memberRepo.ListByLeague(ctx, sess.LeagueID)
	if err != nil {
		return rubata.Queue{}, fmt.Errorf("list members: %w", err)
	}
	active := make(map[string]struct{}, len(members))
	for _, m := range members {
		if m.Active {
			active[m.ID] = struct{}{}
		}
	}
	for _, memberID := range teamOrder {
		if _, ok := active[memberID]; !ok {
			return rubata.Queue{}, fmt.Errorf("%w: member %s is not an active league member", ErrInvalidInput, memberID)
		}
	}
	if len(teamOrder) != len(active) {
		return rubata.Queue{}, fmt.Errorf("%w: team order must include every active member", ErrInvalidInput)
	}

	queueID, err := s.idGen.NewID()
	if err != nil {
		return rubata.Queue{}, fmt.Errorf("generate queue id: %w", err)
	}
	q, err := rubata.Build(sessionID, queueID, teamOrder)
	if err != nil {
		return rubata.Queue{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	q.Status = rubata.StatusActive

	q, err = s.settleCursor(ctx, q, lg)
	if err != nil {
		return rubata.Queue{}, err
	}

	if err := s.queueRepo.Create(ctx, q); err != nil {
		return rubata.Queue{}, fmt.Errorf("create queue: %w", err)
	}

	s.publish(ctx, sess, event.KindTurnAdvanced, turnData(q))

	return q, nil
}

// Queue returns the session's claim queue.
func (s *RubataService) Queue(ctx context.Context, sessionID string) (rubata.Queue, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RubataService.Queue")
	defer span.End()

	q, exists, err := s.queueRepo.GetBySession(ctx, sessionID)
	if err != nil {
		return rubata.Queue{}, fmt.Errorf("get queue: %w", err)
	}
	if !exists {
		return rubata.Queue{}, fmt.Errorf("%w: no claim queue for session %s", ErrNotFound, sessionID)
	}
	return q, nil
}

// Offer lets the member on turn put another member's contracted player up
// for a claim auction. The base price is the rescission clause plus one
// yearly salary, and the auction opens immediately.
func (s *RubataService) Offer(ctx context.Context, principal member.Principal, sessionID, playerID string) (rubata.Queue, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RubataService.Offer")
	defer span.End()

	sess, lg, err := s.sessionLeague(ctx, sessionID)
	if err != nil {
		return rubata.Queue{}, err
	}
	q, err := s.Queue(ctx, sessionID)
	if err != nil {
		return rubata.Queue{}, err
	}

	turn, ok := q.Current()
	if !ok || q.Status != rubata.StatusActive {
		return rubata.Queue{}, fmt.Errorf("%w: %v", ErrConflict, rubata.ErrQueueExhausted)
	}
	if turn.MemberID != principal.MemberID {
		return rubata.Queue{}, fmt.Errorf("%w: %v", ErrForbidden, rubata.ErrNotYourTurn)
	}
	if turn.Status != rubata.TurnPending {
		return rubata.Queue{}, fmt.Errorf("%w: %v", ErrConflict, rubata.ErrTurnInProgress)
	}

	target, exists, err := s.rosterRepo.GetActiveByPlayer(ctx, playerID)
	if err != nil {
		return rubata.Queue{}, fmt.Errorf("get target roster entry: %w", err)
	}
	if !exists || target.Status != roster.StatusActive {
		return rubata.Queue{}, fmt.Errorf("%w: player %s is not on any roster", ErrNotFound, playerID)
	}
	if target.MemberID == principal.MemberID {
		return rubata.Queue{}, fmt.Errorf("%w: you cannot claim your own player", ErrInvalidInput)
	}
	if target.Position != turn.Position {
		return rubata.Queue{}, fmt.Errorf("%w: this turn claims a %s, the target plays %s", ErrInvalidInput, turn.Position, target.Position)
	}

	c, exists, err := s.contractRepo.GetByRoster(ctx, target.ID)
	if err != nil {
		return rubata.Queue{}, fmt.Errorf("get target contract: %w", err)
	}
	if !exists || c.Status != contract.StatusActive {
		return rubata.Queue{}, fmt.Errorf("%w: the target player has no active contract", ErrInvalidInput)
	}

	basePrice := c.Clause + c.Salary

	disposable, err := s.treasury.DisposableBudget(ctx, principal.MemberID)
	if err != nil {
		return rubata.Queue{}, err
	}
	if disposable < basePrice {
		return rubata.Queue{}, fmt.Errorf("%w: the claim needs %d, disposable budget is %d", ErrInsufficientFunds, basePrice, disposable)
	}

	// The claim auction and the turn it belongs to commit together; a lost
	// queue race never leaves an orphaned auction behind.
	var a auction.Auction
	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		a, err = s.auctions.OpenClaim(ctx, sessionID, target, basePrice)
		if err != nil {
			return err
		}

		turn.Status = rubata.TurnBidding
		turn.TargetRosterID = target.ID
		turn.AuctionID = a.ID
		q.Turns[q.Cursor] = turn
		expected := q.Version
		q.Version++
		if err := s.queueRepo.Update(ctx, q, expected); err != nil {
			if errors.Is(err, rubata.ErrStaleVersion) {
				return fmt.Errorf("%w: claim queue changed concurrently", ErrConflict)
			}
			return fmt.Errorf("update queue: %w", err)
		}
		return nil
	})
	if err != nil {
		return rubata.Queue{}, err
	}

	s.publish(ctx, sess, event.KindTurnAdvanced, map[string]any{
		"turnIndex":  turn.Index,
		"memberId":   turn.MemberID,
		"position":   turn.Position,
		"auctionId":  a.ID,
		"basePrice":  basePrice,
		"minStake":   lg.MinClaimStake,
		"turnStatus": turn.Status,
	})

	return q, nil
}

// Pass lets the member on turn decline to claim anyone. The turn resolves
// empty and still goes through the acknowledgement gate.
func (s *RubataService) Pass(ctx context.Context, principal member.Principal, sessionID string) (rubata.Queue, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RubataService.Pass")
	defer span.End()

	sess, _, err := s.sessionLeague(ctx, sessionID)
	if err != nil {
		return rubata.Queue{}, err
	}
	q, err := s.Queue(ctx, sessionID)
	if err != nil {
		return rubata.Queue{}, err
	}

	turn, ok := q.Current()
	if !ok || q.Status != rubata.StatusActive {
		return rubata.Queue{}, fmt.Errorf("%w: %v", ErrConflict, rubata.ErrQueueExhausted)
	}
	if turn.MemberID != principal.MemberID {
		return rubata.Queue{}, fmt.Errorf("%w: %v", ErrForbidden, rubata.ErrNotYourTurn)
	}
	if turn.Status != rubata.TurnPending {
		return rubata.Queue{}, fmt.Errorf("%w: the turn already has a running claim", ErrConflict)
	}

	turn.Status = rubata.TurnResolved
	q.Turns[q.Cursor] = turn
	expected := q.Version
	q.Version++
	if err := s.queueRepo.Update(ctx, q, expected); err != nil {
		if errors.Is(err, rubata.ErrStaleVersion) {
			return rubata.Queue{}, fmt.Errorf("%w: claim queue changed concurrently", ErrConflict)
		}
		return rubata.Queue{}, fmt.Errorf("update queue: %w", err)
	}

	s.publish(ctx, sess, event.KindTurnAdvanced, turnData(q))

	return q, nil
}

// ResolveCurrent picks up a settled claim auction and marks the turn
// resolved. Safe to call repeatedly; a turn that is not bidding is left
// alone.
func (s *RubataService) ResolveCurrent(ctx context.Context, sessionID string) (rubata.Queue, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RubataService.ResolveCurrent")
	defer span.End()

	sess, _, err := s.sessionLeague(ctx, sessionID)
	if err != nil {
		return rubata.Queue{}, err
	}
	q, err := s.Queue(ctx, sessionID)
	if err != nil {
		return rubata.Queue{}, err
	}

	turn, ok := q.Current()
	if !ok || q.Status != rubata.StatusActive {
		return q, nil
	}
	if turn.Status != rubata.TurnBidding {
		return q, nil
	}
	if turn.AuctionID == "" {
		return rubata.Queue{}, fmt.Errorf("%w: %v", ErrInvariantViolation, rubata.ErrNoClaimAuction)
	}

	a, err := s.auctions.Get(ctx, turn.AuctionID)
	if err != nil {
		return rubata.Queue{}, err
	}
	if a.Result == nil {
		// Auction still running; nothing to resolve yet.
		return q, nil
	}

	turn.Status = rubata.TurnResolved
	q.Turns[q.Cursor] = turn
	expected := q.Version
	q.Version++
	if err := s.queueRepo.Update(ctx, q, expected); err != nil {
		if errors.Is(err, rubata.ErrStaleVersion) {
			return rubata.Queue{}, fmt.Errorf("%w: claim queue changed concurrently", ErrConflict)
		}
		return rubata.Queue{}, fmt.Errorf("update queue: %w", err)
	}

	s.publish(ctx, sess, event.KindTurnAdvanced, turnData(q))

	return q, nil
}

// Acknowledge records one member's confirmation of the resolved turn. When
// every active member has confirmed, the cursor advances, skipping members
// that cannot take their turn.
func (s *RubataService) Acknowledge(ctx context.Context, principal member.Principal, sessionID string) (rubata.Queue, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RubataService.Acknowledge")
	defer span.End()

	sess, lg, err := s.sessionLeague(ctx, sessionID)
	if err != nil {
		return rubata.Queue{}, err
	}

	members, err := s.memberRepo.ListByLeague(ctx, sess.LeagueID)
	if err != nil {
		return rubata.Queue{}, fmt.Errorf("list members: %w", err)
	}
	activeCount := 0
	isActive := false
	for _, m := range members {
		if !m.Active {
			continue
		}
		activeCount++
		if m.ID == principal.MemberID {
			isActive = true
		}
	}
	if !isActive {
		return rubata.Queue{}, fmt.Errorf("%w: only active league members acknowledge turns", ErrForbidden)
	}

	for attempt := 0; attempt < queueCASRetries; attempt++ {
		q, err := s.Queue(ctx, sessionID)
		if err != nil {
			return rubata.Queue{}, err
		}

		turn, ok := q.Current()
		if !ok || q.Status != rubata.StatusActive {
			return rubata.Queue{}, fmt.Errorf("%w: %v", ErrConflict, rubata.ErrQueueExhausted)
		}
		if turn.Status != rubata.TurnResolved {
			return rubata.Queue{}, fmt.Errorf("%w: the current turn is not resolved yet", ErrConflict)
		}
		if !turn.Acknowledged(principal.MemberID) {
			turn.Acks = append(turn.Acks, principal.MemberID)
		}
		q.Turns[q.Cursor] = turn

		allAcked := len(turn.Acks) >= activeCount
		if allAcked {
			q, err = s.advance(ctx, q, lg)
			if err != nil {
				return rubata.Queue{}, err
			}
		}

		expected := q.Version
		q.Version++
		err = s.queueRepo.Update(ctx, q, expected)
		if err == nil {
			s.publish(ctx, sess, event.KindMemberAcknowledged, map[string]any{
				"memberId":  principal.MemberID,
				"turnIndex": turn.Index,
				"advanced":  allAcked,
			})
			if allAcked {
				s.publish(ctx, sess, event.KindTurnAdvanced, turnData(q))
			}
			return q, nil
		}
		if !errors.Is(err, rubata.ErrStaleVersion) {
			return rubata.Queue{}, fmt.Errorf("update queue: %w", err)
		}
	}

	return rubata.Queue{}, fmt.Errorf("%w: claim queue contended, retry the acknowledgement", ErrConflict)
}

// advance moves the cursor past the acknowledged turn and settles it on the
// next eligible one.
func (s *RubataService) advance(ctx context.Context, q rubata.Queue, lg league.League) (rubata.Queue, error) {
	if q.LastTurn() {
		q.Status = rubata.StatusCompleted
		return q, nil
	}
	q.Cursor++
	return s.settleCursor(ctx, q, lg)
}

// settleCursor walks the cursor forward over turns that cannot run: the
// member is below the minimum stake, or no opposing roster has a contracted
// player at the turn's position. If everyone left in the queue is broke,
// the queue completes early.
func (s *RubataService) settleCursor(ctx context.Context, q rubata.Queue, lg league.League) (rubata.Queue, error) {
	for q.Cursor < len(q.Turns) {
		turn := q.Turns[q.Cursor]

		disposable, err := s.treasury.DisposableBudget(ctx, turn.MemberID)
		if err != nil {
			return rubata.Queue{}, err
		}
		if disposable < lg.MinClaimStake {
			broke, err := s.allRemainingBroke(ctx, q, lg)
			if err != nil {
				return rubata.Queue{}, err
			}
			if broke {
				for i := q.Cursor; i < len(q.Turns); i++ {
					q.Turns[i].Status = rubata.TurnSkipped
					q.Turns[i].Skip = rubata.SkipInsufficientBudget
				}
				q.Cursor = len(q.Turns) - 1
				q.Status = rubata.StatusCompleted
				q.CompletionReason = rubata.ReasonAllInsufficientBudget
				return q, nil
			}
			q.Turns[q.Cursor].Status = rubata.TurnSkipped
			q.Turns[q.Cursor].Skip = rubata.SkipInsufficientBudget
			q.Cursor++
			continue
		}

		eligible, err := s.hasClaimableTarget(ctx, lg.ID, turn)
		if err != nil {
			return rubata.Queue{}, err
		}
		if !eligible {
			q.Turns[q.Cursor].Status = rubata.TurnSkipped
			q.Turns[q.Cursor].Skip = rubata.SkipNoEligiblePlayer
			q.Cursor++
			continue
		}

		return q, nil
	}

	q.Cursor = len(q.Turns) - 1
	q.Status = rubata.StatusCompleted
	return q, nil
}

// allRemainingBroke reports whether every distinct member still holding a
// pending turn is below the minimum stake.
func (s *RubataService) allRemainingBroke(ctx context.Context, q rubata.Queue, lg league.League) (bool, error) {
	checked := make(map[string]struct{})
	for i := q.Cursor; i < len(q.Turns); i++ {
		memberID := q.Turns[i].MemberID
		if _, done := checked[memberID]; done {
			continue
		}
		checked[memberID] = struct{}{}
		disposable, err := s.treasury.DisposableBudget(ctx, memberID)
		if err != nil {
			return false, err
		}
		if disposable >= lg.MinClaimStake {
			return false, nil
		}
	}
	return true, nil
}

// ClaimTarget is one player the member on turn could put up for a claim.
type ClaimTarget struct {
	RosterID   string          `json:"rosterId"`
	PlayerID   string          `json:"playerId"`
	PlayerName string          `json:"playerName"`
	OwnerID    string          `json:"ownerId"`
	Position   player.Position `json:"position"`
	BasePrice  int64           `json:"basePrice"`
}

// Claimable lists every player the current turn could target: active
// contracted players at the turn's position on opposing rosters, ordered
// alphabetically by player name. An exhausted or non-pending turn lists
// nothing.
func (s *RubataService) Claimable(ctx context.Context, sessionID string) ([]ClaimTarget, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RubataService.Claimable")
	defer span.End()

	sess, _, err := s.sessionLeague(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	q, err := s.Queue(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	turn, ok := q.Current()
	if !ok || q.Status != rubata.StatusActive || turn.Status != rubata.TurnPending {
		return []ClaimTarget{}, nil
	}

	members, err := s.memberRepo.ListByLeague(ctx, sess.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	targets := []ClaimTarget{}
	for _, m := range members {
		if m.ID == turn.MemberID || !m.Active {
			continue
		}
		entries, err := s.rosterRepo.ListActiveByMemberPosition(ctx, m.ID, turn.Position)
		if err != nil {
			return nil, fmt.Errorf("list roster entries: %w", err)
		}
		for _, e := range entries {
			c, exists, err := s.contractRepo.GetByRoster(ctx, e.ID)
			if err != nil {
				return nil, fmt.Errorf("get contract for roster %s: %w", e.ID, err)
			}
			if !exists || c.Status != contract.StatusActive {
				continue
			}
			p, exists, err := s.playerRepo.GetByID(ctx, e.PlayerID)
			if err != nil {
				return nil, fmt.Errorf("get player: %w", err)
			}
			if !exists {
				continue
			}
			targets = append(targets, ClaimTarget{
				RosterID:   e.ID,
				PlayerID:   p.ID,
				PlayerName: p.Name,
				OwnerID:    m.ID,
				Position:   turn.Position,
				BasePrice:  c.Clause + c.Salary,
			})
		}
	}

	sort.Slice(targets, func(i, j int) bool {
		if targets[i].PlayerName != targets[j].PlayerName {
			return targets[i].PlayerName < targets[j].PlayerName
		}
		return targets[i].PlayerID < targets[j].PlayerID
	})

	return targets, nil
}

// hasClaimableTarget reports whether any opposing member owns an active
// contracted player matching the turn's position.
func (s *RubataService) hasClaimableTarget(ctx context.Context, leagueID string, turn rubata.Turn) (bool, error) {
	members, err := s.memberRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return false, fmt.Errorf("list members: %w", err)
	}
	for _, m := range members {
		if m.ID == turn.MemberID || !m.Active {
			continue
		}
		entries, err := s.rosterRepo.ListActiveByMemberPosition(ctx, m.ID, turn.Position)
		if err != nil {
			return false, fmt.Errorf("list roster entries: %w", err)
		}
		if len(entries) == 0 {
			continue
		}
		rosterIDs := make([]string, 0, len(entries))
		for _, e := range entries {
			rosterIDs = append(rosterIDs, e.ID)
		}
		contracts, err := s.contractRepo.ListActiveByRosterIDs(ctx, rosterIDs)
		if err != nil {
			return false, fmt.Errorf("list contracts: %w", err)
		}
		if len(contracts) > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (s *RubataService) sessionLeague(ctx context.Context, sessionID string) (market.Session, league.League, error) {
	sess, exists, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return market.Session{}, league.League{}, fmt.Errorf("get session: %w", err)
	}
	if !exists {
		return market.Session{}, league.League{}, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	lg, exists, err := s.leagueRepo.GetByID(ctx, sess.LeagueID)
	if err != nil {
		return market.Session{}, league.League{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return market.Session{}, league.League{}, fmt.Errorf("%w: league %s", ErrNotFound, sess.LeagueID)
	}
	return sess, lg, nil
}

func (s *RubataService) publish(ctx context.Context, sess market.Session, kind event.Kind, data map[string]any) {
	evt := event.Event{Kind: kind, SessionID: sess.ID, At: s.now().UTC(), Data: data}
	if err := s.sink.Publish(ctx, event.SessionChannel(sess.LeagueID, sess.ID), evt); err != nil {
		s.logger.WarnContext(ctx, "publish event",
			slog.String("kind", string(kind)), slog.Any("error", err))
	}
}

// turnData snapshots the cursor for the event stream.
func turnData(q rubata.Queue) map[string]any {
	data := map[string]any{
		"queueStatus": q.Status,
		"cursor":      q.Cursor,
	}
	if q.CompletionReason != "" {
		data["completionReason"] = q.CompletionReason
	}
	if turn, ok := q.Current(); ok {
		data["turnIndex"] = turn.Index
		data["memberId"] = turn.MemberID
		data["position"] = turn.Position
		data["turnStatus"] = turn.Status
	}
	return data
}
