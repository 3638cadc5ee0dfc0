package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fantadynasty/transfer-market/internal/domain/auction"
	"github.com/fantadynasty/transfer-market/internal/domain/contract"
	"github.com/fantadynasty/transfer-market/internal/domain/event"
	"github.com/fantadynasty/transfer-market/internal/domain/market"
	"github.com/fantadynasty/transfer-market/internal/domain/member"
	"github.com/fantadynasty/transfer-market/internal/domain/movement"
	"github.com/fantadynasty/transfer-market/internal/domain/player"
	"github.com/fantadynasty/transfer-market/internal/domain/roster"
	idgen "github.com/fantadynasty/transfer-market/internal/platform/id"
)

// AuctionPolicy carries the timing knobs for open-bid auctions.
type AuctionPolicy struct {
	Timer              time.Duration
	AntiSnipeThreshold time.Duration
	AntiSnipeExtension time.Duration
}

func (p AuctionPolicy) normalized() AuctionPolicy {
	if p.Timer <= 0 {
		p.Timer = 60 * time.Second
	}
	if p.AntiSnipeThreshold <= 0 {
		p.AntiSnipeThreshold = 10 * time.Second
	}
	// A snipe-window bid restarts the clock from the full timer.
	if p.AntiSnipeExtension <= 0 {
		p.AntiSnipeExtension = p.Timer
	}
	return p
}

// AuctionService runs the open-bid auction engine: nominations in open
// phases, bid acceptance with budget holds, and idempotent settlement.
type AuctionService struct {
	tx           TxRunner
	auctionRepo  auction.Repository
	sessionRepo  market.Repository
	playerRepo   player.Repository
	rosterRepo   roster.Repository
	contractRepo contract.Repository
	movementRepo movement.Repository
	memberRepo   member.Repository
	treasury     *TreasuryService
	sink         event.Sink
	idGen        idgen.Generator
	policy       AuctionPolicy
	logger       *slog.Logger
	now          func() time.Time
}

func NewAuctionService(
	tx TxRunner,
	auctionRepo auction.Repository,
	sessionRepo market.Repository,
	playerRepo player.Repository,
	rosterRepo roster.Repository,
	contractRepo contract.Repository,
	movementRepo movement.Repository,
	memberRepo member.Repository,
	treasurySvc *TreasuryService,
	sink event.Sink,
	idGen idgen.Generator,
	policy AuctionPolicy,
	logger *slog.Logger,
) *AuctionService {
	if tx == nil {
		tx = passthroughTx{}
	}
	if sink == nil {
		sink = event.NopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AuctionService{
		tx:           tx,
		auctionRepo:  auctionRepo,
		sessionRepo:  sessionRepo,
		playerRepo:   playerRepo,
		rosterRepo:   rosterRepo,
		contractRepo: contractRepo,
		movementRepo: movementRepo,
		memberRepo:   memberRepo,
		treasury:     treasurySvc,
		sink:         sink,
		idGen:        idGen,
		policy:       policy.normalized(),
		logger:       logger,
		now:          time.Now,
	}
}

// Nominate opens a new auction over a free player. Only one auction may be
// active per session, and only phases with open bidding accept nominations.
func (s *AuctionService) Nominate(ctx context.Context, principal member.Principal, sessionID, playerID string, basePrice int64) (auction.Auction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuctionService.Nominate")
	defer span.End()

	if basePrice <= 0 {
		return auction.Auction{}, fmt.Errorf("%w: base price must be greater than zero", ErrInvalidInput)
	}

	sess, exists, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return auction.Auction{}, fmt.Errorf("get session: %w", err)
	}
	if !exists {
		return auction.Auction{}, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	if !market.AllowsOpenBidding(sess.Phase) {
		return auction.Auction{}, fmt.Errorf("%w: phase %s does not accept nominations", ErrForbidden, sess.Phase)
	}
	if sess.ActiveAuctionID != "" {
		return auction.Auction{}, fmt.Errorf("%w: an auction is already running in this session", ErrConflict)
	}

	p, exists, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return auction.Auction{}, fmt.Errorf("get player: %w", err)
	}
	if !exists {
		return auction.Auction{}, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	if p.Exited() {
		return auction.Auction{}, fmt.Errorf("%w: player %s left the league (%s)", ErrInvalidInput, p.Name, p.ExitReason)
	}
	if _, owned, err := s.rosterRepo.GetActiveByPlayer(ctx, playerID); err != nil {
		return auction.Auction{}, fmt.Errorf("check player ownership: %w", err)
	} else if owned {
		return auction.Auction{}, fmt.Errorf("%w: player %s is already on a roster", ErrConflict, p.Name)
	}

	if err := s.treasury.AssertSlotAvailable(ctx, principal.MemberID, p.Position); err != nil {
		return auction.Auction{}, err
	}

	auctionID, err := s.idGen.NewID()
	if err != nil {
		return auction.Auction{}, fmt.Errorf("generate auction id: %w", err)
	}

	now := s.now().UTC()
	a := auction.Auction{
		ID:           auctionID,
		SessionID:    sessionID,
		PlayerID:     playerID,
		NominatorID:  principal.MemberID,
		BasePrice:    basePrice,
		CurrentPrice: basePrice,
		Status:       auction.StatusActive,
		ExpiresAt:    now.Add(s.policy.Timer),
		Version:      1,
		CreatedAt:    now,
	}
	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.auctionRepo.Create(ctx, a); err != nil {
			return fmt.Errorf("create auction: %w", err)
		}
		sess.ActiveAuctionID = a.ID
		sess.UpdatedAt = now
		if err := s.sessionRepo.Update(ctx, sess, sess.Version); err != nil {
			if errors.Is(err, market.ErrStaleVersion) {
				return fmt.Errorf("%w: session changed concurrently, retry the nomination", ErrConflict)
			}
			return fmt.Errorf("attach auction to session: %w", err)
		}
		return nil
	})
	if err != nil {
		return auction.Auction{}, err
	}

	return a, nil
}

// OpenClaim opens a forced claim auction over a contracted roster entry.
// The base price is the rescission clause plus the yearly salary; the
// current owner loses the player when the auction completes.
func (s *AuctionService) OpenClaim(ctx context.Context, sessionID string, target roster.Entry, basePrice int64) (auction.Auction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuctionService.OpenClaim")
	defer span.End()

	sess, exists, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return auction.Auction{}, fmt.Errorf("get session: %w", err)
	}
	if !exists {
		return auction.Auction{}, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	if sess.ActiveAuctionID != "" {
		return auction.Auction{}, fmt.Errorf("%w: an auction is already running in this session", ErrConflict)
	}

	auctionID, err := s.idGen.NewID()
	if err != nil {
		return auction.Auction{}, fmt.Errorf("generate auction id: %w", err)
	}

	now := s.now().UTC()
	a := auction.Auction{
		ID:           auctionID,
		SessionID:    sessionID,
		PlayerID:     target.PlayerID,
		NominatorID:  target.MemberID,
		OwnerID:      target.MemberID,
		BasePrice:    basePrice,
		CurrentPrice: basePrice,
		Status:       auction.StatusActive,
		ExpiresAt:    now.Add(s.policy.Timer),
		Version:      1,
		CreatedAt:    now,
	}
	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.auctionRepo.Create(ctx, a); err != nil {
			return fmt.Errorf("create claim auction: %w", err)
		}
		sess.ActiveAuctionID = a.ID
		sess.UpdatedAt = now
		if err := s.sessionRepo.Update(ctx, sess, sess.Version); err != nil {
			return fmt.Errorf("attach claim auction to session: %w", err)
		}
		return nil
	})
	if err != nil {
		return auction.Auction{}, err
	}

	return a, nil
}

// PlaceBid accepts a bid: the amount is held against the bidder's budget
// before the auction row is swapped, so a winner's funds are always covered.
// Losing the optimistic swap releases the hold and surfaces a conflict.
func (s *AuctionService) PlaceBid(ctx context.Context, principal member.Principal, auctionID string, amount int64) (auction.Auction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuctionService.PlaceBid")
	defer span.End()

	a, exists, err := s.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return auction.Auction{}, fmt.Errorf("get auction: %w", err)
	}
	if !exists {
		return auction.Auction{}, fmt.Errorf("%w: auction %s", ErrNotFound, auctionID)
	}

	if a.OwnerID != "" && a.OwnerID == principal.MemberID {
		return auction.Auction{}, fmt.Errorf("%w: the current owner cannot bid on their own claim auction", ErrForbidden)
	}

	if err := a.CheckBid(principal.MemberID, amount); err != nil {
		switch {
		case errors.Is(err, auction.ErrClosed), errors.Is(err, auction.ErrNotActive):
			return auction.Auction{}, fmt.Errorf("%w: %v", ErrConflict, err)
		default:
			return auction.Auction{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	released, err := s.movementRepo.HasRelease(ctx, a.SessionID, principal.MemberID, a.PlayerID)
	if err != nil {
		return auction.Auction{}, fmt.Errorf("check release history: %w", err)
	}
	if released {
		return auction.Auction{}, fmt.Errorf("%w: you released this player during the current session", ErrForbidden)
	}

	p, exists, err := s.playerRepo.GetByID(ctx, a.PlayerID)
	if err != nil {
		return auction.Auction{}, fmt.Errorf("get player: %w", err)
	}
	if !exists {
		return auction.Auction{}, fmt.Errorf("%w: player %s", ErrNotFound, a.PlayerID)
	}
	if err := s.treasury.AssertSlotAvailable(ctx, principal.MemberID, p.Position); err != nil {
		return auction.Auction{}, err
	}

	prior, hadPrior := a.WinningBid()

	bidID, err := s.idGen.NewID()
	if err != nil {
		return auction.Auction{}, fmt.Errorf("generate bid id: %w", err)
	}

	now := s.now().UTC()
	var next auction.Auction

	// The hold, the bid swap and the outbid member's refund land in one
	// commit, so a failed swap never leaks a reservation.
	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		res, err := s.treasury.Reserve(ctx, principal.MemberID, amount, a.ID)
		if err != nil {
			return err
		}

		next = a.ApplyBid(auction.Bid{
			ID:            bidID,
			MemberID:      principal.MemberID,
			Amount:        amount,
			ReservationID: res.ID,
			PlacedAt:      now,
		}, now, s.policy.AntiSnipeThreshold, s.policy.AntiSnipeExtension)
		next.Version++

		if err := s.auctionRepo.Update(ctx, next, a.Version); err != nil {
			if errors.Is(err, auction.ErrStaleVersion) {
				return fmt.Errorf("%w: another bid landed first, refresh and retry", ErrConflict)
			}
			return fmt.Errorf("update auction: %w", err)
		}

		if hadPrior && prior.ReservationID != "" {
			if err := s.treasury.Release(ctx, prior.ReservationID); err != nil {
				return fmt.Errorf("release outbid reservation: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return auction.Auction{}, err
	}

	s.publish(ctx, next.SessionID, event.KindBidPlaced, map[string]any{
		"auctionId": next.ID,
		"memberId":  principal.MemberID,
		"amount":    amount,
		"expiresAt": next.ExpiresAt,
	})

	return next, nil
}

// Close settles an auction whose timer ran out. The call is idempotent: a
// settled auction returns its stored result without re-applying effects.
func (s *AuctionService) Close(ctx context.Context, auctionID string) (auction.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuctionService.Close")
	defer span.End()

	a, exists, err := s.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return auction.Result{}, fmt.Errorf("get auction: %w", err)
	}
	if !exists {
		return auction.Result{}, fmt.Errorf("%w: auction %s", ErrNotFound, auctionID)
	}
	if a.Result != nil {
		return *a.Result, nil
	}
	if a.Status != auction.StatusActive {
		return auction.Result{}, fmt.Errorf("%w: auction is %s", ErrConflict, a.Status)
	}
	if !a.Expired(s.now().UTC()) {
		return auction.Result{}, fmt.Errorf("%w: auction timer has not run out", ErrConflict)
	}

	winning, hasWinner := a.WinningBid()

	// Settlement is all-or-nothing: debit, roster, contract, ledger and the
	// auction swap commit together, so a mid-settlement failure leaves the
	// auction active and retryable.
	var result auction.Result
	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		var err error
		if hasWinner {
			result, err = s.closeWithWinner(ctx, a, winning)
		} else {
			result, err = s.closeNoBids(ctx, a)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, auction.ErrStaleVersion) {
			return s.rereadResult(ctx, a.ID)
		}
		return auction.Result{}, err
	}

	data := map[string]any{"auctionId": a.ID, "noBids": true}
	if hasWinner {
		data = map[string]any{
			"auctionId":  a.ID,
			"winnerId":   result.WinnerID,
			"finalPrice": result.FinalPrice,
			"playerId":   a.PlayerID,
		}
	}
	s.publish(ctx, a.SessionID, event.KindAuctionClosed, data)

	return result, nil
}

func (s *AuctionService) closeNoBids(ctx context.Context, a auction.Auction) (auction.Result, error) {
	result := auction.Result{NoBids: true}
	a.Status = auction.StatusNoBids
	a.Result = &result
	expected := a.Version
	a.Version++
	if err := s.auctionRepo.Update(ctx, a, expected); err != nil {
		if errors.Is(err, auction.ErrStaleVersion) {
			// Surfaced raw so the caller rereads after the rollback.
			return auction.Result{}, err
		}
		return auction.Result{}, fmt.Errorf("close auction: %w", err)
	}

	if err := s.detachFromSession(ctx, a.SessionID, a.ID); err != nil {
		return auction.Result{}, err
	}
	return result, nil
}

func (s *AuctionService) closeWithWinner(ctx context.Context, a auction.Auction, winning auction.Bid) (auction.Result, error) {
	p, exists, err := s.playerRepo.GetByID(ctx, a.PlayerID)
	if err != nil {
		return auction.Result{}, fmt.Errorf("get player: %w", err)
	}
	if !exists {
		return auction.Result{}, fmt.Errorf("%w: player %s", ErrNotFound, a.PlayerID)
	}

	sess, exists, err := s.sessionRepo.GetByID(ctx, a.SessionID)
	if err != nil {
		return auction.Result{}, fmt.Errorf("get session: %w", err)
	}
	if !exists {
		return auction.Result{}, fmt.Errorf("%w: session %s", ErrNotFound, a.SessionID)
	}

	now := s.now().UTC()

	// Claim auctions strip the player from the losing owner first.
	if a.OwnerID != "" {
		if err := s.releaseOwner(ctx, a, now); err != nil {
			return auction.Result{}, err
		}
	}

	price, err := s.treasury.Debit(ctx, winning.ReservationID)
	if err != nil {
		return auction.Result{}, fmt.Errorf("debit winning reservation: %w", err)
	}
	if price != winning.Amount {
		return auction.Result{}, fmt.Errorf("%w: reservation amount %d does not match winning bid %d", ErrInvariantViolation, price, winning.Amount)
	}

	entryID, err := s.idGen.NewID()
	if err != nil {
		return auction.Result{}, fmt.Errorf("generate roster entry id: %w", err)
	}
	entry := roster.Entry{
		ID:         entryID,
		MemberID:   winning.MemberID,
		PlayerID:   a.PlayerID,
		Position:   p.Position,
		Channel:    channelFor(sess.Phase, a.OwnerID != ""),
		Status:     roster.StatusActive,
		AcquiredAt: now,
	}
	if err := s.rosterRepo.Save(ctx, entry); err != nil {
		return auction.Result{}, fmt.Errorf("save roster entry: %w", err)
	}

	// A fresh contract starts at one year with the hammer price as salary;
	// the winner sets real terms in the next contracts phase.
	contractID, err := s.idGen.NewID()
	if err != nil {
		return auction.Result{}, fmt.Errorf("generate contract id: %w", err)
	}
	clause, err := contract.Clause(winning.Amount, 1)
	if err != nil {
		return auction.Result{}, fmt.Errorf("compute clause: %w", err)
	}
	if err := s.contractRepo.Save(ctx, contract.Contract{
		ID:        contractID,
		RosterID:  entry.ID,
		Salary:    winning.Amount,
		Duration:  1,
		Clause:    clause,
		Status:    contract.StatusActive,
		UpdatedAt: now,
	}); err != nil {
		return auction.Result{}, fmt.Errorf("save contract: %w", err)
	}

	movementID, err := s.idGen.NewID()
	if err != nil {
		return auction.Result{}, fmt.Errorf("generate movement id: %w", err)
	}
	movementType := movement.TypeAuctionWin
	if a.OwnerID != "" {
		movementType = movement.TypeClaim
	}
	if err := s.movementRepo.Append(ctx, movement.Movement{
		ID:           movementID,
		SessionID:    a.SessionID,
		Type:         movementType,
		PlayerID:     a.PlayerID,
		FromMemberID: a.OwnerID,
		ToMemberID:   winning.MemberID,
		Price:        winning.Amount,
		AuctionID:    a.ID,
		CreatedAt:    now,
	}); err != nil {
		return auction.Result{}, fmt.Errorf("append movement: %w", err)
	}

	result := auction.Result{
		WinnerID:   winning.MemberID,
		FinalPrice: winning.Amount,
		MovementID: movementID,
	}
	a.Status = auction.StatusCompleted
	a.Result = &result
	expected := a.Version
	a.Version++
	if err := s.auctionRepo.Update(ctx, a, expected); err != nil {
		if errors.Is(err, auction.ErrStaleVersion) {
			// Surfaced raw so the caller rereads after the rollback.
			return auction.Result{}, err
		}
		return auction.Result{}, fmt.Errorf("close auction: %w", err)
	}

	if err := s.detachFromSession(ctx, a.SessionID, a.ID); err != nil {
		return auction.Result{}, err
	}
	return result, nil
}

// Cancel aborts a pending or active auction and returns every outstanding
// hold. Admin only; used when a nomination was a mistake.
func (s *AuctionService) Cancel(ctx context.Context, principal member.Principal, auctionID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuctionService.Cancel")
	defer span.End()

	if principal.Role != member.RoleAdmin {
		return fmt.Errorf("%w: only the league admin can cancel an auction", ErrForbidden)
	}

	a, exists, err := s.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("get auction: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: auction %s", ErrNotFound, auctionID)
	}
	if !auction.CanTransition(a.Status, auction.StatusCancelled) {
		return fmt.Errorf("%w: auction is %s", ErrConflict, a.Status)
	}

	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.treasury.ReleaseAllByRef(ctx, a.ID); err != nil {
			return fmt.Errorf("release auction reservations: %w", err)
		}

		a.Status = auction.StatusCancelled
		expected := a.Version
		a.Version++
		if err := s.auctionRepo.Update(ctx, a, expected); err != nil {
			if errors.Is(err, auction.ErrStaleVersion) {
				return fmt.Errorf("%w: auction changed concurrently", ErrConflict)
			}
			return fmt.Errorf("cancel auction: %w", err)
		}
		return s.detachFromSession(ctx, a.SessionID, a.ID)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, a.SessionID, event.KindAuctionClosed, map[string]any{
		"auctionId": a.ID,
		"cancelled": true,
	})

	return nil
}

// Get returns one auction by id.
func (s *AuctionService) Get(ctx context.Context, auctionID string) (auction.Auction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuctionService.Get")
	defer span.End()

	a, exists, err := s.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return auction.Auction{}, fmt.Errorf("get auction: %w", err)
	}
	if !exists {
		return auction.Auction{}, fmt.Errorf("%w: auction %s", ErrNotFound, auctionID)
	}
	return a, nil
}

// releaseOwner strips the player from the claim auction's current owner:
// the roster entry closes, its contract dissolves, and the strip lands in
// the ledger under its own type, distinct from a voluntary release. The
// clause was paid into the pot, not to the owner.
func (s *AuctionService) releaseOwner(ctx context.Context, a auction.Auction, now time.Time) error {
	entry, exists, err := s.rosterRepo.GetActiveByPlayer(ctx, a.PlayerID)
	if err != nil {
		return fmt.Errorf("get owner roster entry: %w", err)
	}
	if !exists || entry.MemberID != a.OwnerID {
		return fmt.Errorf("%w: claim auction owner no longer holds the player", ErrInvariantViolation)
	}

	if err := s.rosterRepo.Save(ctx, entry.Release(now)); err != nil {
		return fmt.Errorf("release owner roster entry: %w", err)
	}

	c, exists, err := s.contractRepo.GetByRoster(ctx, entry.ID)
	if err != nil {
		return fmt.Errorf("get owner contract: %w", err)
	}
	if exists {
		c.Status = contract.StatusDissolved
		c.UpdatedAt = now
		if err := s.contractRepo.Save(ctx, c); err != nil {
			return fmt.Errorf("dissolve owner contract: %w", err)
		}
	}

	movementID, err := s.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate movement id: %w", err)
	}
	return s.movementRepo.Append(ctx, movement.Movement{
		ID:           movementID,
		SessionID:    a.SessionID,
		Type:         movement.TypeClaimLoss,
		PlayerID:     a.PlayerID,
		FromMemberID: a.OwnerID,
		AuctionID:    a.ID,
		CreatedAt:    now,
	})
}

// rereadResult handles a lost close race: some other closer got there
// first, so their stored result is the answer.
func (s *AuctionService) rereadResult(ctx context.Context, auctionID string) (auction.Result, error) {
	a, exists, err := s.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return auction.Result{}, fmt.Errorf("reread auction: %w", err)
	}
	if !exists || a.Result == nil {
		return auction.Result{}, fmt.Errorf("%w: auction close raced without a stored result", ErrInvariantViolation)
	}
	return *a.Result, nil
}

func (s *AuctionService) detachFromSession(ctx context.Context, sessionID, auctionID string) error {
	sess, exists, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("get session for detach: %w", err)
	}
	if !exists || sess.ActiveAuctionID != auctionID {
		return nil
	}
	sess.ActiveAuctionID = ""
	sess.UpdatedAt = s.now().UTC()
	if err := s.sessionRepo.Update(ctx, sess, sess.Version); err != nil {
		return fmt.Errorf("detach auction from session: %w", err)
	}
	return nil
}

func (s *AuctionService) publish(ctx context.Context, sessionID string, kind event.Kind, data map[string]any) {
	sess, exists, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil || !exists {
		return
	}
	evt := event.Event{Kind: kind, SessionID: sessionID, At: s.now().UTC(), Data: data}
	if err := s.sink.Publish(ctx, event.SessionChannel(sess.LeagueID, sessionID), evt); err != nil {
		s.logger.WarnContext(ctx, "publish event",
			slog.String("kind", string(kind)), slog.Any("error", err))
	}
}

// channelFor maps the session phase to the roster acquisition channel.
func channelFor(phase market.Phase, claim bool) roster.Channel {
	if claim {
		return roster.ChannelClaimAuction
	}
	if phase == market.PhaseFirstMarket {
		return roster.ChannelFirstMarket
	}
	return roster.ChannelFreeAgent
}
