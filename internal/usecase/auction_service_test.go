package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/fantadynasty/transfer-market/internal/domain/auction"
	"github.com/fantadynasty/transfer-market/internal/domain/event"
	"github.com/fantadynasty/transfer-market/internal/domain/movement"
	"github.com/fantadynasty/transfer-market/internal/domain/roster"
	idgen "github.com/fantadynasty/transfer-market/internal/platform/id"
)

// failingRosterRepo fails Save while fail is set, passing everything else
// through to the wrapped repository.
type failingRosterRepo struct {
	roster.Repository
	fail bool
}

func (r *failingRosterRepo) Save(ctx context.Context, e roster.Entry) error {
	if r.fail {
		return errors.New("storage unavailable")
	}
	return r.Repository.Save(ctx, e)
}

type failingAuctionRepo struct {
	auction.Repository
	fail bool
}

func (r *failingAuctionRepo) Update(ctx context.Context, a auction.Auction, expectedVersion int64) error {
	if r.fail {
		return errors.New("storage unavailable")
	}
	return r.Repository.Update(ctx, a, expectedVersion)
}

func TestAuctionService_NominateBidClose(t *testing.T) {
	f := newMarketFixture(t)
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	f.setNow(start)

	a, err := f.auctions.Nominate(t.Context(), f.boca, f.session.ID, "pl-fwd-01", 10)
	if err != nil {
		t.Fatalf("nominate failed: %v", err)
	}
	if a.Status != auction.StatusActive {
		t.Fatalf("expected active auction, got %s", a.Status)
	}
	if !a.ExpiresAt.Equal(start.Add(60 * time.Second)) {
		t.Fatalf("unexpected expiry %v", a.ExpiresAt)
	}

	// First bid may match the base price.
	a, err = f.auctions.PlaceBid(t.Context(), f.boca, a.ID, 10)
	if err != nil {
		t.Fatalf("first bid failed: %v", err)
	}
	if f.budget(t, "mbr-boca") != 490 {
		t.Fatalf("expected boca budget 490 after hold, got %d", f.budget(t, "mbr-boca"))
	}

	// Equal amount is rejected, higher accepted, loser hold returns.
	if _, err := f.auctions.PlaceBid(t.Context(), f.real, a.ID, 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for equal bid, got %v", err)
	}
	a, err = f.auctions.PlaceBid(t.Context(), f.real, a.ID, 12)
	if err != nil {
		t.Fatalf("second bid failed: %v", err)
	}
	if f.budget(t, "mbr-boca") != 500 {
		t.Fatalf("expected boca refunded to 500, got %d", f.budget(t, "mbr-boca"))
	}
	if f.budget(t, "mbr-real") != 488 {
		t.Fatalf("expected real budget 488, got %d", f.budget(t, "mbr-real"))
	}

	// Self-outbid rejected.
	if _, err := f.auctions.PlaceBid(t.Context(), f.real, a.ID, 14); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected self-outbid rejection, got %v", err)
	}

	// Close before expiry rejected, after expiry settles.
	if _, err := f.auctions.Close(t.Context(), a.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict closing a live auction, got %v", err)
	}
	f.setNow(start.Add(2 * time.Minute))
	result, err := f.auctions.Close(t.Context(), a.ID)
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if result.WinnerID != "mbr-real" || result.FinalPrice != 12 {
		t.Fatalf("unexpected result %+v", result)
	}

	entry, exists, err := f.rosterRepo.GetActiveByPlayer(t.Context(), "pl-fwd-01")
	if err != nil || !exists {
		t.Fatalf("expected roster entry for winner")
	}
	if entry.MemberID != "mbr-real" || entry.Channel != roster.ChannelFirstMarket {
		t.Fatalf("unexpected roster entry %+v", entry)
	}
	c, exists, err := f.contractRepo.GetByRoster(t.Context(), entry.ID)
	if err != nil || !exists {
		t.Fatalf("expected contract for winner")
	}
	if c.Salary != 12 || c.Duration != 1 || c.Clause != 48 {
		t.Fatalf("unexpected contract %+v", c)
	}

	moves, err := f.movements.ListByAuction(t.Context(), a.ID)
	if err != nil || len(moves) != 1 {
		t.Fatalf("expected one movement, got %d (%v)", len(moves), err)
	}
	if moves[0].Type != movement.TypeAuctionWin {
		t.Fatalf("unexpected movement type %s", moves[0].Type)
	}

	// Idempotent close returns the stored result without new effects.
	again, err := f.auctions.Close(t.Context(), a.ID)
	if err != nil {
		t.Fatalf("repeat close failed: %v", err)
	}
	if again != result {
		t.Fatalf("repeat close returned %+v, want %+v", again, result)
	}
	if got := f.sink.count(event.KindAuctionClosed); got != 1 {
		t.Fatalf("expected one AuctionClosed event, got %d", got)
	}

	// The session is free for the next nomination.
	sess, _, _ := f.sessionRepo.GetByID(t.Context(), f.session.ID)
	if sess.ActiveAuctionID != "" {
		t.Fatalf("expected session detached from auction")
	}
}

func TestAuctionService_AntiSnipeExtension(t *testing.T) {
	f := newMarketFixture(t)
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	f.setNow(start)

	a, err := f.auctions.Nominate(t.Context(), f.boca, f.session.ID, "pl-mid-01", 5)
	if err != nil {
		t.Fatalf("nominate failed: %v", err)
	}

	// Early bid leaves the clock alone.
	f.setNow(start.Add(20 * time.Second))
	a, err = f.auctions.PlaceBid(t.Context(), f.boca, a.ID, 5)
	if err != nil {
		t.Fatalf("bid failed: %v", err)
	}
	if !a.ExpiresAt.Equal(start.Add(60 * time.Second)) {
		t.Fatalf("expiry moved on an early bid: %v", a.ExpiresAt)
	}

	// A bid inside the threshold pushes the expiry out.
	late := start.Add(55 * time.Second)
	f.setNow(late)
	a, err = f.auctions.PlaceBid(t.Context(), f.real, a.ID, 6)
	if err != nil {
		t.Fatalf("late bid failed: %v", err)
	}
	if !a.ExpiresAt.Equal(late.Add(15 * time.Second)) {
		t.Fatalf("expected extension to %v, got %v", late.Add(15*time.Second), a.ExpiresAt)
	}
}

func TestAuctionService_NoBidsAndCancel(t *testing.T) {
	f := newMarketFixture(t)
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	f.setNow(start)

	a, err := f.auctions.Nominate(t.Context(), f.boca, f.session.ID, "pl-def-01", 3)
	if err != nil {
		t.Fatalf("nominate failed: %v", err)
	}
	f.setNow(start.Add(2 * time.Minute))
	result, err := f.auctions.Close(t.Context(), a.ID)
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !result.NoBids {
		t.Fatalf("expected no-bids result, got %+v", result)
	}
	if _, exists, _ := f.rosterRepo.GetActiveByPlayer(t.Context(), "pl-def-01"); exists {
		t.Fatalf("no-bids close must not assign the player")
	}

	// Cancel an auction with a standing bid: the hold comes back.
	b, err := f.auctions.Nominate(t.Context(), f.boca, f.session.ID, "pl-def-02", 4)
	if err != nil {
		t.Fatalf("second nominate failed: %v", err)
	}
	if _, err := f.auctions.PlaceBid(t.Context(), f.real, b.ID, 4); err != nil {
		t.Fatalf("bid failed: %v", err)
	}
	if _, err := f.auctions.Nominate(t.Context(), f.ajax, f.session.ID, "pl-fwd-02", 2); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected single-active-auction conflict, got %v", err)
	}

	if err := f.auctions.Cancel(t.Context(), f.real, b.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for non-admin cancel, got %v", err)
	}
	if err := f.auctions.Cancel(t.Context(), f.admin, b.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if f.budget(t, "mbr-real") != 500 {
		t.Fatalf("expected real refunded after cancel, got %d", f.budget(t, "mbr-real"))
	}
}

func TestAuctionService_BidGuards(t *testing.T) {
	f := newMarketFixture(t)
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	f.setNow(start)

	// Nominating an exited or owned player is rejected.
	if _, err := f.auctions.Nominate(t.Context(), f.boca, f.session.ID, "pl-def-03", 5); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected rejection for exited player, got %v", err)
	}
	f.assign(t, "mbr-ajax", "pl-gk-01", 5, 2)
	if _, err := f.auctions.Nominate(t.Context(), f.boca, f.session.ID, "pl-gk-01", 5); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected rejection for owned player, got %v", err)
	}

	// A bid beyond the budget is rejected before it lands.
	a, err := f.auctions.Nominate(t.Context(), f.boca, f.session.ID, "pl-fwd-01", 10)
	if err != nil {
		t.Fatalf("nominate failed: %v", err)
	}
	if _, err := f.auctions.PlaceBid(t.Context(), f.real, a.ID, 600); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	// A member who released the player this session cannot bid it back.
	if err := f.movementRepo.Append(t.Context(), movement.Movement{
		ID:           "mv-release",
		SessionID:    f.session.ID,
		Type:         movement.TypeRelease,
		PlayerID:     "pl-fwd-01",
		FromMemberID: "mbr-ajax",
		CreatedAt:    start,
	}); err != nil {
		t.Fatalf("append movement: %v", err)
	}
	if _, err := f.auctions.PlaceBid(t.Context(), f.ajax, a.ID, 11); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ex-player rule to block the bid, got %v", err)
	}
}

func TestAuctionService_StaleBidConflict(t *testing.T) {
	f := newMarketFixture(t)
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	f.setNow(start)

	a, err := f.auctions.Nominate(t.Context(), f.boca, f.session.ID, "pl-mid-03", 5)
	if err != nil {
		t.Fatalf("nominate failed: %v", err)
	}
	if _, err := f.auctions.PlaceBid(t.Context(), f.boca, a.ID, 5); err != nil {
		t.Fatalf("bid failed: %v", err)
	}

	// Another writer bumps the version under our feet.
	stored, _, err := f.auctionRepo.GetByID(t.Context(), a.ID)
	if err != nil {
		t.Fatalf("get auction: %v", err)
	}
	bumped := stored
	bumped.Version++
	if err := f.auctionRepo.Update(t.Context(), bumped, stored.Version); err != nil {
		t.Fatalf("bump version: %v", err)
	}

	// The service rereads fresh state, so force the race at the repo level:
	// a lost swap surfaces as a conflict and the bidder's hold is returned.
	realBudget := f.budget(t, "mbr-real")
	if err := f.auctionRepo.Update(t.Context(), bumped, stored.Version); !errors.Is(err, auction.ErrStaleVersion) {
		t.Fatalf("expected stale version from repo, got %v", err)
	}
	if f.budget(t, "mbr-real") != realBudget {
		t.Fatalf("budget must not change on a stale write")
	}
}

func TestAuctionService_CloseRollsBackOnFailedAssignment(t *testing.T) {
	f := newMarketFixture(t)
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	f.setNow(start)

	// Same repositories and transaction runner as the fixture, but the
	// roster store fails mid-settlement.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	flaky := &failingRosterRepo{Repository: f.rosterRepo, fail: true}
	auctions := NewAuctionService(f.tx, f.auctionRepo, f.sessionRepo, f.playerRepo, flaky,
		f.contractRepo, f.movementRepo, f.memberRepo, f.treasury, f.sink,
		idgen.NewSequence("alt"), AuctionPolicy{Timer: 60 * time.Second}, logger)
	auctions.now = func() time.Time { return start.Add(2 * time.Minute) }

	a, err := f.auctions.Nominate(t.Context(), f.boca, f.session.ID, "pl-fwd-01", 10)
	if err != nil {
		t.Fatalf("nominate failed: %v", err)
	}
	if _, err := f.auctions.PlaceBid(t.Context(), f.real, a.ID, 12); err != nil {
		t.Fatalf("bid failed: %v", err)
	}
	if f.budget(t, "mbr-real") != 488 {
		t.Fatalf("expected real budget 488 after hold, got %d", f.budget(t, "mbr-real"))
	}

	// A failed settlement unwinds completely: the auction stays live, the
	// winner's hold survives and no partial assignment leaks out.
	if _, err := auctions.Close(t.Context(), a.ID); err == nil {
		t.Fatalf("expected close to fail on roster error")
	}
	stored, _, err := f.auctionRepo.GetByID(t.Context(), a.ID)
	if err != nil {
		t.Fatalf("get auction: %v", err)
	}
	if stored.Status != auction.StatusActive || stored.Result != nil {
		t.Fatalf("expected auction still active with no result, got %s %+v", stored.Status, stored.Result)
	}
	if f.budget(t, "mbr-real") != 488 {
		t.Fatalf("budget changed across the failed close: %d", f.budget(t, "mbr-real"))
	}
	holds, err := f.treasuryRepo.ListByRef(t.Context(), a.ID)
	if err != nil || len(holds) != 1 {
		t.Fatalf("expected the winning hold to survive, got %d (%v)", len(holds), err)
	}
	if _, exists, _ := f.rosterRepo.GetActiveByPlayer(t.Context(), "pl-fwd-01"); exists {
		t.Fatalf("failed close must not assign the player")
	}
	if moves, _ := f.movements.ListByAuction(t.Context(), a.ID); len(moves) != 0 {
		t.Fatalf("failed close must not record movements, got %d", len(moves))
	}
	if got := f.sink.count(event.KindAuctionClosed); got != 0 {
		t.Fatalf("failed close must not publish, got %d events", got)
	}

	// The retry settles normally once the store recovers.
	flaky.fail = false
	result, err := auctions.Close(t.Context(), a.ID)
	if err != nil {
		t.Fatalf("retried close failed: %v", err)
	}
	if result.WinnerID != "mbr-real" || result.FinalPrice != 12 {
		t.Fatalf("unexpected result %+v", result)
	}
	if f.budget(t, "mbr-real") != 488 {
		t.Fatalf("expected the hold debited at 488, got %d", f.budget(t, "mbr-real"))
	}
	if holds, _ := f.treasuryRepo.ListByRef(t.Context(), a.ID); len(holds) != 0 {
		t.Fatalf("expected the hold consumed, got %d", len(holds))
	}
	if entry, exists, _ := f.rosterRepo.GetActiveByPlayer(t.Context(), "pl-fwd-01"); !exists || entry.MemberID != "mbr-real" {
		t.Fatalf("expected pl-fwd-01 assigned to mbr-real")
	}
}

func TestAuctionService_BidRollsBackHoldOnFailedSwap(t *testing.T) {
	f := newMarketFixture(t)
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	f.setNow(start)

	a, err := f.auctions.Nominate(t.Context(), f.boca, f.session.ID, "pl-fwd-01", 10)
	if err != nil {
		t.Fatalf("nominate failed: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	flaky := &failingAuctionRepo{Repository: f.auctionRepo, fail: true}
	auctions := NewAuctionService(f.tx, flaky, f.sessionRepo, f.playerRepo, f.rosterRepo,
		f.contractRepo, f.movementRepo, f.memberRepo, f.treasury, f.sink,
		idgen.NewSequence("alt"), AuctionPolicy{Timer: 60 * time.Second}, logger)
	auctions.now = func() time.Time { return start }

	// A bid whose swap never lands leaves no hold behind.
	if _, err := auctions.PlaceBid(t.Context(), f.real, a.ID, 12); err == nil {
		t.Fatalf("expected bid to fail on auction write error")
	}
	if f.budget(t, "mbr-real") != 500 {
		t.Fatalf("expected real budget back at 500, got %d", f.budget(t, "mbr-real"))
	}
	if holds, _ := f.treasuryRepo.ListByRef(t.Context(), a.ID); len(holds) != 0 {
		t.Fatalf("expected no standing reservations, got %d", len(holds))
	}
}

func TestAuctionPolicy_DefaultExtensionMatchesTimer(t *testing.T) {
	p := AuctionPolicy{Timer: 90 * time.Second}.normalized()
	if p.AntiSnipeExtension != 90*time.Second {
		t.Fatalf("expected extension to default to the timer, got %v", p.AntiSnipeExtension)
	}
	if p.AntiSnipeThreshold != 10*time.Second {
		t.Fatalf("unexpected threshold default %v", p.AntiSnipeThreshold)
	}

	p = AuctionPolicy{Timer: 60 * time.Second, AntiSnipeExtension: 15 * time.Second}.normalized()
	if p.AntiSnipeExtension != 15*time.Second {
		t.Fatalf("an explicit extension must be kept, got %v", p.AntiSnipeExtension)
	}
}
