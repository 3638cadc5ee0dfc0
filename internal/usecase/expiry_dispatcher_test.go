package usecase

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/fantadynasty/transfer-market/internal/domain/auction"
	"github.com/fantadynasty/transfer-market/internal/domain/market"
	"github.com/fantadynasty/transfer-market/internal/domain/rubata"
)

func TestExpiryDispatcher_SweepClosesExpired(t *testing.T) {
	f := newMarketFixture(t)
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	f.setNow(start)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher, err := NewExpiryDispatcher(f.auctionRepo, f.sessionRepo, f.auctions, f.rubata, 2, time.Second, logger)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	defer dispatcher.pool.Release()

	a, err := f.auctions.Nominate(t.Context(), f.boca, f.session.ID, "pl-fwd-01", 5)
	if err != nil {
		t.Fatalf("nominate failed: %v", err)
	}
	if _, err := f.auctions.PlaceBid(t.Context(), f.real, a.ID, 5); err != nil {
		t.Fatalf("bid failed: %v", err)
	}

	// Before expiry the sweep is a no-op.
	dispatcher.now = func() time.Time { return start.Add(30 * time.Second) }
	dispatcher.Sweep(t.Context())
	got, _, _ := f.auctionRepo.GetByID(t.Context(), a.ID)
	if got.Status != auction.StatusActive {
		t.Fatalf("sweep must not close a live auction, got %s", got.Status)
	}

	after := start.Add(2 * time.Minute)
	dispatcher.now = func() time.Time { return after }
	f.setNow(after)
	dispatcher.Sweep(t.Context())

	got, _, _ = f.auctionRepo.GetByID(t.Context(), a.ID)
	if got.Status != auction.StatusCompleted {
		t.Fatalf("expected completed auction after sweep, got %s", got.Status)
	}
	if got.Result == nil || got.Result.WinnerID != "mbr-real" {
		t.Fatalf("unexpected result %+v", got.Result)
	}

	// Sweeping again is harmless: the close is idempotent.
	dispatcher.Sweep(t.Context())
}

func TestExpiryDispatcher_ResolvesClaimTurn(t *testing.T) {
	f := newMarketFixture(t)
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	f.setNow(start)
	f.forcePhase(t, market.PhaseRubata)
	f.assign(t, "mbr-ajax", "pl-gk-01", 5, 2)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher, err := NewExpiryDispatcher(f.auctionRepo, f.sessionRepo, f.auctions, f.rubata, 2, time.Second, logger)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	defer dispatcher.pool.Release()

	if _, err := f.rubata.StartPhase(t.Context(), f.admin, f.session.ID, teamOrder); err != nil {
		t.Fatalf("start phase failed: %v", err)
	}
	q, err := f.rubata.Offer(t.Context(), f.boca, f.session.ID, "pl-gk-01")
	if err != nil {
		t.Fatalf("offer failed: %v", err)
	}
	turn, _ := q.Current()
	if _, err := f.auctions.PlaceBid(t.Context(), f.boca, turn.AuctionID, 40); err != nil {
		t.Fatalf("bid failed: %v", err)
	}

	after := start.Add(2 * time.Minute)
	dispatcher.now = func() time.Time { return after }
	f.setNow(after)
	dispatcher.Sweep(t.Context())

	q, err = f.rubata.Queue(t.Context(), f.session.ID)
	if err != nil {
		t.Fatalf("queue failed: %v", err)
	}
	turn, _ = q.Current()
	if turn.Status != rubata.TurnResolved {
		t.Fatalf("expected resolved turn after sweep, got %s", turn.Status)
	}
}
