package usecase

import (
	"errors"
	"testing"

	"github.com/fantadynasty/transfer-market/internal/domain/player"
)

func TestTreasuryService_ReserveReleaseDebit(t *testing.T) {
	f := newMarketFixture(t)

	res, err := f.treasury.Reserve(t.Context(), "mbr-boca", 120, "auc-1")
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if f.budget(t, "mbr-boca") != 380 {
		t.Fatalf("expected budget 380 after hold, got %d", f.budget(t, "mbr-boca"))
	}

	if err := f.treasury.Release(t.Context(), res.ID); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if f.budget(t, "mbr-boca") != 500 {
		t.Fatalf("expected budget restored to 500, got %d", f.budget(t, "mbr-boca"))
	}
	if err := f.treasury.Release(t.Context(), res.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for a released reservation, got %v", err)
	}

	res, err = f.treasury.Reserve(t.Context(), "mbr-boca", 200, "auc-2")
	if err != nil {
		t.Fatalf("second reserve failed: %v", err)
	}
	amount, err := f.treasury.Debit(t.Context(), res.ID)
	if err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if amount != 200 {
		t.Fatalf("expected debited amount 200, got %d", amount)
	}
	if f.budget(t, "mbr-boca") != 300 {
		t.Fatalf("expected budget 300 after debit, got %d", f.budget(t, "mbr-boca"))
	}
}

func TestTreasuryService_InsufficientFunds(t *testing.T) {
	f := newMarketFixture(t)

	if _, err := f.treasury.Reserve(t.Context(), "mbr-boca", 501, "auc-1"); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if f.budget(t, "mbr-boca") != 500 {
		t.Fatalf("budget must not move on a rejected hold, got %d", f.budget(t, "mbr-boca"))
	}

	// Holds stack: together they may exhaust but never overdraw.
	if _, err := f.treasury.Reserve(t.Context(), "mbr-boca", 300, "auc-1"); err != nil {
		t.Fatalf("first hold failed: %v", err)
	}
	if _, err := f.treasury.Reserve(t.Context(), "mbr-boca", 300, "auc-2"); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds on the stacked hold, got %v", err)
	}
}

func TestTreasuryService_SlotLimits(t *testing.T) {
	f := newMarketFixture(t)

	// League limit for goalkeepers is 3.
	f.assign(t, "mbr-boca", "pl-gk-01", 3, 1)
	f.assign(t, "mbr-boca", "pl-gk-02", 3, 1)
	if err := f.treasury.AssertSlotAvailable(t.Context(), "mbr-boca", player.PositionGoalkeeper); err != nil {
		t.Fatalf("expected a free slot, got %v", err)
	}
	f.assign(t, "mbr-boca", "pl-gk-03", 3, 1)
	if err := f.treasury.AssertSlotAvailable(t.Context(), "mbr-boca", player.PositionGoalkeeper); !errors.Is(err, ErrSlotsFull) {
		t.Fatalf("expected slots full, got %v", err)
	}
	if err := f.treasury.AssertSlotAvailable(t.Context(), "mbr-boca", player.PositionForward); err != nil {
		t.Fatalf("forward slots should be free, got %v", err)
	}
}

func TestTreasuryService_DisposableBudget(t *testing.T) {
	f := newMarketFixture(t)

	f.assign(t, "mbr-boca", "pl-fwd-01", 30, 2)
	f.assign(t, "mbr-boca", "pl-mid-01", 20, 1)

	disposable, err := f.treasury.DisposableBudget(t.Context(), "mbr-boca")
	if err != nil {
		t.Fatalf("disposable budget failed: %v", err)
	}
	if disposable != 450 {
		t.Fatalf("expected 500-50=450, got %d", disposable)
	}
}
