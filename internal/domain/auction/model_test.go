package auction

import (
	"errors"
	"testing"
	"time"
)

func activeAuction() Auction {
	return Auction{
		ID:           "a-1",
		SessionID:    "s-1",
		PlayerID:     "p-1",
		NominatorID:  "m-1",
		BasePrice:    1,
		CurrentPrice: 1,
		Status:       StatusActive,
		ExpiresAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCanTransition(t *testing.T) {
	legal := [][2]Status{
		{StatusPending, StatusActive},
		{StatusPending, StatusCancelled},
		{StatusActive, StatusCompleted},
		{StatusActive, StatusNoBids},
		{StatusActive, StatusCancelled},
	}
	for _, pair := range legal {
		if !CanTransition(pair[0], pair[1]) {
			t.Fatalf("%s -> %s should be legal", pair[0], pair[1])
		}
	}

	illegal := [][2]Status{
		{StatusCompleted, StatusActive},
		{StatusNoBids, StatusActive},
		{StatusCancelled, StatusActive},
		{StatusPending, StatusCompleted},
		{StatusActive, StatusPending},
	}
	for _, pair := range illegal {
		if CanTransition(pair[0], pair[1]) {
			t.Fatalf("%s -> %s should be illegal", pair[0], pair[1])
		}
	}
}

func TestCheckBid_StrictlyIncreasing(t *testing.T) {
	a := activeAuction()
	now := a.ExpiresAt.Add(-time.Hour)

	if err := a.CheckBid("m-2", 1); err != nil {
		t.Fatalf("first bid at base price rejected: %v", err)
	}
	a = a.ApplyBid(Bid{ID: "b-1", MemberID: "m-2", Amount: 10}, now, time.Minute, time.Minute)

	// Equal amount must be rejected, never tie-broken by arrival order.
	if err := a.CheckBid("m-3", 10); !errors.Is(err, ErrBidTooLow) {
		t.Fatalf("expected ErrBidTooLow for equal amount, got %v", err)
	}
	if err := a.CheckBid("m-3", 9); !errors.Is(err, ErrBidTooLow) {
		t.Fatalf("expected ErrBidTooLow, got %v", err)
	}
	if err := a.CheckBid("m-3", 11); err != nil {
		t.Fatalf("higher bid rejected: %v", err)
	}
}

func TestCheckBid_LeaderCannotOutbidThemselves(t *testing.T) {
	a := activeAuction()
	a = a.ApplyBid(Bid{ID: "b-1", MemberID: "m-2", Amount: 5}, a.ExpiresAt.Add(-time.Hour), time.Minute, time.Minute)

	if err := a.CheckBid("m-2", 7); !errors.Is(err, ErrSelfOutbid) {
		t.Fatalf("expected ErrSelfOutbid, got %v", err)
	}
}

func TestCheckBid_ClosedAuction(t *testing.T) {
	a := activeAuction()
	a.Status = StatusCompleted
	if err := a.CheckBid("m-2", 10); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}

	a.Status = StatusPending
	if err := a.CheckBid("m-2", 10); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
}

func TestApplyBid_WinningFlagMovesOnce(t *testing.T) {
	a := activeAuction()
	now := a.ExpiresAt.Add(-time.Hour)

	a = a.ApplyBid(Bid{ID: "b-1", MemberID: "m-2", Amount: 10}, now, time.Minute, time.Minute)
	a = a.ApplyBid(Bid{ID: "b-2", MemberID: "m-3", Amount: 15}, now, time.Minute, time.Minute)

	winners := 0
	for _, b := range a.Bids {
		if b.Winning {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winning bid, got %d", winners)
	}
	winning, ok := a.WinningBid()
	if !ok || winning.MemberID != "m-3" || winning.Amount != 15 {
		t.Fatalf("unexpected winning bid: %+v", winning)
	}
	if a.CurrentPrice != 15 {
		t.Fatalf("unexpected current price: %d", a.CurrentPrice)
	}
}

func TestApplyBid_AntiSnipeExtension(t *testing.T) {
	a := activeAuction()
	threshold := 2 * time.Minute
	extension := 5 * time.Minute

	// Plenty of time left: expiry untouched.
	early := a.ExpiresAt.Add(-time.Hour)
	got := a.ApplyBid(Bid{ID: "b-1", MemberID: "m-2", Amount: 10}, early, threshold, extension)
	if !got.ExpiresAt.Equal(a.ExpiresAt) {
		t.Fatalf("expiry should not move outside the threshold")
	}

	// Inside the threshold: expiry pushed out from now.
	late := a.ExpiresAt.Add(-30 * time.Second)
	got = a.ApplyBid(Bid{ID: "b-1", MemberID: "m-2", Amount: 10}, late, threshold, extension)
	if !got.ExpiresAt.Equal(late.Add(extension)) {
		t.Fatalf("expiry should extend to now+extension, got %v", got.ExpiresAt)
	}
}

func TestExpired(t *testing.T) {
	a := activeAuction()
	if a.Expired(a.ExpiresAt.Add(-time.Second)) {
		t.Fatal("auction should not be expired before its deadline")
	}
	if !a.Expired(a.ExpiresAt) {
		t.Fatal("auction should be expired at its deadline")
	}
	a.Status = StatusCompleted
	if a.Expired(a.ExpiresAt.Add(time.Hour)) {
		t.Fatal("closed auction is never expired")
	}
}
