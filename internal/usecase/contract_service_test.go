package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/fantadynasty/transfer-market/internal/domain/market"
	"github.com/fantadynasty/transfer-market/internal/domain/movement"
)

func TestContractService_Renew(t *testing.T) {
	f := newMarketFixture(t)
	f.forcePhase(t, market.PhaseContracts)
	at := time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)
	f.setNow(at)

	entry, _ := f.assign(t, "mbr-boca", "pl-fwd-01", 10, 4)

	// Renewals are phase-gated, owner-gated, and rule-checked.
	if _, err := f.contracts.Renew(t.Context(), f.real, f.session.ID, entry.ID, 12, 4); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ownership rejection, got %v", err)
	}
	if _, err := f.contracts.Renew(t.Context(), f.boca, f.session.ID, entry.ID, 10, 2); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected duration-decrease rejection, got %v", err)
	}
	if _, err := f.contracts.Renew(t.Context(), f.boca, f.session.ID, entry.ID, 8, 4); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected salary-decrease rejection, got %v", err)
	}

	renewed, err := f.contracts.Renew(t.Context(), f.boca, f.session.ID, entry.ID, 12, 4)
	if err != nil {
		t.Fatalf("renew failed: %v", err)
	}
	if renewed.Salary != 12 || renewed.Duration != 4 || renewed.Clause != 132 {
		t.Fatalf("unexpected renewed contract %+v", renewed)
	}
	if !renewed.UpdatedAt.Equal(at) {
		t.Fatalf("expected updated at %v, got %v", at, renewed.UpdatedAt)
	}

	moves, _ := f.movements.ListBySession(t.Context(), f.session.ID)
	if len(moves) != 1 || moves[0].Type != movement.TypeRenewal {
		t.Fatalf("expected one renewal movement, got %+v", moves)
	}
	if moves[0].OldSalary != 10 || moves[0].NewSalary != 12 {
		t.Fatalf("unexpected renewal ledger row %+v", moves[0])
	}
}

func TestContractService_RenewPhaseGate(t *testing.T) {
	f := newMarketFixture(t)

	entry, _ := f.assign(t, "mbr-boca", "pl-fwd-01", 10, 4)
	if _, err := f.contracts.Renew(t.Context(), f.boca, f.session.ID, entry.ID, 12, 4); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected phase gate outside contracts, got %v", err)
	}
}

func TestContractService_SpreadRenewal(t *testing.T) {
	f := newMarketFixture(t)
	f.forcePhase(t, market.PhaseContracts)

	entry, _ := f.assign(t, "mbr-boca", "pl-mid-01", 12, 1)

	// 12×1 spread to 4×3 covers the old salary; 3×3 does not.
	if _, err := f.contracts.Renew(t.Context(), f.boca, f.session.ID, entry.ID, 3, 3); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected spread-too-cheap rejection, got %v", err)
	}
	renewed, err := f.contracts.Renew(t.Context(), f.boca, f.session.ID, entry.ID, 4, 3)
	if err != nil {
		t.Fatalf("spread renew failed: %v", err)
	}
	if renewed.Clause != 36 {
		t.Fatalf("expected clause 4x9=36, got %d", renewed.Clause)
	}
}

func TestContractService_CountdownAndUnresolved(t *testing.T) {
	f := newMarketFixture(t)

	f.assign(t, "mbr-boca", "pl-fwd-01", 10, 4)
	f.assign(t, "mbr-real", "pl-mid-01", 8, 1)

	if err := f.contracts.Countdown(t.Context(), f.session.LeagueID); err != nil {
		t.Fatalf("countdown failed: %v", err)
	}

	long, _ := f.contracts.Get(t.Context(), "ros-pl-fwd-01-mbr-boca")
	if long.Duration != 3 || long.Clause != 90 {
		t.Fatalf("expected duration 3 clause 90, got %+v", long)
	}
	expired, _ := f.contracts.Get(t.Context(), "ros-pl-mid-01-mbr-real")
	if expired.Duration != 0 {
		t.Fatalf("expected counted-down contract, got %+v", expired)
	}
	if expired.Clause != 32 {
		t.Fatalf("a counted-down contract keeps its last clause, got %d", expired.Clause)
	}

	n, err := f.contracts.UnresolvedRenewals(t.Context(), f.session.LeagueID)
	if err != nil || n != 1 {
		t.Fatalf("expected one unresolved renewal, got %d (%v)", n, err)
	}

	// A renewal from zero restores a legal duration.
	f.forcePhase(t, market.PhaseContracts)
	if _, err := f.contracts.Renew(t.Context(), f.real, f.session.ID, "ros-pl-mid-01-mbr-real", 8, 2); err != nil {
		t.Fatalf("renew from zero failed: %v", err)
	}
	n, _ = f.contracts.UnresolvedRenewals(t.Context(), f.session.LeagueID)
	if n != 0 {
		t.Fatalf("expected no unresolved renewals after the renew, got %d", n)
	}
}
