package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/fantadynasty/transfer-market/internal/domain/indemnity"
	"github.com/fantadynasty/transfer-market/internal/domain/market"
	"github.com/fantadynasty/transfer-market/internal/domain/movement"
	"github.com/fantadynasty/transfer-market/internal/domain/roster"
	idgen "github.com/fantadynasty/transfer-market/internal/platform/id"
)

func TestIndemnityService_PrepareAutoResolvesRetired(t *testing.T) {
	f := newMarketFixture(t)
	f.forcePhase(t, market.PhaseIndemnity)

	// Boca holds a retiree, ajax a player moved abroad and one relegated.
	retired, _ := f.assign(t, "mbr-boca", "pl-gk-03", 4, 1)
	f.assign(t, "mbr-ajax", "pl-def-03", 10, 3)
	f.assign(t, "mbr-ajax", "pl-mid-04", 6, 2)

	settlement, err := f.indemnity.Prepare(t.Context(), f.session.ID)
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	if len(settlement.Entries) != 3 {
		t.Fatalf("expected 3 affected entries, got %d", len(settlement.Entries))
	}

	// The retiree is gone already, without compensation or a decision owed.
	entry, _, _ := f.rosterRepo.GetByID(t.Context(), retired.ID)
	if entry.Status != roster.StatusReleased {
		t.Fatalf("retired player must be auto-released, got %s", entry.Status)
	}
	if f.budget(t, "mbr-boca") != 500 {
		t.Fatalf("retirement pays nothing, budget is %d", f.budget(t, "mbr-boca"))
	}
	pending := settlement.MembersPending()
	if len(pending) != 1 || pending[0] != "mbr-ajax" {
		t.Fatalf("expected only ajax pending, got %v", pending)
	}

	// Prepare again returns the stored settlement without re-running.
	again, err := f.indemnity.Prepare(t.Context(), f.session.ID)
	if err != nil || again.ID != settlement.ID {
		t.Fatalf("expected idempotent prepare, got %+v (%v)", again, err)
	}
}

func TestIndemnityService_SubmitDecisions(t *testing.T) {
	f := newMarketFixture(t)
	f.forcePhase(t, market.PhaseIndemnity)

	// Theo Hernandez abroad: salary 10, duration 3, clause 90. Allowance is
	// 50, so the payout is min(90, 50) = 50. Ricci relegated: no payout.
	abroad, _ := f.assign(t, "mbr-ajax", "pl-def-03", 10, 3)
	relegated, _ := f.assign(t, "mbr-ajax", "pl-mid-04", 6, 2)

	if _, err := f.indemnity.Prepare(t.Context(), f.session.ID); err != nil {
		t.Fatalf("prepare failed: %v", err)
	}

	// A partial decision set is rejected with nothing applied.
	if _, err := f.indemnity.SubmitDecisions(t.Context(), f.ajax, f.session.ID, []DecisionInput{
		{RosterID: abroad.ID, Action: indemnity.ActionRelease},
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected missing-decision rejection, got %v", err)
	}
	if f.budget(t, "mbr-ajax") != 500 {
		t.Fatalf("partial submit must not pay out, budget %d", f.budget(t, "mbr-ajax"))
	}

	decision, err := f.indemnity.SubmitDecisions(t.Context(), f.ajax, f.session.ID, []DecisionInput{
		{RosterID: abroad.ID, Action: indemnity.ActionRelease},
		{RosterID: relegated.ID, Action: indemnity.ActionKeep},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(decision.Items) != 2 {
		t.Fatalf("expected 2 decision items, got %d", len(decision.Items))
	}
	if f.budget(t, "mbr-ajax") != 550 {
		t.Fatalf("expected 500+50 after the abroad payout, got %d", f.budget(t, "mbr-ajax"))
	}

	released, _, _ := f.rosterRepo.GetByID(t.Context(), abroad.ID)
	if released.Status != roster.StatusReleased {
		t.Fatalf("released entry still %s", released.Status)
	}
	kept, _, _ := f.rosterRepo.GetByID(t.Context(), relegated.ID)
	if kept.Status != roster.StatusActive {
		t.Fatalf("kept entry must stay active, got %s", kept.Status)
	}

	moves, _ := f.movements.ListBySession(t.Context(), f.session.ID)
	if len(moves) != 1 || moves[0].Type != movement.TypeIndemnityRelease {
		t.Fatalf("expected one indemnity release movement, got %+v", moves)
	}

	// Decisions are immutable: a second submission is rejected.
	if _, err := f.indemnity.SubmitDecisions(t.Context(), f.ajax, f.session.ID, []DecisionInput{
		{RosterID: relegated.ID, Action: indemnity.ActionRelease},
	}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected already-submitted conflict, got %v", err)
	}

	ok, blockers, err := f.indemnity.CanAdvance(t.Context(), f.session.ID)
	if err != nil || !ok || len(blockers) != 0 {
		t.Fatalf("expected open gate, got ok=%v blockers=%v err=%v", ok, blockers, err)
	}
}

func TestIndemnityService_CanAdvanceNamesBlockers(t *testing.T) {
	f := newMarketFixture(t)
	f.forcePhase(t, market.PhaseIndemnity)
	f.assign(t, "mbr-ajax", "pl-def-03", 10, 3)
	f.assign(t, "mbr-boca", "pl-mid-02", 12, 2)

	if _, err := f.indemnity.Prepare(t.Context(), f.session.ID); err != nil {
		t.Fatalf("prepare failed: %v", err)
	}

	ok, blockers, err := f.indemnity.CanAdvance(t.Context(), f.session.ID)
	if err != nil {
		t.Fatalf("can advance failed: %v", err)
	}
	if ok {
		t.Fatalf("gate must be closed while decisions are pending")
	}
	if len(blockers) != 2 {
		t.Fatalf("expected two blocking members, got %v", blockers)
	}

	// Without a settlement the gate is simply open.
	ok, _, err = f.indemnity.CanAdvance(t.Context(), "sess-without-settlement")
	if err != nil || !ok {
		t.Fatalf("expected open gate without a settlement, got ok=%v err=%v", ok, err)
	}
}

type failingDecisionRepo struct {
	indemnity.Repository
	fail bool
}

func (r *failingDecisionRepo) CreateDecision(ctx context.Context, d indemnity.Decision) error {
	if r.fail {
		return errors.New("storage unavailable")
	}
	return r.Repository.CreateDecision(ctx, d)
}

func TestIndemnityService_SubmitRollsBackOnFailedDecision(t *testing.T) {
	f := newMarketFixture(t)
	f.forcePhase(t, market.PhaseIndemnity)

	abroad, _ := f.assign(t, "mbr-ajax", "pl-def-03", 10, 3)
	if _, err := f.indemnity.Prepare(t.Context(), f.session.ID); err != nil {
		t.Fatalf("prepare failed: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	flaky := &failingDecisionRepo{Repository: f.indemRepo, fail: true}
	svc := NewIndemnityService(f.tx, flaky, f.sessionRepo, f.playerRepo, f.rosterRepo,
		f.contractRepo, f.movementRepo, f.memberRepo, f.leagueRepo, f.treasury, f.sink,
		idgen.NewSequence("alt"), logger)
	svc.now = f.indemnity.now

	input := []DecisionInput{{RosterID: abroad.ID, Action: indemnity.ActionRelease}}

	// A submission whose decision row never lands takes nothing with it:
	// the payout, the release and the settlement state all roll back.
	if _, err := svc.SubmitDecisions(t.Context(), f.ajax, f.session.ID, input); err == nil {
		t.Fatalf("expected submit to fail on decision write error")
	}
	if f.budget(t, "mbr-ajax") != 500 {
		t.Fatalf("failed submit must not pay out, budget %d", f.budget(t, "mbr-ajax"))
	}
	entry, _, _ := f.rosterRepo.GetByID(t.Context(), abroad.ID)
	if entry.Status != roster.StatusActive {
		t.Fatalf("failed submit must not release, got %s", entry.Status)
	}
	if moves, _ := f.movements.ListBySession(t.Context(), f.session.ID); len(moves) != 0 {
		t.Fatalf("failed submit must not record movements, got %+v", moves)
	}
	settlement, err := f.indemnity.Settlement(t.Context(), f.session.ID)
	if err != nil {
		t.Fatalf("settlement lookup failed: %v", err)
	}
	if pending := settlement.MembersPending(); len(pending) != 1 || pending[0] != "mbr-ajax" {
		t.Fatalf("expected ajax still pending, got %v", pending)
	}

	// The retry applies cleanly.
	flaky.fail = false
	if _, err := svc.SubmitDecisions(t.Context(), f.ajax, f.session.ID, input); err != nil {
		t.Fatalf("retried submit failed: %v", err)
	}
	if f.budget(t, "mbr-ajax") != 550 {
		t.Fatalf("expected the abroad payout after retry, got %d", f.budget(t, "mbr-ajax"))
	}
}
