package usecase

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fantadynasty/transfer-market/internal/domain/event"
	"github.com/fantadynasty/transfer-market/internal/domain/indemnity"
	"github.com/fantadynasty/transfer-market/internal/domain/market"
)

func TestPhaseService_FullCycle(t *testing.T) {
	f := newMarketFixture(t)

	if _, err := f.phases.Advance(t.Context(), f.boca, f.session.ID, market.PhaseTradeWindow, false); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected admin-only advance, got %v", err)
	}
	if _, err := f.phases.Advance(t.Context(), f.admin, f.session.ID, market.PhaseRubata, false); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected illegal transition conflict, got %v", err)
	}

	steps := []market.Phase{
		market.PhaseTradeWindow,
		market.PhaseContracts,
		market.PhaseRubata,
	}
	for _, to := range steps {
		if _, err := f.phases.Advance(t.Context(), f.admin, f.session.ID, to, false); err != nil {
			t.Fatalf("advance to %s failed: %v", to, err)
		}
	}

	// The empty claim queue completes on start, opening the next gate.
	if _, err := f.phases.Advance(t.Context(), f.admin, f.session.ID, market.PhaseFreeAgents, false); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected queue gate to hold, got %v", err)
	}
	if _, err := f.rubata.StartPhase(t.Context(), f.admin, f.session.ID, teamOrder); err != nil {
		t.Fatalf("start claim phase failed: %v", err)
	}
	if _, err := f.phases.Advance(t.Context(), f.admin, f.session.ID, market.PhaseFreeAgents, false); err != nil {
		t.Fatalf("advance to free agents failed: %v", err)
	}
	sess, err := f.phases.Advance(t.Context(), f.admin, f.session.ID, market.PhaseTradeWindow, false)
	if err != nil {
		t.Fatalf("advance back to trade window failed: %v", err)
	}
	if sess.Phase != market.PhaseTradeWindow {
		t.Fatalf("expected trade window, got %s", sess.Phase)
	}

	transitions, err := f.phases.Transitions(t.Context(), f.session.ID)
	if err != nil {
		t.Fatalf("list transitions: %v", err)
	}
	if len(transitions) != 5 {
		t.Fatalf("expected 5 audit entries, got %d", len(transitions))
	}
	if transitions[0].From != market.PhaseFirstMarket || transitions[0].To != market.PhaseTradeWindow {
		t.Fatalf("unexpected first transition %+v", transitions[0])
	}
	if got := f.sink.count(event.KindPhaseChanged); got != 5 {
		t.Fatalf("expected 5 PhaseChanged events, got %d", got)
	}
}

func TestPhaseService_IndemnityDetour(t *testing.T) {
	f := newMarketFixture(t)

	// An owned player abroad forces the settlement before contracts.
	f.assign(t, "mbr-ajax", "pl-def-03", 10, 3)

	if _, err := f.phases.Advance(t.Context(), f.admin, f.session.ID, market.PhaseTradeWindow, false); err != nil {
		t.Fatalf("advance to trade window failed: %v", err)
	}
	if _, err := f.phases.Advance(t.Context(), f.admin, f.session.ID, market.PhaseContracts, false); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected indemnity detour to block contracts, got %v", err)
	}

	status, err := f.phases.Status(t.Context(), f.session.ID)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if len(status.Blockers) == 0 {
		t.Fatalf("expected blockers in status")
	}

	// Entering the settlement phase builds the settlement.
	if _, err := f.phases.Advance(t.Context(), f.admin, f.session.ID, market.PhaseIndemnity, false); err != nil {
		t.Fatalf("advance to indemnity failed: %v", err)
	}
	settlement, err := f.indemnity.Settlement(t.Context(), f.session.ID)
	if err != nil || len(settlement.Entries) != 1 {
		t.Fatalf("expected prepared settlement, got %+v (%v)", settlement, err)
	}

	// The gate names its blockers until the decision lands.
	_, err = f.phases.Advance(t.Context(), f.admin, f.session.ID, market.PhaseContracts, false)
	if !errors.Is(err, ErrConflict) || !strings.Contains(err.Error(), "Ajax Treesdown") {
		t.Fatalf("expected conflict naming the blocker, got %v", err)
	}

	if _, err := f.indemnity.SubmitDecisions(t.Context(), f.ajax, f.session.ID, []DecisionInput{
		{RosterID: settlement.Entries[0].RosterID, Action: indemnity.ActionKeep},
	}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := f.phases.Advance(t.Context(), f.admin, f.session.ID, market.PhaseContracts, false); err != nil {
		t.Fatalf("advance to contracts after settlement failed: %v", err)
	}
}

func TestPhaseService_StatusCarriesQueueState(t *testing.T) {
	f := newMarketFixture(t)
	f.setNow(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))
	f.forcePhase(t, market.PhaseRubata)
	f.assign(t, "mbr-ajax", "pl-gk-01", 5, 2)

	// Without a queue the status stays bare.
	status, err := f.phases.Status(t.Context(), f.session.ID)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.TurnCursor != nil || status.PendingAcks != nil {
		t.Fatalf("expected no queue state before the queue exists, got %+v", status)
	}

	if _, err := f.rubata.StartPhase(t.Context(), f.admin, f.session.ID, teamOrder); err != nil {
		t.Fatalf("start phase failed: %v", err)
	}
	status, err = f.phases.Status(t.Context(), f.session.ID)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.TurnCursor == nil || *status.TurnCursor != 0 {
		t.Fatalf("expected cursor at 0, got %+v", status.TurnCursor)
	}
	if len(status.PendingAcks) != 0 {
		t.Fatalf("a pending turn waits on nobody, got %v", status.PendingAcks)
	}

	// A resolved turn waits on every active member until each confirms.
	if _, err := f.rubata.Pass(t.Context(), f.boca, f.session.ID); err != nil {
		t.Fatalf("pass failed: %v", err)
	}
	status, err = f.phases.Status(t.Context(), f.session.ID)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if len(status.PendingAcks) != 4 {
		t.Fatalf("expected all four members pending, got %v", status.PendingAcks)
	}

	if _, err := f.rubata.Acknowledge(t.Context(), f.boca, f.session.ID); err != nil {
		t.Fatalf("acknowledge failed: %v", err)
	}
	status, err = f.phases.Status(t.Context(), f.session.ID)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if len(status.PendingAcks) != 3 {
		t.Fatalf("expected three members pending, got %v", status.PendingAcks)
	}
	for _, id := range status.PendingAcks {
		if id == "mbr-boca" {
			t.Fatalf("boca already confirmed, got %v", status.PendingAcks)
		}
	}

	// The final ack advances the queue and clears the wait list.
	ackAll(t, f, f.real, f.ajax, f.admin)
	status, err = f.phases.Status(t.Context(), f.session.ID)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.TurnCursor == nil || *status.TurnCursor != 1 {
		t.Fatalf("expected cursor advanced to 1, got %+v", status.TurnCursor)
	}
	if len(status.PendingAcks) != 0 {
		t.Fatalf("expected no pending acks on the new turn, got %v", status.PendingAcks)
	}
}

func TestPhaseService_ForcedAdvanceAndAuctionGate(t *testing.T) {
	f := newMarketFixture(t)
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	f.setNow(start)

	// A running auction blocks any transition, forced or not.
	a, err := f.auctions.Nominate(t.Context(), f.boca, f.session.ID, "pl-fwd-01", 5)
	if err != nil {
		t.Fatalf("nominate failed: %v", err)
	}
	if _, err := f.phases.Advance(t.Context(), f.admin, f.session.ID, market.PhaseTradeWindow, true); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected running-auction gate, got %v", err)
	}
	f.setNow(start.Add(2 * time.Minute))
	if _, err := f.auctions.Close(t.Context(), a.ID); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	// Forcing skips guards but still lands in the audit log.
	f.assign(t, "mbr-ajax", "pl-def-03", 10, 3)
	if _, err := f.phases.Advance(t.Context(), f.admin, f.session.ID, market.PhaseTradeWindow, false); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if _, err := f.phases.Advance(t.Context(), f.admin, f.session.ID, market.PhaseContracts, true); err != nil {
		t.Fatalf("forced advance failed: %v", err)
	}

	transitions, _ := f.phases.Transitions(t.Context(), f.session.ID)
	last := transitions[len(transitions)-1]
	if !last.Forced || last.To != market.PhaseContracts || last.ActorID != "mbr-admin" {
		t.Fatalf("unexpected audit entry %+v", last)
	}
}
