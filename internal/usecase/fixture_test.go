package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/fantadynasty/transfer-market/internal/domain/contract"
	"github.com/fantadynasty/transfer-market/internal/domain/event"
	"github.com/fantadynasty/transfer-market/internal/domain/market"
	"github.com/fantadynasty/transfer-market/internal/domain/member"
	"github.com/fantadynasty/transfer-market/internal/domain/roster"
	"github.com/fantadynasty/transfer-market/internal/infrastructure/repository/memory"
	idgen "github.com/fantadynasty/transfer-market/internal/platform/id"
)

// recordingSink captures published events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []event.Event
}

func (s *recordingSink) Publish(_ context.Context, _ string, evt event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

func (s *recordingSink) kinds() []event.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]event.Kind, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Kind)
	}
	return out
}

func (s *recordingSink) count(kind event.Kind) int {
	n := 0
	for _, k := range s.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

// marketFixture wires every service against fresh memory repositories and
// an already-open session.
type marketFixture struct {
	leagueRepo   *memory.LeagueRepository
	memberRepo   *memory.MemberRepository
	playerRepo   *memory.PlayerRepository
	rosterRepo   *memory.RosterRepository
	contractRepo *memory.ContractRepository
	auctionRepo  *memory.AuctionRepository
	queueRepo    *memory.RubataRepository
	indemRepo    *memory.IndemnityRepository
	sessionRepo  *memory.MarketRepository
	movementRepo *memory.MovementRepository
	treasuryRepo *memory.TreasuryRepository
	tx           *memory.TxRunner

	treasury  *TreasuryService
	auctions  *AuctionService
	rubata    *RubataService
	indemnity *IndemnityService
	contracts *ContractService
	phases    *PhaseService
	movements *MovementService

	sink    *recordingSink
	session market.Session

	admin member.Principal
	boca  member.Principal
	real  member.Principal
	ajax  member.Principal
}

func newMarketFixture(t *testing.T) *marketFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sink := &recordingSink{}
	gen := idgen.NewSequence("id")

	f := &marketFixture{
		leagueRepo:   memory.NewLeagueRepository(memory.SeedLeagues()),
		memberRepo:   memory.NewMemberRepository(memory.SeedMembers()),
		playerRepo:   memory.NewPlayerRepository(memory.SeedPlayers()),
		rosterRepo:   memory.NewRosterRepository(nil),
		auctionRepo:  memory.NewAuctionRepository(),
		queueRepo:    memory.NewRubataRepository(),
		indemRepo:    memory.NewIndemnityRepository(),
		sessionRepo:  memory.NewMarketRepository(),
		movementRepo: memory.NewMovementRepository(),
		treasuryRepo: memory.NewTreasuryRepository(),
		sink:         sink,
	}
	f.contractRepo = memory.NewContractRepository(nil, f.rosterRepo, f.memberRepo)
	f.tx = memory.NewTxRunner(
		f.leagueRepo, f.memberRepo, f.playerRepo, f.rosterRepo, f.contractRepo,
		f.auctionRepo, f.queueRepo, f.indemRepo, f.sessionRepo, f.movementRepo, f.treasuryRepo)
	tx := f.tx

	f.treasury = NewTreasuryService(f.memberRepo, f.treasuryRepo, f.rosterRepo, f.contractRepo, f.leagueRepo, gen, logger)
	f.auctions = NewAuctionService(tx, f.auctionRepo, f.sessionRepo, f.playerRepo, f.rosterRepo, f.contractRepo, f.movementRepo, f.memberRepo, f.treasury, sink, gen, AuctionPolicy{
		Timer:              60 * time.Second,
		AntiSnipeThreshold: 10 * time.Second,
		AntiSnipeExtension: 15 * time.Second,
	}, logger)
	f.rubata = NewRubataService(tx, f.queueRepo, f.sessionRepo, f.memberRepo, f.leagueRepo, f.rosterRepo, f.contractRepo, f.playerRepo, f.auctions, f.treasury, sink, gen, logger)
	f.indemnity = NewIndemnityService(tx, f.indemRepo, f.sessionRepo, f.playerRepo, f.rosterRepo, f.contractRepo, f.movementRepo, f.memberRepo, f.leagueRepo, f.treasury, sink, gen, logger)
	f.contracts = NewContractService(tx, f.contractRepo, f.rosterRepo, f.sessionRepo, f.memberRepo, f.movementRepo, f.treasury, gen, logger)
	f.phases = NewPhaseService(f.sessionRepo, f.queueRepo, f.memberRepo, f.contracts, f.indemnity, sink, gen, logger)
	f.movements = NewMovementService(f.movementRepo)

	f.admin = member.Principal{MemberID: "mbr-admin", LeagueID: memory.LeagueIDDynastyA, Role: member.RoleAdmin}
	f.boca = member.Principal{MemberID: "mbr-boca", LeagueID: memory.LeagueIDDynastyA, Role: member.RoleManager}
	f.real = member.Principal{MemberID: "mbr-real", LeagueID: memory.LeagueIDDynastyA, Role: member.RoleManager}
	f.ajax = member.Principal{MemberID: "mbr-ajax", LeagueID: memory.LeagueIDDynastyA, Role: member.RoleManager}

	f.setNow(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))

	sess, err := f.phases.StartSession(t.Context(), f.admin, memory.LeagueIDDynastyA)
	if err != nil {
		t.Fatalf("start session failed: %v", err)
	}
	f.session = sess

	return f
}

func (f *marketFixture) setNow(at time.Time) {
	now := func() time.Time { return at }
	f.treasury.now = now
	f.auctions.now = now
	f.rubata.now = now
	f.indemnity.now = now
	f.contracts.now = now
	f.phases.now = now
}

// forcePhase moves the stored session straight to a phase, bypassing the
// orchestrator, for tests that exercise a single phase in isolation.
func (f *marketFixture) forcePhase(t *testing.T, phase market.Phase) {
	t.Helper()

	sess, exists, err := f.sessionRepo.GetByID(t.Context(), f.session.ID)
	if err != nil || !exists {
		t.Fatalf("load session: %v", err)
	}
	sess.Phase = phase
	if err := f.sessionRepo.Update(t.Context(), sess, sess.Version); err != nil {
		t.Fatalf("force phase: %v", err)
	}
	sess.Version++
	f.session = sess
}

// assign plants a roster entry with a contract, bypassing the auction flow.
func (f *marketFixture) assign(t *testing.T, memberID, playerID string, salary int64, duration int) (roster.Entry, contract.Contract) {
	t.Helper()

	p, exists, err := f.playerRepo.GetByID(t.Context(), playerID)
	if err != nil || !exists {
		t.Fatalf("seed player %s not found", playerID)
	}
	entry := roster.Entry{
		ID:         "ros-" + playerID + "-" + memberID,
		MemberID:   memberID,
		PlayerID:   playerID,
		Position:   p.Position,
		Channel:    roster.ChannelFirstMarket,
		Status:     roster.StatusActive,
		AcquiredAt: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := f.rosterRepo.Save(t.Context(), entry); err != nil {
		t.Fatalf("save roster entry: %v", err)
	}

	clause, err := contract.Clause(salary, duration)
	if err != nil {
		t.Fatalf("clause: %v", err)
	}
	c := contract.Contract{
		ID:        "ctr-" + entry.ID,
		RosterID:  entry.ID,
		Salary:    salary,
		Duration:  duration,
		Clause:    clause,
		Status:    contract.StatusActive,
		UpdatedAt: entry.AcquiredAt,
	}
	if err := f.contractRepo.Save(t.Context(), c); err != nil {
		t.Fatalf("save contract: %v", err)
	}

	return entry, c
}

func (f *marketFixture) budget(t *testing.T, memberID string) int64 {
	t.Helper()

	m, exists, err := f.memberRepo.GetByID(t.Context(), memberID)
	if err != nil || !exists {
		t.Fatalf("member %s not found", memberID)
	}
	return m.Budget
}
