package market

import (
	"errors"
	"fmt"
	"time"
)

// Phase is the closed set of market phases. Transition legality lives in
// CanTransition so an illegal move is a rejected value, not a stray string.
type Phase string

const (
	PhaseFirstMarket Phase = "first_market"
	PhaseTradeWindow Phase = "trade_window"
	PhaseIndemnity   Phase = "indemnity_settlement"
	PhaseContracts   Phase = "contracts"
	PhaseRubata      Phase = "rubata"
	PhaseFreeAgents  Phase = "free_agents"
)

var AllPhases = map[Phase]struct{}{
	PhaseFirstMarket: {},
	PhaseTradeWindow: {},
	PhaseIndemnity:   {},
	PhaseContracts:   {},
	PhaseRubata:      {},
	PhaseFreeAgents:  {},
}

var ErrIllegalTransition = errors.New("illegal phase transition")

// phaseSuccessors is the recurring cycle: FirstMarket opens the league, then
// TradeWindow -> [Indemnity ->] Contracts -> Rubata -> FreeAgents ->
// TradeWindow repeats. IndemnitySettlement slots in before Contracts when
// exited players exist.
var phaseSuccessors = map[Phase][]Phase{
	PhaseFirstMarket: {PhaseTradeWindow},
	PhaseTradeWindow: {PhaseIndemnity, PhaseContracts},
	PhaseIndemnity:   {PhaseContracts},
	PhaseContracts:   {PhaseRubata},
	PhaseRubata:      {PhaseFreeAgents},
	PhaseFreeAgents:  {PhaseTradeWindow},
}

// Successors lists the legal next phases from a given phase.
func Successors(from Phase) []Phase {
	return phaseSuccessors[from]
}

// CanTransition reports whether the move between two phases is legal.
func CanTransition(from, to Phase) bool {
	for _, next := range phaseSuccessors[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowsOpenBidding reports whether free nominations are legal in a phase.
func AllowsOpenBidding(p Phase) bool {
	return p == PhaseFirstMarket || p == PhaseFreeAgents
}

// Session is one market cycle of a league. The active auction is a field on
// the session row, never process-global state.
type Session struct {
	ID       string
	LeagueID string
	Phase    Phase
	// ActiveAuctionID references the single auction currently Active in
	// this session, empty when none is running.
	ActiveAuctionID string
	StartedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
}

func (s Session) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("session id is required")
	}
	if s.LeagueID == "" {
		return fmt.Errorf("session league id is required")
	}
	if _, ok := AllPhases[s.Phase]; !ok {
		return fmt.Errorf("invalid session phase: %s", s.Phase)
	}

	return nil
}

// Transition is one audit entry of the phase log, independent from the
// movement ledger.
type Transition struct {
	ID        string
	SessionID string
	From      Phase
	To        Phase
	ActorID   string
	Forced    bool
	At        time.Time
}
