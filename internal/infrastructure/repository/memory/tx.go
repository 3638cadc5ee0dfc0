package memory

import (
	"context"
	"sync"

	"github.com/fantadynasty/transfer-market/internal/domain/auction"
	"github.com/fantadynasty/transfer-market/internal/domain/contract"
	"github.com/fantadynasty/transfer-market/internal/domain/indemnity"
	"github.com/fantadynasty/transfer-market/internal/domain/league"
	"github.com/fantadynasty/transfer-market/internal/domain/market"
	"github.com/fantadynasty/transfer-market/internal/domain/member"
	"github.com/fantadynasty/transfer-market/internal/domain/movement"
	"github.com/fantadynasty/transfer-market/internal/domain/player"
	"github.com/fantadynasty/transfer-market/internal/domain/roster"
	"github.com/fantadynasty/transfer-market/internal/domain/rubata"
	"github.com/fantadynasty/transfer-market/internal/domain/treasury"
)

// txState is implemented by every in-memory repository so TxRunner can
// snapshot and restore its contents around an atomic block.
type txState interface {
	snapshot() any
	restore(snap any)
}

type txMarker struct{}

// TxRunner gives the in-memory repositories the same all-or-nothing
// semantics the postgres runner gets from a database transaction: it
// snapshots every registered repository, runs fn, and restores the
// snapshots when fn returns an error. Nested Atomic calls join the
// outer block instead of re-locking.
type TxRunner struct {
	mu    sync.Mutex
	repos []txState
}

func NewTxRunner(repos ...txState) *TxRunner {
	return &TxRunner{repos: repos}
}

func (r *TxRunner) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snaps := make([]any, len(r.repos))
	for i, repo := range r.repos {
		snaps[i] = repo.snapshot()
	}

	if err := fn(context.WithValue(ctx, txMarker{}, struct{}{})); err != nil {
		for i, repo := range r.repos {
			repo.restore(snaps[i])
		}
		return err
	}
	return nil
}

type auctionState struct {
	items  map[string]auction.Auction
	orders []string
}

func (r *AuctionRepository) snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make(map[string]auction.Auction, len(r.items))
	for id, a := range r.items {
		items[id] = cloneAuction(a)
	}
	return auctionState{items: items, orders: append([]string(nil), r.orders...)}
}

func (r *AuctionRepository) restore(snap any) {
	st := snap.(auctionState)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = st.items
	r.orders = st.orders
}

type contractState struct {
	items  map[string]contract.Contract
	orders []string
}

func (r *ContractRepository) snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make(map[string]contract.Contract, len(r.items))
	for id, c := range r.items {
		items[id] = c
	}
	return contractState{items: items, orders: append([]string(nil), r.orders...)}
}

func (r *ContractRepository) restore(snap any) {
	st := snap.(contractState)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = st.items
	r.orders = st.orders
}

type indemnityState struct {
	settlements map[string]indemnity.Settlement
	decisions   map[string]indemnity.Decision
}

func (r *IndemnityRepository) snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	settlements := make(map[string]indemnity.Settlement, len(r.settlements))
	for id, s := range r.settlements {
		settlements[id] = cloneSettlement(s)
	}
	decisions := make(map[string]indemnity.Decision, len(r.decisions))
	for key, d := range r.decisions {
		items := make([]indemnity.DecisionItem, len(d.Items))
		copy(items, d.Items)
		d.Items = items
		decisions[key] = d
	}
	return indemnityState{settlements: settlements, decisions: decisions}
}

func (r *IndemnityRepository) restore(snap any) {
	st := snap.(indemnityState)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settlements = st.settlements
	r.decisions = st.decisions
}

func (r *LeagueRepository) snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make(map[string]league.League, len(r.items))
	for id, lg := range r.items {
		limits := make(map[player.Position]int, len(lg.SlotLimitByPosition))
		for pos, limit := range lg.SlotLimitByPosition {
			limits[pos] = limit
		}
		lg.SlotLimitByPosition = limits
		items[id] = lg
	}
	return items
}

func (r *LeagueRepository) restore(snap any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = snap.(map[string]league.League)
}

type marketState struct {
	items       map[string]market.Session
	orders      []string
	transitions map[string][]market.Transition
}

func (r *MarketRepository) snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make(map[string]market.Session, len(r.items))
	for id, s := range r.items {
		items[id] = s
	}
	transitions := make(map[string][]market.Transition, len(r.transitions))
	for id, ts := range r.transitions {
		transitions[id] = append([]market.Transition(nil), ts...)
	}
	return marketState{items: items, orders: append([]string(nil), r.orders...), transitions: transitions}
}

func (r *MarketRepository) restore(snap any) {
	st := snap.(marketState)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = st.items
	r.orders = st.orders
	r.transitions = st.transitions
}

type memberState struct {
	items  map[string]member.Member
	orders []string
}

func (r *MemberRepository) snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make(map[string]member.Member, len(r.items))
	for id, m := range r.items {
		items[id] = m
	}
	return memberState{items: items, orders: append([]string(nil), r.orders...)}
}

func (r *MemberRepository) restore(snap any) {
	st := snap.(memberState)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = st.items
	r.orders = st.orders
}

func (r *MovementRepository) snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]movement.Movement(nil), r.items...)
}

func (r *MovementRepository) restore(snap any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = snap.([]movement.Movement)
}

type playerState struct {
	items  map[string]player.Player
	orders []string
}

func (r *PlayerRepository) snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make(map[string]player.Player, len(r.items))
	for id, p := range r.items {
		items[id] = p
	}
	return playerState{items: items, orders: append([]string(nil), r.orders...)}
}

func (r *PlayerRepository) restore(snap any) {
	st := snap.(playerState)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = st.items
	r.orders = st.orders
}

type rosterState struct {
	items  map[string]roster.Entry
	orders []string
}

func (r *RosterRepository) snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make(map[string]roster.Entry, len(r.items))
	for id, e := range r.items {
		items[id] = e
	}
	return rosterState{items: items, orders: append([]string(nil), r.orders...)}
}

func (r *RosterRepository) restore(snap any) {
	st := snap.(rosterState)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = st.items
	r.orders = st.orders
}

func (r *RubataRepository) snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bySession := make(map[string]rubata.Queue, len(r.bySession))
	for id, q := range r.bySession {
		bySession[id] = cloneQueue(q)
	}
	return bySession
}

func (r *RubataRepository) restore(snap any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySession = snap.(map[string]rubata.Queue)
}

type treasuryState struct {
	items  map[string]treasury.Reservation
	orders []string
}

func (r *TreasuryRepository) snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make(map[string]treasury.Reservation, len(r.items))
	for id, res := range r.items {
		items[id] = res
	}
	return treasuryState{items: items, orders: append([]string(nil), r.orders...)}
}

func (r *TreasuryRepository) restore(snap any) {
	st := snap.(treasuryState)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = st.items
	r.orders = st.orders
}
