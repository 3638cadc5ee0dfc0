package event

import (
	"context"
	"time"
)

// Kind names a domain event emitted to the external sink.
type Kind string

const (
	KindBidPlaced          Kind = "BidPlaced"
	KindAuctionClosed      Kind = "AuctionClosed"
	KindTurnAdvanced       Kind = "TurnAdvanced"
	KindMemberAcknowledged Kind = "MemberAcknowledged"
	KindPhaseChanged       Kind = "PhaseChanged"
	KindDecisionSubmitted  Kind = "DecisionSubmitted"
	KindAllDecided         Kind = "AllDecided"
)

// Event is the payload fanned out to connected clients. Delivery is
// at-least-once and best-effort; the core never depends on it succeeding.
type Event struct {
	Kind      Kind           `json:"kind"`
	SessionID string         `json:"sessionId"`
	At        time.Time      `json:"at"`
	Data      map[string]any `json:"data,omitempty"`
}

// Sink abstracts the push transport. Implementations must be safe for
// concurrent use; errors are logged by callers, never propagated into the
// mutating transaction.
type Sink interface {
	Publish(ctx context.Context, channel string, evt Event) error
}

// NopSink drops every event; used in tests and when no sink is configured.
type NopSink struct{}

func (NopSink) Publish(context.Context, string, Event) error { return nil }

// SessionChannel is the per-session event channel name.
func SessionChannel(leagueID, sessionID string) string {
	return "league:" + leagueID + ":session:" + sessionID
}
