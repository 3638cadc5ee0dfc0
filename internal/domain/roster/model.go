package roster

import (
	"fmt"
	"time"

	"github.com/fantadynasty/transfer-market/internal/domain/player"
)

// Channel tags how an ownership edge was acquired.
type Channel string

const (
	ChannelFirstMarket  Channel = "first_market"
	ChannelClaimAuction Channel = "claim_auction"
	ChannelFreeAgent    Channel = "free_agent"
	ChannelTrade        Channel = "trade"
)

var AllChannels = map[Channel]struct{}{
	ChannelFirstMarket:  {},
	ChannelClaimAuction: {},
	ChannelFreeAgent:    {},
	ChannelTrade:        {},
}

// Status is the lifecycle of an ownership edge. Entries are never deleted,
// only released; history lives in the movement ledger.
type Status string

const (
	StatusActive   Status = "active"
	StatusReleased Status = "released"
)

// Entry is the ownership edge between a member and a player.
type Entry struct {
	ID         string
	MemberID   string
	PlayerID   string
	Position   player.Position
	Channel    Channel
	Status     Status
	AcquiredAt time.Time
	ReleasedAt *time.Time
}

func (e Entry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("roster entry id is required")
	}
	if e.MemberID == "" {
		return fmt.Errorf("roster entry member id is required")
	}
	if e.PlayerID == "" {
		return fmt.Errorf("roster entry player id is required")
	}
	if _, ok := player.AllPositions[e.Position]; !ok {
		return fmt.Errorf("invalid roster entry position: %s", e.Position)
	}
	if _, ok := AllChannels[e.Channel]; !ok {
		return fmt.Errorf("invalid roster entry channel: %s", e.Channel)
	}
	if e.Status != StatusActive && e.Status != StatusReleased {
		return fmt.Errorf("invalid roster entry status: %s", e.Status)
	}
	if e.Status == StatusReleased && e.ReleasedAt == nil {
		return fmt.Errorf("released roster entry needs a release time")
	}

	return nil
}

// Release marks the entry released at the given time.
func (e Entry) Release(at time.Time) Entry {
	e.Status = StatusReleased
	e.ReleasedAt = &at
	return e
}
