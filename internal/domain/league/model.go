package league

import (
	"fmt"

	"github.com/fantadynasty/transfer-market/internal/domain/player"
)

// League carries the per-league market policy the core enforces.
type League struct {
	ID   string
	Name string
	// SlotLimitByPosition caps active roster entries per position group.
	SlotLimitByPosition map[player.Position]int
	// IndemnityAllowance is the default prize paid when releasing a player
	// who moved abroad; a member-level allowance overrides it.
	IndemnityAllowance int64
	// MinClaimStake is the disposable budget floor below which a member is
	// skipped during the claim-auction phase.
	MinClaimStake int64
}

// DefaultSlotLimits matches the classic 25-man dynasty roster split.
func DefaultSlotLimits() map[player.Position]int {
	return map[player.Position]int{
		player.PositionGoalkeeper: 3,
		player.PositionDefender:   8,
		player.PositionMidfielder: 8,
		player.PositionForward:    6,
	}
}

func (l League) SlotLimit(pos player.Position) int {
	return l.SlotLimitByPosition[pos]
}

func (l League) AllowanceFor(memberAllowance int64) int64 {
	if memberAllowance > 0 {
		return memberAllowance
	}
	return l.IndemnityAllowance
}

func (l League) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("league id is required")
	}
	if l.Name == "" {
		return fmt.Errorf("league name is required")
	}
	if len(l.SlotLimitByPosition) == 0 {
		return fmt.Errorf("league slot limits are required")
	}
	for pos, limit := range l.SlotLimitByPosition {
		if _, ok := player.AllPositions[pos]; !ok {
			return fmt.Errorf("invalid slot limit position: %s", pos)
		}
		if limit <= 0 {
			return fmt.Errorf("slot limit for %s must be greater than zero", pos)
		}
	}
	if l.IndemnityAllowance < 0 {
		return fmt.Errorf("league indemnity allowance cannot be negative")
	}
	if l.MinClaimStake <= 0 {
		return fmt.Errorf("league minimum claim stake must be greater than zero")
	}

	return nil
}
