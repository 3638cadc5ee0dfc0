package player

import "fmt"

// Position represents football position categories used by market rules.
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
)

var AllPositions = map[Position]struct{}{
	PositionGoalkeeper: {},
	PositionDefender:   {},
	PositionMidfielder: {},
	PositionForward:    {},
}

// ClaimOrder is the fixed position sequence the claim-auction phase walks.
var ClaimOrder = []Position{
	PositionGoalkeeper,
	PositionDefender,
	PositionMidfielder,
	PositionForward,
}

// ExitReason classifies why a player left the source league catalog.
type ExitReason string

const (
	ExitRetired   ExitReason = "RITIRATO"
	ExitRelegated ExitReason = "RETROCESSO"
	ExitAbroad    ExitReason = "ESTERO"
)

var AllExitReasons = map[ExitReason]struct{}{
	ExitRetired:   {},
	ExitRelegated: {},
	ExitAbroad:    {},
}

// Player is an immutable catalog entity owned by the catalog collaborator.
type Player struct {
	ID         string
	Name       string
	Position   Position
	OriginTeam string
	Quotation  int64
	ExitReason ExitReason
}

// Exited reports whether the catalog marked the player as out of the league.
func (p Player) Exited() bool {
	return p.ExitReason != ""
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if _, ok := AllPositions[p.Position]; !ok {
		return fmt.Errorf("invalid player position: %s", p.Position)
	}
	if p.Quotation <= 0 {
		return fmt.Errorf("player quotation must be greater than zero")
	}
	if p.ExitReason != "" {
		if _, ok := AllExitReasons[p.ExitReason]; !ok {
			return fmt.Errorf("invalid player exit reason: %s", p.ExitReason)
		}
	}

	return nil
}
