package member

import "fmt"

// Role controls which market operations a member may force.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
)

// Member is a manager inside one league. Budget never goes negative; every
// financial mutation runs through the treasury service.
type Member struct {
	ID       string
	LeagueID string
	Name     string
	Role     Role
	Budget   int64
	// IndemnityAllowance overrides the league prize amount when > 0.
	IndemnityAllowance int64
	Active             bool
}

func (m Member) IsAdmin() bool {
	return m.Role == RoleAdmin
}

func (m Member) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("member id is required")
	}
	if m.LeagueID == "" {
		return fmt.Errorf("member league id is required")
	}
	if m.Name == "" {
		return fmt.Errorf("member name is required")
	}
	if m.Role != RoleAdmin && m.Role != RoleManager {
		return fmt.Errorf("invalid member role: %s", m.Role)
	}
	if m.Budget < 0 {
		return fmt.Errorf("member budget cannot be negative")
	}
	if m.IndemnityAllowance < 0 {
		return fmt.Errorf("member indemnity allowance cannot be negative")
	}

	return nil
}

// Principal identifies the authenticated caller of a request.
type Principal struct {
	MemberID string
	LeagueID string
	Role     Role
}
