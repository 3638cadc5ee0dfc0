package contract

import (
	"errors"
	"fmt"
	"time"
)

const (
	MinDuration = 1
	MaxDuration = 4
)

var (
	ErrInvalidDuration  = errors.New("contract duration must be between 1 and 4")
	ErrInvalidSalary    = errors.New("contract salary must be greater than zero")
	ErrSalaryDecrease   = errors.New("renewal cannot decrease salary")
	ErrDurationDecrease = errors.New("renewal cannot decrease duration")
	ErrSpreadTooCheap   = errors.New("spread renewal total must cover the original salary")
)

// Status tracks the contract lifecycle next to its roster entry.
type Status string

const (
	StatusActive    Status = "active"
	StatusDissolved Status = "dissolved"
)

// clause multiplier per residual duration year, fixed by league rules.
var clauseMultiplier = map[int]int64{
	1: 4,
	2: 7,
	3: 9,
	4: 11,
}

// Multiplier returns the rescission-clause multiplier for a duration.
func Multiplier(duration int) (int64, error) {
	m, ok := clauseMultiplier[duration]
	if !ok {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidDuration, duration)
	}
	return m, nil
}

// Clause computes the rescission-clause amount for salary and duration.
func Clause(salary int64, duration int) (int64, error) {
	if salary <= 0 {
		return 0, ErrInvalidSalary
	}
	m, err := Multiplier(duration)
	if err != nil {
		return 0, err
	}
	return salary * m, nil
}

// Contract is 1:1 with an active roster entry. The clause is always the
// recomputed product of salary and the duration multiplier.
type Contract struct {
	ID        string
	RosterID  string
	Salary    int64
	Duration  int
	Clause    int64
	Status    Status
	UpdatedAt time.Time
}

func (c Contract) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("contract id is required")
	}
	if c.RosterID == "" {
		return fmt.Errorf("contract roster id is required")
	}
	if c.Salary <= 0 {
		return ErrInvalidSalary
	}
	// Duration 0 marks a counted-down contract awaiting renewal; the clause
	// keeps its last computed value until the renewal lands.
	if c.Duration == 0 {
		return nil
	}
	if c.Duration < MinDuration || c.Duration > MaxDuration {
		return fmt.Errorf("%w: got %d", ErrInvalidDuration, c.Duration)
	}
	want, err := Clause(c.Salary, c.Duration)
	if err != nil {
		return err
	}
	if c.Clause != want {
		return fmt.Errorf("contract clause mismatch: stored %d, computed %d", c.Clause, want)
	}

	return nil
}

// ValidateRenewal checks renewal legality against the current terms.
// Salary and duration may only grow, with one exception: a duration-1
// contract may spread to N years when salary x N still covers the old
// yearly salary.
func ValidateRenewal(current Contract, newSalary int64, newDuration int) error {
	if newSalary <= 0 {
		return ErrInvalidSalary
	}
	if newDuration < MinDuration || newDuration > MaxDuration {
		return fmt.Errorf("%w: got %d", ErrInvalidDuration, newDuration)
	}
	if newSalary < current.Salary {
		return fmt.Errorf("%w: %d -> %d", ErrSalaryDecrease, current.Salary, newSalary)
	}
	if newDuration >= current.Duration {
		return nil
	}
	// Spread exception: only from a single remaining year.
	if current.Duration != 1 {
		return fmt.Errorf("%w: %d -> %d", ErrDurationDecrease, current.Duration, newDuration)
	}
	if newSalary*int64(newDuration) < current.Salary {
		return fmt.Errorf("%w: %d x %d < %d", ErrSpreadTooCheap, newSalary, newDuration, current.Salary)
	}

	return nil
}

// Countdown burns one year off the contract at the market cycle boundary.
// A contract reaching zero keeps its last clause and blocks the phase
// machine until its renewal lands.
func Countdown(c Contract, at time.Time) (Contract, error) {
	if c.Duration < MinDuration {
		return Contract{}, fmt.Errorf("%w: cannot count down duration %d", ErrInvalidDuration, c.Duration)
	}
	c.Duration--
	if c.Duration >= MinDuration {
		clause, err := Clause(c.Salary, c.Duration)
		if err != nil {
			return Contract{}, err
		}
		c.Clause = clause
	}
	c.UpdatedAt = at
	return c, nil
}

// Renew applies validated terms and recomputes the clause.
func Renew(current Contract, newSalary int64, newDuration int, at time.Time) (Contract, error) {
	if err := ValidateRenewal(current, newSalary, newDuration); err != nil {
		return Contract{}, err
	}
	clause, err := Clause(newSalary, newDuration)
	if err != nil {
		return Contract{}, err
	}

	current.Salary = newSalary
	current.Duration = newDuration
	current.Clause = clause
	current.UpdatedAt = at
	return current, nil
}
