package contract

import (
	"errors"
	"testing"
	"time"
)

func TestClause_Multipliers(t *testing.T) {
	cases := []struct {
		salary   int64
		duration int
		want     int64
	}{
		{10, 1, 40},
		{10, 2, 70},
		{10, 3, 90},
		{10, 4, 110},
		{12, 4, 132},
	}

	for _, tc := range cases {
		got, err := Clause(tc.salary, tc.duration)
		if err != nil {
			t.Fatalf("clause(%d, %d): %v", tc.salary, tc.duration, err)
		}
		if got != tc.want {
			t.Fatalf("clause(%d, %d) = %d, want %d", tc.salary, tc.duration, got, tc.want)
		}
	}
}

func TestClause_InvalidInput(t *testing.T) {
	if _, err := Clause(0, 2); !errors.Is(err, ErrInvalidSalary) {
		t.Fatalf("expected ErrInvalidSalary, got %v", err)
	}
	if _, err := Clause(10, 5); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
	if _, err := Clause(10, 0); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestValidateRenewal_RejectsDecreases(t *testing.T) {
	current := Contract{ID: "c-1", RosterID: "r-1", Salary: 10, Duration: 4, Clause: 110, Status: StatusActive}

	if err := ValidateRenewal(current, 8, 4); !errors.Is(err, ErrSalaryDecrease) {
		t.Fatalf("expected ErrSalaryDecrease, got %v", err)
	}
	if err := ValidateRenewal(current, 10, 2); !errors.Is(err, ErrDurationDecrease) {
		t.Fatalf("expected ErrDurationDecrease, got %v", err)
	}
}

func TestValidateRenewal_SpreadException(t *testing.T) {
	current := Contract{ID: "c-1", RosterID: "r-1", Salary: 12, Duration: 1, Clause: 48, Status: StatusActive}

	// 4 x 3 = 12 covers the original yearly salary.
	if err := ValidateRenewal(current, 4, 3); err != nil {
		t.Fatalf("spread renewal rejected: %v", err)
	}
	// 3 x 3 = 9 does not.
	if err := ValidateRenewal(current, 3, 3); !errors.Is(err, ErrSpreadTooCheap) {
		t.Fatalf("expected ErrSpreadTooCheap, got %v", err)
	}
}

func TestRenew_RecomputesClause(t *testing.T) {
	current := Contract{ID: "c-1", RosterID: "r-1", Salary: 10, Duration: 4, Clause: 110, Status: StatusActive}
	at := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	renewed, err := Renew(current, 12, 4, at)
	if err != nil {
		t.Fatalf("renew failed: %v", err)
	}
	if renewed.Clause != 132 {
		t.Fatalf("unexpected clause: %d", renewed.Clause)
	}
	if !renewed.UpdatedAt.Equal(at) {
		t.Fatalf("unexpected updated at: %v", renewed.UpdatedAt)
	}
}

func TestValidate_ClauseMismatchIsRejected(t *testing.T) {
	c := Contract{ID: "c-1", RosterID: "r-1", Salary: 10, Duration: 4, Clause: 100, Status: StatusActive}
	if err := c.Validate(); err == nil {
		t.Fatal("expected clause mismatch error")
	}
}

func TestValidate_ExpiredContractKeepsClause(t *testing.T) {
	c := Contract{ID: "c-1", RosterID: "r-1", Salary: 10, Duration: 0, Clause: 40, Status: StatusActive}
	if err := c.Validate(); err != nil {
		t.Fatalf("expired contract should validate: %v", err)
	}
}
