package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(sql.ErrNoRows) {
		t.Fatalf("expected true for sql.ErrNoRows")
	}
	if !isNotFound(fmt.Errorf("get row: %w", sql.ErrNoRows)) {
		t.Fatalf("expected true for wrapped sql.ErrNoRows")
	}
	if isNotFound(errors.New("connection refused")) {
		t.Fatalf("expected false for unrelated error")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
	if !isUniqueViolation(unique) {
		t.Fatalf("expected true for 23505")
	}
	if !isUniqueViolation(fmt.Errorf("create decision: %w", unique)) {
		t.Fatalf("expected true for wrapped 23505")
	}

	fk := &pq.Error{Code: "23503", Message: "foreign key violation"}
	if isUniqueViolation(fk) {
		t.Fatalf("expected false for foreign key violation")
	}
	if isUniqueViolation(errors.New("plain error")) {
		t.Fatalf("expected false for non-pq error")
	}
}
