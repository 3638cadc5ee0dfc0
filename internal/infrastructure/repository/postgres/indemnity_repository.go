package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/fantadynasty/transfer-market/internal/domain/indemnity"
)

// IndemnityRepository persists settlements with the affected entries and
// submission map as JSONB documents; decisions are plain append-only rows
// with a uniqueness guard per (session, member).
type IndemnityRepository struct {
	db *sqlx.DB
}

func NewIndemnityRepository(db *sqlx.DB) *IndemnityRepository {
	return &IndemnityRepository{db: db}
}

type settlementRow struct {
	ID        string    `db:"id"`
	SessionID string    `db:"session_id"`
	Entries   []byte    `db:"entries"`
	Submitted []byte    `db:"submitted"`
	Version   int64     `db:"version"`
	CreatedAt time.Time `db:"created_at"`
}

func (row settlementRow) toDomain() (indemnity.Settlement, error) {
	s := indemnity.Settlement{
		ID:        row.ID,
		SessionID: row.SessionID,
		Submitted: make(map[string]bool),
		Version:   row.Version,
		CreatedAt: row.CreatedAt,
	}
	if len(row.Entries) > 0 {
		if err := sonic.Unmarshal(row.Entries, &s.Entries); err != nil {
			return indemnity.Settlement{}, fmt.Errorf("unmarshal settlement entries: %w", err)
		}
	}
	if len(row.Submitted) > 0 {
		if err := sonic.Unmarshal(row.Submitted, &s.Submitted); err != nil {
			return indemnity.Settlement{}, fmt.Errorf("unmarshal settlement submissions: %w", err)
		}
	}
	return s, nil
}

func (r *IndemnityRepository) GetSettlementBySession(ctx context.Context, sessionID string) (indemnity.Settlement, bool, error) {
	const query = `
SELECT id, session_id, entries, submitted, version, created_at
FROM indemnity_settlements
WHERE session_id = $1`

	var row settlementRow
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &row, query, sessionID); err != nil {
		if isNotFound(err) {
			return indemnity.Settlement{}, false, nil
		}
		return indemnity.Settlement{}, false, fmt.Errorf("get settlement: %w", err)
	}

	s, err := row.toDomain()
	if err != nil {
		return indemnity.Settlement{}, false, err
	}
	return s, true, nil
}

func (r *IndemnityRepository) CreateSettlement(ctx context.Context, s indemnity.Settlement) error {
	const query = `
INSERT INTO indemnity_settlements (id, session_id, entries, submitted, version, created_at)
VALUES (:id, :session_id, :entries, :submitted, :version, :created_at)`

	args, err := settlementArgs(s)
	if err != nil {
		return err
	}
	boundSQL, boundArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind create settlement query: %w", err)
	}
	boundSQL = ext(ctx, r.db).Rebind(boundSQL)

	if _, err := ext(ctx, r.db).ExecContext(ctx, boundSQL, boundArgs...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("settlement already exists for session %s: %w", s.SessionID, err)
		}
		return fmt.Errorf("create settlement: %w", err)
	}
	return nil
}

func (r *IndemnityRepository) UpdateSettlement(ctx context.Context, s indemnity.Settlement, expectedVersion int64) error {
	const query = `
UPDATE indemnity_settlements
SET entries = :entries,
    submitted = :submitted,
    version = :version
WHERE id = :id
  AND version = :expected_version`

	args, err := settlementArgs(s)
	if err != nil {
		return err
	}
	args["expected_version"] = expectedVersion
	boundSQL, boundArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind update settlement query: %w", err)
	}
	boundSQL = ext(ctx, r.db).Rebind(boundSQL)

	res, err := ext(ctx, r.db).ExecContext(ctx, boundSQL, boundArgs...)
	if err != nil {
		return fmt.Errorf("update settlement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update settlement rows: %w", err)
	}
	if affected == 0 {
		return indemnity.ErrStaleVersion
	}
	return nil
}

func (r *IndemnityRepository) GetDecision(ctx context.Context, sessionID, memberID string) (indemnity.Decision, bool, error) {
	const query = `
SELECT id, session_id, member_id, items, submitted_at
FROM indemnity_decisions
WHERE session_id = $1
  AND member_id = $2`

	var row struct {
		ID          string    `db:"id"`
		SessionID   string    `db:"session_id"`
		MemberID    string    `db:"member_id"`
		Items       []byte    `db:"items"`
		SubmittedAt time.Time `db:"submitted_at"`
	}
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &row, query, sessionID, memberID); err != nil {
		if isNotFound(err) {
			return indemnity.Decision{}, false, nil
		}
		return indemnity.Decision{}, false, fmt.Errorf("get decision: %w", err)
	}

	d := indemnity.Decision{
		ID:          row.ID,
		SessionID:   row.SessionID,
		MemberID:    row.MemberID,
		SubmittedAt: row.SubmittedAt,
	}
	if len(row.Items) > 0 {
		if err := sonic.Unmarshal(row.Items, &d.Items); err != nil {
			return indemnity.Decision{}, false, fmt.Errorf("unmarshal decision items: %w", err)
		}
	}
	return d, true, nil
}

func (r *IndemnityRepository) CreateDecision(ctx context.Context, d indemnity.Decision) error {
	const query = `
INSERT INTO indemnity_decisions (id, session_id, member_id, items, submitted_at)
VALUES (:id, :session_id, :member_id, :items, :submitted_at)`

	items, err := sonic.Marshal(d.Items)
	if err != nil {
		return fmt.Errorf("marshal decision items: %w", err)
	}
	args := map[string]any{
		"id":           d.ID,
		"session_id":   d.SessionID,
		"member_id":    d.MemberID,
		"items":        items,
		"submitted_at": d.SubmittedAt,
	}
	boundSQL, boundArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind create decision query: %w", err)
	}
	boundSQL = ext(ctx, r.db).Rebind(boundSQL)

	if _, err := ext(ctx, r.db).ExecContext(ctx, boundSQL, boundArgs...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: decision already recorded", indemnity.ErrAlreadySubmitted)
		}
		return fmt.Errorf("create decision: %w", err)
	}
	return nil
}

func settlementArgs(s indemnity.Settlement) (map[string]any, error) {
	entries, err := sonic.Marshal(s.Entries)
	if err != nil {
		return nil, fmt.Errorf("marshal settlement entries: %w", err)
	}
	submitted, err := sonic.Marshal(s.Submitted)
	if err != nil {
		return nil, fmt.Errorf("marshal settlement submissions: %w", err)
	}
	return map[string]any{
		"id":         s.ID,
		"session_id": s.SessionID,
		"entries":    entries,
		"submitted":  submitted,
		"version":    s.Version,
		"created_at": s.CreatedAt,
	}, nil
}
