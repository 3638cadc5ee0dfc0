package postgres

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/fantadynasty/transfer-market/internal/domain/rubata"
)

// RubataRepository stores each queue as one row with the turn list as a
// JSONB document. The queue is always read and written whole, so a single
// version column guards the entire turn state.
type RubataRepository struct {
	db *sqlx.DB
}

func NewRubataRepository(db *sqlx.DB) *RubataRepository {
	return &RubataRepository{db: db}
}

type queueRow struct {
	ID               string `db:"id"`
	SessionID        string `db:"session_id"`
	Status           string `db:"status"`
	CompletionReason string `db:"completion_reason"`
	Turns            []byte `db:"turns"`
	Cursor           int    `db:"cursor"`
	Version          int64  `db:"version"`
}

func (row queueRow) toDomain() (rubata.Queue, error) {
	q := rubata.Queue{
		ID:               row.ID,
		SessionID:        row.SessionID,
		Status:           rubata.Status(row.Status),
		CompletionReason: row.CompletionReason,
		Cursor:           row.Cursor,
		Version:          row.Version,
	}
	if len(row.Turns) > 0 {
		if err := sonic.Unmarshal(row.Turns, &q.Turns); err != nil {
			return rubata.Queue{}, fmt.Errorf("unmarshal queue turns: %w", err)
		}
	}
	return q, nil
}

func (r *RubataRepository) GetBySession(ctx context.Context, sessionID string) (rubata.Queue, bool, error) {
	const query = `
SELECT id, session_id, status, completion_reason, turns, cursor, version
FROM rubata_queues
WHERE session_id = $1`

	var row queueRow
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &row, query, sessionID); err != nil {
		if isNotFound(err) {
			return rubata.Queue{}, false, nil
		}
		return rubata.Queue{}, false, fmt.Errorf("get claim queue: %w", err)
	}

	q, err := row.toDomain()
	if err != nil {
		return rubata.Queue{}, false, err
	}
	return q, true, nil
}

func (r *RubataRepository) Create(ctx context.Context, q rubata.Queue) error {
	const query = `
INSERT INTO rubata_queues (id, session_id, status, completion_reason, turns, cursor, version)
VALUES (:id, :session_id, :status, :completion_reason, :turns, :cursor, :version)`

	args, err := queueArgs(q)
	if err != nil {
		return err
	}
	boundSQL, boundArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind create queue query: %w", err)
	}
	boundSQL = ext(ctx, r.db).Rebind(boundSQL)

	if _, err := ext(ctx, r.db).ExecContext(ctx, boundSQL, boundArgs...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("claim queue already exists for session %s: %w", q.SessionID, err)
		}
		return fmt.Errorf("create claim queue: %w", err)
	}
	return nil
}

func (r *RubataRepository) Update(ctx context.Context, q rubata.Queue, expectedVersion int64) error {
	const query = `
UPDATE rubata_queues
SET status = :status,
    completion_reason = :completion_reason,
    turns = :turns,
    cursor = :cursor,
    version = :version
WHERE id = :id
  AND version = :expected_version`

	args, err := queueArgs(q)
	if err != nil {
		return err
	}
	args["expected_version"] = expectedVersion
	boundSQL, boundArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind update queue query: %w", err)
	}
	boundSQL = ext(ctx, r.db).Rebind(boundSQL)

	res, err := ext(ctx, r.db).ExecContext(ctx, boundSQL, boundArgs...)
	if err != nil {
		return fmt.Errorf("update claim queue: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update claim queue rows: %w", err)
	}
	if affected == 0 {
		return rubata.ErrStaleVersion
	}
	return nil
}

func queueArgs(q rubata.Queue) (map[string]any, error) {
	turns, err := sonic.Marshal(q.Turns)
	if err != nil {
		return nil, fmt.Errorf("marshal queue turns: %w", err)
	}
	return map[string]any{
		"id":                q.ID,
		"session_id":        q.SessionID,
		"status":            string(q.Status),
		"completion_reason": q.CompletionReason,
		"turns":             turns,
		"cursor":            q.Cursor,
		"version":           q.Version,
	}, nil
}
