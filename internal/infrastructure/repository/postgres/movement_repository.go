package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fantadynasty/transfer-market/internal/domain/movement"
)

type MovementRepository struct {
	db *sqlx.DB
}

func NewMovementRepository(db *sqlx.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

type movementRow struct {
	ID           string         `db:"id"`
	SessionID    string         `db:"session_id"`
	Type         string         `db:"type"`
	PlayerID     string         `db:"player_id"`
	FromMemberID sql.NullString `db:"from_member_id"`
	ToMemberID   sql.NullString `db:"to_member_id"`
	Price        int64          `db:"price"`
	AuctionID    sql.NullString `db:"auction_id"`
	OldSalary    int64          `db:"old_salary"`
	NewSalary    int64          `db:"new_salary"`
	OldDuration  int            `db:"old_duration"`
	NewDuration  int            `db:"new_duration"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (row movementRow) toDomain() movement.Movement {
	return movement.Movement{
		ID:           row.ID,
		SessionID:    row.SessionID,
		Type:         movement.Type(row.Type),
		PlayerID:     row.PlayerID,
		FromMemberID: row.FromMemberID.String,
		ToMemberID:   row.ToMemberID.String,
		Price:        row.Price,
		AuctionID:    row.AuctionID.String,
		OldSalary:    row.OldSalary,
		NewSalary:    row.NewSalary,
		OldDuration:  row.OldDuration,
		NewDuration:  row.NewDuration,
		CreatedAt:    row.CreatedAt,
	}
}

const movementColumns = `id, session_id, type, player_id, from_member_id, to_member_id, price, auction_id, old_salary, new_salary, old_duration, new_duration, created_at`

func (r *MovementRepository) Append(ctx context.Context, m movement.Movement) error {
	const query = `
INSERT INTO movements (id, session_id, type, player_id, from_member_id, to_member_id, price, auction_id, old_salary, new_salary, old_duration, new_duration, created_at)
VALUES (:id, :session_id, :type, :player_id, :from_member_id, :to_member_id, :price, :auction_id, :old_salary, :new_salary, :old_duration, :new_duration, :created_at)`

	args := map[string]any{
		"id":             m.ID,
		"session_id":     m.SessionID,
		"type":           string(m.Type),
		"player_id":      m.PlayerID,
		"from_member_id": nullString(m.FromMemberID),
		"to_member_id":   nullString(m.ToMemberID),
		"price":          m.Price,
		"auction_id":     nullString(m.AuctionID),
		"old_salary":     m.OldSalary,
		"new_salary":     m.NewSalary,
		"old_duration":   m.OldDuration,
		"new_duration":   m.NewDuration,
		"created_at":     m.CreatedAt,
	}
	boundSQL, boundArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind append movement query: %w", err)
	}
	boundSQL = ext(ctx, r.db).Rebind(boundSQL)

	if _, err := ext(ctx, r.db).ExecContext(ctx, boundSQL, boundArgs...); err != nil {
		return fmt.Errorf("append movement: %w", err)
	}
	return nil
}

func (r *MovementRepository) ListBySession(ctx context.Context, sessionID string) ([]movement.Movement, error) {
	query := `
SELECT ` + movementColumns + `
FROM movements
WHERE session_id = $1
ORDER BY created_at, id`

	var rows []movementRow
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows, query, sessionID); err != nil {
		return nil, fmt.Errorf("list session movements: %w", err)
	}

	return movementRowsToDomain(rows), nil
}

func (r *MovementRepository) ListByAuction(ctx context.Context, auctionID string) ([]movement.Movement, error) {
	query := `
SELECT ` + movementColumns + `
FROM movements
WHERE auction_id = $1
ORDER BY created_at, id`

	var rows []movementRow
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows, query, auctionID); err != nil {
		return nil, fmt.Errorf("list auction movements: %w", err)
	}

	return movementRowsToDomain(rows), nil
}

func (r *MovementRepository) HasRelease(ctx context.Context, sessionID, memberID, playerID string) (bool, error) {
	const query = `
SELECT EXISTS (
  SELECT 1
  FROM movements
  WHERE session_id = $1
    AND from_member_id = $2
    AND player_id = $3
    AND type IN ('release', 'retirement', 'indemnity_release')
)`

	var exists bool
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &exists, query, sessionID, memberID, playerID); err != nil {
		return false, fmt.Errorf("check release movement: %w", err)
	}
	return exists, nil
}

func movementRowsToDomain(rows []movementRow) []movement.Movement {
	movements := make([]movement.Movement, 0, len(rows))
	for _, row := range rows {
		movements = append(movements, row.toDomain())
	}
	return movements
}
