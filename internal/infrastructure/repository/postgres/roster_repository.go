package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fantadynasty/transfer-market/internal/domain/player"
	"github.com/fantadynasty/transfer-market/internal/domain/roster"
)

type RosterRepository struct {
	db *sqlx.DB
}

func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

type rosterRow struct {
	ID         string     `db:"id"`
	MemberID   string     `db:"member_id"`
	PlayerID   string     `db:"player_id"`
	Position   string     `db:"position"`
	Channel    string     `db:"channel"`
	Status     string     `db:"status"`
	AcquiredAt time.Time  `db:"acquired_at"`
	ReleasedAt *time.Time `db:"released_at"`
}

func (row rosterRow) toDomain() roster.Entry {
	return roster.Entry{
		ID:         row.ID,
		MemberID:   row.MemberID,
		PlayerID:   row.PlayerID,
		Position:   player.Position(row.Position),
		Channel:    roster.Channel(row.Channel),
		Status:     roster.Status(row.Status),
		AcquiredAt: row.AcquiredAt,
		ReleasedAt: row.ReleasedAt,
	}
}

const rosterColumns = `id, member_id, player_id, position, channel, status, acquired_at, released_at`

func (r *RosterRepository) GetByID(ctx context.Context, entryID string) (roster.Entry, bool, error) {
	query := `
SELECT ` + rosterColumns + `
FROM roster_entries
WHERE id = $1`

	var row rosterRow
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &row, query, entryID); err != nil {
		if isNotFound(err) {
			return roster.Entry{}, false, nil
		}
		return roster.Entry{}, false, fmt.Errorf("get roster entry: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *RosterRepository) GetActiveByPlayer(ctx context.Context, playerID string) (roster.Entry, bool, error) {
	query := `
SELECT ` + rosterColumns + `
FROM roster_entries
WHERE player_id = $1
  AND status = 'active'`

	var row rosterRow
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &row, query, playerID); err != nil {
		if isNotFound(err) {
			return roster.Entry{}, false, nil
		}
		return roster.Entry{}, false, fmt.Errorf("get active roster entry by player: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *RosterRepository) ListActiveByMember(ctx context.Context, memberID string) ([]roster.Entry, error) {
	query := `
SELECT ` + rosterColumns + `
FROM roster_entries
WHERE member_id = $1
  AND status = 'active'
ORDER BY acquired_at, id`

	var rows []rosterRow
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows, query, memberID); err != nil {
		return nil, fmt.Errorf("list active roster entries: %w", err)
	}

	return rosterRowsToDomain(rows), nil
}

func (r *RosterRepository) ListActiveByMemberPosition(ctx context.Context, memberID string, pos player.Position) ([]roster.Entry, error) {
	query := `
SELECT ` + rosterColumns + `
FROM roster_entries
WHERE member_id = $1
  AND position = $2
  AND status = 'active'
ORDER BY acquired_at, id`

	var rows []rosterRow
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows, query, memberID, string(pos)); err != nil {
		return nil, fmt.Errorf("list active roster entries by position: %w", err)
	}

	return rosterRowsToDomain(rows), nil
}

func (r *RosterRepository) CountActiveByMemberPosition(ctx context.Context, memberID string, pos player.Position) (int, error) {
	const query = `
SELECT COUNT(*)
FROM roster_entries
WHERE member_id = $1
  AND position = $2
  AND status = 'active'`

	var count int
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &count, query, memberID, string(pos)); err != nil {
		return 0, fmt.Errorf("count active roster entries: %w", err)
	}
	return count, nil
}

func (r *RosterRepository) Save(ctx context.Context, e roster.Entry) error {
	const query = `
INSERT INTO roster_entries (id, member_id, player_id, position, channel, status, acquired_at, released_at)
VALUES (:id, :member_id, :player_id, :position, :channel, :status, :acquired_at, :released_at)
ON CONFLICT (id)
DO UPDATE SET
    status = EXCLUDED.status,
    released_at = EXCLUDED.released_at`

	args := map[string]any{
		"id":          e.ID,
		"member_id":   e.MemberID,
		"player_id":   e.PlayerID,
		"position":    string(e.Position),
		"channel":     string(e.Channel),
		"status":      string(e.Status),
		"acquired_at": e.AcquiredAt,
		"released_at": e.ReleasedAt,
	}
	boundSQL, boundArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind save roster entry query: %w", err)
	}
	boundSQL = ext(ctx, r.db).Rebind(boundSQL)

	if _, err := ext(ctx, r.db).ExecContext(ctx, boundSQL, boundArgs...); err != nil {
		return fmt.Errorf("save roster entry: %w", err)
	}
	return nil
}

func rosterRowsToDomain(rows []rosterRow) []roster.Entry {
	entries := make([]roster.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toDomain())
	}
	return entries
}
