package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fantadynasty/transfer-market/internal/domain/player"
)

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

type playerRow struct {
	ID         string         `db:"id"`
	Name       string         `db:"name"`
	Position   string         `db:"position"`
	OriginTeam sql.NullString `db:"origin_team"`
	Quotation  int64          `db:"quotation"`
	ExitReason sql.NullString `db:"exit_reason"`
}

func (row playerRow) toDomain() player.Player {
	return player.Player{
		ID:         row.ID,
		Name:       row.Name,
		Position:   player.Position(row.Position),
		OriginTeam: row.OriginTeam.String,
		Quotation:  row.Quotation,
		ExitReason: player.ExitReason(row.ExitReason.String),
	}
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID string) (player.Player, bool, error) {
	const query = `
SELECT id, name, position, origin_team, quotation, exit_reason
FROM players
WHERE id = $1`

	var row playerRow
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &row, query, playerID); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("get player: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *PlayerRepository) GetByIDs(ctx context.Context, playerIDs []string) ([]player.Player, error) {
	if len(playerIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
SELECT id, name, position, origin_team, quotation, exit_reason
FROM players
WHERE id IN (?)`, playerIDs)
	if err != nil {
		return nil, fmt.Errorf("bind player ids: %w", err)
	}
	query = ext(ctx, r.db).Rebind(query)

	var rows []playerRow
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list players by ids: %w", err)
	}

	players := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		players = append(players, row.toDomain())
	}
	return players, nil
}

func (r *PlayerRepository) ListExited(ctx context.Context) ([]player.Player, error) {
	const query = `
SELECT id, name, position, origin_team, quotation, exit_reason
FROM players
WHERE exit_reason IS NOT NULL
ORDER BY id`

	var rows []playerRow
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows, query); err != nil {
		return nil, fmt.Errorf("list exited players: %w", err)
	}

	players := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		players = append(players, row.toDomain())
	}
	return players, nil
}
