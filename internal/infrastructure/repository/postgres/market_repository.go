package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fantadynasty/transfer-market/internal/domain/market"
)

type MarketRepository struct {
	db *sqlx.DB
}

func NewMarketRepository(db *sqlx.DB) *MarketRepository {
	return &MarketRepository{db: db}
}

type sessionRow struct {
	ID              string         `db:"id"`
	LeagueID        string         `db:"league_id"`
	Phase           string         `db:"phase"`
	ActiveAuctionID sql.NullString `db:"active_auction_id"`
	StartedAt       time.Time      `db:"started_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	Version         int64          `db:"version"`
}

func (row sessionRow) toDomain() market.Session {
	return market.Session{
		ID:              row.ID,
		LeagueID:        row.LeagueID,
		Phase:           market.Phase(row.Phase),
		ActiveAuctionID: row.ActiveAuctionID.String,
		StartedAt:       row.StartedAt,
		UpdatedAt:       row.UpdatedAt,
		Version:         row.Version,
	}
}

const sessionColumns = `id, league_id, phase, active_auction_id, started_at, updated_at, version`

func (r *MarketRepository) GetByID(ctx context.Context, sessionID string) (market.Session, bool, error) {
	query := `
SELECT ` + sessionColumns + `
FROM market_sessions
WHERE id = $1`

	var row sessionRow
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &row, query, sessionID); err != nil {
		if isNotFound(err) {
			return market.Session{}, false, nil
		}
		return market.Session{}, false, fmt.Errorf("get market session: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *MarketRepository) GetActiveByLeague(ctx context.Context, leagueID string) (market.Session, bool, error) {
	query := `
SELECT ` + sessionColumns + `
FROM market_sessions
WHERE league_id = $1
  AND closed_at IS NULL
ORDER BY started_at DESC
LIMIT 1`

	var row sessionRow
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &row, query, leagueID); err != nil {
		if isNotFound(err) {
			return market.Session{}, false, nil
		}
		return market.Session{}, false, fmt.Errorf("get active league session: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *MarketRepository) Create(ctx context.Context, s market.Session) error {
	const query = `
INSERT INTO market_sessions (id, league_id, phase, active_auction_id, started_at, updated_at, version)
VALUES (:id, :league_id, :phase, :active_auction_id, :started_at, :updated_at, :version)`

	boundSQL, boundArgs, err := sqlx.Named(query, sessionArgs(s))
	if err != nil {
		return fmt.Errorf("bind create session query: %w", err)
	}
	boundSQL = ext(ctx, r.db).Rebind(boundSQL)

	if _, err := ext(ctx, r.db).ExecContext(ctx, boundSQL, boundArgs...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("market session already exists: %w", err)
		}
		return fmt.Errorf("create market session: %w", err)
	}
	return nil
}

func (r *MarketRepository) Update(ctx context.Context, s market.Session, expectedVersion int64) error {
	const query = `
UPDATE market_sessions
SET phase = :phase,
    active_auction_id = :active_auction_id,
    updated_at = :updated_at,
    version = :version
WHERE id = :id
  AND version = :expected_version`

	args := sessionArgs(s)
	args["expected_version"] = expectedVersion
	boundSQL, boundArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind update session query: %w", err)
	}
	boundSQL = ext(ctx, r.db).Rebind(boundSQL)

	res, err := ext(ctx, r.db).ExecContext(ctx, boundSQL, boundArgs...)
	if err != nil {
		return fmt.Errorf("update market session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update market session rows: %w", err)
	}
	if affected == 0 {
		return market.ErrStaleVersion
	}
	return nil
}

func (r *MarketRepository) AppendTransition(ctx context.Context, t market.Transition) error {
	const query = `
INSERT INTO phase_transitions (id, session_id, from_phase, to_phase, actor_id, forced, at)
VALUES (:id, :session_id, :from_phase, :to_phase, :actor_id, :forced, :at)`

	args := map[string]any{
		"id":         t.ID,
		"session_id": t.SessionID,
		"from_phase": string(t.From),
		"to_phase":   string(t.To),
		"actor_id":   t.ActorID,
		"forced":     t.Forced,
		"at":         t.At,
	}
	boundSQL, boundArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind append transition query: %w", err)
	}
	boundSQL = ext(ctx, r.db).Rebind(boundSQL)

	if _, err := ext(ctx, r.db).ExecContext(ctx, boundSQL, boundArgs...); err != nil {
		return fmt.Errorf("append phase transition: %w", err)
	}
	return nil
}

func (r *MarketRepository) ListTransitions(ctx context.Context, sessionID string) ([]market.Transition, error) {
	const query = `
SELECT id, session_id, from_phase, to_phase, actor_id, forced, at
FROM phase_transitions
WHERE session_id = $1
ORDER BY at, id`

	var rows []struct {
		ID        string    `db:"id"`
		SessionID string    `db:"session_id"`
		FromPhase string    `db:"from_phase"`
		ToPhase   string    `db:"to_phase"`
		ActorID   string    `db:"actor_id"`
		Forced    bool      `db:"forced"`
		At        time.Time `db:"at"`
	}
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows, query, sessionID); err != nil {
		return nil, fmt.Errorf("list phase transitions: %w", err)
	}

	transitions := make([]market.Transition, 0, len(rows))
	for _, row := range rows {
		transitions = append(transitions, market.Transition{
			ID:        row.ID,
			SessionID: row.SessionID,
			From:      market.Phase(row.FromPhase),
			To:        market.Phase(row.ToPhase),
			ActorID:   row.ActorID,
			Forced:    row.Forced,
			At:        row.At,
		})
	}
	return transitions, nil
}

func sessionArgs(s market.Session) map[string]any {
	return map[string]any{
		"id":                s.ID,
		"league_id":         s.LeagueID,
		"phase":             string(s.Phase),
		"active_auction_id": nullString(s.ActiveAuctionID),
		"started_at":        s.StartedAt,
		"updated_at":        s.UpdatedAt,
		"version":           s.Version,
	}
}
