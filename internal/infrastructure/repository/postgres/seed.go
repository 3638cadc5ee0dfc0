package postgres

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/fantadynasty/transfer-market/internal/infrastructure/repository/memory"
)

// Seed loads the reference league, members and player catalog into an empty
// database. Inserts are idempotent so the seed can run on every boot.
func Seed(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const leagueQuery = `
INSERT INTO leagues (id, name, slot_limits, indemnity_allowance, min_claim_stake)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO NOTHING`

	for _, l := range memory.SeedLeagues() {
		limits, err := sonic.Marshal(l.SlotLimitByPosition)
		if err != nil {
			return fmt.Errorf("marshal slot limits for league %s: %w", l.ID, err)
		}
		if _, err := tx.ExecContext(ctx, leagueQuery, l.ID, l.Name, limits, l.IndemnityAllowance, l.MinClaimStake); err != nil {
			return fmt.Errorf("seed league %s: %w", l.ID, err)
		}
	}

	const memberQuery = `
INSERT INTO members (id, league_id, name, role, budget, indemnity_allowance, active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`

	for _, m := range memory.SeedMembers() {
		if _, err := tx.ExecContext(ctx, memberQuery, m.ID, m.LeagueID, m.Name, string(m.Role), m.Budget, m.IndemnityAllowance, m.Active); err != nil {
			return fmt.Errorf("seed member %s: %w", m.ID, err)
		}
	}

	const playerQuery = `
INSERT INTO players (id, name, position, origin_team, quotation, exit_reason)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
ON CONFLICT (id) DO NOTHING`

	for _, p := range memory.SeedPlayers() {
		if _, err := tx.ExecContext(ctx, playerQuery, p.ID, p.Name, string(p.Position), p.OriginTeam, p.Quotation, string(p.ExitReason)); err != nil {
			return fmt.Errorf("seed player %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}
