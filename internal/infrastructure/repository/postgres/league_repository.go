package postgres

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/fantadynasty/transfer-market/internal/domain/league"
	"github.com/fantadynasty/transfer-market/internal/domain/player"
)

type LeagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

type leagueRow struct {
	ID                 string `db:"id"`
	Name               string `db:"name"`
	SlotLimits         []byte `db:"slot_limits"`
	IndemnityAllowance int64  `db:"indemnity_allowance"`
	MinClaimStake      int64  `db:"min_claim_stake"`
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	const query = `
SELECT id, name, slot_limits, indemnity_allowance, min_claim_stake
FROM leagues
WHERE id = $1`

	var row leagueRow
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &row, query, leagueID); err != nil {
		if isNotFound(err) {
			return league.League{}, false, nil
		}
		return league.League{}, false, fmt.Errorf("get league: %w", err)
	}

	limits := make(map[player.Position]int)
	if len(row.SlotLimits) > 0 {
		if err := sonic.Unmarshal(row.SlotLimits, &limits); err != nil {
			return league.League{}, false, fmt.Errorf("unmarshal league slot limits: %w", err)
		}
	}

	return league.League{
		ID:                  row.ID,
		Name:                row.Name,
		SlotLimitByPosition: limits,
		IndemnityAllowance:  row.IndemnityAllowance,
		MinClaimStake:       row.MinClaimStake,
	}, true, nil
}
