package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fantadynasty/transfer-market/internal/domain/member"
)

type MemberRepository struct {
	db *sqlx.DB
}

func NewMemberRepository(db *sqlx.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

type memberRow struct {
	ID                 string `db:"id"`
	LeagueID           string `db:"league_id"`
	Name               string `db:"name"`
	Role               string `db:"role"`
	Budget             int64  `db:"budget"`
	IndemnityAllowance int64  `db:"indemnity_allowance"`
	Active             bool   `db:"active"`
}

func (row memberRow) toDomain() member.Member {
	return member.Member{
		ID:                 row.ID,
		LeagueID:           row.LeagueID,
		Name:               row.Name,
		Role:               member.Role(row.Role),
		Budget:             row.Budget,
		IndemnityAllowance: row.IndemnityAllowance,
		Active:             row.Active,
	}
}

func (r *MemberRepository) GetByID(ctx context.Context, memberID string) (member.Member, bool, error) {
	const query = `
SELECT id, league_id, name, role, budget, indemnity_allowance, active
FROM members
WHERE id = $1`

	var row memberRow
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &row, query, memberID); err != nil {
		if isNotFound(err) {
			return member.Member{}, false, nil
		}
		return member.Member{}, false, fmt.Errorf("get member: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *MemberRepository) ListByLeague(ctx context.Context, leagueID string) ([]member.Member, error) {
	const query = `
SELECT id, league_id, name, role, budget, indemnity_allowance, active
FROM members
WHERE league_id = $1
ORDER BY id`

	var rows []memberRow
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows, query, leagueID); err != nil {
		return nil, fmt.Errorf("list league members: %w", err)
	}

	members := make([]member.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, row.toDomain())
	}
	return members, nil
}

// CompareAndSwapBudget moves the budget from expected to next in one guarded
// update. Zero rows affected means either a lost race or a missing member;
// both surface as ErrBudgetConflict and the caller rereads.
func (r *MemberRepository) CompareAndSwapBudget(ctx context.Context, memberID string, expected, next int64) error {
	const query = `
UPDATE members
SET budget = $3, updated_at = NOW()
WHERE id = $1
  AND budget = $2`

	res, err := ext(ctx, r.db).ExecContext(ctx, query, memberID, expected, next)
	if err != nil {
		return fmt.Errorf("swap member budget: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("swap member budget rows: %w", err)
	}
	if affected == 0 {
		return member.ErrBudgetConflict
	}

	return nil
}
