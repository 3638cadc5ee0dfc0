package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fantadynasty/transfer-market/internal/domain/contract"
)

type ContractRepository struct {
	db *sqlx.DB
}

func NewContractRepository(db *sqlx.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

type contractRow struct {
	ID        string    `db:"id"`
	RosterID  string    `db:"roster_id"`
	Salary    int64     `db:"salary"`
	Duration  int       `db:"duration"`
	Clause    int64     `db:"clause"`
	Status    string    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row contractRow) toDomain() contract.Contract {
	return contract.Contract{
		ID:        row.ID,
		RosterID:  row.RosterID,
		Salary:    row.Salary,
		Duration:  row.Duration,
		Clause:    row.Clause,
		Status:    contract.Status(row.Status),
		UpdatedAt: row.UpdatedAt,
	}
}

const contractColumns = `id, roster_id, salary, duration, clause, status, updated_at`

func (r *ContractRepository) GetByID(ctx context.Context, contractID string) (contract.Contract, bool, error) {
	query := `
SELECT ` + contractColumns + `
FROM contracts
WHERE id = $1`

	var row contractRow
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &row, query, contractID); err != nil {
		if isNotFound(err) {
			return contract.Contract{}, false, nil
		}
		return contract.Contract{}, false, fmt.Errorf("get contract: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *ContractRepository) GetByRoster(ctx context.Context, rosterID string) (contract.Contract, bool, error) {
	query := `
SELECT ` + contractColumns + `
FROM contracts
WHERE roster_id = $1
  AND status = 'active'`

	var row contractRow
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &row, query, rosterID); err != nil {
		if isNotFound(err) {
			return contract.Contract{}, false, nil
		}
		return contract.Contract{}, false, fmt.Errorf("get contract by roster: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *ContractRepository) ListActiveByRosterIDs(ctx context.Context, rosterIDs []string) ([]contract.Contract, error) {
	if len(rosterIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
SELECT `+contractColumns+`
FROM contracts
WHERE roster_id IN (?)
  AND status = 'active'`, rosterIDs)
	if err != nil {
		return nil, fmt.Errorf("bind roster ids: %w", err)
	}
	query = ext(ctx, r.db).Rebind(query)

	var rows []contractRow
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list contracts by rosters: %w", err)
	}

	return contractRowsToDomain(rows), nil
}

func (r *ContractRepository) ListActiveByLeague(ctx context.Context, leagueID string) ([]contract.Contract, error) {
	const query = `
SELECT c.id, c.roster_id, c.salary, c.duration, c.clause, c.status, c.updated_at
FROM contracts c
JOIN roster_entries re ON re.id = c.roster_id
JOIN members m ON m.id = re.member_id
WHERE m.league_id = $1
  AND re.status = 'active'
  AND c.status = 'active'
ORDER BY c.id`

	var rows []contractRow
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows, query, leagueID); err != nil {
		return nil, fmt.Errorf("list league contracts: %w", err)
	}

	return contractRowsToDomain(rows), nil
}

func (r *ContractRepository) CountExpiredActive(ctx context.Context, leagueID string) (int, error) {
	const query = `
SELECT COUNT(*)
FROM contracts c
JOIN roster_entries re ON re.id = c.roster_id
JOIN members m ON m.id = re.member_id
WHERE m.league_id = $1
  AND re.status = 'active'
  AND c.status = 'active'
  AND c.duration = 0`

	var count int
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &count, query, leagueID); err != nil {
		return 0, fmt.Errorf("count expired contracts: %w", err)
	}
	return count, nil
}

func (r *ContractRepository) Save(ctx context.Context, c contract.Contract) error {
	const query = `
INSERT INTO contracts (id, roster_id, salary, duration, clause, status, updated_at)
VALUES (:id, :roster_id, :salary, :duration, :clause, :status, :updated_at)
ON CONFLICT (id)
DO UPDATE SET
    salary = EXCLUDED.salary,
    duration = EXCLUDED.duration,
    clause = EXCLUDED.clause,
    status = EXCLUDED.status,
    updated_at = EXCLUDED.updated_at`

	args := map[string]any{
		"id":         c.ID,
		"roster_id":  c.RosterID,
		"salary":     c.Salary,
		"duration":   c.Duration,
		"clause":     c.Clause,
		"status":     string(c.Status),
		"updated_at": c.UpdatedAt,
	}
	boundSQL, boundArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind save contract query: %w", err)
	}
	boundSQL = ext(ctx, r.db).Rebind(boundSQL)

	if _, err := ext(ctx, r.db).ExecContext(ctx, boundSQL, boundArgs...); err != nil {
		return fmt.Errorf("save contract: %w", err)
	}
	return nil
}

func contractRowsToDomain(rows []contractRow) []contract.Contract {
	contracts := make([]contract.Contract, 0, len(rows))
	for _, row := range rows {
		contracts = append(contracts, row.toDomain())
	}
	return contracts
}
