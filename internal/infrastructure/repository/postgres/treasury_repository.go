package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fantadynasty/transfer-market/internal/domain/treasury"
)

type TreasuryRepository struct {
	db *sqlx.DB
}

func NewTreasuryRepository(db *sqlx.DB) *TreasuryRepository {
	return &TreasuryRepository{db: db}
}

type reservationRow struct {
	ID        string    `db:"id"`
	MemberID  string    `db:"member_id"`
	Amount    int64     `db:"amount"`
	Ref       string    `db:"ref"`
	CreatedAt time.Time `db:"created_at"`
}

func (row reservationRow) toDomain() treasury.Reservation {
	return treasury.Reservation{
		ID:        row.ID,
		MemberID:  row.MemberID,
		Amount:    row.Amount,
		Ref:       row.Ref,
		CreatedAt: row.CreatedAt,
	}
}

func (r *TreasuryRepository) GetByID(ctx context.Context, reservationID string) (treasury.Reservation, bool, error) {
	const query = `
SELECT id, member_id, amount, ref, created_at
FROM budget_reservations
WHERE id = $1`

	var row reservationRow
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &row, query, reservationID); err != nil {
		if isNotFound(err) {
			return treasury.Reservation{}, false, nil
		}
		return treasury.Reservation{}, false, fmt.Errorf("get reservation: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *TreasuryRepository) Create(ctx context.Context, res treasury.Reservation) error {
	const query = `
INSERT INTO budget_reservations (id, member_id, amount, ref, created_at)
VALUES (:id, :member_id, :amount, :ref, :created_at)`

	args := map[string]any{
		"id":         res.ID,
		"member_id":  res.MemberID,
		"amount":     res.Amount,
		"ref":        res.Ref,
		"created_at": res.CreatedAt,
	}
	boundSQL, boundArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind create reservation query: %w", err)
	}
	boundSQL = ext(ctx, r.db).Rebind(boundSQL)

	if _, err := ext(ctx, r.db).ExecContext(ctx, boundSQL, boundArgs...); err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (r *TreasuryRepository) Delete(ctx context.Context, reservationID string) error {
	const query = `
DELETE FROM budget_reservations
WHERE id = $1`

	if _, err := ext(ctx, r.db).ExecContext(ctx, query, reservationID); err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	return nil
}

func (r *TreasuryRepository) ListByRef(ctx context.Context, ref string) ([]treasury.Reservation, error) {
	const query = `
SELECT id, member_id, amount, ref, created_at
FROM budget_reservations
WHERE ref = $1
ORDER BY created_at, id`

	var rows []reservationRow
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows, query, ref); err != nil {
		return nil, fmt.Errorf("list reservations by ref: %w", err)
	}

	reservations := make([]treasury.Reservation, 0, len(rows))
	for _, row := range rows {
		reservations = append(reservations, row.toDomain())
	}
	return reservations, nil
}
