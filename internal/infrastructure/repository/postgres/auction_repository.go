package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/fantadynasty/transfer-market/internal/domain/auction"
)

type AuctionRepository struct {
	db *sqlx.DB
}

func NewAuctionRepository(db *sqlx.DB) *AuctionRepository {
	return &AuctionRepository{db: db}
}

type auctionRow struct {
	ID           string         `db:"id"`
	SessionID    string         `db:"session_id"`
	PlayerID     string         `db:"player_id"`
	NominatorID  sql.NullString `db:"nominator_id"`
	OwnerID      sql.NullString `db:"owner_id"`
	BasePrice    int64          `db:"base_price"`
	CurrentPrice int64          `db:"current_price"`
	Status       string         `db:"status"`
	ExpiresAt    time.Time      `db:"expires_at"`
	Result       []byte         `db:"result"`
	Version      int64          `db:"version"`
	CreatedAt    time.Time      `db:"created_at"`
}

type bidRow struct {
	ID            string    `db:"id"`
	AuctionID     string    `db:"auction_id"`
	MemberID      string    `db:"member_id"`
	Amount        int64     `db:"amount"`
	Winning       bool      `db:"winning"`
	ReservationID string    `db:"reservation_id"`
	PlacedAt      time.Time `db:"placed_at"`
}

const auctionColumns = `id, session_id, player_id, nominator_id, owner_id, base_price, current_price, status, expires_at, result, version, created_at`

func (row auctionRow) toDomain() (auction.Auction, error) {
	a := auction.Auction{
		ID:           row.ID,
		SessionID:    row.SessionID,
		PlayerID:     row.PlayerID,
		NominatorID:  row.NominatorID.String,
		OwnerID:      row.OwnerID.String,
		BasePrice:    row.BasePrice,
		CurrentPrice: row.CurrentPrice,
		Status:       auction.Status(row.Status),
		ExpiresAt:    row.ExpiresAt,
		Version:      row.Version,
		CreatedAt:    row.CreatedAt,
	}
	if len(row.Result) > 0 {
		var result auction.Result
		if err := sonic.Unmarshal(row.Result, &result); err != nil {
			return auction.Auction{}, fmt.Errorf("unmarshal auction result: %w", err)
		}
		a.Result = &result
	}
	return a, nil
}

func (r *AuctionRepository) GetByID(ctx context.Context, auctionID string) (auction.Auction, bool, error) {
	query := `
SELECT ` + auctionColumns + `
FROM auctions
WHERE id = $1`

	var row auctionRow
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &row, query, auctionID); err != nil {
		if isNotFound(err) {
			return auction.Auction{}, false, nil
		}
		return auction.Auction{}, false, fmt.Errorf("get auction: %w", err)
	}

	a, err := row.toDomain()
	if err != nil {
		return auction.Auction{}, false, err
	}
	if a.Bids, err = r.listBids(ctx, a.ID); err != nil {
		return auction.Auction{}, false, err
	}
	return a, true, nil
}

func (r *AuctionRepository) GetActiveBySession(ctx context.Context, sessionID string) (auction.Auction, bool, error) {
	query := `
SELECT ` + auctionColumns + `
FROM auctions
WHERE session_id = $1
  AND status = 'active'`

	var row auctionRow
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &row, query, sessionID); err != nil {
		if isNotFound(err) {
			return auction.Auction{}, false, nil
		}
		return auction.Auction{}, false, fmt.Errorf("get active session auction: %w", err)
	}

	a, err := row.toDomain()
	if err != nil {
		return auction.Auction{}, false, err
	}
	if a.Bids, err = r.listBids(ctx, a.ID); err != nil {
		return auction.Auction{}, false, err
	}
	return a, true, nil
}

func (r *AuctionRepository) Create(ctx context.Context, a auction.Auction) error {
	const query = `
INSERT INTO auctions (id, session_id, player_id, nominator_id, owner_id, base_price, current_price, status, expires_at, version, created_at)
VALUES (:id, :session_id, :player_id, :nominator_id, :owner_id, :base_price, :current_price, :status, :expires_at, :version, :created_at)`

	boundSQL, boundArgs, err := sqlx.Named(query, auctionArgs(a))
	if err != nil {
		return fmt.Errorf("bind create auction query: %w", err)
	}
	boundSQL = ext(ctx, r.db).Rebind(boundSQL)

	if _, err := ext(ctx, r.db).ExecContext(ctx, boundSQL, boundArgs...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("auction already exists: %w", err)
		}
		return fmt.Errorf("create auction: %w", err)
	}
	return nil
}

// Update rewrites the auction row guarded by the expected version, then
// upserts the bid list in the same transaction. A zero-row update is a lost
// optimistic race. When an ambient transaction is open the writes join it;
// otherwise Update opens its own so the row and its bids stay consistent.
func (r *AuctionRepository) Update(ctx context.Context, a auction.Auction, expectedVersion int64) error {
	if tx, ok := txFrom(ctx); ok {
		return r.update(ctx, tx, a, expectedVersion)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for auction update: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := r.update(ctx, tx, a, expectedVersion); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit auction update: %w", err)
	}
	return nil
}

func (r *AuctionRepository) update(ctx context.Context, tx sqlx.ExtContext, a auction.Auction, expectedVersion int64) error {
	const query = `
UPDATE auctions
SET current_price = :current_price,
    status = :status,
    expires_at = :expires_at,
    result = :result,
    version = :version
WHERE id = :id
  AND version = :expected_version`

	args := auctionArgs(a)
	args["expected_version"] = expectedVersion
	boundSQL, boundArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind update auction query: %w", err)
	}
	boundSQL = tx.Rebind(boundSQL)

	res, err := tx.ExecContext(ctx, boundSQL, boundArgs...)
	if err != nil {
		return fmt.Errorf("update auction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update auction rows: %w", err)
	}
	if affected == 0 {
		return auction.ErrStaleVersion
	}

	const bidQuery = `
INSERT INTO auction_bids (id, auction_id, member_id, amount, winning, reservation_id, placed_at)
VALUES (:id, :auction_id, :member_id, :amount, :winning, :reservation_id, :placed_at)
ON CONFLICT (id)
DO UPDATE SET winning = EXCLUDED.winning`

	for _, b := range a.Bids {
		bidArgs := map[string]any{
			"id":             b.ID,
			"auction_id":     a.ID,
			"member_id":      b.MemberID,
			"amount":         b.Amount,
			"winning":        b.Winning,
			"reservation_id": b.ReservationID,
			"placed_at":      b.PlacedAt,
		}
		bidSQL, bidSQLArgs, err := sqlx.Named(bidQuery, bidArgs)
		if err != nil {
			return fmt.Errorf("bind upsert bid query: %w", err)
		}
		bidSQL = tx.Rebind(bidSQL)
		if _, err := tx.ExecContext(ctx, bidSQL, bidSQLArgs...); err != nil {
			return fmt.Errorf("upsert auction bid: %w", err)
		}
	}
	return nil
}

func (r *AuctionRepository) ListExpiredActive(ctx context.Context, now time.Time) ([]auction.Auction, error) {
	query := `
SELECT ` + auctionColumns + `
FROM auctions
WHERE status = 'active'
  AND expires_at <= $1
ORDER BY expires_at`

	var rows []auctionRow
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows, query, now); err != nil {
		return nil, fmt.Errorf("list expired auctions: %w", err)
	}

	auctions := make([]auction.Auction, 0, len(rows))
	for _, row := range rows {
		a, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		if a.Bids, err = r.listBids(ctx, a.ID); err != nil {
			return nil, err
		}
		auctions = append(auctions, a)
	}
	return auctions, nil
}

func (r *AuctionRepository) listBids(ctx context.Context, auctionID string) ([]auction.Bid, error) {
	const query = `
SELECT id, auction_id, member_id, amount, winning, reservation_id, placed_at
FROM auction_bids
WHERE auction_id = $1
ORDER BY placed_at, id`

	var rows []bidRow
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows, query, auctionID); err != nil {
		return nil, fmt.Errorf("list auction bids: %w", err)
	}

	bids := make([]auction.Bid, 0, len(rows))
	for _, row := range rows {
		bids = append(bids, auction.Bid{
			ID:            row.ID,
			MemberID:      row.MemberID,
			Amount:        row.Amount,
			Winning:       row.Winning,
			ReservationID: row.ReservationID,
			PlacedAt:      row.PlacedAt,
		})
	}
	return bids, nil
}

func auctionArgs(a auction.Auction) map[string]any {
	var result []byte
	if a.Result != nil {
		result, _ = sonic.Marshal(a.Result)
	}
	return map[string]any{
		"id":            a.ID,
		"session_id":    a.SessionID,
		"player_id":     a.PlayerID,
		"nominator_id":  nullString(a.NominatorID),
		"owner_id":      nullString(a.OwnerID),
		"base_price":    a.BasePrice,
		"current_price": a.CurrentPrice,
		"status":        string(a.Status),
		"expires_at":    a.ExpiresAt,
		"result":        result,
		"version":       a.Version,
		"created_at":    a.CreatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
