package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bidhall/internal/item/models"
	id "bidhall/pkg/domain"
	"bidhall/pkg/platform/sentinel"
	txcontext "bidhall/pkg/platform/tx"
)

// Postgres implements Store on database/sql (pgx stdlib driver).
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) q(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const itemColumns = `id, auction_id, creator_id, name, description, starting_bid, min_increment,
	currency, ends_at, current_bid, current_bidder_id, bid_count,
	editable_by_admins, discussion_enabled, anonymous_default, image_url, created_at, updated_at`

// ScanItem maps one items row. Shared with the bid ledger's postgres
// implementation, which locks and rewrites the same row during commit.
func ScanItem(row interface{ Scan(...any) error }) (*models.Item, error) {
	var it models.Item
	var endsAt sql.NullTime
	var currentBid decimal.NullDecimal
	var currentBidder sql.NullString
	err := row.Scan(
		&it.ID, &it.AuctionID, &it.CreatorID, &it.Name, &it.Description,
		&it.StartingBid, &it.MinIncrement, &it.Currency, &endsAt,
		&currentBid, &currentBidder, &it.BidCount,
		&it.EditableByAdmins, &it.DiscussionEnabled, &it.AnonymousDefault,
		&it.ImageURL, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan item: %w", err)
	}
	if endsAt.Valid {
		t := endsAt.Time
		it.EndsAt = &t
	}
	if currentBid.Valid {
		d := currentBid.Decimal
		it.CurrentBid = &d
	}
	if currentBidder.Valid {
		bidderID, err := id.ParseUserID(currentBidder.String)
		if err != nil {
			return nil, fmt.Errorf("scan item bidder: %w", err)
		}
		it.CurrentBidderID = &bidderID
	}
	return &it, nil
}

func itemArgs(it *models.Item) []any {
	var currentBid decimal.NullDecimal
	if it.CurrentBid != nil {
		currentBid = decimal.NullDecimal{Decimal: *it.CurrentBid, Valid: true}
	}
	var currentBidder sql.NullString
	if it.CurrentBidderID != nil {
		currentBidder = sql.NullString{String: it.CurrentBidderID.String(), Valid: true}
	}
	return []any{
		it.ID, it.AuctionID, it.CreatorID, it.Name, it.Description,
		it.StartingBid, it.MinIncrement, it.Currency, nullTime(it.EndsAt),
		currentBid, currentBidder, it.BidCount,
		it.EditableByAdmins, it.DiscussionEnabled, it.AnonymousDefault,
		it.ImageURL, it.CreatedAt, it.UpdatedAt,
	}
}

func (s *Postgres) Create(ctx context.Context, it *models.Item) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, itemArgs(it)...)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, itemID id.ItemID) (*models.Item, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, itemID)
	return ScanItem(row)
}

func (s *Postgres) ListByAuction(ctx context.Context, auctionID id.AuctionID) ([]*models.Item, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT `+itemColumns+` FROM items WHERE auction_id = $1 ORDER BY created_at
	`, auctionID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var out []*models.Item
	for rows.Next() {
		it, err := ScanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Postgres) Execute(ctx context.Context, itemID id.ItemID, fn func(*models.Item) error) (*models.Item, error) {
	runner := txcontext.SQLRunner{DB: s.db}
	var out *models.Item
	err := runner.RunInTx(ctx, func(ctx context.Context) error {
		it, err := s.lockItem(ctx, itemID)
		if err != nil {
			return err
		}
		if err := fn(it); err != nil {
			return err
		}
		if err := s.updateLocked(ctx, it); err != nil {
			return err
		}
		out = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Postgres) Remove(ctx context.Context, itemID id.ItemID, fn func(*models.Item) error) error {
	runner := txcontext.SQLRunner{DB: s.db}
	return runner.RunInTx(ctx, func(ctx context.Context) error {
		it, err := s.lockItem(ctx, itemID)
		if err != nil {
			return err
		}
		if err := fn(it); err != nil {
			return err
		}
		_, err = s.q(ctx).ExecContext(ctx, `DELETE FROM items WHERE id = $1`, itemID)
		if err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		return nil
	})
}

func (s *Postgres) EndAllOpen(ctx context.Context, auctionID id.AuctionID, now time.Time) (int, error) {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE items SET ends_at = $2, updated_at = $2
		WHERE auction_id = $1 AND (ends_at IS NULL OR ends_at > $2)
	`, auctionID, now)
	if err != nil {
		return 0, fmt.Errorf("end open items: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// lockItem loads the item under FOR UPDATE inside the current transaction.
func (s *Postgres) lockItem(ctx context.Context, itemID id.ItemID) (*models.Item, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, itemID)
	return ScanItem(row)
}

func (s *Postgres) updateLocked(ctx context.Context, it *models.Item) error {
	var currentBid decimal.NullDecimal
	if it.CurrentBid != nil {
		currentBid = decimal.NullDecimal{Decimal: *it.CurrentBid, Valid: true}
	}
	var currentBidder sql.NullString
	if it.CurrentBidderID != nil {
		currentBidder = sql.NullString{String: it.CurrentBidderID.String(), Valid: true}
	}
	_, err := s.q(ctx).ExecContext(ctx, `
		UPDATE items
		SET name = $2, description = $3, starting_bid = $4, min_increment = $5,
		    currency = $6, ends_at = $7, current_bid = $8, current_bidder_id = $9,
		    bid_count = $10, editable_by_admins = $11, discussion_enabled = $12,
		    anonymous_default = $13, image_url = $14, updated_at = $15
		WHERE id = $1
	`, it.ID, it.Name, it.Description, it.StartingBid, it.MinIncrement,
		it.Currency, nullTime(it.EndsAt), currentBid, currentBidder,
		it.BidCount, it.EditableByAdmins, it.DiscussionEnabled,
		it.AnonymousDefault, it.ImageURL, it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
