package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bidhall/internal/bid/models"
	itemmodels "bidhall/internal/item/models"
	itemstore "bidhall/internal/item/store"
	id "bidhall/pkg/domain"
	"bidhall/pkg/platform/sentinel"
	txcontext "bidhall/pkg/platform/tx"
)

// Postgres implements Store on database/sql (pgx stdlib driver). CommitBid
// takes a row lock on the item with SELECT ... FOR UPDATE, so concurrent
// commits against one item serialize at the database and the decide callback
// always sees the latest committed price. Read-committed isolation is
// sufficient under the row lock; no optimistic retry loop is needed.
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

func (s *Postgres) CommitBid(ctx context.Context, itemID id.ItemID, decide func(*itemmodels.Item) (*models.Bid, error)) (*models.Bid, error) {
	runner := txcontext.SQLRunner{DB: s.db}
	var bid *models.Bid
	err := runner.RunInTx(ctx, func(ctx context.Context) error {
		row := s.q(ctx).QueryRowContext(ctx, `
			SELECT id, auction_id, creator_id, name, description, starting_bid, min_increment,
			       currency, ends_at, current_bid, current_bidder_id, bid_count,
			       editable_by_admins, discussion_enabled, anonymous_default, image_url, created_at, updated_at
			FROM items WHERE id = $1 FOR UPDATE
		`, itemID)
		it, err := itemstore.ScanItem(row)
		if err != nil {
			return err
		}

		b, err := decide(it)
		if err != nil {
			return err
		}

		_, err = s.q(ctx).ExecContext(ctx, `
			INSERT INTO bids (id, item_id, bidder_id, amount, anonymous, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, b.ID, b.ItemID, b.BidderID, b.Amount, b.Anonymous, b.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert bid: %w", err)
		}

		_, err = s.q(ctx).ExecContext(ctx, `
			UPDATE items
			SET current_bid = $2, current_bidder_id = $3, bid_count = bid_count + 1, updated_at = $4
			WHERE id = $1
		`, itemID, b.Amount, b.BidderID.String(), b.CreatedAt)
		if err != nil {
			return fmt.Errorf("advance item price: %w", err)
		}

		bid = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bid, nil
}

func scanBid(row interface{ Scan(...any) error }) (*models.Bid, error) {
	var b models.Bid
	err := row.Scan(&b.ID, &b.ItemID, &b.BidderID, &b.Amount, &b.Anonymous, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan bid: %w", err)
	}
	return &b, nil
}

func (s *Postgres) ListByItem(ctx context.Context, itemID id.ItemID) ([]*models.Bid, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, item_id, bidder_id, amount, anonymous, created_at
		FROM bids WHERE item_id = $1
		ORDER BY amount DESC, created_at ASC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	defer rows.Close()

	var out []*models.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Postgres) WinningBid(ctx context.Context, itemID id.ItemID) (*models.Bid, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, item_id, bidder_id, amount, anonymous, created_at
		FROM bids WHERE item_id = $1
		ORDER BY amount DESC, created_at ASC
		LIMIT 1
	`, itemID)
	return scanBid(row)
}
