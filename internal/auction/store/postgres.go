package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bidhall/internal/auction/models"
	id "bidhall/pkg/domain"
	"bidhall/pkg/platform/sentinel"
	txcontext "bidhall/pkg/platform/tx"
)

// Postgres implements Store and MembershipStore on database/sql (pgx stdlib
// driver). Execute takes a row lock with FOR UPDATE so validation and
// mutation happen under the same lock as in the in-memory variant.
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

const auctionColumns = `id, name, owner_id, join_policy, bidder_visibility, item_end_mode, member_can_invite, ends_at, created_at, updated_at`

func scanAuction(row interface{ Scan(...any) error }) (*models.Auction, error) {
	var a models.Auction
	var endsAt sql.NullTime
	err := row.Scan(&a.ID, &a.Name, &a.OwnerID, &a.JoinPolicy, &a.BidderVisibility, &a.ItemEndMode, &a.MemberCanInvite, &endsAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan auction: %w", err)
	}
	if endsAt.Valid {
		t := endsAt.Time
		a.EndsAt = &t
	}
	return &a, nil
}

func (s *Postgres) Create(ctx context.Context, a *models.Auction) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO auctions (`+auctionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, a.ID, a.Name, a.OwnerID, a.JoinPolicy, a.BidderVisibility, a.ItemEndMode, a.MemberCanInvite, nullTime(a.EndsAt), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert auction: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, auctionID id.AuctionID) (*models.Auction, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+auctionColumns+` FROM auctions WHERE id = $1`, auctionID)
	return scanAuction(row)
}

func (s *Postgres) Execute(ctx context.Context, auctionID id.AuctionID, fn func(*models.Auction) error) (*models.Auction, error) {
	runner := txcontext.SQLRunner{DB: s.db}
	var out *models.Auction
	err := runner.RunInTx(ctx, func(ctx context.Context) error {
		row := s.q(ctx).QueryRowContext(ctx, `SELECT `+auctionColumns+` FROM auctions WHERE id = $1 FOR UPDATE`, auctionID)
		a, err := scanAuction(row)
		if err != nil {
			return err
		}
		if err := fn(a); err != nil {
			return err
		}
		_, err = s.q(ctx).ExecContext(ctx, `
			UPDATE auctions
			SET name = $2, join_policy = $3, bidder_visibility = $4, item_end_mode = $5,
			    member_can_invite = $6, ends_at = $7, updated_at = $8
			WHERE id = $1
		`, a.ID, a.Name, a.JoinPolicy, a.BidderVisibility, a.ItemEndMode, a.MemberCanInvite, nullTime(a.EndsAt), a.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update auction: %w", err)
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

const membershipColumns = `auction_id, user_id, email, display_name, role, joined_at`

func scanMembership(row interface{ Scan(...any) error }) (*models.Membership, error) {
	var m models.Membership
	err := row.Scan(&m.AuctionID, &m.UserID, &m.Email, &m.DisplayName, &m.Role, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan membership: %w", err)
	}
	return &m, nil
}

func (s *Postgres) Add(ctx context.Context, m *models.Membership) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO memberships (`+membershipColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (auction_id, user_id) DO NOTHING
	`, m.AuctionID, m.UserID, m.Email, m.DisplayName, m.Role, m.JoinedAt)
	if err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrAlreadyExists
	}
	return nil
}

func (s *Postgres) Find(ctx context.Context, auctionID id.AuctionID, userID id.UserID) (*models.Membership, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT `+membershipColumns+` FROM memberships WHERE auction_id = $1 AND user_id = $2
	`, auctionID, userID)
	return scanMembership(row)
}

func (s *Postgres) ListByAuction(ctx context.Context, auctionID id.AuctionID) ([]*models.Membership, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT `+membershipColumns+` FROM memberships WHERE auction_id = $1 ORDER BY joined_at
	`, auctionID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var out []*models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Postgres) UpdateRole(ctx context.Context, auctionID id.AuctionID, userID id.UserID, role models.Role) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE memberships SET role = $3 WHERE auction_id = $1 AND user_id = $2
	`, auctionID, userID, role)
	if err != nil {
		return fmt.Errorf("update membership role: %w", err)
	}
	return requireAffected(res)
}

func (s *Postgres) Remove(ctx context.Context, auctionID id.AuctionID, userID id.UserID) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		DELETE FROM memberships WHERE auction_id = $1 AND user_id = $2
	`, auctionID, userID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
