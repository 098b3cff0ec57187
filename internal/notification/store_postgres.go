package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "bidhall/pkg/domain"
	"bidhall/pkg/platform/sentinel"
	txcontext "bidhall/pkg/platform/tx"
)

// PostgresStore implements Store on database/sql (pgx stdlib driver).
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const columns = `id, user_id, kind, title, body, auction_id, item_id, read, created_at`

func scan(row interface{ Scan(...any) error }) (*Notification, error) {
	var n Notification
	var auctionID, itemID sql.NullString
	err := row.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &auctionID, &itemID, &n.Read, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	if auctionID.Valid {
		aid, err := id.ParseAuctionID(auctionID.String)
		if err != nil {
			return nil, fmt.Errorf("scan notification auction: %w", err)
		}
		n.AuctionID = &aid
	}
	if itemID.Valid {
		iid, err := id.ParseItemID(itemID.String)
		if err != nil {
			return nil, fmt.Errorf("scan notification item: %w", err)
		}
		n.ItemID = &iid
	}
	return &n, nil
}

func (s *PostgresStore) Create(ctx context.Context, n *Notification) error {
	var auctionID, itemID sql.NullString
	if n.AuctionID != nil {
		auctionID = sql.NullString{String: n.AuctionID.String(), Valid: true}
	}
	if n.ItemID != nil {
		itemID = sql.NullString{String: n.ItemID.String(), Valid: true}
	}
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO notifications (`+columns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, n.ID, n.UserID, n.Kind, n.Title, n.Body, auctionID, itemID, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, notificationID id.NotificationID) (*Notification, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+columns+` FROM notifications WHERE id = $1`, notificationID)
	return scan(row)
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*Notification, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT `+columns+` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		n, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountUnread(ctx context.Context, userID id.UserID) (int, error) {
	var count int
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) MarkRead(ctx context.Context, notificationID id.NotificationID) error {
	res, err := s.q(ctx).ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, notificationID)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return requireAffected(res)
}

func (s *PostgresStore) Delete(ctx context.Context, notificationID id.NotificationID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, notificationID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
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
