package notification

import (
	"context"

	id "bidhall/pkg/domain"
)

// Store persists notifications. Implementations return sentinel errors.
type Store interface {
	Create(ctx context.Context, n *Notification) error
	FindByID(ctx context.Context, notificationID id.NotificationID) (*Notification, error)
	// ListByUser returns the user's notifications newest first.
	ListByUser(ctx context.Context, userID id.UserID) ([]*Notification, error)
	CountUnread(ctx context.Context, userID id.UserID) (int, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID) error
	Delete(ctx context.Context, notificationID id.NotificationID) error
}
