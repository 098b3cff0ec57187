package notification

import (
	"context"
	"errors"
	"log/slog"

	"bidhall/internal/events"
	id "bidhall/pkg/domain"
	dErrors "bidhall/pkg/domain-errors"
	"bidhall/pkg/platform/sentinel"
	"bidhall/pkg/requestcontext"
)

// Service creates durable in-app notifications and forwards them to the
// event bus for asynchronous email processing. Each Notify call creates one
// record; callers invoke it at most once per logical state transition.
type Service struct {
	store   Store
	bus     *events.Bus
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Service)

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store Store, bus *events.Bus, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, bus: bus, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request describes one notification to fan out. RecipientEmail and
// TemplateData feed the email path only; they are not persisted on the
// in-app record.
type Request struct {
	Kind           Kind
	RecipientID    id.UserID
	RecipientEmail string
	Title          string
	Body           string
	AuctionID      *id.AuctionID
	ItemID         *id.ItemID
	TemplateData   map[string]string
}

// Notify creates the in-app record, then emits notification.created on the
// bus. The emit is fire-and-forget: email path failures are logged by their
// subscribers and never reach the triggering request.
func (s *Service) Notify(ctx context.Context, req Request) (*Notification, error) {
	n := &Notification{
		ID:        id.NewNotificationID(),
		UserID:    req.RecipientID,
		Kind:      req.Kind,
		Title:     req.Title,
		Body:      req.Body,
		AuctionID: req.AuctionID,
		ItemID:    req.ItemID,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create notification")
	}
	s.metrics.IncrementCreated(req.Kind)

	s.bus.Emit(ctx, events.NotificationCreated, events.NotificationCreatedEvent{
		NotificationID: n.ID,
		Kind:           string(n.Kind),
		RecipientID:    n.UserID,
		RecipientEmail: req.RecipientEmail,
		TemplateData:   req.TemplateData,
	})
	return n, nil
}

// List returns the caller's notifications, newest first.
func (s *Service) List(ctx context.Context, userID id.UserID) ([]*Notification, error) {
	out, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	return out, nil
}

// UnreadCount returns the caller's unread notification count.
func (s *Service) UnreadCount(ctx context.Context, userID id.UserID) (int, error) {
	count, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count notifications")
	}
	return count, nil
}

// MarkRead marks the notification read. Only the owning user may do so.
func (s *Service) MarkRead(ctx context.Context, userID id.UserID, notificationID id.NotificationID) error {
	if err := s.requireOwner(ctx, userID, notificationID); err != nil {
		return err
	}
	if err := s.store.MarkRead(ctx, notificationID); err != nil {
		return s.wrapStoreErr(err)
	}
	return nil
}

// Delete removes the notification. Only the owning user may do so.
func (s *Service) Delete(ctx context.Context, userID id.UserID, notificationID id.NotificationID) error {
	if err := s.requireOwner(ctx, userID, notificationID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, notificationID); err != nil {
		return s.wrapStoreErr(err)
	}
	return nil
}

func (s *Service) requireOwner(ctx context.Context, userID id.UserID, notificationID id.NotificationID) error {
	n, err := s.store.FindByID(ctx, notificationID)
	if err != nil {
		return s.wrapStoreErr(err)
	}
	if n.UserID != userID {
		// Do not reveal other users' notification IDs.
		return dErrors.New(dErrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *Service) wrapStoreErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "notification not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "notification store failure")
}
