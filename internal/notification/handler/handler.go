package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bidhall/internal/notification"
	id "bidhall/pkg/domain"
	dErrors "bidhall/pkg/domain-errors"
	"bidhall/pkg/platform/httputil"
	"bidhall/pkg/requestcontext"
)

// Service defines the interface for notification operations.
type Service interface {
	List(ctx context.Context, userID id.UserID) ([]*notification.Notification, error)
	UnreadCount(ctx context.Context, userID id.UserID) (int, error)
	MarkRead(ctx context.Context, userID id.UserID, notificationID id.NotificationID) error
	Delete(ctx context.Context, userID id.UserID, notificationID id.NotificationID) error
}

// Handler wires notification endpoints to the notification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a notification handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts notification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.HandleList)
	r.Get("/notifications/unread-count", h.HandleUnreadCount)
	r.Post("/notifications/{notificationID}/read", h.HandleMarkRead)
	r.Delete("/notifications/{notificationID}", h.HandleDelete)
}

// HandleList handles GET /notifications requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}

	list, err := h.service.List(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "notification list failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, listResponse{Notifications: fromNotifications(list)})
}

// HandleUnreadCount handles GET /notifications/unread-count requests.
func (h *Handler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}

	count, err := h.service.UnreadCount(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "notification unread count failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, unreadCountResponse{Unread: count})
}

// HandleMarkRead handles POST /notifications/{notificationID}/read requests.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}

	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.MarkRead(ctx, userID, notificationID); err != nil {
		h.logger.ErrorContext(ctx, "notification mark read failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"notification_id", notificationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete handles DELETE /notifications/{notificationID} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}

	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(ctx, userID, notificationID); err != nil {
		h.logger.ErrorContext(ctx, "notification delete failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"notification_id", notificationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requireUser(w http.ResponseWriter, ctx context.Context) (id.UserID, bool) {
	userID := requestcontext.UserID(ctx)
	if userID == (id.UserID{}) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.UserID{}, false
	}
	return userID, true
}

type listResponse struct {
	Notifications []notificationResponse `json:"notifications"`
}

type unreadCountResponse struct {
	Unread int `json:"unread"`
}

type notificationResponse struct {
	ID        id.NotificationID `json:"id"`
	Kind      string            `json:"kind"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	AuctionID *id.AuctionID     `json:"auction_id,omitempty"`
	ItemID    *id.ItemID        `json:"item_id,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}

func fromNotifications(list []*notification.Notification) []notificationResponse {
	out := make([]notificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, notificationResponse{
			ID:        n.ID,
			Kind:      string(n.Kind),
			Title:     n.Title,
			Body:      n.Body,
			AuctionID: n.AuctionID,
			ItemID:    n.ItemID,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}
