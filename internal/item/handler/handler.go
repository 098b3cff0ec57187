package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bidhall/internal/item/models"
	"bidhall/internal/item/service"
	id "bidhall/pkg/domain"
	dErrors "bidhall/pkg/domain-errors"
	"bidhall/pkg/platform/httputil"
	"bidhall/pkg/requestcontext"
)

// Service defines the interface for item operations.
type Service interface {
	CreateItem(ctx context.Context, req service.CreateRequest) (*models.Item, error)
	GetItem(ctx context.Context, viewerID id.UserID, auctionID id.AuctionID, itemID id.ItemID) (*models.Item, error)
	ListItems(ctx context.Context, viewerID id.UserID, auctionID id.AuctionID) ([]*models.Item, error)
	UpdateItem(ctx context.Context, req service.UpdateRequest) (*models.Item, error)
	DeleteItem(ctx context.Context, actorID id.UserID, auctionID id.AuctionID, itemID id.ItemID) error
}

// Handler wires item endpoints to the item service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an item handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts item endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auctions/{auctionID}/items", h.HandleCreate)
	r.Get("/auctions/{auctionID}/items", h.HandleList)
	r.Get("/auctions/{auctionID}/items/{itemID}", h.HandleGet)
	r.Patch("/auctions/{auctionID}/items/{itemID}", h.HandleUpdate)
	r.Delete("/auctions/{auctionID}/items/{itemID}", h.HandleDelete)
}

// HandleCreate handles POST /auctions/{auctionID}/items requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, auctionID, ok := h.requireAuction(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateItemRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	item, err := h.service.CreateItem(ctx, service.CreateRequest{
		AuctionID:         auctionID,
		CreatorID:         userID,
		Name:              req.Name,
		Description:       req.Description,
		StartingBid:       req.ParsedStartingBid(),
		MinIncrement:      req.ParsedMinIncrement(),
		Currency:          req.Currency,
		EndsAt:            req.EndsAt,
		EditableByAdmins:  req.EditableByAdmins,
		DiscussionEnabled: req.DiscussionEnabled,
		AnonymousDefault:  req.AnonymousDefault,
		ImageURL:          req.ImageURL,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "item create failed",
			"request_id", requestID,
			"auction_id", auctionID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromItem(item))
}

// HandleGet handles GET /auctions/{auctionID}/items/{itemID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, auctionID, ok := h.requireAuction(w, r)
	if !ok {
		return
	}
	itemID, err := id.ParseItemID(chi.URLParam(r, "itemID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	item, err := h.service.GetItem(ctx, userID, auctionID, itemID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromItem(item))
}

// HandleList handles GET /auctions/{auctionID}/items requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, auctionID, ok := h.requireAuction(w, r)
	if !ok {
		return
	}

	items, err := h.service.ListItems(ctx, userID, auctionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := ListItemsResponse{Items: make([]ItemResponse, 0, len(items))}
	for _, it := range items {
		resp.Items = append(resp.Items, FromItem(it))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleUpdate handles PATCH /auctions/{auctionID}/items/{itemID} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, auctionID, ok := h.requireAuction(w, r)
	if !ok {
		return
	}
	itemID, err := id.ParseItemID(chi.URLParam(r, "itemID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateItemRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	item, err := h.service.UpdateItem(ctx, service.UpdateRequest{
		AuctionID:         auctionID,
		ItemID:            itemID,
		ActorID:           userID,
		Name:              req.Name,
		Description:       req.Description,
		StartingBid:       req.ParsedStartingBid(),
		MinIncrement:      req.ParsedMinIncrement(),
		Currency:          req.Currency,
		EndsAt:            req.EndsAt,
		EditableByAdmins:  req.EditableByAdmins,
		DiscussionEnabled: req.DiscussionEnabled,
		AnonymousDefault:  req.AnonymousDefault,
		ImageURL:          req.ImageURL,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "item update failed",
			"request_id", requestID,
			"item_id", itemID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromItem(item))
}

// HandleDelete handles DELETE /auctions/{auctionID}/items/{itemID} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, auctionID, ok := h.requireAuction(w, r)
	if !ok {
		return
	}
	itemID, err := id.ParseItemID(chi.URLParam(r, "itemID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.DeleteItem(ctx, userID, auctionID, itemID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requireAuction(w http.ResponseWriter, r *http.Request) (id.UserID, id.AuctionID, bool) {
	userID := requestcontext.UserID(r.Context())
	if userID == (id.UserID{}) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.UserID{}, id.AuctionID{}, false
	}
	auctionID, err := id.ParseAuctionID(chi.URLParam(r, "auctionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.UserID{}, id.AuctionID{}, false
	}
	return userID, auctionID, true
}
