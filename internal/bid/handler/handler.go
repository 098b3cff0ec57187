package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bidhall/internal/bid/models"
	"bidhall/internal/bid/service"
	id "bidhall/pkg/domain"
	dErrors "bidhall/pkg/domain-errors"
	"bidhall/pkg/platform/httputil"
	"bidhall/pkg/requestcontext"
)

// Service defines the interface for bid operations.
type Service interface {
	PlaceBid(ctx context.Context, req service.PlaceRequest) (*models.Bid, error)
	ListBids(ctx context.Context, viewerID id.UserID, auctionID id.AuctionID, itemID id.ItemID) ([]service.BidView, error)
	WinningBid(ctx context.Context, viewerID id.UserID, auctionID id.AuctionID, itemID id.ItemID) (*service.BidView, error)
}

// Handler wires bid endpoints to the bid service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a bid handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts bid endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auctions/{auctionID}/items/{itemID}/bids", h.HandlePlaceBid)
	r.Get("/auctions/{auctionID}/items/{itemID}/bids", h.HandleListBids)
	r.Get("/auctions/{auctionID}/items/{itemID}/bids/winning", h.HandleWinningBid)
}

// HandlePlaceBid handles POST /auctions/{auctionID}/items/{itemID}/bids requests.
func (h *Handler) HandlePlaceBid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, auctionID, itemID, ok := h.requireScope(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[PlaceBidRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	bid, err := h.service.PlaceBid(ctx, service.PlaceRequest{
		AuctionID: auctionID,
		ItemID:    itemID,
		BidderID:  userID,
		Amount:    req.ParsedAmount(),
		Anonymous: req.Anonymous,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "bid rejected",
			"request_id", requestID,
			"item_id", itemID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromBid(bid))
}

// HandleListBids handles GET /auctions/{auctionID}/items/{itemID}/bids requests.
func (h *Handler) HandleListBids(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, auctionID, itemID, ok := h.requireScope(w, r)
	if !ok {
		return
	}

	views, err := h.service.ListBids(ctx, userID, auctionID, itemID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := ListBidsResponse{Bids: make([]BidResponse, 0, len(views))}
	for _, v := range views {
		resp.Bids = append(resp.Bids, FromView(v))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleWinningBid handles GET /auctions/{auctionID}/items/{itemID}/bids/winning requests.
func (h *Handler) HandleWinningBid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, auctionID, itemID, ok := h.requireScope(w, r)
	if !ok {
		return
	}

	view, err := h.service.WinningBid(ctx, userID, auctionID, itemID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromView(*view))
}

// requireScope extracts the authenticated user and the auction/item path
// parameters, writing the error envelope when any is missing or malformed.
func (h *Handler) requireScope(w http.ResponseWriter, r *http.Request) (id.UserID, id.AuctionID, id.ItemID, bool) {
	userID := requestcontext.UserID(r.Context())
	if userID == (id.UserID{}) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.UserID{}, id.AuctionID{}, id.ItemID{}, false
	}
	auctionID, err := id.ParseAuctionID(chi.URLParam(r, "auctionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.UserID{}, id.AuctionID{}, id.ItemID{}, false
	}
	itemID, err := id.ParseItemID(chi.URLParam(r, "itemID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.UserID{}, id.AuctionID{}, id.ItemID{}, false
	}
	return userID, auctionID, itemID, true
}
