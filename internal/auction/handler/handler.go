package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bidhall/internal/auction/models"
	"bidhall/internal/auction/service"
	id "bidhall/pkg/domain"
	dErrors "bidhall/pkg/domain-errors"
	"bidhall/pkg/platform/httputil"
	"bidhall/pkg/requestcontext"
)

// Service defines the interface for auction and membership operations.
type Service interface {
	CreateAuction(ctx context.Context, req service.CreateRequest) (*models.Auction, error)
	GetAuction(ctx context.Context, auctionID id.AuctionID) (*models.Auction, error)
	UpdateAuction(ctx context.Context, req service.UpdateRequest) (*models.Auction, error)
	Join(ctx context.Context, auctionID id.AuctionID, userID id.UserID, email, displayName string) (*models.Membership, error)
	Invite(ctx context.Context, req service.InviteRequest) (*models.Membership, error)
	ChangeRole(ctx context.Context, auctionID id.AuctionID, actorID, targetID id.UserID, role models.Role) error
	RemoveMember(ctx context.Context, auctionID id.AuctionID, actorID, targetID id.UserID) error
	ListMembers(ctx context.Context, viewerID id.UserID, auctionID id.AuctionID) ([]*models.Membership, error)
	CloseAuction(ctx context.Context, actorID id.UserID, auctionID id.AuctionID) (*service.CloseResult, error)
}

// Handler wires auction endpoints to the auction service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an auction handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts auction endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auctions", h.HandleCreate)
	r.Get("/auctions/{auctionID}", h.HandleGet)
	r.Patch("/auctions/{auctionID}", h.HandleUpdate)
	r.Post("/auctions/{auctionID}/join", h.HandleJoin)
	r.Post("/auctions/{auctionID}/invites", h.HandleInvite)
	r.Get("/auctions/{auctionID}/members", h.HandleListMembers)
	r.Patch("/auctions/{auctionID}/members/{userID}", h.HandleChangeRole)
	r.Delete("/auctions/{auctionID}/members/{userID}", h.HandleRemoveMember)
	r.Post("/auctions/{auctionID}/close", h.HandleClose)
}

// HandleCreate handles POST /auctions requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateAuctionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	auction, err := h.service.CreateAuction(ctx, service.CreateRequest{
		OwnerID:          userID,
		OwnerEmail:       requestcontext.UserEmail(ctx),
		OwnerDisplayName: requestcontext.UserDisplayName(ctx),
		Name:             req.Name,
		JoinPolicy:       req.ParsedJoinPolicy(),
		BidderVisibility: req.ParsedBidderVisibility(),
		ItemEndMode:      req.ParsedItemEndMode(),
		MemberCanInvite:  req.MemberCanInvite,
		EndsAt:           req.EndsAt,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "auction create failed",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromAuction(auction))
}

// HandleGet handles GET /auctions/{auctionID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := h.requireUser(w, ctx); !ok {
		return
	}
	auctionID, err := id.ParseAuctionID(chi.URLParam(r, "auctionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	auction, err := h.service.GetAuction(ctx, auctionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromAuction(auction))
}

// HandleUpdate handles PATCH /auctions/{auctionID} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}
	auctionID, err := id.ParseAuctionID(chi.URLParam(r, "auctionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateAuctionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	auction, err := h.service.UpdateAuction(ctx, service.UpdateRequest{
		AuctionID:        auctionID,
		ActorID:          userID,
		Name:             req.Name,
		JoinPolicy:       req.ParsedJoinPolicy(),
		BidderVisibility: req.ParsedBidderVisibility(),
		ItemEndMode:      req.ParsedItemEndMode(),
		MemberCanInvite:  req.MemberCanInvite,
		EndsAt:           req.EndsAt,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "auction update failed",
			"request_id", requestID,
			"auction_id", auctionID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromAuction(auction))
}

// HandleJoin handles POST /auctions/{auctionID}/join requests.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}
	auctionID, err := id.ParseAuctionID(chi.URLParam(r, "auctionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	member, err := h.service.Join(ctx, auctionID, userID, requestcontext.UserEmail(ctx), requestcontext.UserDisplayName(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "auction join failed",
			"auction_id", auctionID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromMembership(member))
}

// HandleInvite handles POST /auctions/{auctionID}/invites requests.
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}
	auctionID, err := id.ParseAuctionID(chi.URLParam(r, "auctionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[InviteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	member, err := h.service.Invite(ctx, service.InviteRequest{
		AuctionID:   auctionID,
		ActorID:     userID,
		UserID:      req.ParsedUserID(),
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Role:        req.ParsedRole(),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "auction invite failed",
			"request_id", requestID,
			"auction_id", auctionID,
			"actor_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromMembership(member))
}

// HandleListMembers handles GET /auctions/{auctionID}/members requests.
func (h *Handler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}
	auctionID, err := id.ParseAuctionID(chi.URLParam(r, "auctionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	members, err := h.service.ListMembers(ctx, userID, auctionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := ListMembersResponse{Members: make([]MemberResponse, 0, len(members))}
	for _, m := range members {
		resp.Members = append(resp.Members, FromMembership(m))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleChangeRole handles PATCH /auctions/{auctionID}/members/{userID} requests.
func (h *Handler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}
	auctionID, targetID, ok := h.parseMemberPath(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ChangeRoleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.ChangeRole(ctx, auctionID, userID, targetID, req.ParsedRole()); err != nil {
		h.logger.WarnContext(ctx, "role change failed",
			"request_id", requestID,
			"auction_id", auctionID,
			"actor_id", userID,
			"target_id", targetID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleRemoveMember handles DELETE /auctions/{auctionID}/members/{userID} requests.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}
	auctionID, targetID, ok := h.parseMemberPath(w, r)
	if !ok {
		return
	}

	if err := h.service.RemoveMember(ctx, auctionID, userID, targetID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleClose handles POST /auctions/{auctionID}/close requests.
func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}
	auctionID, err := id.ParseAuctionID(chi.URLParam(r, "auctionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.CloseAuction(ctx, userID, auctionID)
	if err != nil {
		h.logger.WarnContext(ctx, "auction close failed",
			"request_id", requestID,
			"auction_id", auctionID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "auction closed",
		"request_id", requestID,
		"auction_id", auctionID,
		"already_closed", result.AlreadyClosed,
		"winners", len(result.Winners),
	)
	httputil.WriteJSON(w, http.StatusOK, FromCloseResult(result))
}

func (h *Handler) requireUser(w http.ResponseWriter, ctx context.Context) (id.UserID, bool) {
	userID := requestcontext.UserID(ctx)
	if userID == (id.UserID{}) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.UserID{}, false
	}
	return userID, true
}

func (h *Handler) parseMemberPath(w http.ResponseWriter, r *http.Request) (id.AuctionID, id.UserID, bool) {
	auctionID, err := id.ParseAuctionID(chi.URLParam(r, "auctionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.AuctionID{}, id.UserID{}, false
	}
	targetID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.AuctionID{}, id.UserID{}, false
	}
	return auctionID, targetID, true
}
