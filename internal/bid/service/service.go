package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	auctionmodels "bidhall/internal/auction/models"
	auctionstore "bidhall/internal/auction/store"
	"bidhall/internal/auction/authz"
	"bidhall/internal/bid/metrics"
	"bidhall/internal/bid/models"
	"bidhall/internal/bid/store"
	"bidhall/internal/events"
	itemmodels "bidhall/internal/item/models"
	itemstore "bidhall/internal/item/store"
	"bidhall/internal/notification"
	id "bidhall/pkg/domain"
	dErrors "bidhall/pkg/domain-errors"
	"bidhall/pkg/platform/sentinel"
	"bidhall/pkg/requestcontext"
)

// Notifier creates in-app notifications with email fan-out.
type Notifier interface {
	Notify(ctx context.Context, req notification.Request) (*notification.Notification, error)
}

// Service implements bid placement and listing. Placement serializes through
// the store's commit lock; everything checked there is rechecked against the
// live item state, so a bid accepted a moment earlier raises the bar for the
// one behind it.
type Service struct {
	auctions    auctionstore.Store
	memberships auctionstore.MembershipStore
	items       itemstore.Store
	bids        store.Store
	notifier    Notifier
	bus         *events.Bus
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(auctions auctionstore.Store, memberships auctionstore.MembershipStore, items itemstore.Store, bids store.Store, notifier Notifier, bus *events.Bus, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		auctions:    auctions,
		memberships: memberships,
		items:       items,
		bids:        bids,
		notifier:    notifier,
		bus:         bus,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceRequest describes one bid attempt. Anonymous is the bidder's request
// and only matters when the auction's visibility policy is PER_BID; nil
// falls back to the item's default.
type PlaceRequest struct {
	AuctionID id.AuctionID
	ItemID    id.ItemID
	BidderID  id.UserID
	Amount    decimal.Decimal
	Anonymous *bool
}

// PlaceBid validates and commits a bid. Precondition failures are reported
// in a fixed order: unknown item, creator self-bid, non-member, ended item,
// then amount too low (which carries the current minimum in details).
func (s *Service) PlaceBid(ctx context.Context, req PlaceRequest) (*models.Bid, error) {
	start := time.Now()
	now := requestcontext.Now(ctx)

	item, err := s.loadItem(ctx, req.AuctionID, req.ItemID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.metrics.IncrementRejected("not_found")
		}
		return nil, err
	}
	auction, err := s.auctions.FindByID(ctx, item.AuctionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load auction")
	}
	member, err := s.findMembership(ctx, item.AuctionID, req.BidderID)
	if err != nil {
		return nil, err
	}

	if req.BidderID == item.CreatorID {
		s.metrics.IncrementRejected("forbidden")
		return nil, dErrors.New(dErrors.CodeForbidden, "item creators cannot bid on their own items")
	}
	if member == nil {
		s.metrics.IncrementRejected("forbidden")
		return nil, dErrors.New(dErrors.CodeForbidden, "auction membership required to bid")
	}

	anonymous := resolveAnonymity(auction.BidderVisibility, req.Anonymous, item.AnonymousDefault)

	var previousBidder *id.UserID
	bid, err := s.bids.CommitBid(ctx, req.ItemID, func(live *itemmodels.Item) (*models.Bid, error) {
		if !authz.CanBid(auction, member, live, now) {
			return nil, dErrors.New(dErrors.CodeConflict, "bidding on this item has ended")
		}
		min := live.MinBid()
		if req.Amount.LessThan(min) {
			return nil, dErrors.Newf(dErrors.CodeValidation, "bid must be at least %s", min.String()).
				WithDetails(map[string]any{"min_bid": min.String(), "currency": live.Currency})
		}
		if live.CurrentBidderID != nil {
			prev := *live.CurrentBidderID
			previousBidder = &prev
		}
		return &models.Bid{
			ID:        id.NewBidID(),
			ItemID:    live.ID,
			BidderID:  req.BidderID,
			Amount:    req.Amount,
			Anonymous: anonymous,
			CreatedAt: now,
		}, nil
	})
	if err != nil {
		s.recordRejection(err)
		return nil, err
	}

	s.metrics.IncrementAccepted()
	s.metrics.ObservePlaceLatency(time.Since(start))

	s.bus.Emit(ctx, events.BidPlaced, events.BidPlacedEvent{
		AuctionID:        item.AuctionID,
		ItemID:           item.ID,
		ItemName:         item.Name,
		BidID:            bid.ID,
		BidderID:         bid.BidderID,
		PreviousBidderID: previousBidder,
		Amount:           bid.Amount,
		Currency:         item.Currency,
		PlacedAt:         bid.CreatedAt,
	})

	if previousBidder != nil && *previousBidder != bid.BidderID {
		s.notifyOutbid(ctx, auction, item, *previousBidder, bid.Amount)
	}

	s.logger.InfoContext(ctx, "bid accepted",
		"bid_id", bid.ID,
		"item_id", item.ID,
		"auction_id", item.AuctionID,
		"amount", bid.Amount.String(),
	)
	return bid, nil
}

// BidView is a listing entry with identity fields already redacted for the
// viewer. BidderID and BidderName are empty on redacted entries.
type BidView struct {
	ID         id.BidID        `json:"id"`
	ItemID     id.ItemID       `json:"item_id"`
	Amount     decimal.Decimal `json:"amount"`
	Anonymous  bool            `json:"anonymous"`
	BidderID   *id.UserID      `json:"bidder_id,omitempty"`
	BidderName string          `json:"bidder_name,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ListBids returns the item's bids, highest first, with bidder identities
// redacted per the auction's visibility policy. The item's creator and
// auction staff always see identities; a bidder always sees their own.
func (s *Service) ListBids(ctx context.Context, viewerID id.UserID, auctionID id.AuctionID, itemID id.ItemID) ([]BidView, error) {
	item, err := s.loadItem(ctx, auctionID, itemID)
	if err != nil {
		return nil, err
	}
	viewer, err := s.findMembership(ctx, item.AuctionID, viewerID)
	if err != nil {
		return nil, err
	}
	if viewer == nil {
		return nil, dErrors.New(dErrors.CodeForbidden, "auction membership required")
	}

	bids, err := s.bids.ListByItem(ctx, itemID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list bids")
	}

	privileged := viewerID == item.CreatorID || viewer.Role.IsStaff()
	members, err := s.memberships.ListByAuction(ctx, item.AuctionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list members")
	}
	names := make(map[id.UserID]string, len(members))
	for _, m := range members {
		names[m.UserID] = m.DisplayName
	}

	out := make([]BidView, 0, len(bids))
	for _, b := range bids {
		view := BidView{
			ID:        b.ID,
			ItemID:    b.ItemID,
			Amount:    b.Amount,
			Anonymous: b.Anonymous,
			CreatedAt: b.CreatedAt,
		}
		if !b.Anonymous || privileged || b.BidderID == viewerID {
			bidderID := b.BidderID
			view.BidderID = &bidderID
			view.BidderName = names[b.BidderID]
		}
		out = append(out, view)
	}
	return out, nil
}

// WinningBid returns the item's current highest bid, redacted for the viewer
// like ListBids entries. Returns a NotFound error when no bids exist.
func (s *Service) WinningBid(ctx context.Context, viewerID id.UserID, auctionID id.AuctionID, itemID id.ItemID) (*BidView, error) {
	views, err := s.ListBids(ctx, viewerID, auctionID, itemID)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "item has no bids")
	}
	return &views[0], nil
}

// loadItem resolves the item and verifies it belongs to the addressed
// auction; a mismatch reads as not found rather than leaking existence.
func (s *Service) loadItem(ctx context.Context, auctionID id.AuctionID, itemID id.ItemID) (*itemmodels.Item, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "item not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load item")
	}
	if item.AuctionID != auctionID {
		return nil, dErrors.New(dErrors.CodeNotFound, "item not found")
	}
	return item, nil
}

func (s *Service) findMembership(ctx context.Context, auctionID id.AuctionID, userID id.UserID) (*auctionmodels.Membership, error) {
	m, err := s.memberships.Find(ctx, auctionID, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load membership")
	}
	return m, nil
}

func (s *Service) notifyOutbid(ctx context.Context, auction *auctionmodels.Auction, item *itemmodels.Item, previousBidder id.UserID, amount decimal.Decimal) {
	prev, err := s.findMembership(ctx, item.AuctionID, previousBidder)
	if err != nil || prev == nil {
		// Previous bidder may have left the auction; nothing to deliver.
		return
	}
	auctionID := auction.ID
	itemID := item.ID
	if _, err := s.notifier.Notify(ctx, notification.Request{
		Kind:           notification.KindOutbid,
		RecipientID:    previousBidder,
		RecipientEmail: prev.Email,
		Title:          "You've been outbid",
		Body:           fmt.Sprintf("Someone outbid you on %q with %s %s.", item.Name, amount.String(), item.Currency),
		AuctionID:      &auctionID,
		ItemID:         &itemID,
		TemplateData: map[string]string{
			"item_name": item.Name,
			"amount":    amount.String(),
			"currency":  item.Currency,
		},
	}); err != nil {
		s.logger.ErrorContext(ctx, "outbid notification failed",
			"item_id", item.ID,
			"recipient", previousBidder,
			"error", err,
		)
	}
}

func (s *Service) recordRejection(err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeConflict:
		s.metrics.IncrementRejected("ended")
	case dErrors.CodeValidation:
		s.metrics.IncrementRejected("amount_too_low")
	case dErrors.CodeNotFound:
		s.metrics.IncrementRejected("not_found")
	}
}

func resolveAnonymity(policy auctionmodels.BidderVisibility, requested *bool, itemDefault bool) bool {
	switch policy {
	case auctionmodels.VisibilityAnonymous:
		return true
	case auctionmodels.VisibilityPerBid:
		if requested != nil {
			return *requested
		}
		return itemDefault
	default:
		return false
	}
}
