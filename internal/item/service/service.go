package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"bidhall/internal/auction/authz"
	auctionmodels "bidhall/internal/auction/models"
	auctionstore "bidhall/internal/auction/store"
	"bidhall/internal/currency"
	"bidhall/internal/events"
	"bidhall/internal/item/models"
	"bidhall/internal/item/store"
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

// Service implements item lifecycle operations. Edits that depend on bid
// state run inside the store's Execute lock so a concurrent bid cannot slip
// between the check and the write.
type Service struct {
	auctions    auctionstore.Store
	memberships auctionstore.MembershipStore
	items       store.Store
	notifier    Notifier
	bus         *events.Bus
	logger      *slog.Logger
}

func NewService(auctions auctionstore.Store, memberships auctionstore.MembershipStore, items store.Store, notifier Notifier, bus *events.Bus, logger *slog.Logger) *Service {
	return &Service{
		auctions:    auctions,
		memberships: memberships,
		items:       items,
		notifier:    notifier,
		bus:         bus,
		logger:      logger,
	}
}

// CreateRequest describes a new item listing.
type CreateRequest struct {
	AuctionID         id.AuctionID
	CreatorID         id.UserID
	Name              string
	Description       string
	StartingBid       decimal.Decimal
	MinIncrement      decimal.Decimal
	Currency          string
	EndsAt            *time.Time
	EditableByAdmins  bool
	DiscussionEnabled bool
	AnonymousDefault  bool
	ImageURL          string
}

// CreateItem lists a new item in the auction and fans out a NEW_ITEM
// notification to every existing member except the creator.
func (s *Service) CreateItem(ctx context.Context, req CreateRequest) (*models.Item, error) {
	now := requestcontext.Now(ctx)

	auction, err := s.loadAuction(ctx, req.AuctionID)
	if err != nil {
		return nil, err
	}
	member, err := s.findMembership(ctx, req.AuctionID, req.CreatorID)
	if err != nil {
		return nil, err
	}
	if !authz.CanCreateItem(member) {
		return nil, dErrors.New(dErrors.CodeForbidden, "listing items requires the creator role or above")
	}
	if auction.IsEnded(now) {
		return nil, dErrors.New(dErrors.CodeConflict, "auction has ended")
	}
	if req.EndsAt != nil {
		if auction.ItemEndMode != auctionmodels.EndModeCustom {
			return nil, dErrors.New(dErrors.CodeValidation, "per-item end times require the CUSTOM item end mode")
		}
		if auction.EndsAt != nil && req.EndsAt.After(*auction.EndsAt) {
			return nil, dErrors.New(dErrors.CodeValidation, "item end cannot exceed the auction end")
		}
		if !req.EndsAt.After(now) {
			return nil, dErrors.New(dErrors.CodeValidation, "item end must be in the future")
		}
	}

	item, err := models.NewItem(id.NewItemID(), req.AuctionID, req.CreatorID, req.Name, req.Description, req.StartingBid, req.MinIncrement, req.Currency, req.EndsAt, now)
	if err != nil {
		return nil, err
	}
	item.EditableByAdmins = req.EditableByAdmins
	item.DiscussionEnabled = req.DiscussionEnabled
	item.AnonymousDefault = req.AnonymousDefault
	item.ImageURL = req.ImageURL

	if err := s.items.Create(ctx, item); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create item")
	}

	s.bus.Emit(ctx, events.ItemCreated, events.ItemCreatedEvent{
		AuctionID: item.AuctionID,
		ItemID:    item.ID,
		ItemName:  item.Name,
		CreatorID: item.CreatorID,
		CreatedAt: item.CreatedAt,
	})
	s.fanOutNewItem(ctx, auction, item)

	s.logger.InfoContext(ctx, "item created",
		"item_id", item.ID,
		"auction_id", item.AuctionID,
		"creator_id", item.CreatorID,
	)
	return item, nil
}

// GetItem returns one item. Membership is required to view.
func (s *Service) GetItem(ctx context.Context, viewerID id.UserID, auctionID id.AuctionID, itemID id.ItemID) (*models.Item, error) {
	if err := s.requireMember(ctx, auctionID, viewerID); err != nil {
		return nil, err
	}
	return s.loadItem(ctx, auctionID, itemID)
}

// ListItems returns all items in the auction. Membership is required to view.
func (s *Service) ListItems(ctx context.Context, viewerID id.UserID, auctionID id.AuctionID) ([]*models.Item, error) {
	if err := s.requireMember(ctx, auctionID, viewerID); err != nil {
		return nil, err
	}
	items, err := s.items.ListByAuction(ctx, auctionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list items")
	}
	return items, nil
}

// UpdateRequest carries partial item edits; nil fields are unchanged.
type UpdateRequest struct {
	AuctionID id.AuctionID
	ItemID    id.ItemID
	ActorID   id.UserID

	Name              *string
	Description       *string
	StartingBid       *decimal.Decimal
	MinIncrement      *decimal.Decimal
	Currency          *string
	EndsAt            *time.Time
	EditableByAdmins  *bool
	DiscussionEnabled *bool
	AnonymousDefault  *bool
	ImageURL          *string
}

// UpdateItem applies the edit under the store lock. Name, description,
// increment, flags, and image may change at any time; starting bid and
// currency only while the item has no bids; the end date only while the
// item is live, within the auction end, under the CUSTOM end mode.
func (s *Service) UpdateItem(ctx context.Context, req UpdateRequest) (*models.Item, error) {
	now := requestcontext.Now(ctx)

	auction, err := s.loadAuction(ctx, req.AuctionID)
	if err != nil {
		return nil, err
	}
	item, err := s.loadItem(ctx, req.AuctionID, req.ItemID)
	if err != nil {
		return nil, err
	}
	member, err := s.findMembership(ctx, req.AuctionID, req.ActorID)
	if err != nil {
		return nil, err
	}
	if !authz.CanEditItem(member, item) {
		return nil, dErrors.New(dErrors.CodeForbidden, "not allowed to edit this item")
	}

	updated, err := s.items.Execute(ctx, req.ItemID, func(live *models.Item) error {
		return applyUpdate(live, auction, req, now)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "item not found")
		}
		return nil, err
	}
	return updated, nil
}

func applyUpdate(live *models.Item, auction *auctionmodels.Auction, req UpdateRequest, now time.Time) error {
	if req.Name != nil {
		name := *req.Name
		if name == "" {
			return dErrors.New(dErrors.CodeValidation, "item name cannot be empty")
		}
		if len(name) > 200 {
			return dErrors.New(dErrors.CodeValidation, "item name must be 200 characters or less")
		}
		live.Name = name
	}
	if req.Description != nil {
		live.Description = *req.Description
	}
	if req.MinIncrement != nil {
		if !req.MinIncrement.IsPositive() {
			return dErrors.New(dErrors.CodeValidation, "minimum increment must be positive")
		}
		live.MinIncrement = *req.MinIncrement
	}
	if req.StartingBid != nil {
		if live.BidCount > 0 {
			return dErrors.New(dErrors.CodeConflict, "starting bid cannot change once bids exist")
		}
		if req.StartingBid.IsNegative() {
			return dErrors.New(dErrors.CodeValidation, "starting bid cannot be negative")
		}
		live.StartingBid = *req.StartingBid
	}
	if req.Currency != nil {
		if live.BidCount > 0 {
			return dErrors.New(dErrors.CodeConflict, "currency cannot change once bids exist")
		}
		if !currency.IsSupported(*req.Currency) {
			return dErrors.Newf(dErrors.CodeValidation, "unsupported currency %q", *req.Currency)
		}
		live.Currency = *req.Currency
	}
	if req.EndsAt != nil {
		if auction.ItemEndMode != auctionmodels.EndModeCustom {
			return dErrors.New(dErrors.CodeValidation, "per-item end times require the CUSTOM item end mode")
		}
		if live.IsEnded(auction, now) {
			return dErrors.New(dErrors.CodeConflict, "cannot extend an ended item")
		}
		if auction.EndsAt != nil && req.EndsAt.After(*auction.EndsAt) {
			return dErrors.New(dErrors.CodeValidation, "item end cannot exceed the auction end")
		}
		if !req.EndsAt.After(now) {
			return dErrors.New(dErrors.CodeValidation, "item end must be in the future")
		}
		live.EndsAt = req.EndsAt
	}
	if req.EditableByAdmins != nil {
		live.EditableByAdmins = *req.EditableByAdmins
	}
	if req.DiscussionEnabled != nil {
		live.DiscussionEnabled = *req.DiscussionEnabled
	}
	if req.AnonymousDefault != nil {
		live.AnonymousDefault = *req.AnonymousDefault
	}
	if req.ImageURL != nil {
		live.ImageURL = *req.ImageURL
	}
	live.UpdatedAt = now
	return nil
}

// DeleteItem removes the item. Items with bids cannot be deleted; the check
// and delete are atomic in the store.
func (s *Service) DeleteItem(ctx context.Context, actorID id.UserID, auctionID id.AuctionID, itemID id.ItemID) error {
	item, err := s.loadItem(ctx, auctionID, itemID)
	if err != nil {
		return err
	}
	member, err := s.findMembership(ctx, auctionID, actorID)
	if err != nil {
		return err
	}
	if !authz.CanEditItem(member, item) {
		return dErrors.New(dErrors.CodeForbidden, "not allowed to delete this item")
	}

	err = s.items.Remove(ctx, itemID, func(live *models.Item) error {
		if live.BidCount > 0 {
			return dErrors.New(dErrors.CodeConflict, "items with bids cannot be deleted")
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "item not found")
		}
		return err
	}

	s.logger.InfoContext(ctx, "item deleted", "item_id", itemID, "auction_id", auctionID)
	return nil
}

func (s *Service) fanOutNewItem(ctx context.Context, auction *auctionmodels.Auction, item *models.Item) {
	members, err := s.memberships.ListByAuction(ctx, item.AuctionID)
	if err != nil {
		s.logger.ErrorContext(ctx, "new item fan-out member list failed",
			"item_id", item.ID,
			"error", err,
		)
		return
	}
	auctionID := auction.ID
	itemID := item.ID
	for _, m := range members {
		if m.UserID == item.CreatorID {
			continue
		}
		if _, err := s.notifier.Notify(ctx, notification.Request{
			Kind:           notification.KindNewItem,
			RecipientID:    m.UserID,
			RecipientEmail: m.Email,
			Title:          "New item listed",
			Body:           fmt.Sprintf("%q was listed in %s.", item.Name, auction.Name),
			AuctionID:      &auctionID,
			ItemID:         &itemID,
			TemplateData: map[string]string{
				"item_name":    item.Name,
				"auction_name": auction.Name,
			},
		}); err != nil {
			s.logger.ErrorContext(ctx, "new item notification failed",
				"item_id", item.ID,
				"recipient", m.UserID,
				"error", err,
			)
		}
	}
}

func (s *Service) loadAuction(ctx context.Context, auctionID id.AuctionID) (*auctionmodels.Auction, error) {
	a, err := s.auctions.FindByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "auction not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load auction")
	}
	return a, nil
}

func (s *Service) loadItem(ctx context.Context, auctionID id.AuctionID, itemID id.ItemID) (*models.Item, error) {
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

func (s *Service) requireMember(ctx context.Context, auctionID id.AuctionID, userID id.UserID) error {
	if _, err := s.loadAuction(ctx, auctionID); err != nil {
		return err
	}
	m, err := s.findMembership(ctx, auctionID, userID)
	if err != nil {
		return err
	}
	if m == nil {
		return dErrors.New(dErrors.CodeForbidden, "auction membership required")
	}
	return nil
}
