package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	auctionmodels "bidhall/internal/auction/models"
	auctionstore "bidhall/internal/auction/store"
	"bidhall/internal/events"
	"bidhall/internal/item/models"
	itemstore "bidhall/internal/item/store"
	"bidhall/internal/notification"
	id "bidhall/pkg/domain"
	dErrors "bidhall/pkg/domain-errors"
	"bidhall/pkg/requestcontext"
)

type fakeNotifier struct {
	mu       sync.Mutex
	requests []notification.Request
}

func (f *fakeNotifier) Notify(_ context.Context, req notification.Request) (*notification.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return &notification.Notification{ID: id.NewNotificationID()}, nil
}

func (f *fakeNotifier) byKind(kind notification.Kind) []notification.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notification.Request
	for _, r := range f.requests {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

type ItemServiceSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	auctions *auctionstore.InMemory
	items    *itemstore.InMemory
	notifier *fakeNotifier
	service  *Service

	auction *auctionmodels.Auction
	owner   id.UserID
	creator id.UserID
	bidder  id.UserID
}

func TestItemServiceSuite(t *testing.T) {
	suite.Run(t, new(ItemServiceSuite))
}

func (s *ItemServiceSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	s.auctions = auctionstore.NewInMemory()
	s.items = itemstore.NewInMemory()
	s.notifier = &fakeNotifier{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = NewService(s.auctions, s.auctions, s.items, s.notifier, events.NewBus(logger), logger)

	s.seed(auctionmodels.EndModeInherit, nil)
}

func (s *ItemServiceSuite) seed(endMode auctionmodels.ItemEndMode, auctionEnd *time.Time) {
	s.owner = id.NewUserID()
	auction, err := auctionmodels.NewAuction(id.NewAuctionID(), s.owner, "charity night",
		auctionmodels.JoinOpen, auctionmodels.VisibilityVisible, endMode, false, auctionEnd, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.auctions.Create(s.ctx, auction))
	s.auction = auction

	s.creator = id.NewUserID()
	s.bidder = id.NewUserID()
	for _, m := range []struct {
		userID id.UserID
		email  string
		name   string
		role   auctionmodels.Role
	}{
		{s.owner, "owner@example.com", "Owner", auctionmodels.RoleOwner},
		{s.creator, "creator@example.com", "Creator", auctionmodels.RoleCreator},
		{s.bidder, "bidder@example.com", "Bidder", auctionmodels.RoleBidder},
	} {
		member, err := auctionmodels.NewMembership(auction.ID, m.userID, m.email, m.name, m.role, s.now)
		s.Require().NoError(err)
		s.Require().NoError(s.auctions.Add(s.ctx, member))
	}
}

func (s *ItemServiceSuite) createItem(creatorID id.UserID) (*models.Item, error) {
	return s.service.CreateItem(s.ctx, CreateRequest{
		AuctionID:    s.auction.ID,
		CreatorID:    creatorID,
		Name:         "gift basket",
		StartingBid:  decimal.NewFromInt(100),
		MinIncrement: decimal.NewFromInt(10),
		Currency:     "USD",
	})
}

func (s *ItemServiceSuite) recordBid(itemID id.ItemID) {
	_, err := s.items.Execute(s.ctx, itemID, func(it *models.Item) error {
		it.ApplyBid(s.bidder, it.MinBid(), s.now)
		return nil
	})
	s.Require().NoError(err)
}

func (s *ItemServiceSuite) TestCreateItem() {
	s.Run("creator lists an item and members are notified", func() {
		item, err := s.createItem(s.creator)
		s.Require().NoError(err)
		s.Equal(s.creator, item.CreatorID)

		notifs := s.notifier.byKind(notification.KindNewItem)
		s.Require().Len(notifs, 2)
		recipients := map[id.UserID]bool{}
		for _, n := range notifs {
			recipients[n.RecipientID] = true
		}
		s.True(recipients[s.owner])
		s.True(recipients[s.bidder])
		s.False(recipients[s.creator])
	})

	s.Run("bidders cannot list items", func() {
		_, err := s.createItem(s.bidder)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("non-members cannot list items", func() {
		_, err := s.createItem(id.NewUserID())
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("custom end time requires the CUSTOM end mode", func() {
		endsAt := s.now.Add(time.Hour)
		_, err := s.service.CreateItem(s.ctx, CreateRequest{
			AuctionID:    s.auction.ID,
			CreatorID:    s.creator,
			Name:         "vase",
			StartingBid:  decimal.NewFromInt(10),
			MinIncrement: decimal.NewFromInt(1),
			Currency:     "USD",
			EndsAt:       &endsAt,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("custom end time cannot exceed the auction end", func() {
		auctionEnd := s.now.Add(time.Hour)
		s.seed(auctionmodels.EndModeCustom, &auctionEnd)

		late := auctionEnd.Add(time.Minute)
		_, err := s.service.CreateItem(s.ctx, CreateRequest{
			AuctionID:    s.auction.ID,
			CreatorID:    s.creator,
			Name:         "vase",
			StartingBid:  decimal.NewFromInt(10),
			MinIncrement: decimal.NewFromInt(1),
			Currency:     "USD",
			EndsAt:       &late,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		within := s.now.Add(30 * time.Minute)
		_, err = s.service.CreateItem(s.ctx, CreateRequest{
			AuctionID:    s.auction.ID,
			CreatorID:    s.creator,
			Name:         "vase",
			StartingBid:  decimal.NewFromInt(10),
			MinIncrement: decimal.NewFromInt(1),
			Currency:     "USD",
			EndsAt:       &within,
		})
		s.NoError(err)
	})

	s.Run("ended auction conflicts", func() {
		past := s.now.Add(-time.Minute)
		s.seed(auctionmodels.EndModeInherit, &past)

		_, err := s.createItem(s.creator)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ItemServiceSuite) TestViewRequiresMembership() {
	item, err := s.createItem(s.creator)
	s.Require().NoError(err)

	s.Run("members view", func() {
		got, err := s.service.GetItem(s.ctx, s.bidder, s.auction.ID, item.ID)
		s.Require().NoError(err)
		s.Equal(item.ID, got.ID)

		items, err := s.service.ListItems(s.ctx, s.bidder, s.auction.ID)
		s.Require().NoError(err)
		s.Len(items, 1)
	})

	s.Run("non-members cannot view", func() {
		_, err := s.service.GetItem(s.ctx, id.NewUserID(), s.auction.ID, item.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("item in another auction reads as missing", func() {
		_, err := s.service.GetItem(s.ctx, s.owner, id.NewAuctionID(), item.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ItemServiceSuite) TestUpdateItem() {
	item, err := s.createItem(s.creator)
	s.Require().NoError(err)

	s.Run("creator edits the name", func() {
		name := "deluxe gift basket"
		updated, err := s.service.UpdateItem(s.ctx, UpdateRequest{
			AuctionID: s.auction.ID,
			ItemID:    item.ID,
			ActorID:   s.creator,
			Name:      &name,
		})
		s.Require().NoError(err)
		s.Equal("deluxe gift basket", updated.Name)
	})

	s.Run("owner edits any item", func() {
		desc := "curated by the committee"
		_, err := s.service.UpdateItem(s.ctx, UpdateRequest{
			AuctionID:   s.auction.ID,
			ItemID:      item.ID,
			ActorID:     s.owner,
			Description: &desc,
		})
		s.NoError(err)
	})

	s.Run("bidders cannot edit", func() {
		name := "hijacked"
		_, err := s.service.UpdateItem(s.ctx, UpdateRequest{
			AuctionID: s.auction.ID,
			ItemID:    item.ID,
			ActorID:   s.bidder,
			Name:      &name,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("admins edit only opted-in items", func() {
		admin := id.NewUserID()
		member, err := auctionmodels.NewMembership(s.auction.ID, admin, "admin@example.com", "Admin", auctionmodels.RoleAdmin, s.now)
		s.Require().NoError(err)
		s.Require().NoError(s.auctions.Add(s.ctx, member))

		name := "admin rename"
		_, err = s.service.UpdateItem(s.ctx, UpdateRequest{
			AuctionID: s.auction.ID,
			ItemID:    item.ID,
			ActorID:   admin,
			Name:      &name,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		editable := true
		_, err = s.service.UpdateItem(s.ctx, UpdateRequest{
			AuctionID:        s.auction.ID,
			ItemID:           item.ID,
			ActorID:          s.creator,
			EditableByAdmins: &editable,
		})
		s.Require().NoError(err)

		_, err = s.service.UpdateItem(s.ctx, UpdateRequest{
			AuctionID: s.auction.ID,
			ItemID:    item.ID,
			ActorID:   admin,
			Name:      &name,
		})
		s.NoError(err)
	})

	s.Run("starting bid and currency freeze once bids exist", func() {
		s.recordBid(item.ID)

		newStart := decimal.NewFromInt(200)
		_, err := s.service.UpdateItem(s.ctx, UpdateRequest{
			AuctionID:   s.auction.ID,
			ItemID:      item.ID,
			ActorID:     s.creator,
			StartingBid: &newStart,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		eur := "EUR"
		_, err = s.service.UpdateItem(s.ctx, UpdateRequest{
			AuctionID: s.auction.ID,
			ItemID:    item.ID,
			ActorID:   s.creator,
			Currency:  &eur,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		// The increment stays editable.
		incr := decimal.NewFromInt(25)
		_, err = s.service.UpdateItem(s.ctx, UpdateRequest{
			AuctionID:    s.auction.ID,
			ItemID:       item.ID,
			ActorID:      s.creator,
			MinIncrement: &incr,
		})
		s.NoError(err)
	})
}

func (s *ItemServiceSuite) TestUpdateEndDate() {
	auctionEnd := s.now.Add(2 * time.Hour)
	s.seed(auctionmodels.EndModeCustom, &auctionEnd)
	item, err := s.createItem(s.creator)
	s.Require().NoError(err)

	s.Run("end date moves within the auction window", func() {
		endsAt := s.now.Add(time.Hour)
		updated, err := s.service.UpdateItem(s.ctx, UpdateRequest{
			AuctionID: s.auction.ID,
			ItemID:    item.ID,
			ActorID:   s.creator,
			EndsAt:    &endsAt,
		})
		s.Require().NoError(err)
		s.Require().NotNil(updated.EndsAt)
		s.True(updated.EndsAt.Equal(endsAt))
	})

	s.Run("end date cannot exceed the auction end", func() {
		late := auctionEnd.Add(time.Minute)
		_, err := s.service.UpdateItem(s.ctx, UpdateRequest{
			AuctionID: s.auction.ID,
			ItemID:    item.ID,
			ActorID:   s.creator,
			EndsAt:    &late,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("an ended item cannot be extended", func() {
		past := s.now.Add(-time.Minute)
		_, err := s.items.Execute(s.ctx, item.ID, func(it *models.Item) error {
			it.EndsAt = &past
			return nil
		})
		s.Require().NoError(err)

		future := s.now.Add(time.Hour)
		_, err = s.service.UpdateItem(s.ctx, UpdateRequest{
			AuctionID: s.auction.ID,
			ItemID:    item.ID,
			ActorID:   s.creator,
			EndsAt:    &future,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ItemServiceSuite) TestDeleteItem() {
	s.Run("creator deletes a bidless item", func() {
		item, err := s.createItem(s.creator)
		s.Require().NoError(err)

		s.Require().NoError(s.service.DeleteItem(s.ctx, s.creator, s.auction.ID, item.ID))
		_, err = s.service.GetItem(s.ctx, s.creator, s.auction.ID, item.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("items with bids cannot be deleted", func() {
		item, err := s.createItem(s.creator)
		s.Require().NoError(err)
		s.recordBid(item.ID)

		err = s.service.DeleteItem(s.ctx, s.creator, s.auction.ID, item.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("bidders cannot delete", func() {
		item, err := s.createItem(s.creator)
		s.Require().NoError(err)

		err = s.service.DeleteItem(s.ctx, s.bidder, s.auction.ID, item.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
