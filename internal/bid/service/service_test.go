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
	bidstore "bidhall/internal/bid/store"
	"bidhall/internal/events"
	itemmodels "bidhall/internal/item/models"
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

type BidServiceSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	auctions *auctionstore.InMemory
	items    *itemstore.InMemory
	bids     *bidstore.InMemory
	notifier *fakeNotifier
	service  *Service

	auction *auctionmodels.Auction
	creator id.UserID
	item    *itemmodels.Item
}

func TestBidServiceSuite(t *testing.T) {
	suite.Run(t, new(BidServiceSuite))
}

func (s *BidServiceSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	s.auctions = auctionstore.NewInMemory()
	s.items = itemstore.NewInMemory()
	s.bids = bidstore.NewInMemory(s.items)
	s.notifier = &fakeNotifier{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = NewService(s.auctions, s.auctions, s.items, s.bids, s.notifier, events.NewBus(logger), logger)

	s.seed(auctionmodels.VisibilityVisible)
}

func (s *BidServiceSuite) seed(visibility auctionmodels.BidderVisibility) {
	owner := id.NewUserID()
	auction, err := auctionmodels.NewAuction(id.NewAuctionID(), owner, "charity night",
		auctionmodels.JoinOpen, visibility, auctionmodels.EndModeInherit, false, nil, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.auctions.Create(s.ctx, auction))
	s.auction = auction

	ownerMember, err := auctionmodels.NewMembership(auction.ID, owner, "owner@example.com", "Owner", auctionmodels.RoleOwner, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.auctions.Add(s.ctx, ownerMember))

	s.creator = id.NewUserID()
	creatorMember, err := auctionmodels.NewMembership(auction.ID, s.creator, "creator@example.com", "Creator", auctionmodels.RoleCreator, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.auctions.Add(s.ctx, creatorMember))

	item, err := itemmodels.NewItem(id.NewItemID(), auction.ID, s.creator,
		"gift basket", "", decimal.NewFromInt(100), decimal.NewFromInt(10), "USD", nil, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.items.Create(s.ctx, item))
	s.item = item
}

func (s *BidServiceSuite) addBidder(email, name string) id.UserID {
	userID := id.NewUserID()
	m, err := auctionmodels.NewMembership(s.auction.ID, userID, email, name, auctionmodels.RoleBidder, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.auctions.Add(s.ctx, m))
	return userID
}

func (s *BidServiceSuite) place(bidderID id.UserID, amount int64) error {
	_, err := s.service.PlaceBid(s.ctx, PlaceRequest{
		AuctionID: s.auction.ID,
		ItemID:    s.item.ID,
		BidderID:  bidderID,
		Amount:    decimal.NewFromInt(amount),
	})
	return err
}

// Starting bid 100, increment 10: 95 rejects at min 100, 100 is accepted,
// 105 rejects at min 110, 110 is accepted and displaces the first bidder.
func (s *BidServiceSuite) TestAcceptanceLadder() {
	alice := s.addBidder("alice@example.com", "Alice")
	bob := s.addBidder("bob@example.com", "Bob")

	err := s.place(alice, 95)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Equal("100", dErrors.DetailsOf(err)["min_bid"])

	err = s.place(alice, 100)
	s.Require().NoError(err)

	err = s.place(bob, 105)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Equal("110", dErrors.DetailsOf(err)["min_bid"])

	err = s.place(bob, 110)
	s.Require().NoError(err)

	it, err := s.items.FindByID(s.ctx, s.item.ID)
	s.Require().NoError(err)
	s.True(it.CurrentBid.Equal(decimal.NewFromInt(110)))
	s.Equal(bob, *it.CurrentBidderID)
	s.Equal(2, it.BidCount)

	outbids := s.notifier.byKind(notification.KindOutbid)
	s.Require().Len(outbids, 1)
	s.Equal(alice, outbids[0].RecipientID)
	s.Equal("alice@example.com", outbids[0].RecipientEmail)
}

func (s *BidServiceSuite) TestPreconditionOrder() {
	bidder := s.addBidder("bidder@example.com", "Bidder")

	s.Run("unknown item", func() {
		_, err := s.service.PlaceBid(s.ctx, PlaceRequest{
			AuctionID: s.auction.ID,
			ItemID:    id.NewItemID(),
			BidderID:  bidder,
			Amount:    decimal.NewFromInt(100),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("item in another auction reads as missing", func() {
		_, err := s.service.PlaceBid(s.ctx, PlaceRequest{
			AuctionID: id.NewAuctionID(),
			ItemID:    s.item.ID,
			BidderID:  bidder,
			Amount:    decimal.NewFromInt(100),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("creator cannot bid on own item", func() {
		err := s.place(s.creator, 100)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("non-member cannot bid", func() {
		err := s.place(id.NewUserID(), 100)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("ended item conflicts", func() {
		past := s.now.Add(-time.Minute)
		_, err := s.auctions.Execute(s.ctx, s.auction.ID, func(a *auctionmodels.Auction) error {
			a.EndsAt = &past
			return nil
		})
		s.Require().NoError(err)

		err = s.place(bidder, 100)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *BidServiceSuite) TestSelfRaiseProducesNoOutbid() {
	alice := s.addBidder("alice@example.com", "Alice")

	err := s.place(alice, 100)
	s.Require().NoError(err)
	err = s.place(alice, 110)
	s.Require().NoError(err)

	s.Empty(s.notifier.byKind(notification.KindOutbid))
}

func (s *BidServiceSuite) TestAnonymityResolution() {
	anon := true
	notAnon := false

	s.Run("visible policy ignores the request", func() {
		bidder := s.addBidder("a@example.com", "A")
		bid, err := s.service.PlaceBid(s.ctx, PlaceRequest{
			AuctionID: s.auction.ID,
			ItemID:    s.item.ID,
			BidderID:  bidder,
			Amount:    decimal.NewFromInt(100),
			Anonymous: &anon,
		})
		s.Require().NoError(err)
		s.False(bid.Anonymous)
	})

	s.Run("anonymous policy overrides the request", func() {
		s.seed(auctionmodels.VisibilityAnonymous)
		bidder := s.addBidder("b@example.com", "B")
		bid, err := s.service.PlaceBid(s.ctx, PlaceRequest{
			AuctionID: s.auction.ID,
			ItemID:    s.item.ID,
			BidderID:  bidder,
			Amount:    decimal.NewFromInt(100),
			Anonymous: &notAnon,
		})
		s.Require().NoError(err)
		s.True(bid.Anonymous)
	})

	s.Run("per-bid policy honors the request", func() {
		s.seed(auctionmodels.VisibilityPerBid)
		bidder := s.addBidder("c@example.com", "C")
		bid, err := s.service.PlaceBid(s.ctx, PlaceRequest{
			AuctionID: s.auction.ID,
			ItemID:    s.item.ID,
			BidderID:  bidder,
			Amount:    decimal.NewFromInt(100),
			Anonymous: &anon,
		})
		s.Require().NoError(err)
		s.True(bid.Anonymous)
	})

	s.Run("per-bid policy falls back to the item default", func() {
		s.seed(auctionmodels.VisibilityPerBid)
		_, err := s.items.Execute(s.ctx, s.item.ID, func(it *itemmodels.Item) error {
			it.AnonymousDefault = true
			return nil
		})
		s.Require().NoError(err)
		bidder := s.addBidder("d@example.com", "D")
		bid, err := s.service.PlaceBid(s.ctx, PlaceRequest{
			AuctionID: s.auction.ID,
			ItemID:    s.item.ID,
			BidderID:  bidder,
			Amount:    decimal.NewFromInt(100),
		})
		s.Require().NoError(err)
		s.True(bid.Anonymous)
	})
}

func (s *BidServiceSuite) TestListRedaction() {
	s.seed(auctionmodels.VisibilityPerBid)
	anon := true
	alice := s.addBidder("alice@example.com", "Alice")
	bob := s.addBidder("bob@example.com", "Bob")

	_, err := s.service.PlaceBid(s.ctx, PlaceRequest{
		AuctionID: s.auction.ID,
		ItemID:    s.item.ID,
		BidderID:  alice,
		Amount:    decimal.NewFromInt(100),
		Anonymous: &anon,
	})
	s.Require().NoError(err)

	s.Run("other members see a redacted entry", func() {
		views, err := s.service.ListBids(s.ctx, bob, s.auction.ID, s.item.ID)
		s.Require().NoError(err)
		s.Require().Len(views, 1)
		s.True(views[0].Anonymous)
		s.Nil(views[0].BidderID)
		s.Empty(views[0].BidderName)
	})

	s.Run("the bidder sees themselves", func() {
		views, err := s.service.ListBids(s.ctx, alice, s.auction.ID, s.item.ID)
		s.Require().NoError(err)
		s.Require().NotNil(views[0].BidderID)
		s.Equal(alice, *views[0].BidderID)
		s.Equal("Alice", views[0].BidderName)
	})

	s.Run("the item creator sees identities", func() {
		views, err := s.service.ListBids(s.ctx, s.creator, s.auction.ID, s.item.ID)
		s.Require().NoError(err)
		s.Require().NotNil(views[0].BidderID)
		s.Equal(alice, *views[0].BidderID)
	})

	s.Run("the owner sees identities", func() {
		views, err := s.service.ListBids(s.ctx, s.auction.OwnerID, s.auction.ID, s.item.ID)
		s.Require().NoError(err)
		s.Require().NotNil(views[0].BidderID)
	})

	s.Run("non-members cannot list", func() {
		_, err := s.service.ListBids(s.ctx, id.NewUserID(), s.auction.ID, s.item.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *BidServiceSuite) TestWinningBid() {
	alice := s.addBidder("alice@example.com", "Alice")
	bob := s.addBidder("bob@example.com", "Bob")

	s.Run("no bids yet", func() {
		_, err := s.service.WinningBid(s.ctx, alice, s.auction.ID, s.item.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("highest wins", func() {
		err := s.place(alice, 100)
		s.Require().NoError(err)
		err = s.place(bob, 120)
		s.Require().NoError(err)

		view, err := s.service.WinningBid(s.ctx, alice, s.auction.ID, s.item.ID)
		s.Require().NoError(err)
		s.True(view.Amount.Equal(decimal.NewFromInt(120)))
		s.Require().NotNil(view.BidderID)
		s.Equal(bob, *view.BidderID)
	})
}
