//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	auctionmodels "bidhall/internal/auction/models"
	auctionstore "bidhall/internal/auction/store"
	"bidhall/internal/bid/models"
	itemmodels "bidhall/internal/item/models"
	itemstore "bidhall/internal/item/store"
	id "bidhall/pkg/domain"
	dErrors "bidhall/pkg/domain-errors"
	"bidhall/pkg/platform/sentinel"
	"bidhall/pkg/testutil/containers"
)

type PostgresBidStoreSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	pg       *containers.PostgresContainer
	auctions *auctionstore.Postgres
	items    *itemstore.Postgres
	store    *Postgres

	item *itemmodels.Item
}

func TestPostgresBidStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresBidStoreSuite))
}

func (s *PostgresBidStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.auctions = auctionstore.NewPostgres(s.pg.DB)
	s.items = itemstore.NewPostgres(s.pg.DB)
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresBidStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "auctions", "items", "bids"))

	auction, err := auctionmodels.NewAuction(id.NewAuctionID(), id.NewUserID(), "charity night",
		auctionmodels.JoinOpen, auctionmodels.VisibilityVisible, auctionmodels.EndModeInherit, false, nil, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.auctions.Create(s.ctx, auction))

	item, err := itemmodels.NewItem(id.NewItemID(), auction.ID, id.NewUserID(),
		"gift basket", "", decimal.NewFromInt(100), decimal.NewFromInt(10), "USD", nil, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.items.Create(s.ctx, item))
	s.item = item
}

func (s *PostgresBidStoreSuite) placeBid(bidderID id.UserID, amount decimal.Decimal, at time.Time) (*models.Bid, error) {
	return s.store.CommitBid(s.ctx, s.item.ID, func(live *itemmodels.Item) (*models.Bid, error) {
		if amount.LessThan(live.MinBid()) {
			return nil, dErrors.Newf(dErrors.CodeValidation, "bid must be at least %s", live.MinBid().String())
		}
		return &models.Bid{
			ID:        id.NewBidID(),
			ItemID:    live.ID,
			BidderID:  bidderID,
			Amount:    amount,
			CreatedAt: at,
		}, nil
	})
}

func (s *PostgresBidStoreSuite) TestCommitAdvancesItemPrice() {
	bidder := id.NewUserID()
	bid, err := s.placeBid(bidder, decimal.NewFromInt(100), s.now)
	s.Require().NoError(err)
	s.True(bid.Amount.Equal(decimal.NewFromInt(100)))

	it, err := s.items.FindByID(s.ctx, s.item.ID)
	s.Require().NoError(err)
	s.Require().NotNil(it.CurrentBid)
	s.True(it.CurrentBid.Equal(decimal.NewFromInt(100)))
	s.Require().NotNil(it.CurrentBidderID)
	s.Equal(bidder, *it.CurrentBidderID)
	s.Equal(1, it.BidCount)
}

func (s *PostgresBidStoreSuite) TestRejectedDecideLeavesNoTrace() {
	_, err := s.placeBid(id.NewUserID(), decimal.NewFromInt(95), s.now)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))

	it, err := s.items.FindByID(s.ctx, s.item.ID)
	s.Require().NoError(err)
	s.Nil(it.CurrentBid)
	s.Equal(0, it.BidCount)

	bids, err := s.store.ListByItem(s.ctx, s.item.ID)
	s.Require().NoError(err)
	s.Empty(bids)
}

func (s *PostgresBidStoreSuite) TestCommitOnMissingItem() {
	_, err := s.store.CommitBid(s.ctx, id.NewItemID(), func(_ *itemmodels.Item) (*models.Bid, error) {
		s.Fail("decide must not run for a missing item")
		return nil, nil
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresBidStoreSuite) TestListOrdering() {
	alice := id.NewUserID()
	bob := id.NewUserID()
	_, err := s.placeBid(alice, decimal.NewFromInt(100), s.now)
	s.Require().NoError(err)
	_, err = s.placeBid(bob, decimal.NewFromInt(110), s.now.Add(time.Second))
	s.Require().NoError(err)

	bids, err := s.store.ListByItem(s.ctx, s.item.ID)
	s.Require().NoError(err)
	s.Require().Len(bids, 2)
	s.True(bids[0].Amount.Equal(decimal.NewFromInt(110)))
	s.Equal(bob, bids[0].BidderID)
	s.True(bids[1].Amount.Equal(decimal.NewFromInt(100)))

	winning, err := s.store.WinningBid(s.ctx, s.item.ID)
	s.Require().NoError(err)
	s.Equal(bids[0].ID, winning.ID)
}

func (s *PostgresBidStoreSuite) TestWinningBidWithoutBids() {
	_, err := s.store.WinningBid(s.ctx, s.item.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// Concurrent commits against one item serialize on the row lock: every
// bidder reads the latest committed price, so all 16 MinBid() bids land and
// the final price is the starting bid plus fifteen increments.
func (s *PostgresBidStoreSuite) TestConcurrentCommitsKeepPriceMonotonic() {
	const bidders = 16

	var g errgroup.Group
	for i := 0; i < bidders; i++ {
		bidder := id.NewUserID()
		g.Go(func() error {
			_, err := s.store.CommitBid(s.ctx, s.item.ID, func(live *itemmodels.Item) (*models.Bid, error) {
				return &models.Bid{
					ID:        id.NewBidID(),
					ItemID:    live.ID,
					BidderID:  bidder,
					Amount:    live.MinBid(),
					CreatedAt: time.Now().UTC(),
				}, nil
			})
			return err
		})
	}
	s.Require().NoError(g.Wait())

	it, err := s.items.FindByID(s.ctx, s.item.ID)
	s.Require().NoError(err)
	s.Equal(bidders, it.BidCount)
	s.Require().NotNil(it.CurrentBid)
	want := decimal.NewFromInt(100).Add(decimal.NewFromInt(10).Mul(decimal.NewFromInt(bidders - 1)))
	s.True(it.CurrentBid.Equal(want), "final price %s, want %s", it.CurrentBid, want)

	bids, err := s.store.ListByItem(s.ctx, s.item.ID)
	s.Require().NoError(err)
	s.Require().Len(bids, bidders)
	seen := map[string]bool{}
	for _, b := range bids {
		key := b.Amount.String()
		s.False(seen[key], "duplicate amount %s", key)
		seen[key] = true
	}
}
