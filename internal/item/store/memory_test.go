package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"bidhall/internal/item/models"
	id "bidhall/pkg/domain"
	"bidhall/pkg/platform/sentinel"
)

type InMemoryItemStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryItemStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryItemStoreSuite))
}

func (s *InMemoryItemStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *InMemoryItemStoreSuite) newItem(auctionID id.AuctionID, endsAt *time.Time) *models.Item {
	it, err := models.NewItem(id.NewItemID(), auctionID, id.NewUserID(),
		"vintage poster", "signed", decimal.NewFromInt(50), decimal.NewFromInt(5),
		"USD", endsAt, time.Now())
	s.Require().NoError(err)
	return it
}

func (s *InMemoryItemStoreSuite) TestCreateAndFind() {
	it := s.newItem(id.NewAuctionID(), nil)
	s.Require().NoError(s.store.Create(s.ctx, it))

	found, err := s.store.FindByID(s.ctx, it.ID)
	s.Require().NoError(err)
	s.Equal(it.Name, found.Name)
	s.True(found.StartingBid.Equal(decimal.NewFromInt(50)))
}

func (s *InMemoryItemStoreSuite) TestListByAuctionOrdersByCreation() {
	auctionID := id.NewAuctionID()
	first := s.newItem(auctionID, nil)
	second := s.newItem(auctionID, nil)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	other := s.newItem(id.NewAuctionID(), nil)

	s.Require().NoError(s.store.Create(s.ctx, second))
	s.Require().NoError(s.store.Create(s.ctx, first))
	s.Require().NoError(s.store.Create(s.ctx, other))

	items, err := s.store.ListByAuction(s.ctx, auctionID)
	s.Require().NoError(err)
	s.Require().Len(items, 2)
	s.Equal(first.ID, items[0].ID)
	s.Equal(second.ID, items[1].ID)
}

func (s *InMemoryItemStoreSuite) TestExecuteAppliesBid() {
	it := s.newItem(id.NewAuctionID(), nil)
	s.Require().NoError(s.store.Create(s.ctx, it))

	bidder := id.NewUserID()
	updated, err := s.store.Execute(s.ctx, it.ID, func(live *models.Item) error {
		live.ApplyBid(bidder, decimal.NewFromInt(60), time.Now())
		return nil
	})
	s.Require().NoError(err)
	s.Require().NotNil(updated.CurrentBid)
	s.True(updated.CurrentBid.Equal(decimal.NewFromInt(60)))
	s.Equal(1, updated.BidCount)
}

func (s *InMemoryItemStoreSuite) TestRemoveHonorsGuard() {
	it := s.newItem(id.NewAuctionID(), nil)
	s.Require().NoError(s.store.Create(s.ctx, it))

	s.Run("guard failure keeps the item", func() {
		err := s.store.Remove(s.ctx, it.ID, func(*models.Item) error {
			return sentinel.ErrConflict
		})
		s.ErrorIs(err, sentinel.ErrConflict)
		_, err = s.store.FindByID(s.ctx, it.ID)
		s.NoError(err)
	})

	s.Run("guard pass deletes", func() {
		s.Require().NoError(s.store.Remove(s.ctx, it.ID, func(*models.Item) error { return nil }))
		_, err := s.store.FindByID(s.ctx, it.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryItemStoreSuite) TestEndAllOpen() {
	auctionID := id.NewAuctionID()
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	open := s.newItem(auctionID, nil)
	closing := s.newItem(auctionID, &future)
	alreadyEnded := s.newItem(auctionID, &past)
	foreign := s.newItem(id.NewAuctionID(), nil)

	for _, it := range []*models.Item{open, closing, alreadyEnded, foreign} {
		s.Require().NoError(s.store.Create(s.ctx, it))
	}

	ended, err := s.store.EndAllOpen(s.ctx, auctionID, now)
	s.Require().NoError(err)
	s.Equal(2, ended)

	for _, itemID := range []id.ItemID{open.ID, closing.ID} {
		found, err := s.store.FindByID(s.ctx, itemID)
		s.Require().NoError(err)
		s.Require().NotNil(found.EndsAt)
		s.True(found.EndsAt.Equal(now))
	}

	// Already-ended and foreign items keep their timestamps.
	found, err := s.store.FindByID(s.ctx, alreadyEnded.ID)
	s.Require().NoError(err)
	s.True(found.EndsAt.Equal(past))

	found, err = s.store.FindByID(s.ctx, foreign.ID)
	s.Require().NoError(err)
	s.Nil(found.EndsAt)
}

func (s *InMemoryItemStoreSuite) TestEndAllOpenIsIdempotent() {
	auctionID := id.NewAuctionID()
	it := s.newItem(auctionID, nil)
	s.Require().NoError(s.store.Create(s.ctx, it))

	now := time.Now()
	ended, err := s.store.EndAllOpen(s.ctx, auctionID, now)
	s.Require().NoError(err)
	s.Equal(1, ended)

	ended, err = s.store.EndAllOpen(s.ctx, auctionID, now)
	s.Require().NoError(err)
	s.Zero(ended)
}
