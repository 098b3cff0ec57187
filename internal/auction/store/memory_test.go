package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"bidhall/internal/auction/models"
	id "bidhall/pkg/domain"
	"bidhall/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) newAuction(name string) *models.Auction {
	now := time.Now()
	a, err := models.NewAuction(id.NewAuctionID(), id.NewUserID(), name,
		models.JoinOpen, models.VisibilityVisible, models.EndModeInherit, false, nil, now)
	s.Require().NoError(err)
	return a
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	a := s.newAuction("spring fundraiser")
	s.Require().NoError(s.store.Create(s.ctx, a))

	found, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a.Name, found.Name)
	s.Equal(a.OwnerID, found.OwnerID)
}

func (s *InMemoryStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(s.ctx, id.NewAuctionID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestCreateDuplicate() {
	a := s.newAuction("dup")
	s.Require().NoError(s.store.Create(s.ctx, a))
	s.ErrorIs(s.store.Create(s.ctx, a), sentinel.ErrAlreadyExists)
}

func (s *InMemoryStoreSuite) TestExecutePersistsMutation() {
	a := s.newAuction("to close")
	s.Require().NoError(s.store.Create(s.ctx, a))

	now := time.Now()
	updated, err := s.store.Execute(s.ctx, a.ID, func(live *models.Auction) error {
		live.ApplyClose(now)
		return nil
	})
	s.Require().NoError(err)
	s.Require().NotNil(updated.EndsAt)

	found, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.NotNil(found.EndsAt)
}

func (s *InMemoryStoreSuite) TestExecuteRollsBackOnError() {
	a := s.newAuction("untouched")
	s.Require().NoError(s.store.Create(s.ctx, a))

	_, err := s.store.Execute(s.ctx, a.ID, func(live *models.Auction) error {
		live.Name = "mutated"
		return sentinel.ErrInvalidState
	})
	s.ErrorIs(err, sentinel.ErrInvalidState)

	found, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal("untouched", found.Name)
}

func (s *InMemoryStoreSuite) TestMemberships() {
	a := s.newAuction("membership home")
	s.Require().NoError(s.store.Create(s.ctx, a))

	first, err := models.NewMembership(a.ID, id.NewUserID(), "first@example.com", "First", models.RoleOwner, time.Now())
	s.Require().NoError(err)
	second, err := models.NewMembership(a.ID, id.NewUserID(), "second@example.com", "Second", models.RoleBidder, time.Now().Add(time.Second))
	s.Require().NoError(err)

	s.Require().NoError(s.store.Add(s.ctx, first))
	s.Require().NoError(s.store.Add(s.ctx, second))

	s.Run("duplicate add rejected", func() {
		s.ErrorIs(s.store.Add(s.ctx, second), sentinel.ErrAlreadyExists)
	})

	s.Run("find returns the member", func() {
		m, err := s.store.Find(s.ctx, a.ID, first.UserID)
		s.Require().NoError(err)
		s.Equal(models.RoleOwner, m.Role)
	})

	s.Run("list preserves join order", func() {
		members, err := s.store.ListByAuction(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Require().Len(members, 2)
		s.Equal(first.UserID, members[0].UserID)
		s.Equal(second.UserID, members[1].UserID)
	})

	s.Run("role update sticks", func() {
		s.Require().NoError(s.store.UpdateRole(s.ctx, a.ID, second.UserID, models.RoleAdmin))
		m, err := s.store.Find(s.ctx, a.ID, second.UserID)
		s.Require().NoError(err)
		s.Equal(models.RoleAdmin, m.Role)
	})

	s.Run("remove deletes", func() {
		s.Require().NoError(s.store.Remove(s.ctx, a.ID, second.UserID))
		_, err := s.store.Find(s.ctx, a.ID, second.UserID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("remove missing errors", func() {
		s.ErrorIs(s.store.Remove(s.ctx, a.ID, second.UserID), sentinel.ErrNotFound)
	})
}
