package store

import (
	"context"
	"sort"
	"sync"

	"bidhall/internal/auction/models"
	id "bidhall/pkg/domain"
	"bidhall/pkg/platform/sentinel"
)

type membershipKey struct {
	auction id.AuctionID
	user    id.UserID
}

// InMemory is a concurrency-safe in-memory implementation of Store and
// MembershipStore. It favors clarity over performance.
type InMemory struct {
	mu          sync.RWMutex
	auctions    map[id.AuctionID]*models.Auction
	memberships map[membershipKey]*models.Membership
}

func NewInMemory() *InMemory {
	return &InMemory{
		auctions:    make(map[id.AuctionID]*models.Auction),
		memberships: make(map[membershipKey]*models.Membership),
	}
}

func (s *InMemory) Create(_ context.Context, a *models.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.auctions[a.ID]; ok {
		return sentinel.ErrAlreadyExists
	}
	clone := *a
	s.auctions[a.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, auctionID id.AuctionID) (*models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.auctions[auctionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (s *InMemory) Execute(_ context.Context, auctionID id.AuctionID, fn func(*models.Auction) error) (*models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.auctions[auctionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := *a
	if err := fn(&working); err != nil {
		return nil, err
	}
	s.auctions[auctionID] = &working
	snapshot := working
	return &snapshot, nil
}

func (s *InMemory) Add(_ context.Context, m *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := membershipKey{auction: m.AuctionID, user: m.UserID}
	if _, ok := s.memberships[key]; ok {
		return sentinel.ErrAlreadyExists
	}
	clone := *m
	s.memberships[key] = &clone
	return nil
}

func (s *InMemory) Find(_ context.Context, auctionID id.AuctionID, userID id.UserID) (*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[membershipKey{auction: auctionID, user: userID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *m
	return &clone, nil
}

func (s *InMemory) ListByAuction(_ context.Context, auctionID id.AuctionID) ([]*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Membership
	for key, m := range s.memberships {
		if key.auction == auctionID {
			clone := *m
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out, nil
}

func (s *InMemory) UpdateRole(_ context.Context, auctionID id.AuctionID, userID id.UserID, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memberships[membershipKey{auction: auctionID, user: userID}]
	if !ok {
		return sentinel.ErrNotFound
	}
	m.Role = role
	return nil
}

func (s *InMemory) Remove(_ context.Context, auctionID id.AuctionID, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := membershipKey{auction: auctionID, user: userID}
	if _, ok := s.memberships[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.memberships, key)
	return nil
}
