package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"bidhall/internal/item/models"
	id "bidhall/pkg/domain"
	"bidhall/pkg/platform/sentinel"
)

// InMemory is a concurrency-safe in-memory implementation of Store.
type InMemory struct {
	mu    sync.RWMutex
	items map[id.ItemID]*models.Item
}

func NewInMemory() *InMemory {
	return &InMemory{items: make(map[id.ItemID]*models.Item)}
}

func (s *InMemory) Create(_ context.Context, it *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[it.ID]; ok {
		return sentinel.ErrAlreadyExists
	}
	clone := *it
	s.items[it.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, itemID id.ItemID) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[itemID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *it
	return &clone, nil
}

func (s *InMemory) ListByAuction(_ context.Context, auctionID id.AuctionID) ([]*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Item
	for _, it := range s.items {
		if it.AuctionID == auctionID {
			clone := *it
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) Execute(_ context.Context, itemID id.ItemID, fn func(*models.Item) error) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := *it
	if err := fn(&working); err != nil {
		return nil, err
	}
	s.items[itemID] = &working
	snapshot := working
	return &snapshot, nil
}

func (s *InMemory) Remove(_ context.Context, itemID id.ItemID, fn func(*models.Item) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok {
		return sentinel.ErrNotFound
	}
	working := *it
	if err := fn(&working); err != nil {
		return err
	}
	delete(s.items, itemID)
	return nil
}

func (s *InMemory) EndAllOpen(_ context.Context, auctionID id.AuctionID, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ended := 0
	for _, it := range s.items {
		if it.AuctionID != auctionID {
			continue
		}
		if it.EndsAt == nil || it.EndsAt.After(now) {
			it.ApplyEnd(now)
			ended++
		}
	}
	return ended, nil
}
