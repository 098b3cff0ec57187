package store

import (
	"context"
	"sort"
	"sync"

	"bidhall/internal/bid/models"
	itemmodels "bidhall/internal/item/models"
	itemstore "bidhall/internal/item/store"
	id "bidhall/pkg/domain"
	"bidhall/pkg/platform/sentinel"
)

// InMemory implements Store over the in-memory item store. Commits serialize
// on the ledger mutex; the item store's Execute provides the
// validate-then-mutate atomicity for the price pointer, and the bid row is
// appended before the ledger mutex releases, so no observer of the ledger
// sees a price advance without its bid.
type InMemory struct {
	mu    sync.RWMutex
	items *itemstore.InMemory
	bids  map[id.ItemID][]*models.Bid
}

func NewInMemory(items *itemstore.InMemory) *InMemory {
	return &InMemory{
		items: items,
		bids:  make(map[id.ItemID][]*models.Bid),
	}
}

func (s *InMemory) CommitBid(ctx context.Context, itemID id.ItemID, decide func(*itemmodels.Item) (*models.Bid, error)) (*models.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bid *models.Bid
	_, err := s.items.Execute(ctx, itemID, func(it *itemmodels.Item) error {
		b, err := decide(it)
		if err != nil {
			return err
		}
		it.ApplyBid(b.BidderID, b.Amount, b.CreatedAt)
		bid = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bids[itemID] = append(s.bids[itemID], bid)
	return bid, nil
}

func (s *InMemory) ListByItem(_ context.Context, itemID id.ItemID) ([]*models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.bids[itemID]
	out := make([]*models.Bid, 0, len(src))
	for _, b := range src {
		clone := *b
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return models.Less(out[i], out[j]) })
	return out, nil
}

func (s *InMemory) WinningBid(_ context.Context, itemID id.ItemID) (*models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.bids[itemID]
	if len(src) == 0 {
		return nil, sentinel.ErrNotFound
	}
	winning := src[0]
	for _, b := range src[1:] {
		if models.Less(b, winning) {
			winning = b
		}
	}
	clone := *winning
	return &clone, nil
}
