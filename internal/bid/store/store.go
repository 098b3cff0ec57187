package store

import (
	"context"

	"bidhall/internal/bid/models"
	itemmodels "bidhall/internal/item/models"
	id "bidhall/pkg/domain"
)

// Store is the bid ledger's persistence boundary.
//
// CommitBid is the single write path for the item's current-bid/high-bidder
// pair: decide receives the item's live state under the same lock (mutex or
// row lock) that guards the subsequent mutation, so two racing bidders
// serialize and the later one revalidates against the committed price. When
// decide returns a bid, the bid row insert and the item price advance happen
// as one atomic unit; a timeout or crash before commit leaves neither.
type Store interface {
	CommitBid(ctx context.Context, itemID id.ItemID, decide func(*itemmodels.Item) (*models.Bid, error)) (*models.Bid, error)
	// ListByItem returns all bids for an item ordered by amount descending,
	// ties broken by earliest creation time.
	ListByItem(ctx context.Context, itemID id.ItemID) ([]*models.Bid, error)
	// WinningBid returns the highest bid; sentinel.ErrNotFound when the item
	// has no bids.
	WinningBid(ctx context.Context, itemID id.ItemID) (*models.Bid, error)
}
