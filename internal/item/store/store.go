package store

import (
	"context"
	"time"

	"bidhall/internal/item/models"
	id "bidhall/pkg/domain"
)

// Store persists items. The current-bid/high-bidder pair is the hot shared
// state: it is written only through Execute (bid commit) and EndAllOpen
// never touches it.
type Store interface {
	Create(ctx context.Context, it *models.Item) error
	FindByID(ctx context.Context, itemID id.ItemID) (*models.Item, error)
	ListByAuction(ctx context.Context, auctionID id.AuctionID) ([]*models.Item, error)
	// Execute atomically loads the item, runs fn, and persists the result
	// when fn returns nil. The lock is held across validation and mutation.
	Execute(ctx context.Context, itemID id.ItemID, fn func(*models.Item) error) (*models.Item, error)
	// Remove deletes the item when fn accepts its current state; the check
	// and the delete are one atomic unit so a bid cannot slip in between.
	Remove(ctx context.Context, itemID id.ItemID, fn func(*models.Item) error) error
	// EndAllOpen stamps now as the end of every item in the auction whose
	// end is null or in the future, as one bulk transition. Returns the
	// number of items transitioned.
	EndAllOpen(ctx context.Context, auctionID id.AuctionID, now time.Time) (int, error)
}
