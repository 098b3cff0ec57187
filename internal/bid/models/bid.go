package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "bidhall/pkg/domain"
)

// Bid is an immutable append-only record: once accepted it is never mutated
// or deleted. Amount was validated >= the item's minimum bid under the same
// lock that advanced the item's price pointer.
type Bid struct {
	ID        id.BidID        `json:"id"`
	ItemID    id.ItemID       `json:"item_id"`
	BidderID  id.UserID       `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	Anonymous bool            `json:"anonymous"`
	CreatedAt time.Time       `json:"created_at"`
}

// Less orders bids for listings: amount descending, ties broken by earliest
// creation time. Ties cannot occur between accepted bids on one item (the
// increment rule forbids equal amounts) but the ordering is total regardless.
func Less(a, b *Bid) bool {
	if cmp := a.Amount.Cmp(b.Amount); cmp != 0 {
		return cmp > 0
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
