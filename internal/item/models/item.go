package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	auctionmodels "bidhall/internal/auction/models"
	"bidhall/internal/currency"
	id "bidhall/pkg/domain"
	dErrors "bidhall/pkg/domain-errors"
)

// Item is a single thing being bid on within an auction.
//
// Invariants:
//   - CurrentBid, when non-nil, is monotonically non-decreasing and always
//     >= StartingBid; it is advanced exclusively by the bid ledger's commit
//   - CurrentBidderID is non-nil iff CurrentBid is non-nil
//   - MinIncrement is strictly positive, which makes equal-amount bids
//     impossible by construction
//   - a CUSTOM end time never exceeds the auction end time
type Item struct {
	ID                id.ItemID       `json:"id"`
	AuctionID         id.AuctionID    `json:"auction_id"`
	CreatorID         id.UserID       `json:"creator_id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	StartingBid       decimal.Decimal `json:"starting_bid"`
	MinIncrement      decimal.Decimal `json:"min_increment"`
	Currency          string          `json:"currency"`
	EndsAt            *time.Time      `json:"ends_at,omitempty"`
	CurrentBid        *decimal.Decimal `json:"current_bid,omitempty"`
	CurrentBidderID   *id.UserID      `json:"current_bidder_id,omitempty"`
	BidCount          int             `json:"bid_count"`
	EditableByAdmins  bool            `json:"editable_by_admins"`
	DiscussionEnabled bool            `json:"discussion_enabled"`
	AnonymousDefault  bool            `json:"anonymous_default"`
	ImageURL          string          `json:"image_url,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// EffectiveEnd resolves the instant the item stops accepting bids, per the
// auction's item end mode. Nil means the item never ends automatically.
func (it *Item) EffectiveEnd(a *auctionmodels.Auction) *time.Time {
	switch a.ItemEndMode {
	case auctionmodels.EndModeCustom:
		if it.EndsAt != nil {
			return it.EndsAt
		}
		return a.EndsAt
	case auctionmodels.EndModeNone:
		// An explicit close cascade still stamps EndsAt.
		return it.EndsAt
	default:
		return a.EndsAt
	}
}

// IsEnded reports whether the item has stopped accepting bids.
func (it *Item) IsEnded(a *auctionmodels.Auction, now time.Time) bool {
	end := it.EffectiveEnd(a)
	return end != nil && !end.After(now)
}

// MinBid computes the minimum acceptable next bid: the current bid plus the
// increment, or the starting bid when no bid exists yet.
func (it *Item) MinBid() decimal.Decimal {
	if it.CurrentBid == nil {
		return it.StartingBid
	}
	return it.CurrentBid.Add(it.MinIncrement)
}

// ApplyBid advances the price pointer for an accepted bid. Callers hold the
// store lock and have already validated amount >= MinBid().
func (it *Item) ApplyBid(bidderID id.UserID, amount decimal.Decimal, now time.Time) {
	it.CurrentBid = &amount
	it.CurrentBidderID = &bidderID
	it.BidCount++
	it.UpdatedAt = now
}

// ApplyEnd stamps the item's end. Used by the auction close cascade.
func (it *Item) ApplyEnd(now time.Time) {
	it.EndsAt = &now
	it.UpdatedAt = now
}

// NewItem validates and constructs an item.
func NewItem(itemID id.ItemID, auctionID id.AuctionID, creatorID id.UserID, name, description string, startingBid, minIncrement decimal.Decimal, currencyCode string, endsAt *time.Time, now time.Time) (*Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "item name cannot be empty")
	}
	if len(name) > 200 {
		return nil, dErrors.New(dErrors.CodeValidation, "item name must be 200 characters or less")
	}
	if startingBid.IsNegative() {
		return nil, dErrors.New(dErrors.CodeValidation, "starting bid cannot be negative")
	}
	if !minIncrement.IsPositive() {
		return nil, dErrors.New(dErrors.CodeValidation, "minimum increment must be positive")
	}
	if !currency.IsSupported(currencyCode) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unsupported currency %q", currencyCode)
	}
	return &Item{
		ID:           itemID,
		AuctionID:    auctionID,
		CreatorID:    creatorID,
		Name:         name,
		Description:  description,
		StartingBid:  startingBid,
		MinIncrement: minIncrement,
		Currency:     currencyCode,
		EndsAt:       endsAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
