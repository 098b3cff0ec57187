package handler

import (
	"time"

	"bidhall/internal/item/models"
	id "bidhall/pkg/domain"
)

// ItemResponse is the HTTP representation of one item.
type ItemResponse struct {
	ID                id.ItemID    `json:"id"`
	AuctionID         id.AuctionID `json:"auction_id"`
	CreatorID         id.UserID    `json:"creator_id"`
	Name              string       `json:"name"`
	Description       string       `json:"description"`
	StartingBid       string       `json:"starting_bid"`
	MinIncrement      string       `json:"min_increment"`
	Currency          string       `json:"currency"`
	EndsAt            *time.Time   `json:"ends_at,omitempty"`
	CurrentBid        *string      `json:"current_bid,omitempty"`
	MinBid            string       `json:"min_bid"`
	BidCount          int          `json:"bid_count"`
	EditableByAdmins  bool         `json:"editable_by_admins"`
	DiscussionEnabled bool         `json:"discussion_enabled"`
	AnonymousDefault  bool         `json:"anonymous_default"`
	ImageURL          string       `json:"image_url,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// ListItemsResponse is the HTTP response for GET /auctions/{auctionID}/items.
type ListItemsResponse struct {
	Items []ItemResponse `json:"items"`
}

// FromItem converts a domain item to an HTTP response. The current high
// bidder is intentionally not exposed here; bid listings apply redaction.
func FromItem(it *models.Item) ItemResponse {
	resp := ItemResponse{
		ID:                it.ID,
		AuctionID:         it.AuctionID,
		CreatorID:         it.CreatorID,
		Name:              it.Name,
		Description:       it.Description,
		StartingBid:       it.StartingBid.String(),
		MinIncrement:      it.MinIncrement.String(),
		Currency:          it.Currency,
		EndsAt:            it.EndsAt,
		MinBid:            it.MinBid().String(),
		BidCount:          it.BidCount,
		EditableByAdmins:  it.EditableByAdmins,
		DiscussionEnabled: it.DiscussionEnabled,
		AnonymousDefault:  it.AnonymousDefault,
		ImageURL:          it.ImageURL,
		CreatedAt:         it.CreatedAt,
		UpdatedAt:         it.UpdatedAt,
	}
	if it.CurrentBid != nil {
		v := it.CurrentBid.String()
		resp.CurrentBid = &v
	}
	return resp
}
