package handler

import (
	"time"

	"bidhall/internal/bid/models"
	"bidhall/internal/bid/service"
	id "bidhall/pkg/domain"
)

// BidResponse is the HTTP representation of one bid, identity fields
// included only when the viewer is allowed to see them.
type BidResponse struct {
	ID         id.BidID   `json:"id"`
	ItemID     id.ItemID  `json:"item_id"`
	Amount     string     `json:"amount"`
	Anonymous  bool       `json:"anonymous"`
	BidderID   *id.UserID `json:"bidder_id,omitempty"`
	BidderName string     `json:"bidder_name,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ListBidsResponse is the HTTP response for GET /items/{itemID}/bids.
type ListBidsResponse struct {
	Bids []BidResponse `json:"bids"`
}

// FromView converts a redacted bid view to an HTTP response.
func FromView(v service.BidView) BidResponse {
	return BidResponse{
		ID:         v.ID,
		ItemID:     v.ItemID,
		Amount:     v.Amount.String(),
		Anonymous:  v.Anonymous,
		BidderID:   v.BidderID,
		BidderName: v.BidderName,
		CreatedAt:  v.CreatedAt,
	}
}

// FromBid converts a freshly accepted bid to an HTTP response. The bidder
// always sees their own identity.
func FromBid(b *models.Bid) BidResponse {
	bidderID := b.BidderID
	return BidResponse{
		ID:        b.ID,
		ItemID:    b.ItemID,
		Amount:    b.Amount.String(),
		Anonymous: b.Anonymous,
		BidderID:  &bidderID,
		CreatedAt: b.CreatedAt,
	}
}
