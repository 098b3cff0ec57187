package notification

import (
	"time"

	id "bidhall/pkg/domain"
)

// Kind types a notification. The set is closed; each kind has fixed
// recipient and content rules enforced by the services that trigger it.
type Kind string

const (
	// KindOutbid goes to the displaced previous high bidder, once per
	// accepted bid that displaces a different bidder.
	KindOutbid Kind = "OUTBID"
	// KindAuctionWon goes to an item's final high bidder when its auction
	// closes, once per item with at least one bid.
	KindAuctionWon Kind = "AUCTION_WON"
	// KindMemberJoined goes to the auction owner, once per successful join.
	KindMemberJoined Kind = "MEMBER_JOINED"
	// KindNewItem goes to every existing member except the item's creator.
	KindNewItem Kind = "NEW_ITEM"
)

// Notification is a durable, user-scoped in-app record. Created by the
// system only; mutated (mark-read) and deleted only by the owning user.
type Notification struct {
	ID        id.NotificationID `json:"id"`
	UserID    id.UserID         `json:"user_id"`
	Kind      Kind              `json:"kind"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	AuctionID *id.AuctionID     `json:"auction_id,omitempty"`
	ItemID    *id.ItemID        `json:"item_id,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}
