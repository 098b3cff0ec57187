// Package events is the in-process publish/subscribe bus that decouples the
// bid ledger and lifecycle controller from notification and email side
// effects. The bus is constructed once at startup and injected; it is not
// durable: the durable artifacts are the notification rows and email outbox
// entries, not bus dispatch.
package events

import (
	"time"

	"github.com/shopspring/decimal"

	id "bidhall/pkg/domain"
)

// Name identifies an event in the closed set the bus dispatches.
type Name string

const (
	BidPlaced           Name = "bid.placed"
	ItemCreated         Name = "item.created"
	MemberJoined        Name = "member.joined"
	AuctionClosed       Name = "auction.closed"
	NotificationCreated Name = "notification.created"
)

// BidPlacedEvent is emitted once per accepted bid, after commit.
type BidPlacedEvent struct {
	AuctionID        id.AuctionID
	ItemID           id.ItemID
	ItemName         string
	BidID            id.BidID
	BidderID         id.UserID
	PreviousBidderID *id.UserID
	Amount           decimal.Decimal
	Currency         string
	PlacedAt         time.Time
}

// ItemCreatedEvent is emitted once per item creation.
type ItemCreatedEvent struct {
	AuctionID id.AuctionID
	ItemID    id.ItemID
	ItemName  string
	CreatorID id.UserID
	CreatedAt time.Time
}

// MemberJoinedEvent is emitted once per successful join or invite acceptance.
type MemberJoinedEvent struct {
	AuctionID  id.AuctionID
	UserID     id.UserID
	MemberName string
	JoinedAt   time.Time
}

// AuctionClosedEvent is emitted once per effective close (not on idempotent
// re-close).
type AuctionClosedEvent struct {
	AuctionID id.AuctionID
	ClosedAt  time.Time
}

// NotificationCreatedEvent carries a freshly created in-app notification for
// asynchronous email processing.
type NotificationCreatedEvent struct {
	NotificationID id.NotificationID
	Kind           string
	RecipientID    id.UserID
	RecipientEmail string
	TemplateData   map[string]string
}
