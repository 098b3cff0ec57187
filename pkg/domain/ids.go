// Package domain holds typed identifiers shared across modules. Wrapping
// uuid.UUID in distinct types lets the compiler reject cross-entity mixups
// (an ItemID can never be passed where an AuctionID is expected).
package domain

import (
	"github.com/google/uuid"

	dErrors "bidhall/pkg/domain-errors"
)

type (
	UserID         uuid.UUID
	AuctionID      uuid.UUID
	ItemID         uuid.UUID
	BidID          uuid.UUID
	NotificationID uuid.UUID
)

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id AuctionID) String() string      { return uuid.UUID(id).String() }
func (id ItemID) String() string         { return uuid.UUID(id).String() }
func (id BidID) String() string          { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id AuctionID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ItemID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id BidID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func NewUserID() UserID                 { return UserID(uuid.New()) }
func NewAuctionID() AuctionID           { return AuctionID(uuid.New()) }
func NewItemID() ItemID                 { return ItemID(uuid.New()) }
func NewBidID() BidID                   { return BidID(uuid.New()) }
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }

// parseUUID enforces the shared invariant: IDs must be valid, non-nil UUIDs.
func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeValidation, "%s is required", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeValidation, "invalid %s", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeValidation, "invalid %s", what)
	}
	return u, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

func ParseAuctionID(s string) (AuctionID, error) {
	u, err := parseUUID(s, "auction id")
	return AuctionID(u), err
}

func ParseItemID(s string) (ItemID, error) {
	u, err := parseUUID(s, "item id")
	return ItemID(u), err
}

func ParseBidID(s string) (BidID, error) {
	u, err := parseUUID(s, "bid id")
	return BidID(u), err
}

func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID(s, "notification id")
	return NotificationID(u), err
}
