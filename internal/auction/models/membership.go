package models

import (
	"time"

	id "bidhall/pkg/domain"
	dErrors "bidhall/pkg/domain-errors"
)

// Role is a member's capability tier within one auction.
type Role string

const (
	// RoleOwner is assigned at auction creation and never reassigned.
	RoleOwner Role = "OWNER"
	// RoleAdmin manages members and items.
	RoleAdmin Role = "ADMIN"
	// RoleCreator may list items in addition to bidding.
	RoleCreator Role = "CREATOR"
	// RoleBidder may bid only.
	RoleBidder Role = "BIDDER"
)

var validRoles = map[Role]bool{
	RoleOwner:   true,
	RoleAdmin:   true,
	RoleCreator: true,
	RoleBidder:  true,
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.Newf(dErrors.CodeValidation, "invalid role %q", s)
	}
	return r, nil
}

// IsStaff reports whether the role carries administrative capability.
func (r Role) IsStaff() bool {
	return r == RoleOwner || r == RoleAdmin
}

// CanListItems reports whether the role may create items.
func (r Role) CanListItems() bool {
	return r != RoleBidder
}

// Membership binds a user to an auction with a role. Unique per
// (auction, user). The identity fields are a snapshot from the auth
// collaborator taken at join time, used for bid listings and email dispatch.
type Membership struct {
	AuctionID   id.AuctionID `json:"auction_id"`
	UserID      id.UserID    `json:"user_id"`
	Email       string       `json:"email"`
	DisplayName string       `json:"display_name"`
	Role        Role         `json:"role"`
	JoinedAt    time.Time    `json:"joined_at"`
}

// NewMembership validates and constructs a membership. OWNER memberships are
// created exclusively through auction creation, never by invite.
func NewMembership(auctionID id.AuctionID, userID id.UserID, email, displayName string, role Role, now time.Time) (*Membership, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "user id is required")
	}
	if !validRoles[role] {
		return nil, dErrors.Newf(dErrors.CodeValidation, "invalid role %q", role)
	}
	return &Membership{
		AuctionID:   auctionID,
		UserID:      userID,
		Email:       email,
		DisplayName: displayName,
		Role:        role,
		JoinedAt:    now,
	}, nil
}
