package models

import (
	"strings"
	"time"

	id "bidhall/pkg/domain"
	dErrors "bidhall/pkg/domain-errors"
)

// BidderVisibility controls whether bidder identities are shown on bids.
type BidderVisibility string

const (
	// VisibilityVisible shows every bidder; per-bid anonymity requests are ignored.
	VisibilityVisible BidderVisibility = "VISIBLE"
	// VisibilityAnonymous hides every bidder regardless of request.
	VisibilityAnonymous BidderVisibility = "ANONYMOUS"
	// VisibilityPerBid leaves the choice to each bidder.
	VisibilityPerBid BidderVisibility = "PER_BID"
)

var validVisibilities = map[BidderVisibility]bool{
	VisibilityVisible:   true,
	VisibilityAnonymous: true,
	VisibilityPerBid:    true,
}

func ParseBidderVisibility(s string) (BidderVisibility, error) {
	v := BidderVisibility(s)
	if !validVisibilities[v] {
		return "", dErrors.Newf(dErrors.CodeValidation, "invalid bidder visibility %q", s)
	}
	return v, nil
}

// ItemEndMode is the auction-level policy for item end times.
type ItemEndMode string

const (
	// EndModeInherit makes every item end when the auction ends.
	EndModeInherit ItemEndMode = "INHERIT"
	// EndModeCustom allows per-item end times (capped by the auction end).
	EndModeCustom ItemEndMode = "CUSTOM"
	// EndModeNone means items never end automatically.
	EndModeNone ItemEndMode = "NONE"
)

var validEndModes = map[ItemEndMode]bool{
	EndModeInherit: true,
	EndModeCustom:  true,
	EndModeNone:    true,
}

func ParseItemEndMode(s string) (ItemEndMode, error) {
	m := ItemEndMode(s)
	if !validEndModes[m] {
		return "", dErrors.Newf(dErrors.CodeValidation, "invalid item end mode %q", s)
	}
	return m, nil
}

// JoinPolicy controls who may become a member.
type JoinPolicy string

const (
	// JoinOpen lets any authenticated user join as a bidder.
	JoinOpen JoinPolicy = "OPEN"
	// JoinInviteOnly requires an invite from someone with invite capability.
	JoinInviteOnly JoinPolicy = "INVITE"
)

var validJoinPolicies = map[JoinPolicy]bool{
	JoinOpen:       true,
	JoinInviteOnly: true,
}

func ParseJoinPolicy(s string) (JoinPolicy, error) {
	p := JoinPolicy(s)
	if !validJoinPolicies[p] {
		return "", dErrors.Newf(dErrors.CodeValidation, "invalid join policy %q", s)
	}
	return p, nil
}

// Auction is the aggregate root for one marketplace tenant.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - EndsAt, once in the past, is immutable: an ended auction is never reopened
//   - exactly one OWNER membership exists, assigned at creation
type Auction struct {
	ID               id.AuctionID     `json:"id"`
	Name             string           `json:"name"`
	OwnerID          id.UserID        `json:"owner_id"`
	JoinPolicy       JoinPolicy       `json:"join_policy"`
	BidderVisibility BidderVisibility `json:"bidder_visibility"`
	ItemEndMode      ItemEndMode      `json:"item_end_mode"`
	MemberCanInvite  bool             `json:"member_can_invite"`
	EndsAt           *time.Time       `json:"ends_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// IsEnded reports whether the auction has ended at the given instant.
func (a *Auction) IsEnded(now time.Time) bool {
	return a.EndsAt != nil && !a.EndsAt.After(now)
}

// ApplyClose stamps the auction end. Items are cascaded by the caller inside
// the same transaction boundary.
func (a *Auction) ApplyClose(now time.Time) {
	a.EndsAt = &now
	a.UpdatedAt = now
}

// NewAuction validates and constructs an auction owned by ownerID.
func NewAuction(auctionID id.AuctionID, ownerID id.UserID, name string, joinPolicy JoinPolicy, visibility BidderVisibility, endMode ItemEndMode, memberCanInvite bool, endsAt *time.Time, now time.Time) (*Auction, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "auction name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeValidation, "auction name must be 128 characters or less")
	}
	if endsAt != nil && !endsAt.After(now) {
		return nil, dErrors.New(dErrors.CodeValidation, "auction end must be in the future")
	}
	return &Auction{
		ID:               auctionID,
		Name:             name,
		OwnerID:          ownerID,
		JoinPolicy:       joinPolicy,
		BidderVisibility: visibility,
		ItemEndMode:      endMode,
		MemberCanInvite:  memberCanInvite,
		EndsAt:           endsAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}
