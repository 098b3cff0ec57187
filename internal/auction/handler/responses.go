package handler

import (
	"time"

	"bidhall/internal/auction/models"
	"bidhall/internal/auction/service"
	id "bidhall/pkg/domain"
)

// AuctionResponse is the HTTP representation of one auction.
type AuctionResponse struct {
	ID               id.AuctionID `json:"id"`
	Name             string       `json:"name"`
	OwnerID          id.UserID    `json:"owner_id"`
	JoinPolicy       string       `json:"join_policy"`
	BidderVisibility string       `json:"bidder_visibility"`
	ItemEndMode      string       `json:"item_end_mode"`
	MemberCanInvite  bool         `json:"member_can_invite"`
	EndsAt           *time.Time   `json:"ends_at,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// FromAuction converts a domain auction to an HTTP response.
func FromAuction(a *models.Auction) AuctionResponse {
	return AuctionResponse{
		ID:               a.ID,
		Name:             a.Name,
		OwnerID:          a.OwnerID,
		JoinPolicy:       string(a.JoinPolicy),
		BidderVisibility: string(a.BidderVisibility),
		ItemEndMode:      string(a.ItemEndMode),
		MemberCanInvite:  a.MemberCanInvite,
		EndsAt:           a.EndsAt,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

// MemberResponse is the HTTP representation of one membership.
type MemberResponse struct {
	UserID      id.UserID `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

// ListMembersResponse is the HTTP response for GET /auctions/{auctionID}/members.
type ListMembersResponse struct {
	Members []MemberResponse `json:"members"`
}

// FromMembership converts a domain membership to an HTTP response.
func FromMembership(m *models.Membership) MemberResponse {
	return MemberResponse{
		UserID:      m.UserID,
		Email:       m.Email,
		DisplayName: m.DisplayName,
		Role:        string(m.Role),
		JoinedAt:    m.JoinedAt,
	}
}

// WinnerResponse is one item's close outcome.
type WinnerResponse struct {
	ItemID   id.ItemID  `json:"item_id"`
	ItemName string     `json:"item_name"`
	WinnerID *id.UserID `json:"winner_id,omitempty"`
	Amount   *string    `json:"amount,omitempty"`
}

// CloseResponse is the HTTP response for POST /auctions/{auctionID}/close.
type CloseResponse struct {
	Auction       AuctionResponse  `json:"auction"`
	AlreadyClosed bool             `json:"already_closed"`
	Winners       []WinnerResponse `json:"winners"`
}

// FromCloseResult converts a close outcome to an HTTP response.
func FromCloseResult(result *service.CloseResult) CloseResponse {
	resp := CloseResponse{
		Auction:       FromAuction(result.Auction),
		AlreadyClosed: result.AlreadyClosed,
		Winners:       make([]WinnerResponse, 0, len(result.Winners)),
	}
	for _, w := range result.Winners {
		wr := WinnerResponse{
			ItemID:   w.ItemID,
			ItemName: w.ItemName,
			WinnerID: w.WinnerID,
		}
		if w.Amount != nil {
			v := w.Amount.String()
			wr.Amount = &v
		}
		resp.Winners = append(resp.Winners, wr)
	}
	return resp
}
