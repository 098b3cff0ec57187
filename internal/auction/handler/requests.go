package handler

import (
	"strings"
	"time"

	"bidhall/internal/auction/models"
	id "bidhall/pkg/domain"
	dErrors "bidhall/pkg/domain-errors"
)

// CreateAuctionRequest is the HTTP request body for POST /auctions.
type CreateAuctionRequest struct {
	Name             string     `json:"name"`
	JoinPolicy       string     `json:"join_policy"`
	BidderVisibility string     `json:"bidder_visibility"`
	ItemEndMode      string     `json:"item_end_mode"`
	MemberCanInvite  bool       `json:"member_can_invite"`
	EndsAt           *time.Time `json:"ends_at,omitempty"`

	// Parsed values (populated by Validate)
	parsedJoinPolicy models.JoinPolicy
	parsedVisibility models.BidderVisibility
	parsedEndMode    models.ItemEndMode
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateAuctionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}

	// Absent policies default to the permissive variants.
	if r.JoinPolicy == "" {
		r.JoinPolicy = string(models.JoinOpen)
	}
	if r.BidderVisibility == "" {
		r.BidderVisibility = string(models.VisibilityVisible)
	}
	if r.ItemEndMode == "" {
		r.ItemEndMode = string(models.EndModeInherit)
	}

	joinPolicy, err := models.ParseJoinPolicy(r.JoinPolicy)
	if err != nil {
		return err
	}
	visibility, err := models.ParseBidderVisibility(r.BidderVisibility)
	if err != nil {
		return err
	}
	endMode, err := models.ParseItemEndMode(r.ItemEndMode)
	if err != nil {
		return err
	}
	r.parsedJoinPolicy = joinPolicy
	r.parsedVisibility = visibility
	r.parsedEndMode = endMode
	return nil
}

// ParsedJoinPolicy returns the validated join policy.
func (r *CreateAuctionRequest) ParsedJoinPolicy() models.JoinPolicy {
	return r.parsedJoinPolicy
}

// ParsedBidderVisibility returns the validated bidder visibility.
func (r *CreateAuctionRequest) ParsedBidderVisibility() models.BidderVisibility {
	return r.parsedVisibility
}

// ParsedItemEndMode returns the validated item end mode.
func (r *CreateAuctionRequest) ParsedItemEndMode() models.ItemEndMode {
	return r.parsedEndMode
}

// UpdateAuctionRequest is the HTTP request body for PATCH
// /auctions/{auctionID}. Absent fields are unchanged.
type UpdateAuctionRequest struct {
	Name             *string    `json:"name,omitempty"`
	JoinPolicy       *string    `json:"join_policy,omitempty"`
	BidderVisibility *string    `json:"bidder_visibility,omitempty"`
	ItemEndMode      *string    `json:"item_end_mode,omitempty"`
	MemberCanInvite  *bool      `json:"member_can_invite,omitempty"`
	EndsAt           *time.Time `json:"ends_at,omitempty"`

	// Parsed values (populated by Validate)
	parsedJoinPolicy *models.JoinPolicy
	parsedVisibility *models.BidderVisibility
	parsedEndMode    *models.ItemEndMode
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *UpdateAuctionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.JoinPolicy != nil {
		v, err := models.ParseJoinPolicy(*r.JoinPolicy)
		if err != nil {
			return err
		}
		r.parsedJoinPolicy = &v
	}
	if r.BidderVisibility != nil {
		v, err := models.ParseBidderVisibility(*r.BidderVisibility)
		if err != nil {
			return err
		}
		r.parsedVisibility = &v
	}
	if r.ItemEndMode != nil {
		v, err := models.ParseItemEndMode(*r.ItemEndMode)
		if err != nil {
			return err
		}
		r.parsedEndMode = &v
	}
	return nil
}

// ParsedJoinPolicy returns the validated join policy, nil when absent.
func (r *UpdateAuctionRequest) ParsedJoinPolicy() *models.JoinPolicy {
	return r.parsedJoinPolicy
}

// ParsedBidderVisibility returns the validated bidder visibility, nil when absent.
func (r *UpdateAuctionRequest) ParsedBidderVisibility() *models.BidderVisibility {
	return r.parsedVisibility
}

// ParsedItemEndMode returns the validated item end mode, nil when absent.
func (r *UpdateAuctionRequest) ParsedItemEndMode() *models.ItemEndMode {
	return r.parsedEndMode
}

// InviteRequest is the HTTP request body for POST /auctions/{auctionID}/invites.
type InviteRequest struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`

	// Parsed values (populated by Validate)
	parsedUserID id.UserID
	parsedRole   models.Role
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *InviteRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.UserID == "" {
		return dErrors.New(dErrors.CodeValidation, "user_id is required")
	}
	userID, err := id.ParseUserID(r.UserID)
	if err != nil {
		return err
	}
	if r.Role == "" {
		r.Role = string(models.RoleBidder)
	}
	role, err := models.ParseRole(r.Role)
	if err != nil {
		return err
	}
	r.parsedUserID = userID
	r.parsedRole = role
	return nil
}

// ParsedUserID returns the validated invitee user ID.
func (r *InviteRequest) ParsedUserID() id.UserID {
	return r.parsedUserID
}

// ParsedRole returns the validated role.
func (r *InviteRequest) ParsedRole() models.Role {
	return r.parsedRole
}

// ChangeRoleRequest is the HTTP request body for PATCH
// /auctions/{auctionID}/members/{userID}.
type ChangeRoleRequest struct {
	Role string `json:"role"`

	// Parsed values (populated by Validate)
	parsedRole models.Role
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ChangeRoleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Role == "" {
		return dErrors.New(dErrors.CodeValidation, "role is required")
	}
	role, err := models.ParseRole(r.Role)
	if err != nil {
		return err
	}
	r.parsedRole = role
	return nil
}

// ParsedRole returns the validated role.
func (r *ChangeRoleRequest) ParsedRole() models.Role {
	return r.parsedRole
}
