package handler

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	dErrors "bidhall/pkg/domain-errors"
)

// CreateItemRequest is the HTTP request body for POST /auctions/{auctionID}/items.
// Money fields accept bare JSON numbers or their quoted form.
type CreateItemRequest struct {
	Name              string           `json:"name"`
	Description       string           `json:"description"`
	StartingBid       *decimal.Decimal `json:"starting_bid"`
	MinIncrement      *decimal.Decimal `json:"min_increment"`
	Currency          string           `json:"currency"`
	EndsAt            *time.Time       `json:"ends_at,omitempty"`
	EditableByAdmins  bool             `json:"editable_by_admins"`
	DiscussionEnabled bool             `json:"discussion_enabled"`
	AnonymousDefault  bool             `json:"anonymous_default"`
	ImageURL          string           `json:"image_url"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateItemRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.StartingBid == nil {
		return dErrors.New(dErrors.CodeValidation, "starting_bid is required")
	}
	if r.MinIncrement == nil {
		return dErrors.New(dErrors.CodeValidation, "min_increment is required")
	}
	if r.Currency == "" {
		return dErrors.New(dErrors.CodeValidation, "currency is required")
	}
	return nil
}

// ParsedStartingBid returns the validated starting bid.
func (r *CreateItemRequest) ParsedStartingBid() decimal.Decimal {
	return *r.StartingBid
}

// ParsedMinIncrement returns the validated minimum increment.
func (r *CreateItemRequest) ParsedMinIncrement() decimal.Decimal {
	return *r.MinIncrement
}

// UpdateItemRequest is the HTTP request body for PATCH
// /auctions/{auctionID}/items/{itemID}. Absent fields are unchanged.
type UpdateItemRequest struct {
	Name              *string          `json:"name,omitempty"`
	Description       *string          `json:"description,omitempty"`
	StartingBid       *decimal.Decimal `json:"starting_bid,omitempty"`
	MinIncrement      *decimal.Decimal `json:"min_increment,omitempty"`
	Currency          *string          `json:"currency,omitempty"`
	EndsAt            *time.Time       `json:"ends_at,omitempty"`
	EditableByAdmins  *bool            `json:"editable_by_admins,omitempty"`
	DiscussionEnabled *bool            `json:"discussion_enabled,omitempty"`
	AnonymousDefault  *bool            `json:"anonymous_default,omitempty"`
	ImageURL          *string          `json:"image_url,omitempty"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *UpdateItemRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

// ParsedStartingBid returns the starting bid, nil when absent.
func (r *UpdateItemRequest) ParsedStartingBid() *decimal.Decimal {
	return r.StartingBid
}

// ParsedMinIncrement returns the minimum increment, nil when absent.
func (r *UpdateItemRequest) ParsedMinIncrement() *decimal.Decimal {
	return r.MinIncrement
}
