package handler

import (
	"github.com/shopspring/decimal"

	dErrors "bidhall/pkg/domain-errors"
)

// PlaceBidRequest is the HTTP request body for POST /items/{itemID}/bids.
// Amount accepts a bare JSON number or its quoted form.
type PlaceBidRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Anonymous *bool           `json:"is_anonymous,omitempty"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *PlaceBidRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if !r.Amount.IsPositive() {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	return nil
}

// ParsedAmount returns the validated bid amount.
func (r *PlaceBidRequest) ParsedAmount() decimal.Decimal {
	return r.Amount
}
