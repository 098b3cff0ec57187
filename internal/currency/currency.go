// Package currency is static reference data: the currencies items may be
// priced in. No behavior beyond lookup.
package currency

import (
	dErrors "bidhall/pkg/domain-errors"
)

// Currency pairs an ISO 4217 code with its display symbol.
type Currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
}

var supported = []Currency{
	{Code: "USD", Symbol: "$"},
	{Code: "EUR", Symbol: "€"},
	{Code: "GBP", Symbol: "£"},
	{Code: "CHF", Symbol: "CHF"},
	{Code: "JPY", Symbol: "¥"},
	{Code: "CAD", Symbol: "CA$"},
	{Code: "AUD", Symbol: "A$"},
	{Code: "SEK", Symbol: "kr"},
	{Code: "NOK", Symbol: "kr"},
	{Code: "DKK", Symbol: "kr"},
}

var byCode = func() map[string]Currency {
	m := make(map[string]Currency, len(supported))
	for _, c := range supported {
		m[c.Code] = c
	}
	return m
}()

// Parse validates a currency code against the supported set.
func Parse(code string) (Currency, error) {
	if c, ok := byCode[code]; ok {
		return c, nil
	}
	return Currency{}, dErrors.Newf(dErrors.CodeValidation, "unsupported currency %q", code)
}

// IsSupported reports whether the code is in the supported set.
func IsSupported(code string) bool {
	_, ok := byCode[code]
	return ok
}

// All returns the supported currencies in a stable order.
func All() []Currency {
	out := make([]Currency, len(supported))
	copy(out, supported)
	return out
}
