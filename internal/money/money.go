// Package money formats decimal amounts with the shop's fixed currency symbol.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// DefaultCurrency is the ISO 4217 code used when none is configured.
const DefaultCurrency = "INR"

// Formatter renders amounts as symbol + two decimals, e.g. "₹65.00".
type Formatter struct {
	symbol string
}

// NewFormatter resolves the narrow symbol for an ISO currency code.
func NewFormatter(code string) (*Formatter, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("invalid currency %q: %w", code, err)
	}
	return &Formatter{symbol: fmt.Sprint(currency.NarrowSymbol(unit))}, nil
}

// Symbol returns the currency symbol.
func (f *Formatter) Symbol() string { return f.symbol }

// Format renders d with the symbol and exactly two decimals.
func (f *Formatter) Format(d decimal.Decimal) string {
	return f.symbol + Fixed(d)
}

// Fixed renders d with exactly two decimals and no symbol.
func Fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}
