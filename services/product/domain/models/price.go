package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Price is an exact decimal amount. It is written to JSON as a bare number
// and read from either a number or a numeric string.
type Price struct {
	decimal.Decimal
}

// NewPrice parses s as a decimal price.
func NewPrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("parse price %q: %w", s, err)
	}
	return Price{Decimal: d}, nil
}

// MustPrice is NewPrice for constants in tests and seed data.
func MustPrice(s string) Price {
	p, err := NewPrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

// MarshalJSON writes the price as an unquoted JSON number.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.Decimal.String()), nil
}

// Equal reports whether p and o denote the same amount, ignoring scale.
func (p Price) Equal(o Price) bool {
	return p.Decimal.Equal(o.Decimal)
}
