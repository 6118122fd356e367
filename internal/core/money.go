// Package core provides the ledger entities and their value types.
//
// This file contains the monetary amount type shared by transactions and fills.
package core

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a signed decimal monetary value.
//
// It marshals to a bare JSON number so clients can post and read plain
// numbers (1300, -30.5), and it accepts numeric strings as well.
type Amount struct {
	decimal.Decimal
}

// NewAmount builds an Amount from a float, rounding to cents.
func NewAmount(v float64) Amount {
	return Amount{Decimal: decimal.NewFromFloat(v).Round(2)}
}

// ParseAmount parses a decimal string such as "12.34" or "-800".
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: invalid amount %q", ErrValidation, s)
	}
	return Amount{Decimal: d}, nil
}

func (a Amount) Add(b Amount) Amount {
	return Amount{Decimal: a.Decimal.Add(b.Decimal)}
}

func (a Amount) Equal(b Amount) bool {
	return a.Decimal.Equal(b.Decimal)
}

func (a Amount) IsPositive() bool {
	return a.Decimal.IsPositive()
}

func (a Amount) IsNegative() bool {
	return a.Decimal.IsNegative()
}

// Float64 returns the value as a float for display and spreadsheet export.
func (a Amount) Float64() float64 {
	f, _ := a.Decimal.Float64()
	return f
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	if err := a.Decimal.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: invalid amount %s", ErrValidation, data)
	}
	return nil
}

// Value stores the amount as a float so SQLite SUM() stays numeric.
func (a Amount) Value() (driver.Value, error) {
	f, _ := a.Decimal.Float64()
	return f, nil
}

func (a *Amount) Scan(src any) error {
	if src == nil {
		a.Decimal = decimal.Zero
		return nil
	}
	if f, ok := src.(float64); ok {
		// REAL columns come back as float64; round away binary noise.
		a.Decimal = decimal.NewFromFloat(f)
		return nil
	}
	return a.Decimal.Scan(src)
}

func (a Amount) String() string {
	return a.Decimal.String()
}
