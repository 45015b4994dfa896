// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package protection

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidNumber is returned when a numeric field is neither a JSON number
// nor a numeric string.
var ErrInvalidNumber = errors.New("invalid number")

// Number is an optional numeric field accepting 20, "20" or "20.5". Null and
// the empty string decode as absent.
type Number struct {
	decimal.NullDecimal
}

// N returns a present Number.
func N(v float64) Number {
	return Number{decimal.NewNullDecimal(decimal.NewFromFloat(v))}
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte(`""`)) || bytes.Equal(b, []byte("null")) {
		n.Valid = false
		return nil
	}
	if err := n.NullDecimal.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidNumber, b)
	}
	return nil
}

// Present reports whether the field was supplied.
func (n Number) Present() bool {
	return n.Valid
}

// Set reports whether the field was supplied with a non-zero value.
func (n Number) Set() bool {
	return n.Valid && !n.Decimal.IsZero()
}

// Float returns the value, or 0 when absent.
func (n Number) Float() float64 {
	if !n.Valid {
		return 0
	}
	return n.Decimal.InexactFloat64()
}
