// Package money provides the fixed-point monetary type used for every
// amount in the ledger. Values are stored in minor units (cents), so all
// arithmetic stays in integers and results are reproducible bit-for-bit.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Money is an amount in minor units (cents). It marshals to JSON as a
// plain integer of minor units.
type Money int64

// Zero is the zero amount.
const Zero Money = 0

// ErrMalformedAmount indicates an unparseable decimal amount string.
var ErrMalformedAmount = errors.New("malformed money amount")

// FromMinorUnits builds a Money from a raw minor-unit count.
func FromMinorUnits(v int64) Money {
	return Money(v)
}

// MinorUnits returns the raw minor-unit count.
func (m Money) MinorUnits() int64 {
	return int64(m)
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return m + o
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return m - o
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m == 0
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m < 0
}

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool {
	return m > 0
}

// LessThan reports whether m is strictly smaller than o.
func (m Money) LessThan(o Money) bool {
	return m < o
}

// String renders the amount as a decimal with two fraction digits, e.g.
// "1234.56" or "-0.05".
func (m Money) String() string {
	v := int64(m)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Parse converts a decimal string ("1234", "1234.5", "1234.56") into minor
// units. More than two fraction digits is rejected rather than rounded:
// the ledger never invents precision.
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrMalformedAmount)
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	wholePart := s
	fracPart := ""
	hasDot := false
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		hasDot = true
		wholePart = s[:idx]
		fracPart = s[idx+1:]
	}
	if wholePart == "" && fracPart == "" {
		return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	if hasDot && fracPart == "" {
		return 0, fmt.Errorf("%w: trailing decimal point in %q", ErrMalformedAmount, s)
	}
	if len(fracPart) > 2 {
		return 0, fmt.Errorf("%w: more than two fraction digits in %q", ErrMalformedAmount, s)
	}
	// The sign was consumed above; anything but digits from here on (a
	// second sign, "+", a second dot) is malformed.
	if !digitsOnly(wholePart) || !digitsOnly(fracPart) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}

	whole := int64(0)
	if wholePart != "" {
		var err error
		whole, err = strconv.ParseInt(wholePart, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
		}
	}

	frac := int64(0)
	if fracPart != "" {
		var err error
		frac, err = strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
		}
		if len(fracPart) == 1 {
			frac *= 10
		}
	}

	v := whole*100 + frac
	if negative {
		v = -v
	}
	return Money(v), nil
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
