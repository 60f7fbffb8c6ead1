package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AlphDecimals is the number of decimals of the native ALPH token.
const AlphDecimals = 18

// ParseAmount validates a base-10 attoALPH amount string. Amounts are
// non-negative integers; fractional attoALPH does not exist.
func ParseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount cannot be empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount cannot be negative: %s", s)
	}
	if d.Exponent() < 0 && !d.Equal(d.Truncate(0)) {
		return decimal.Zero, fmt.Errorf("amount must be an integer number of attoALPH: %s", s)
	}
	return d, nil
}

// FormatAlph renders an attoALPH amount as a human readable ALPH string.
func FormatAlph(attoAlph decimal.Decimal) string {
	return attoAlph.Shift(-AlphDecimals).String()
}
