// Package units converts between human-readable currency amounts and the
// ledger's 18-decimal fixed-point integers.
package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits in the ledger's native unit.
const Decimals = 18

// maxBits bounds fixed-point values to the ledger's uint256 word.
const maxBits = 256

var (
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrAmountOutOfRange = errors.New("amount exceeds ledger integer range")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// ToFixedPoint scales amount by 10^18. Fractional digits past the 18th are
// truncated toward zero. Amounts that reached a caller as float64 have
// already been rounded to float precision, and that loss is not recovered.
func ToFixedPoint(amount decimal.Decimal) (*big.Int, error) {
	if amount.IsNegative() {
		return nil, ErrNegativeAmount
	}
	v := amount.Shift(Decimals).BigInt()
	if v.BitLen() > maxBits {
		return nil, ErrAmountOutOfRange
	}
	return v, nil
}

// FromFixedPoint divides v by 10^18 without rounding. A nil value is zero.
func FromFixedPoint(v *big.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -Decimals)
}

// ParseAmount parses a decimal string such as "0.015".
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return d, nil
}

// MinorUnits converts a major-unit fiat amount to the smallest currency unit
// (paise, cents). Amounts are truncated to two decimals.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).IntPart()
}
