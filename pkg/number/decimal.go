package number

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// ErrInvalidAmount amount can not be represented on the ledger
var ErrInvalidAmount = errors.New("invalid amount")

func Decimal(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

func Ceil(d decimal.Decimal, precision int32) decimal.Decimal {
	return d.Shift(precision).Ceil().Shift(-precision)
}

// ToDecimal ledger amount to human value
func ToDecimal(v *uint256.Int, decimals int32) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(v.ToBig(), -decimals)
}

// FromDecimal human value to ledger amount, extra precision is truncated
func FromDecimal(d decimal.Decimal, decimals int32) (*uint256.Int, error) {
	if d.IsNegative() {
		return nil, ErrInvalidAmount
	}

	v, overflow := uint256.FromBig(d.Shift(decimals).Truncate(0).BigInt())
	if overflow {
		return nil, ErrInvalidAmount
	}

	return v, nil
}

// FromString parses a human value
func FromString(s string, decimals int32) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, ErrInvalidAmount
	}

	return FromDecimal(d, decimals)
}
