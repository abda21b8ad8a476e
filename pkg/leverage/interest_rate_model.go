package leverage

import (
	"leverage/core"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var (
	// SecondsPerYear seconds per year
	SecondsPerYear = decimal.NewFromInt(31536000)
	// MaxPricision max pricision
	MaxPricision int32 = 16
)

// RateModel jump rate model, rates are per year
type RateModel struct {
	BaseRate       decimal.Decimal `json:"base_rate"`
	Multiplier     decimal.Decimal `json:"multiplier"`
	JumpMultiplier decimal.Decimal `json:"jump_multiplier"`
	Kink           decimal.Decimal `json:"kink"`
}

// UtilizationRate utilization rate
// utilization_rate = borrowed/(cash + borrowed)
func UtilizationRate(cash, borrowed decimal.Decimal) decimal.Decimal {
	total := cash.Add(borrowed)
	if total.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	return borrowed.Div(total).Truncate(MaxPricision)
}

// BorrowRate borrow rate per year
func (m RateModel) BorrowRate(utilizationRate decimal.Decimal) decimal.Decimal {
	if m.Kink.Equal(decimal.Zero) ||
		utilizationRate.LessThanOrEqual(m.Kink) {
		return utilizationRate.Mul(m.Multiplier).Add(m.BaseRate).Truncate(MaxPricision)
	}

	normalRate := m.Kink.Mul(m.Multiplier).Add(m.BaseRate)
	excessUtilRate := utilizationRate.Sub(m.Kink)
	return excessUtilRate.Mul(m.JumpMultiplier).Add(normalRate).Truncate(MaxPricision)
}

// BorrowRatePerSecond borrow rate per second
func (m RateModel) BorrowRatePerSecond(utilizationRate decimal.Decimal) decimal.Decimal {
	return m.BorrowRate(utilizationRate).Div(SecondsPerYear).Truncate(MaxPricision)
}

// GrowIndex index * (1 + rate_per_second * seconds), linear between checkpoints
func GrowIndex(index *uint256.Int, ratePerSecond decimal.Decimal, seconds int64) (*uint256.Int, error) {
	if seconds <= 0 || !ratePerSecond.IsPositive() {
		return new(uint256.Int).Set(index), nil
	}

	rayRate, overflow := uint256.FromBig(ratePerSecond.Mul(decimal.NewFromInt(seconds)).Shift(27).Truncate(0).BigInt())
	if overflow {
		return nil, core.ErrArithmeticOverflow
	}

	interest, err := MulDivUp(index, rayRate, Ray)
	if err != nil {
		return nil, err
	}

	return Add(index, interest)
}
