package core

import "github.com/holiman/uint256"

// TotalDebt process wide debt aggregate
type TotalDebt struct {
	Current *uint256.Int `json:"current"`
	Limit   *uint256.Int `json:"limit"`
}

// LiquidationParameters liquidation settings
type LiquidationParameters struct {
	// LiquidationDiscount part of the total value credited to the debt, out of leverage.PercentageFactor
	LiquidationDiscount uint16 `json:"liquidation_discount"`
}

// IDebtTracker journaled TotalDebt
type IDebtTracker interface {
	Journal
	Total() TotalDebt
	// Increase fails with ErrDebtLimitExceeded when the limit would be crossed
	Increase(amount *uint256.Int) error
	Decrease(amount *uint256.Int) error
}
