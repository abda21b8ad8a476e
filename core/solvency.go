package core

import (
	"context"

	"github.com/holiman/uint256"
)

// Valuation position value snapshot, usd figures are 8 decimals
type Valuation struct {
	DebtWithInterest  *uint256.Int `json:"debt_with_interest"`
	DebtUSD           *uint256.Int `json:"debt_usd"`
	TotalUSD          *uint256.Int `json:"total_usd"`
	WeightedUSD       *uint256.Int `json:"weighted_usd"`
	TotalInUnderlying *uint256.Int `json:"total_in_underlying"`
	HealthFactor      *uint256.Int `json:"health_factor"`
}

// ISolvencyChecker weighted collateral against debt
type ISolvencyChecker interface {
	DebtWithInterest(ctx context.Context, position *Position) (*uint256.Int, error)
	// FullCheck fails with ErrInsufficientCollateral
	FullCheck(ctx context.Context, position *Position) error
	HealthFactor(ctx context.Context, position *Position) (*uint256.Int, error)
	IsLiquidatable(ctx context.Context, position *Position) (bool, error)
	TotalValue(ctx context.Context, position *Position) (*Valuation, error)
}
