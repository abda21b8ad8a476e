package leverage

import "github.com/holiman/uint256"

const (
	// PercentageFactor 100%
	PercentageFactor = 10000
	// LeverageDecimals leverage factor 100 is 1x
	LeverageDecimals = 100
	// MaxAssets mask width, the underlying included
	MaxAssets = 256
	// PriceDecimals usd price and value precision
	PriceDecimals = 8
)

var (
	// Ray accrual index base, 1e27
	Ray = uint256.MustFromDecimal("1000000000000000000000000000")
	// DustAmount smallest unit, balances up to it count as empty
	DustAmount = uint256.NewInt(1)
	// Max max uint256, health factor of a position without debt
	Max = new(uint256.Int).SetAllOne()
)
