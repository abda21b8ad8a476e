package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// PriceTicker price ticker
type PriceTicker struct {
	Provider string          `json:"provider,omitempty"`
	Symbol   string          `json:"symbol,omitempty"`
	Price    decimal.Decimal `json:"price,omitempty"`
}

// PriceOracle usd prices, 8 decimals fixed point.
// A missing price is ErrPriceUnavailable, never zero.
type PriceOracle interface {
	PriceInUSD(ctx context.Context, asset common.Address) (*uint256.Int, error)
	ConvertToUSD(ctx context.Context, amount *uint256.Int, asset common.Address) (*uint256.Int, error)
	ConvertFromUSD(ctx context.Context, usd *uint256.Int, asset common.Address) (*uint256.Int, error)
}
