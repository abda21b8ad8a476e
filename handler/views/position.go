package views

import (
	"leverage/core"
	"leverage/pkg/leverage"
	"leverage/pkg/number"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Position position view, amounts in whole underlying units
type Position struct {
	Owner              string          `json:"owner"`
	Account            string          `json:"account"`
	BorrowedAmount     decimal.Decimal `json:"borrowed_amount"`
	AccrualIndexAtOpen decimal.Decimal `json:"accrual_index_at_open"`
	EnabledAssetMask   string          `json:"enabled_asset_mask"`
}

// PositionView render position
func PositionView(p *core.Position, decimals uint8) Position {
	return Position{
		Owner:              p.Owner.Hex(),
		Account:            p.Account.Hex(),
		BorrowedAmount:     number.ToDecimal(p.BorrowedAmount, int32(decimals)),
		AccrualIndexAtOpen: number.ToDecimal(p.AccrualIndexAtOpen, 27),
		EnabledAssetMask:   p.EnabledAssetMask.Hex(),
	}
}

// Health valuation view, usd values with 8 decimals scaled down
type Health struct {
	Owner             string          `json:"owner"`
	DebtWithInterest  decimal.Decimal `json:"debt_with_interest"`
	DebtUSD           decimal.Decimal `json:"debt_usd"`
	TotalUSD          decimal.Decimal `json:"total_usd"`
	WeightedUSD       decimal.Decimal `json:"weighted_usd"`
	TotalInUnderlying decimal.Decimal `json:"total_in_underlying"`
	HealthFactor      decimal.Decimal `json:"health_factor"`
	Liquidatable      bool            `json:"liquidatable"`
}

// HealthView render valuation
func HealthView(owner string, v *core.Valuation, decimals uint8) Health {
	h := Health{
		Owner:             owner,
		DebtWithInterest:  number.ToDecimal(v.DebtWithInterest, int32(decimals)),
		DebtUSD:           number.ToDecimal(v.DebtUSD, leverage.PriceDecimals),
		TotalUSD:          number.ToDecimal(v.TotalUSD, leverage.PriceDecimals),
		WeightedUSD:       number.ToDecimal(v.WeightedUSD, leverage.PriceDecimals),
		TotalInUnderlying: number.ToDecimal(v.TotalInUnderlying, int32(decimals)),
		Liquidatable:      v.HealthFactor.Lt(uint256.NewInt(leverage.PercentageFactor)),
	}

	// zero debt has no meaningful factor
	if !v.HealthFactor.Eq(leverage.Max) {
		h.HealthFactor = number.ToDecimal(v.HealthFactor, 4)
	}

	return h
}

// Allowance ledger allowance view
type Allowance struct {
	Asset   string          `json:"asset"`
	Owner   string          `json:"owner"`
	Spender string          `json:"spender"`
	Amount  decimal.Decimal `json:"amount"`
}
