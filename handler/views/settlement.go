package views

import (
	"leverage/core"
	"leverage/pkg/number"

	"github.com/shopspring/decimal"
)

// Settlement settlement view
type Settlement struct {
	Kind             string          `json:"kind"`
	Owner            string          `json:"owner"`
	Account          string          `json:"account"`
	Principal        decimal.Decimal `json:"principal"`
	DebtWithInterest decimal.Decimal `json:"debt_with_interest"`
	AmountToPool     decimal.Decimal `json:"amount_to_pool"`
	RemainingFunds   decimal.Decimal `json:"remaining_funds"`
	Surplus          decimal.Decimal `json:"surplus"`
	PayerTopUp       decimal.Decimal `json:"payer_top_up"`
	Loss             decimal.Decimal `json:"loss"`
	Swept            []*core.Balance `json:"swept,omitempty"`
}

// SettlementView render settlement
func SettlementView(s *core.Settlement, decimals uint8) Settlement {
	d := int32(decimals)
	return Settlement{
		Kind:             s.Kind.String(),
		Owner:            s.Owner.Hex(),
		Account:          s.Account.Hex(),
		Principal:        number.ToDecimal(s.Principal, d),
		DebtWithInterest: number.ToDecimal(s.DebtWithInterest, d),
		AmountToPool:     number.ToDecimal(s.AmountToPool, d),
		RemainingFunds:   number.ToDecimal(s.RemainingFunds, d),
		Surplus:          number.ToDecimal(s.Surplus, d),
		PayerTopUp:       number.ToDecimal(s.PayerTopUp, d),
		Loss:             number.ToDecimal(s.Loss, d),
		Swept:            s.Swept,
	}
}

// Asset collateral asset view
type Asset struct {
	Address              string `json:"address"`
	Symbol               string `json:"symbol,omitempty"`
	Index                uint8  `json:"index"`
	Mask                 string `json:"mask"`
	LiquidationThreshold uint16 `json:"liquidation_threshold"`
}

// AssetView render asset
func AssetView(a *core.CollateralAsset, symbol string) Asset {
	return Asset{
		Address:              a.AssetID.Hex(),
		Symbol:               symbol,
		Index:                a.Index,
		Mask:                 a.Mask.Hex(),
		LiquidationThreshold: a.LiquidationThreshold,
	}
}
