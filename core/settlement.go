package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ClosureKind close or liquidation
type ClosureKind int

const (
	_ ClosureKind = iota
	// ClosureClose voluntary close
	ClosureClose
	// ClosureLiquidation forced liquidation
	ClosureLiquidation
)

func (k ClosureKind) String() string {
	switch k {
	case ClosureClose:
		return "close"
	case ClosureLiquidation:
		return "liquidation"
	default:
		return "unknown"
	}
}

// SettlementRequest settlement input
type SettlementRequest struct {
	Kind  ClosureKind
	Owner common.Address
	// Payer covers the underlying shortfall
	Payer common.Address
	// To receives the surplus underlying and the swept assets
	To common.Address
	// TotalValue position value in the underlying, liquidation only
	TotalValue *uint256.Int
}

// Settlement payments of one closed position
type Settlement struct {
	Kind              ClosureKind    `json:"kind"`
	Owner             common.Address `json:"owner"`
	Account           common.Address `json:"account"`
	Principal         *uint256.Int   `json:"principal"`
	DebtWithInterest  *uint256.Int   `json:"debt_with_interest"`
	UnderlyingBalance *uint256.Int   `json:"underlying_balance"`
	AmountToPool      *uint256.Int   `json:"amount_to_pool"`
	RemainingFunds    *uint256.Int   `json:"remaining_funds"`
	Surplus           *uint256.Int   `json:"surplus"`
	PayerTopUp        *uint256.Int   `json:"payer_top_up"`
	// Loss under-recovered debt, reported only
	Loss  *uint256.Int `json:"loss"`
	Swept []*Balance   `json:"swept"`
}

// ISettlementEngine closes positions and moves the funds
type ISettlementEngine interface {
	Settle(ctx context.Context, req *SettlementRequest) (*Settlement, error)
}
