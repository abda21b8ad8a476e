package leverage

import (
	"github.com/holiman/uint256"
)

// ClosePayments payment split of a closed position
type ClosePayments struct {
	AmountToPool   *uint256.Int
	RemainingFunds *uint256.Int
	// Loss debt not covered by a liquidation, only reported
	Loss *uint256.Int
}

// CalcClosePayments splits the funds of a closed position
//
// close: amount_to_pool = debt
// liquidation: total_funds = total_value * discount, the owner gets
// total_funds - debt - 1 when it exceeds the debt, otherwise the pool gets total_funds
func CalcClosePayments(totalValue *uint256.Int, liquidated bool, discount uint16, debtWithInterest *uint256.Int) (*ClosePayments, error) {
	payments := &ClosePayments{
		AmountToPool:   new(uint256.Int).Set(debtWithInterest),
		RemainingFunds: Zero(),
		Loss:           Zero(),
	}

	if !liquidated {
		return payments, nil
	}

	totalFunds, err := PercentMul(totalValue, discount)
	if err != nil {
		return nil, err
	}

	if totalFunds.Gt(payments.AmountToPool) {
		remaining, err := Sub(totalFunds, payments.AmountToPool)
		if err != nil {
			return nil, err
		}
		payments.RemainingFunds = remaining.Sub(remaining, DustAmount)
		return payments, nil
	}

	payments.Loss = new(uint256.Int).Sub(payments.AmountToPool, totalFunds)
	payments.AmountToPool = totalFunds
	return payments, nil
}
