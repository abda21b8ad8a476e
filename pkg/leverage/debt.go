package leverage

import (
	"leverage/core"

	"github.com/holiman/uint256"
)

// DebtWithInterest principal * index_now / index_at_open, rounded down
func DebtWithInterest(principal, indexNow, indexAtOpen *uint256.Int) (*uint256.Int, error) {
	if indexAtOpen.IsZero() {
		return nil, core.ErrArithmeticOverflow
	}

	return MulDiv(principal, indexNow, indexAtOpen)
}

// BorrowedAmount amount * leverage_factor / LeverageDecimals
func BorrowedAmount(amount *uint256.Int, leverageFactor uint64) (*uint256.Int, error) {
	return MulDiv(amount, uint256.NewInt(leverageFactor), uint256.NewInt(LeverageDecimals))
}

// RebaseIndex accrual index at which principal+borrowed carries the same interest
// as debt+borrowed does today: new_index = index_now * (principal + borrowed) / (debt + borrowed)
func RebaseIndex(principal, debt, borrowed, indexNow *uint256.Int) (*uint256.Int, error) {
	newPrincipal, err := Add(principal, borrowed)
	if err != nil {
		return nil, err
	}

	newDebt, err := Add(debt, borrowed)
	if err != nil {
		return nil, err
	}

	return MulDiv(indexNow, newPrincipal, newDebt)
}
