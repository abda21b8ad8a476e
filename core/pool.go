package core

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// AccrualProvider cumulative accrual index, in ray
type AccrualProvider interface {
	CumulativeIndexNow(ctx context.Context) (*uint256.Int, error)
}

// LendingPool lends the underlying to positions
type LendingPool interface {
	AccrualProvider
	Journal
	Address() common.Address
	// Lend sends amount of the underlying to the position account
	Lend(ctx context.Context, amount *uint256.Int, account common.Address) error
	// Repay is called after the repaid funds reached the pool
	Repay(ctx context.Context, principal, profit, loss *uint256.Int) error
	TotalBorrowed() *uint256.Int
	// Checkpoint last accrued index and when it was accrued
	Checkpoint() (*uint256.Int, time.Time)
}
