package engine

import (
	"context"
	"leverage/core"
	"leverage/pkg/leverage"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

func (e *Engine) nextAccount() (common.Address, uint64) {
	nonce := e.nonce
	e.nonce++
	return crypto.CreateAddress(e.cfg.Address, nonce), nonce
}

// OpenPosition opens a position for onBehalfOf funded by caller,
// borrowing amount * leverageFactor / LeverageDecimals from the pool
func (e *Engine) OpenPosition(ctx context.Context, caller, onBehalfOf common.Address, amount *uint256.Int, leverageFactor uint64) (*core.Position, error) {
	var opened *core.Position

	op := operation{kind: core.OperationOpen, caller: caller, owner: onBehalfOf}
	err := e.atomic(ctx, op, func(ctx context.Context, change *core.StateChange) (interface{}, error) {
		if err := requireNotZero(onBehalfOf, "owner"); err != nil {
			return nil, err
		}

		if err := leverage.Require(!amount.Lt(e.cfg.MinAmount) && !amount.Gt(e.cfg.MaxAmount), core.ErrInvalidAmount, "amount out of range"); err != nil {
			return nil, err
		}

		if err := leverage.Require(leverageFactor > 0 && leverageFactor <= e.cfg.MaxLeverage, core.ErrInvalidAmount, "leverage out of range"); err != nil {
			return nil, err
		}

		borrowed, err := leverage.BorrowedAmount(amount, leverageFactor)
		if err != nil {
			return nil, err
		}

		if err := e.debt.Increase(borrowed); err != nil {
			return nil, err
		}

		index, err := e.pool.CumulativeIndexNow(ctx)
		if err != nil {
			return nil, err
		}

		account, nonce := e.nextAccount()
		// the registry entry exists before any funds move
		if err := e.positions.Open(onBehalfOf, &core.Position{
			Account:            account,
			Nonce:              nonce,
			BorrowedAmount:     borrowed,
			AccrualIndexAtOpen: index,
			EnabledAssetMask:   new(uint256.Int).Set(leverage.UnderlyingMask),
		}); err != nil {
			return nil, err
		}

		underlying := e.registry.Underlying()
		if err := e.ledger.TransferFrom(ctx, underlying, e.cfg.Address, caller, account, amount); err != nil {
			return nil, err
		}

		if err := e.pool.Lend(ctx, borrowed, account); err != nil {
			return nil, err
		}

		p, err := e.positions.Get(onBehalfOf)
		if err != nil {
			return nil, err
		}

		if err := e.solvency.FullCheck(ctx, p); err != nil {
			return nil, err
		}

		change.SavedPositions = append(change.SavedPositions, p)
		opened = p
		return p, nil
	})

	return opened, err
}
