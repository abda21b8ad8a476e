package engine

import (
	"context"
	"fmt"
	"leverage/core"
	"leverage/pkg/leverage"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Multicall runs calls against the position of caller, which must stay solvent
func (e *Engine) Multicall(ctx context.Context, caller common.Address, calls []*core.Call) error {
	op := operation{kind: core.OperationMulticall, caller: caller, owner: caller, calls: calls}
	return e.atomic(ctx, op, func(ctx context.Context, change *core.StateChange) (interface{}, error) {
		if _, err := e.requireOwner(caller); err != nil {
			return nil, err
		}

		if err := e.executor.Execute(ctx, caller, calls); err != nil {
			return nil, err
		}

		p, err := e.positions.Get(caller)
		if err != nil {
			return nil, err
		}

		if err := e.solvency.FullCheck(ctx, p); err != nil {
			return nil, err
		}

		change.SavedPositions = append(change.SavedPositions, p)
		return p, nil
	})
}

// AddCollateral moves amount of asset from caller to the position of onBehalfOf
func (e *Engine) AddCollateral(ctx context.Context, caller, onBehalfOf, asset common.Address, amount *uint256.Int) error {
	op := operation{kind: core.OperationAddCollateral, caller: caller, owner: onBehalfOf}
	return e.atomic(ctx, op, func(ctx context.Context, change *core.StateChange) (interface{}, error) {
		p, err := e.positions.Get(onBehalfOf)
		if err != nil {
			return nil, err
		}

		mask := e.registry.MaskOf(asset)
		if mask.IsZero() {
			return nil, fmt.Errorf("collateral %s: %w", asset.Hex(), core.ErrUnknownAsset)
		}

		if err := e.ledger.TransferFrom(ctx, asset, e.cfg.Address, caller, p.Account, amount); err != nil {
			return nil, err
		}

		if err := e.positions.Update(onBehalfOf, func(p *core.Position) error {
			p.EnabledAssetMask = leverage.WithBit(p.EnabledAssetMask, mask)
			return nil
		}); err != nil {
			return nil, err
		}

		if p, err = e.positions.Get(onBehalfOf); err != nil {
			return nil, err
		}

		change.SavedPositions = append(change.SavedPositions, p)
		return p, nil
	})
}

// IncreaseDebt borrows amount more for the position of caller. The accrual
// index is rebased so the interest already accrued is kept.
func (e *Engine) IncreaseDebt(ctx context.Context, caller common.Address, amount *uint256.Int) error {
	op := operation{kind: core.OperationIncreaseDebt, caller: caller, owner: caller}
	return e.atomic(ctx, op, func(ctx context.Context, change *core.StateChange) (interface{}, error) {
		p, err := e.requireOwner(caller)
		if err != nil {
			return nil, err
		}

		if err := leverage.Require(!amount.IsZero(), core.ErrInvalidAmount, "zero debt increase"); err != nil {
			return nil, err
		}

		indexNow, err := e.pool.CumulativeIndexNow(ctx)
		if err != nil {
			return nil, err
		}

		debt, err := leverage.DebtWithInterest(p.BorrowedAmount, indexNow, p.AccrualIndexAtOpen)
		if err != nil {
			return nil, err
		}

		index, err := leverage.RebaseIndex(p.BorrowedAmount, debt, amount, indexNow)
		if err != nil {
			return nil, err
		}

		borrowed, err := leverage.Add(p.BorrowedAmount, amount)
		if err != nil {
			return nil, err
		}

		if err := e.debt.Increase(amount); err != nil {
			return nil, err
		}

		if err := e.pool.Lend(ctx, amount, p.Account); err != nil {
			return nil, err
		}

		if err := e.positions.Update(caller, func(p *core.Position) error {
			p.BorrowedAmount = borrowed
			p.AccrualIndexAtOpen = index
			return nil
		}); err != nil {
			return nil, err
		}

		if p, err = e.positions.Get(caller); err != nil {
			return nil, err
		}

		if err := e.solvency.FullCheck(ctx, p); err != nil {
			return nil, err
		}

		change.SavedPositions = append(change.SavedPositions, p)
		return p, nil
	})
}

// TransferOwnership hands the position of caller to newOwner
func (e *Engine) TransferOwnership(ctx context.Context, caller, newOwner common.Address) error {
	op := operation{kind: core.OperationTransferOwnership, caller: caller, owner: newOwner}
	return e.atomic(ctx, op, func(ctx context.Context, change *core.StateChange) (interface{}, error) {
		if err := requireNotZero(newOwner, "new owner"); err != nil {
			return nil, err
		}

		if _, err := e.requireOwner(caller); err != nil {
			return nil, err
		}

		if err := e.positions.TransferCustody(caller, newOwner); err != nil {
			return nil, err
		}

		p, err := e.positions.Get(newOwner)
		if err != nil {
			return nil, err
		}

		if err := e.solvency.FullCheck(ctx, p); err != nil {
			return nil, err
		}

		change.SavedPositions = append(change.SavedPositions, p)
		change.DeletedOwners = append(change.DeletedOwners, caller)
		return p, nil
	})
}

// Approve lets spender move amount of the caller's asset
func (e *Engine) Approve(ctx context.Context, caller, asset, spender common.Address, amount *uint256.Int) error {
	op := operation{kind: core.OperationApprove, caller: caller, owner: caller}
	return e.atomic(ctx, op, func(ctx context.Context, change *core.StateChange) (interface{}, error) {
		if err := requireNotZero(spender, "spender"); err != nil {
			return nil, err
		}

		return nil, e.ledger.Approve(ctx, asset, caller, spender, amount)
	})
}
