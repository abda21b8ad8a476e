package engine

import (
	"context"
	"fmt"
	"leverage/core"
	"leverage/pkg/leverage"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ClosePosition runs the optional calls, then repays the pool from the
// position account and hands the rest to `to`
func (e *Engine) ClosePosition(ctx context.Context, caller, to common.Address, calls []*core.Call) (*core.Settlement, error) {
	var settlement *core.Settlement

	op := operation{kind: core.OperationClose, caller: caller, owner: caller, calls: calls}
	err := e.atomic(ctx, op, func(ctx context.Context, change *core.StateChange) (interface{}, error) {
		if err := requireNotZero(to, "receiver"); err != nil {
			return nil, err
		}

		if _, err := e.requireOwner(caller); err != nil {
			return nil, err
		}

		if len(calls) > 0 {
			if err := e.executor.Execute(ctx, caller, calls); err != nil {
				return nil, err
			}
		}

		s, err := e.settlement.Settle(ctx, &core.SettlementRequest{
			Kind:  core.ClosureClose,
			Owner: caller,
			Payer: caller,
			To:    to,
		})
		if err != nil {
			return nil, err
		}

		change.DeletedOwners = append(change.DeletedOwners, caller)
		settlement = s
		return s, nil
	})

	return settlement, err
}

// LiquidatePosition closes the position of owner when its health factor
// dropped below one. The position value is measured before the calls run.
func (e *Engine) LiquidatePosition(ctx context.Context, caller, owner, to common.Address, calls []*core.Call) (*core.Settlement, error) {
	var settlement *core.Settlement

	op := operation{kind: core.OperationLiquidate, caller: caller, owner: owner, calls: calls}
	err := e.atomic(ctx, op, func(ctx context.Context, change *core.StateChange) (interface{}, error) {
		if err := requireNotZero(to, "receiver"); err != nil {
			return nil, err
		}

		p, err := e.positions.Get(owner)
		if err != nil {
			return nil, err
		}

		valuation, err := e.solvency.TotalValue(ctx, p)
		if err != nil {
			return nil, err
		}

		if !valuation.HealthFactor.Lt(uint256.NewInt(leverage.PercentageFactor)) {
			return nil, fmt.Errorf("health factor %s: %w", valuation.HealthFactor.Dec(), core.ErrNotLiquidatable)
		}

		if len(calls) > 0 {
			if err := e.executor.Execute(ctx, owner, calls); err != nil {
				return nil, err
			}
		}

		s, err := e.settlement.Settle(ctx, &core.SettlementRequest{
			Kind:       core.ClosureLiquidation,
			Owner:      owner,
			Payer:      caller,
			To:         to,
			TotalValue: valuation.TotalInUnderlying,
		})
		if err != nil {
			return nil, err
		}

		change.DeletedOwners = append(change.DeletedOwners, owner)
		settlement = s
		return s, nil
	})

	return settlement, err
}
