package engine

import (
	"context"
	"leverage/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// RegisterAsset appends asset to the collateral registry and sets its threshold
func (e *Engine) RegisterAsset(ctx context.Context, caller, asset common.Address, threshold uint16) (*uint256.Int, error) {
	var mask *uint256.Int

	op := operation{kind: core.OperationRegisterAsset, caller: caller}
	err := e.atomic(ctx, op, func(ctx context.Context, change *core.StateChange) (interface{}, error) {
		if err := e.requireConfigurator(caller); err != nil {
			return nil, err
		}

		if err := requireNotZero(asset, "asset"); err != nil {
			return nil, err
		}

		m, err := e.registry.RegisterAsset(ctx, asset)
		if err != nil {
			return nil, err
		}

		if err := e.registry.SetThreshold(ctx, asset, threshold); err != nil {
			return nil, err
		}

		collateral := e.collateral(asset)
		change.Assets = append(change.Assets, collateral)
		mask = m
		return collateral, nil
	})

	return mask, err
}

// SetThreshold updates the liquidation threshold of a registered asset
func (e *Engine) SetThreshold(ctx context.Context, caller, asset common.Address, threshold uint16) error {
	op := operation{kind: core.OperationSetThreshold, caller: caller}
	return e.atomic(ctx, op, func(ctx context.Context, change *core.StateChange) (interface{}, error) {
		if err := e.requireConfigurator(caller); err != nil {
			return nil, err
		}

		if err := e.registry.SetThreshold(ctx, asset, threshold); err != nil {
			return nil, err
		}

		collateral := e.collateral(asset)
		change.Assets = append(change.Assets, collateral)
		return collateral, nil
	})
}

func (e *Engine) collateral(asset common.Address) *core.CollateralAsset {
	for _, a := range e.registry.Assets() {
		if a.AssetID == asset {
			return a
		}
	}

	return nil
}
