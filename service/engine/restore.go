package engine

import (
	"context"
	"fmt"
	"leverage/core"

	"github.com/fox-one/pkg/logger"
)

// Restore loads persisted assets and positions into a freshly built engine.
// Assets must come in bit order so every asset gets back its mask.
// nonce is the recorded next position nonce, positions may only raise it.
func (e *Engine) Restore(ctx context.Context, assets []*core.CollateralAsset, positions []*core.Position, nonce uint64) error {
	ctx, release, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	journals := e.journals()
	ids := make([]int, len(journals))
	for i, j := range journals {
		ids[i] = j.Snapshot()
	}
	saved := e.nonce
	if nonce > e.nonce {
		e.nonce = nonce
	}

	if err := e.restore(ctx, assets, positions); err != nil {
		for i := len(journals) - 1; i >= 0; i-- {
			journals[i].RevertToSnapshot(ids[i])
		}
		e.nonce = saved
		return err
	}

	for _, j := range journals {
		j.Commit()
	}

	logger.FromContext(ctx).Infof("restored %d assets and %d positions at nonce %d", len(assets), len(positions), e.nonce)
	return nil
}

func (e *Engine) restore(ctx context.Context, assets []*core.CollateralAsset, positions []*core.Position) error {
	for _, asset := range assets {
		if asset.Index > 0 {
			mask, err := e.registry.RegisterAsset(ctx, asset.AssetID)
			if err != nil {
				return err
			}

			if !mask.Eq(asset.Mask) {
				return fmt.Errorf("asset %s restored at mask %s, want %s", asset.AssetID.Hex(), mask.Hex(), asset.Mask.Hex())
			}
		}

		if err := e.registry.SetThreshold(ctx, asset.AssetID, asset.LiquidationThreshold); err != nil {
			return err
		}
	}

	for _, p := range positions {
		if err := e.positions.Open(p.Owner, p); err != nil {
			return err
		}

		if err := e.debt.Increase(p.BorrowedAmount); err != nil {
			return err
		}

		if p.Nonce >= e.nonce {
			e.nonce = p.Nonce + 1
		}
	}

	return nil
}
