package engine

import (
	"context"
	"leverage/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func (e *Engine) HealthFactor(ctx context.Context, owner common.Address) (hf *uint256.Int, err error) {
	err = e.view(ctx, func() error {
		p, err := e.positions.Get(owner)
		if err != nil {
			return err
		}

		hf, err = e.solvency.HealthFactor(ctx, p)
		return err
	})

	return
}

func (e *Engine) Valuation(ctx context.Context, owner common.Address) (v *core.Valuation, err error) {
	err = e.view(ctx, func() error {
		p, err := e.positions.Get(owner)
		if err != nil {
			return err
		}

		v, err = e.solvency.TotalValue(ctx, p)
		return err
	})

	return
}

func (e *Engine) Position(ctx context.Context, owner common.Address) (p *core.Position, err error) {
	err = e.view(ctx, func() error {
		p, err = e.positions.Get(owner)
		return err
	})

	return
}

// Positions all open positions ordered by owner
func (e *Engine) Positions(ctx context.Context) (positions []*core.Position) {
	_ = e.view(ctx, func() error {
		positions = e.positions.All()
		return nil
	})

	return
}

func (e *Engine) Assets(ctx context.Context) (assets []*core.CollateralAsset) {
	_ = e.view(ctx, func() error {
		assets = e.registry.Assets()
		return nil
	})

	return
}

func (e *Engine) TotalDebt(ctx context.Context) (total core.TotalDebt) {
	_ = e.view(ctx, func() error {
		total = e.debt.Total()
		return nil
	})

	return
}
