package solvency

import (
	"context"
	"fmt"
	"leverage/core"
	"leverage/pkg/leverage"

	"github.com/holiman/uint256"
)

type checker struct {
	registry core.ICollateralRegistry
	ledger   core.Ledger
	oracle   core.PriceOracle
	accrual  core.AccrualProvider
}

// New new solvency checker
func New(
	registry core.ICollateralRegistry,
	ledger core.Ledger,
	oracle core.PriceOracle,
	accrual core.AccrualProvider,
) core.ISolvencyChecker {
	return &checker{
		registry: registry,
		ledger:   ledger,
		oracle:   oracle,
		accrual:  accrual,
	}
}

func (c *checker) DebtWithInterest(ctx context.Context, p *core.Position) (*uint256.Int, error) {
	index, err := c.accrual.CumulativeIndexNow(ctx)
	if err != nil {
		return nil, err
	}

	return leverage.DebtWithInterest(p.BorrowedAmount, index, p.AccrualIndexAtOpen)
}

func (c *checker) debtUSD(ctx context.Context, p *core.Position) (debt, usd *uint256.Int, err error) {
	debt, err = c.DebtWithInterest(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	usd, err = c.oracle.ConvertToUSD(ctx, debt, c.registry.Underlying())
	if err != nil {
		return nil, nil, err
	}

	return debt, usd, nil
}

type scan struct {
	weighted *uint256.Int
	total    *uint256.Int
	// reached is set when weighted / PercentageFactor got to the target
	reached bool
}

// scanAssets walks the enabled assets in bit order. When target is not nil
// the walk stops once the weighted value covers it.
func (c *checker) scanAssets(ctx context.Context, p *core.Position, target *uint256.Int) (*scan, error) {
	s := &scan{weighted: new(uint256.Int), total: new(uint256.Int)}
	pf := uint256.NewInt(leverage.PercentageFactor)

	err := leverage.ForEachBit(p.EnabledAssetMask, func(index uint8) (bool, error) {
		asset, threshold, err := c.registry.LookupByMask(leverage.MaskFor(index))
		if err != nil {
			return false, fmt.Errorf("enabled bit %d: %w", index, err)
		}

		balance := c.ledger.BalanceOf(asset, p.Account)
		if !balance.Gt(leverage.DustAmount) {
			return true, nil
		}

		value, err := c.oracle.ConvertToUSD(ctx, balance, asset)
		if err != nil {
			return false, err
		}

		if s.total, err = leverage.Add(s.total, value); err != nil {
			return false, err
		}

		weighted, err := leverage.Mul(value, uint256.NewInt(uint64(threshold)))
		if err != nil {
			return false, err
		}

		if s.weighted, err = leverage.Add(s.weighted, weighted); err != nil {
			return false, err
		}

		if target != nil && !new(uint256.Int).Div(s.weighted, pf).Lt(target) {
			s.reached = true
			return false, nil
		}

		return true, nil
	})

	return s, err
}

func (c *checker) FullCheck(ctx context.Context, p *core.Position) error {
	_, debtUSD, err := c.debtUSD(ctx, p)
	if err != nil {
		return err
	}

	if debtUSD.IsZero() {
		return nil
	}

	s, err := c.scanAssets(ctx, p, debtUSD)
	if err != nil {
		return err
	}

	if !s.reached {
		return fmt.Errorf("position %s: %w", p.Owner.Hex(), core.ErrInsufficientCollateral)
	}

	return nil
}

func healthFactor(weighted, debtUSD *uint256.Int) (*uint256.Int, error) {
	if debtUSD.IsZero() {
		return new(uint256.Int).Set(leverage.Max), nil
	}

	pf := uint256.NewInt(leverage.PercentageFactor)
	return leverage.MulDiv(new(uint256.Int).Div(weighted, pf), pf, debtUSD)
}

func (c *checker) HealthFactor(ctx context.Context, p *core.Position) (*uint256.Int, error) {
	_, debtUSD, err := c.debtUSD(ctx, p)
	if err != nil {
		return nil, err
	}

	s, err := c.scanAssets(ctx, p, nil)
	if err != nil {
		return nil, err
	}

	return healthFactor(s.weighted, debtUSD)
}

func (c *checker) IsLiquidatable(ctx context.Context, p *core.Position) (bool, error) {
	hf, err := c.HealthFactor(ctx, p)
	if err != nil {
		return false, err
	}

	return hf.Lt(uint256.NewInt(leverage.PercentageFactor)), nil
}

func (c *checker) TotalValue(ctx context.Context, p *core.Position) (*core.Valuation, error) {
	debt, debtUSD, err := c.debtUSD(ctx, p)
	if err != nil {
		return nil, err
	}

	s, err := c.scanAssets(ctx, p, nil)
	if err != nil {
		return nil, err
	}

	inUnderlying, err := c.oracle.ConvertFromUSD(ctx, s.total, c.registry.Underlying())
	if err != nil {
		return nil, err
	}

	hf, err := healthFactor(s.weighted, debtUSD)
	if err != nil {
		return nil, err
	}

	return &core.Valuation{
		DebtWithInterest:  debt,
		DebtUSD:           debtUSD,
		TotalUSD:          s.total,
		WeightedUSD:       new(uint256.Int).Div(s.weighted, uint256.NewInt(leverage.PercentageFactor)),
		TotalInUnderlying: inUnderlying,
		HealthFactor:      hf,
	}, nil
}
