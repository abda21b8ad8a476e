package settlement

import (
	"context"
	"leverage/core"
	"leverage/pkg/leverage"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
)

type engine struct {
	positions core.IPositionRegistry
	registry  core.ICollateralRegistry
	ledger    core.Ledger
	pool      core.LendingPool
	solvency  core.ISolvencyChecker
	debt      core.IDebtTracker
	// spender pulls the payer top up
	spender common.Address
	params  core.LiquidationParameters
}

// New new settlement engine
func New(
	positions core.IPositionRegistry,
	registry core.ICollateralRegistry,
	ledger core.Ledger,
	pool core.LendingPool,
	solvency core.ISolvencyChecker,
	debt core.IDebtTracker,
	spender common.Address,
	params core.LiquidationParameters,
) core.ISettlementEngine {
	return &engine{
		positions: positions,
		registry:  registry,
		ledger:    ledger,
		pool:      pool,
		solvency:  solvency,
		debt:      debt,
		spender:   spender,
		params:    params,
	}
}

func (e *engine) Settle(ctx context.Context, req *core.SettlementRequest) (*core.Settlement, error) {
	log := logger.FromContext(ctx).WithField("owner", req.Owner.Hex()).WithField("kind", req.Kind.String())

	// removed before any asset leaves the account
	p, err := e.positions.Close(req.Owner)
	if err != nil {
		return nil, err
	}

	debt, err := e.solvency.DebtWithInterest(ctx, p)
	if err != nil {
		return nil, err
	}

	liquidated := req.Kind == core.ClosureLiquidation
	totalValue := new(uint256.Int)
	if liquidated && req.TotalValue != nil {
		totalValue = req.TotalValue
	}

	payments, err := leverage.CalcClosePayments(totalValue, liquidated, e.params.LiquidationDiscount, debt)
	if err != nil {
		return nil, err
	}

	s := &core.Settlement{
		Kind:             req.Kind,
		Owner:            req.Owner,
		Account:          p.Account,
		Principal:        new(uint256.Int).Set(p.BorrowedAmount),
		DebtWithInterest: debt,
		AmountToPool:     payments.AmountToPool,
		RemainingFunds:   payments.RemainingFunds,
		Surplus:          new(uint256.Int),
		PayerTopUp:       new(uint256.Int),
		Loss:             payments.Loss,
	}

	if err := e.settleUnderlying(ctx, req, s); err != nil {
		return nil, err
	}

	if s.Swept, err = e.sweep(ctx, p, req.To); err != nil {
		return nil, err
	}

	if err := e.debt.Decrease(p.BorrowedAmount); err != nil {
		return nil, err
	}

	entry := log.WithField("to_pool", s.AmountToPool.Dec()).WithField("remaining", s.RemainingFunds.Dec())
	if !s.Loss.IsZero() {
		entry.WithField("loss", s.Loss.Dec()).Warnln("position settled with loss")
	} else {
		entry.Infoln("position settled")
	}

	return s, nil
}

func (e *engine) settleUnderlying(ctx context.Context, req *core.SettlementRequest, s *core.Settlement) error {
	underlying := e.registry.Underlying()
	s.UnderlyingBalance = e.ledger.BalanceOf(underlying, s.Account)

	need, err := leverage.Add(s.AmountToPool, s.RemainingFunds)
	if err != nil {
		return err
	}

	// one unit stays on the account
	needWithDust, err := leverage.Add(need, leverage.DustAmount)
	if err != nil {
		return err
	}

	if s.UnderlyingBalance.Gt(needWithDust) {
		s.Surplus = new(uint256.Int).Sub(s.UnderlyingBalance, needWithDust)
		if err := e.ledger.Transfer(ctx, underlying, s.Account, req.To, s.Surplus); err != nil {
			return err
		}
	} else if s.UnderlyingBalance.Lt(needWithDust) {
		s.PayerTopUp = new(uint256.Int).Sub(needWithDust, s.UnderlyingBalance)
		if err := e.ledger.TransferFrom(ctx, underlying, e.spender, req.Payer, s.Account, s.PayerTopUp); err != nil {
			return err
		}
	}

	if err := e.ledger.Transfer(ctx, underlying, s.Account, e.pool.Address(), s.AmountToPool); err != nil {
		return err
	}

	profit := new(uint256.Int)
	if s.AmountToPool.Gt(s.Principal) {
		profit.Sub(s.AmountToPool, s.Principal)
	}

	if err := e.pool.Repay(ctx, s.Principal, profit, s.Loss); err != nil {
		return err
	}

	if !s.RemainingFunds.IsZero() {
		return e.ledger.Transfer(ctx, underlying, s.Account, req.Owner, s.RemainingFunds)
	}

	return nil
}

// sweep moves every enabled asset but the underlying to to, leaving one unit behind
func (e *engine) sweep(ctx context.Context, p *core.Position, to common.Address) ([]*core.Balance, error) {
	var swept []*core.Balance

	err := leverage.ForEachBit(p.EnabledAssetMask, func(index uint8) (bool, error) {
		if index == 0 {
			return true, nil
		}

		asset, _, err := e.registry.LookupByMask(leverage.MaskFor(index))
		if err != nil {
			return false, err
		}

		balance := e.ledger.BalanceOf(asset, p.Account)
		if !balance.Gt(leverage.DustAmount) {
			return true, nil
		}

		amount := new(uint256.Int).Sub(balance, leverage.DustAmount)
		if err := e.ledger.Transfer(ctx, asset, p.Account, to, amount); err != nil {
			return false, err
		}

		swept = append(swept, &core.Balance{Asset: asset, Holder: to, Amount: amount})
		return true, nil
	})

	return swept, err
}
