package world

import (
	"context"
	"leverage/core"
	"leverage/pkg/leverage"
	"leverage/service/adapter"
	"leverage/service/collateral"
	"leverage/service/debt"
	"leverage/service/engine"
	"leverage/service/ledger"
	"leverage/service/multicall"
	"leverage/service/oracle"
	"leverage/service/pool"
	"leverage/service/position"
	"leverage/service/settlement"
	"leverage/service/solvency"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Options wiring of one engine and its collaborators
type Options struct {
	Engine              engine.Config
	Underlying          common.Address
	UnderlyingThreshold uint16
	PoolAddress         common.Address
	ExecutorAddress     common.Address
	RateModel           leverage.RateModel
	DebtLimit           *uint256.Int
	LiquidationDiscount uint16

	// Oracle defaults to a Static oracle
	Oracle   core.PriceOracle
	Recorder core.StateRecorder
	Clock    func() time.Time
	// PoolOptions restore the pool checkpoint
	PoolOptions []pool.Option
}

// World in-memory engine with every collaborator exposed
type World struct {
	Ledger     *ledger.Ledger
	Registry   core.ICollateralRegistry
	Positions  core.IPositionRegistry
	Pool       *pool.Pool
	Debt       core.IDebtTracker
	Oracle     core.PriceOracle
	Static     *oracle.Static
	Solvency   core.ISolvencyChecker
	Settlement core.ISettlementEngine
	Adapters   *adapter.Registry
	Executor   core.IMulticallExecutor
	Engine     *engine.Engine
}

// New builds a world
func New(opts Options) *World {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	w := &World{
		Ledger:    ledger.New(),
		Registry:  collateral.New(opts.Underlying, opts.UnderlyingThreshold),
		Positions: position.New(),
		Debt:      debt.New(new(uint256.Int), opts.DebtLimit),
		Oracle:    opts.Oracle,
		Adapters:  adapter.NewRegistry(),
	}

	if w.Oracle == nil {
		w.Static = oracle.NewStatic()
		w.Oracle = w.Static
	}

	poolOpts := append([]pool.Option{pool.WithClock(opts.Clock)}, opts.PoolOptions...)
	w.Pool = pool.New(w.Ledger, opts.PoolAddress, opts.Underlying, opts.RateModel, poolOpts...)
	w.Solvency = solvency.New(w.Registry, w.Ledger, w.Oracle, w.Pool)
	w.Settlement = settlement.New(
		w.Positions,
		w.Registry,
		w.Ledger,
		w.Pool,
		w.Solvency,
		w.Debt,
		opts.Engine.Address,
		core.LiquidationParameters{LiquidationDiscount: opts.LiquidationDiscount},
	)
	w.Executor = multicall.New(opts.ExecutorAddress, w.Positions, w.Registry, w.Adapters, w.Ledger)
	w.Engine = engine.New(
		opts.Engine,
		w.Registry,
		w.Positions,
		w.Ledger,
		w.Pool,
		w.Debt,
		w.Solvency,
		w.Settlement,
		w.Executor,
		opts.Recorder,
	)

	return w
}

// AddSwapAdapter approves a swap adapter in front of an oracle priced router
func (w *World) AddSwapAdapter(address, router common.Address) (*adapter.SwapAdapter, error) {
	a := adapter.NewSwapAdapter(address, adapter.NewRouter(router, w.Ledger, w.Oracle))
	if err := w.Adapters.Add(a); err != nil {
		return nil, err
	}

	return a, nil
}

// Mint credits the ledger outside of any engine operation
func (w *World) Mint(asset, holder common.Address, amount *uint256.Int) error {
	if err := w.Ledger.Mint(asset, holder, amount); err != nil {
		return err
	}

	w.Ledger.Commit()
	return nil
}

// Fund mints amount to holder and approves the engine to spend it
func (w *World) Fund(ctx context.Context, asset, holder common.Address, amount *uint256.Int) error {
	if err := w.Mint(asset, holder, amount); err != nil {
		return err
	}

	return w.Engine.Approve(ctx, holder, asset, w.Engine.Address(), leverage.Max)
}
