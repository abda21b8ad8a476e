package engine_test

import (
	"context"
	"errors"
	"fmt"
	"leverage/core"
	"leverage/internal/world"
	"leverage/pkg/leverage"
	"leverage/service/adapter"
	"leverage/service/engine"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	usdc = common.HexToAddress("0x1000000000000000000000000000000000000001")
	weth = common.HexToAddress("0x1000000000000000000000000000000000000002")
	junk = common.HexToAddress("0x1000000000000000000000000000000000000003")

	alice = common.HexToAddress("0xa11ce00000000000000000000000000000000000")
	bob   = common.HexToAddress("0xb0b0000000000000000000000000000000000000")
	carol = common.HexToAddress("0xca40100000000000000000000000000000000000")

	engineAddr   = common.HexToAddress("0xe000000000000000000000000000000000000000")
	configurator = common.HexToAddress("0xc000000000000000000000000000000000000000")
	poolAddr     = common.HexToAddress("0x9000000000000000000000000000000000000000")
	executorAddr = common.HexToAddress("0x8000000000000000000000000000000000000000")
	swapAddr     = common.HexToAddress("0x7000000000000000000000000000000000000001")
	routerAddr   = common.HexToAddress("0x7000000000000000000000000000000000000002")
)

func dollars(v uint64) *uint256.Int {
	return uint256.NewInt(v * 100000000)
}

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

type recorder struct {
	changes []*core.StateChange
	err     error
}

func (r *recorder) Record(ctx context.Context, change *core.StateChange) error {
	if r.err != nil {
		return r.err
	}

	r.changes = append(r.changes, change)
	return nil
}

func (r *recorder) last() *core.StateChange {
	return r.changes[len(r.changes)-1]
}

type fixture struct {
	*world.World
	recorder *recorder
}

// newFixture usdc underlying at $1 with threshold 90%, weth at $2 with 85%.
// The pool lends up to 1,000,000 usdc and the router holds liquidity of both.
func newFixture(t *testing.T) *fixture {
	ctx := context.Background()
	rec := &recorder{}

	w := world.New(world.Options{
		Engine: engine.Config{
			Address:      engineAddr,
			Configurator: configurator,
			MinAmount:    u(100),
			MaxAmount:    u(1000000),
			MaxLeverage:  1000,
		},
		Underlying:          usdc,
		UnderlyingThreshold: 9000,
		PoolAddress:         poolAddr,
		ExecutorAddress:     executorAddr,
		DebtLimit:           u(1000000),
		LiquidationDiscount: 9500,
		Recorder:            rec,
	})

	w.Static.SetPrice(usdc, dollars(1), 0)
	w.Static.SetPrice(weth, dollars(2), 0)
	w.Static.SetPrice(junk, dollars(1), 0)

	_, err := w.Engine.RegisterAsset(ctx, configurator, weth, 8500)
	require.Nil(t, err)

	_, err = w.AddSwapAdapter(swapAddr, routerAddr)
	require.Nil(t, err)

	require.Nil(t, w.Mint(usdc, poolAddr, u(1000000)))
	require.Nil(t, w.Mint(usdc, routerAddr, u(100000)))
	require.Nil(t, w.Mint(weth, routerAddr, u(100000)))
	require.Nil(t, w.Mint(junk, routerAddr, u(100000)))
	require.Nil(t, w.Fund(ctx, usdc, alice, u(10000)))
	require.Nil(t, w.Fund(ctx, usdc, bob, u(10000)))

	return &fixture{World: w, recorder: rec}
}

func (f *fixture) balance(asset, holder common.Address) uint64 {
	return f.Ledger.BalanceOf(asset, holder).Uint64()
}

func (f *fixture) account(t *testing.T, owner common.Address) common.Address {
	p, err := f.Engine.Position(context.Background(), owner)
	require.Nil(t, err)
	return p.Account
}

// openA opens 1000 usdc at 5x for alice
func (f *fixture) openA(t *testing.T) *core.Position {
	p, err := f.Engine.OpenPosition(context.Background(), alice, alice, u(1000), 500)
	require.Nil(t, err)
	return p
}

func swapCall(t *testing.T, tokenIn, tokenOut common.Address, amountIn *uint256.Int) *core.Call {
	var (
		data []byte
		err  error
	)

	if amountIn == nil {
		data, err = adapter.PackSwapAll(tokenIn, tokenOut, new(uint256.Int))
	} else {
		data, err = adapter.PackSwapExactIn(tokenIn, tokenOut, amountIn, new(uint256.Int))
	}
	require.Nil(t, err)

	return &core.Call{Target: swapAddr, Data: data}
}

// tradeB swaps the borrowed 5000 usdc of alice into 2500 weth
func (f *fixture) tradeB(t *testing.T) {
	require.Nil(t, f.Engine.Multicall(context.Background(), alice, []*core.Call{swapCall(t, usdc, weth, u(5000))}))
}

func (f *fixture) usdcSupply(holders ...common.Address) uint64 {
	var sum uint64
	for _, h := range holders {
		sum += f.balance(usdc, h)
	}
	return sum
}

func TestOpenPosition(t *testing.T) {
	f := newFixture(t)
	p := f.openA(t)

	assert.Equal(t, alice, p.Owner)
	assert.Equal(t, uint64(5000), p.BorrowedAmount.Uint64())
	assert.True(t, p.AccrualIndexAtOpen.Eq(leverage.Ray))
	assert.True(t, p.EnabledAssetMask.Eq(leverage.UnderlyingMask))
	assert.Equal(t, uint64(6000), f.balance(usdc, p.Account))
	assert.Equal(t, uint64(9000), f.balance(usdc, alice))
	assert.Equal(t, uint64(995000), f.balance(usdc, poolAddr))
	assert.Equal(t, uint64(5000), f.Engine.TotalDebt(context.Background()).Current.Uint64())

	change := f.recorder.last()
	assert.Equal(t, core.OperationOpen, change.Operation.Kind)
	assert.Equal(t, alice.Hex(), change.Operation.Owner)
	assert.Equal(t, "5000", change.Operation.TotalDebt)
	assert.NotEmpty(t, change.Operation.TraceID)
	require.Len(t, change.SavedPositions, 1)
	assert.Equal(t, p.Account, change.SavedPositions[0].Account)
	assert.NotEmpty(t, change.Ledger.Balances)
}

func TestOpenPositionGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate", func(t *testing.T) {
		f := newFixture(t)
		f.openA(t)

		_, err := f.Engine.OpenPosition(ctx, alice, alice, u(1000), 500)
		assert.ErrorIs(t, err, core.ErrDuplicatePosition)
		assert.Equal(t, uint64(5000), f.Engine.TotalDebt(ctx).Current.Uint64())
	})

	t.Run("amount", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.Engine.OpenPosition(ctx, alice, alice, u(10), 500)
		assert.ErrorIs(t, err, core.ErrInvalidAmount)
	})

	t.Run("leverage", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.Engine.OpenPosition(ctx, alice, alice, u(1000), 1001)
		assert.ErrorIs(t, err, core.ErrInvalidAmount)
		_, err = f.Engine.OpenPosition(ctx, alice, alice, u(1000), 0)
		assert.ErrorIs(t, err, core.ErrInvalidAmount)
	})

	t.Run("zero owner", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.Engine.OpenPosition(ctx, alice, common.Address{}, u(1000), 500)
		assert.ErrorIs(t, err, core.ErrAccessDenied)
	})

	t.Run("debt limit", func(t *testing.T) {
		f := newFixture(t)
		require.Nil(t, f.Mint(usdc, alice, u(1000000)))

		_, err := f.Engine.OpenPosition(ctx, alice, alice, u(300000), 400)
		assert.ErrorIs(t, err, core.ErrDebtLimitExceeded)
		assert.True(t, f.Engine.TotalDebt(ctx).Current.IsZero())
	})

	t.Run("insolvent", func(t *testing.T) {
		f := newFixture(t)
		// 10x leaves 11000 * 0.9 < 10000
		_, err := f.Engine.OpenPosition(ctx, alice, alice, u(1000), 1000)
		assert.ErrorIs(t, err, core.ErrInsufficientCollateral)
		assert.Equal(t, uint64(10000), f.balance(usdc, alice))
		assert.Equal(t, uint64(1000000), f.balance(usdc, poolAddr))

		_, err = f.Engine.Position(ctx, alice)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("allowance", func(t *testing.T) {
		f := newFixture(t)
		require.Nil(t, f.Mint(usdc, carol, u(1000)))

		_, err := f.Engine.OpenPosition(ctx, carol, carol, u(1000), 500)
		assert.ErrorIs(t, err, core.ErrInsufficientAllowance)
		assert.True(t, f.Engine.TotalDebt(ctx).Current.IsZero())
	})
}

func TestOpenOnBehalfOf(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.Engine.OpenPosition(ctx, bob, carol, u(1000), 300)
	require.Nil(t, err)
	assert.Equal(t, carol, p.Owner)
	assert.Equal(t, uint64(9000), f.balance(usdc, bob))
	assert.Equal(t, uint64(4000), f.balance(usdc, p.Account))

	_, err = f.Engine.Position(ctx, bob)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestScenarioTrade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.openA(t)
	f.tradeB(t)

	got, err := f.Engine.Position(ctx, alice)
	require.Nil(t, err)
	assert.Equal(t, uint64(3), got.EnabledAssetMask.Uint64())
	assert.Equal(t, uint64(1000), f.balance(usdc, p.Account))
	assert.Equal(t, uint64(2500), f.balance(weth, p.Account))
	// swap allowance given to the router is reset
	assert.True(t, f.Ledger.Allowance(usdc, p.Account, routerAddr).IsZero())

	hf, err := f.Engine.HealthFactor(ctx, alice)
	require.Nil(t, err)
	// (1000 * 0.9 + 5000 * 0.85) / 5000
	assert.Equal(t, uint64(10300), hf.Uint64())

	state := f.Executor.State()
	assert.False(t, state.InBatch)

	change := f.recorder.last()
	assert.Equal(t, core.OperationMulticall, change.Operation.Kind)
	assert.NotEmpty(t, change.Operation.Calls)
}

func TestScenarioClose(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.openA(t)
	f.tradeB(t)

	require.Nil(t, f.Engine.AddCollateral(ctx, alice, alice, usdc, u(5000)))
	assert.Equal(t, uint64(4000), f.balance(usdc, alice))

	s, err := f.Engine.ClosePosition(ctx, alice, alice, nil)
	require.Nil(t, err)

	assert.Equal(t, uint64(5000), s.AmountToPool.Uint64())
	assert.Equal(t, uint64(999), s.Surplus.Uint64())
	assert.True(t, s.PayerTopUp.IsZero())
	assert.True(t, s.Loss.IsZero())
	require.Len(t, s.Swept, 1)
	assert.Equal(t, weth, s.Swept[0].Asset)
	assert.Equal(t, uint64(2499), s.Swept[0].Amount.Uint64())

	assert.Equal(t, uint64(4999), f.balance(usdc, alice))
	assert.Equal(t, uint64(2499), f.balance(weth, alice))
	assert.Equal(t, uint64(1), f.balance(usdc, p.Account))
	assert.Equal(t, uint64(1), f.balance(weth, p.Account))
	assert.Equal(t, uint64(1000000), f.balance(usdc, poolAddr))
	assert.True(t, f.Engine.TotalDebt(ctx).Current.IsZero())
	assert.True(t, f.Pool.TotalBorrowed().IsZero())

	_, err = f.Engine.Position(ctx, alice)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, []common.Address{alice}, f.recorder.last().DeletedOwners)
}

func TestCloseWithCalls(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openA(t)
	f.tradeB(t)

	// swaps the weth back before paying the pool, alice tops up nothing
	s, err := f.Engine.ClosePosition(ctx, alice, bob, []*core.Call{swapCall(t, weth, usdc, nil)})
	require.Nil(t, err)

	// 1000 + 2499 * 2 usdc on the account, 5000 to the pool, 1 stays
	assert.Equal(t, uint64(5998), s.UnderlyingBalance.Uint64())
	assert.Equal(t, uint64(997), s.Surplus.Uint64())
	assert.Equal(t, uint64(10997), f.balance(usdc, bob))
	assert.Empty(t, s.Swept)
}

func TestCloseShortfall(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.openA(t)

	// 6000 usdc into 3000 weth, the account keeps no underlying
	require.Nil(t, f.Engine.Multicall(ctx, alice, []*core.Call{swapCall(t, usdc, weth, u(6000))}))
	assert.True(t, f.Ledger.BalanceOf(usdc, p.Account).IsZero())

	s, err := f.Engine.ClosePosition(ctx, alice, alice, nil)
	require.Nil(t, err)
	assert.Equal(t, uint64(5001), s.PayerTopUp.Uint64())
	assert.Equal(t, uint64(9000-5001), f.balance(usdc, alice))
	assert.Equal(t, uint64(2999), f.balance(weth, alice))
}

func TestCloseAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openA(t)

	_, err := f.Engine.ClosePosition(ctx, bob, bob, nil)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.Engine.ClosePosition(ctx, alice, common.Address{}, nil)
	assert.ErrorIs(t, err, core.ErrAccessDenied)

	_, err = f.Engine.Position(ctx, alice)
	assert.Nil(t, err)
}

func TestScenarioLiquidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.openA(t)
	f.tradeB(t)

	_, err := f.Engine.LiquidatePosition(ctx, bob, alice, bob, nil)
	assert.ErrorIs(t, err, core.ErrNotLiquidatable)

	f.Static.SetPrice(weth, uint256.NewInt(180000000), 0)

	hf, err := f.Engine.HealthFactor(ctx, alice)
	require.Nil(t, err)
	assert.Equal(t, uint64(9450), hf.Uint64())

	s, err := f.Engine.LiquidatePosition(ctx, bob, alice, bob, []*core.Call{swapCall(t, weth, usdc, nil)})
	require.Nil(t, err)

	// total value 1000 + 4500, funds 5500 * 0.95 = 5225
	assert.Equal(t, uint64(5000), s.AmountToPool.Uint64())
	assert.Equal(t, uint64(224), s.RemainingFunds.Uint64())
	assert.Equal(t, uint64(5498), s.UnderlyingBalance.Uint64())
	assert.Equal(t, uint64(273), s.Surplus.Uint64())
	assert.True(t, s.Loss.IsZero())

	assert.Equal(t, uint64(9000+224), f.balance(usdc, alice))
	assert.Equal(t, uint64(10000+273), f.balance(usdc, bob))
	assert.Equal(t, uint64(1), f.balance(usdc, p.Account))
	assert.Equal(t, uint64(1000000), f.balance(usdc, poolAddr))
	assert.True(t, f.Engine.TotalDebt(ctx).Current.IsZero())

	_, err = f.Engine.Position(ctx, alice)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLiquidationWithLoss(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.openA(t)
	f.tradeB(t)

	f.Static.SetPrice(weth, uint256.NewInt(150000000), 0)

	s, err := f.Engine.LiquidatePosition(ctx, bob, alice, bob, nil)
	require.Nil(t, err)

	// total value 1000 + 3750, funds 4750 * 0.95
	assert.Equal(t, uint64(4512), s.AmountToPool.Uint64())
	assert.Equal(t, uint64(488), s.Loss.Uint64())
	assert.True(t, s.RemainingFunds.IsZero())
	// bob tops up the missing underlying and takes the weth
	assert.Equal(t, uint64(3513), s.PayerTopUp.Uint64())
	assert.Equal(t, uint64(10000-3513), f.balance(usdc, bob))
	assert.Equal(t, uint64(2499), f.balance(weth, bob))
	assert.Equal(t, uint64(1), f.balance(usdc, p.Account))
	assert.Equal(t, uint64(995000+4512), f.balance(usdc, poolAddr))
	// principal leaves the total debt regardless of the loss
	assert.True(t, f.Engine.TotalDebt(ctx).Current.IsZero())
}

func TestMulticallRollback(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.openA(t)

	_, err := f.Engine.RegisterAsset(ctx, configurator, junk, 1000)
	require.Nil(t, err)
	records := len(f.recorder.changes)

	err = f.Engine.Multicall(ctx, alice, []*core.Call{swapCall(t, usdc, junk, u(5000))})
	assert.ErrorIs(t, err, core.ErrInsufficientCollateral)

	got, err := f.Engine.Position(ctx, alice)
	require.Nil(t, err)
	assert.Equal(t, alice, got.Owner)
	assert.True(t, got.EnabledAssetMask.Eq(leverage.UnderlyingMask))
	assert.Equal(t, uint64(6000), f.balance(usdc, p.Account))
	assert.Equal(t, uint64(0), f.balance(junk, p.Account))
	assert.Equal(t, uint64(100000), f.balance(junk, routerAddr))
	assert.False(t, f.Executor.State().InBatch)
	assert.Len(t, f.recorder.changes, records)
}

func TestMulticallTargets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openA(t)

	err := f.Engine.Multicall(ctx, alice, []*core.Call{{Target: routerAddr}})
	assert.ErrorIs(t, err, core.ErrTargetNotAllowed)

	err = f.Engine.Multicall(ctx, alice, []*core.Call{{Target: executorAddr}})
	assert.ErrorIs(t, err, core.ErrUnsupported)

	err = f.Engine.Multicall(ctx, alice, []*core.Call{{Target: swapAddr, Data: []byte{1, 2, 3}}})
	assert.ErrorIs(t, err, core.ErrInvalidCall)

	err = f.Engine.Multicall(ctx, bob, nil)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.Engine.Position(ctx, alice)
	assert.Nil(t, err)
}

type callbackAdapter struct {
	address common.Address
	target  common.Address
	fn      func(ctx context.Context, operator core.PositionOperator, custodian common.Address) error
}

func (a *callbackAdapter) Address() common.Address { return a.address }
func (a *callbackAdapter) Target() common.Address { return a.target }

func (a *callbackAdapter) Execute(ctx context.Context, operator core.PositionOperator, custodian common.Address, data []byte) error {
	return a.fn(ctx, operator, custodian)
}

func TestReentrancy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openA(t)

	hook := &callbackAdapter{
		address: common.HexToAddress("0x7000000000000000000000000000000000000003"),
		target:  common.HexToAddress("0x7000000000000000000000000000000000000004"),
	}
	require.Nil(t, f.Adapters.Add(hook))
	call := []*core.Call{{Target: hook.address}}

	data := map[string]func(ctx context.Context) error{
		"multicall": func(ctx context.Context) error {
			return f.Engine.Multicall(ctx, alice, nil)
		},
		"close": func(ctx context.Context) error {
			_, err := f.Engine.ClosePosition(ctx, alice, alice, nil)
			return err
		},
		"open": func(ctx context.Context) error {
			_, err := f.Engine.OpenPosition(ctx, bob, bob, u(1000), 200)
			return err
		},
		"liquidate": func(ctx context.Context) error {
			_, err := f.Engine.LiquidatePosition(ctx, bob, alice, bob, nil)
			return err
		},
	}

	for name, reenter := range data {
		t.Run(name, func(t *testing.T) {
			hook.fn = func(ctx context.Context, _ core.PositionOperator, _ common.Address) error {
				return reenter(ctx)
			}

			err := f.Engine.Multicall(ctx, alice, call)
			assert.ErrorIs(t, err, core.ErrReentrancyDetected)

			p, err := f.Engine.Position(ctx, alice)
			require.Nil(t, err)
			assert.Equal(t, uint64(5000), p.BorrowedAmount.Uint64())
		})
	}

	t.Run("detached context", func(t *testing.T) {
		hook.fn = func(_ context.Context, _ core.PositionOperator, _ common.Address) error {
			return f.Engine.Multicall(context.Background(), alice, nil)
		}

		done := make(chan error, 1)
		go func() { done <- f.Engine.Multicall(ctx, alice, call) }()

		select {
		case err := <-done:
			assert.ErrorIs(t, err, core.ErrReentrancyDetected)
		case <-time.After(3 * time.Second):
			t.Fatal("multicall re-entered with a detached context did not return")
		}

		p, err := f.Engine.Position(ctx, alice)
		require.Nil(t, err)
		assert.Equal(t, uint64(5000), p.BorrowedAmount.Uint64())
	})

	t.Run("queries", func(t *testing.T) {
		hook.fn = func(ctx context.Context, _ core.PositionOperator, custodian common.Address) error {
			_, err := f.Engine.Position(ctx, custodian)
			return err
		}

		assert.Nil(t, f.Engine.Multicall(ctx, alice, call))
	})

	t.Run("detached queries", func(t *testing.T) {
		hook.fn = func(_ context.Context, _ core.PositionOperator, custodian common.Address) error {
			_, err := f.Engine.Position(context.Background(), custodian)
			return err
		}

		assert.Nil(t, f.Engine.Multicall(ctx, alice, call))
	})
}

func TestOperatorAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.openA(t)

	hook := &callbackAdapter{
		address: common.HexToAddress("0x7000000000000000000000000000000000000003"),
		target:  common.HexToAddress("0x7000000000000000000000000000000000000004"),
	}
	require.Nil(t, f.Adapters.Add(hook))
	call := []*core.Call{{Target: hook.address}}

	data := map[string]struct {
		fn  func(ctx context.Context, operator core.PositionOperator, custodian common.Address) error
		err error
	}{
		"wrong custodian": {
			fn: func(ctx context.Context, operator core.PositionOperator, _ common.Address) error {
				return operator.ExecuteOrder(ctx, hook.address, alice, func(common.Address) error { return nil })
			},
			err: core.ErrAccessDenied,
		},
		"unapproved adapter": {
			fn: func(ctx context.Context, operator core.PositionOperator, custodian common.Address) error {
				return operator.EnableAsset(ctx, bob, custodian, weth)
			},
			err: core.ErrAccessDenied,
		},
		"unknown asset": {
			fn: func(ctx context.Context, operator core.PositionOperator, custodian common.Address) error {
				return operator.EnableAsset(ctx, hook.address, custodian, junk)
			},
			err: core.ErrUnknownAsset,
		},
	}

	for name, tc := range data {
		t.Run(name, func(t *testing.T) {
			hook.fn = tc.fn
			err := f.Engine.Multicall(ctx, alice, call)
			assert.ErrorIs(t, err, tc.err)
		})
	}

	// outside of a batch nobody is custodian
	err := f.Executor.ExecuteOrder(ctx, swapAddr, executorAddr, func(common.Address) error { return nil })
	assert.ErrorIs(t, err, core.ErrAccessDenied)

	t.Run("enable", func(t *testing.T) {
		hook.fn = func(ctx context.Context, operator core.PositionOperator, custodian common.Address) error {
			return operator.EnableAsset(ctx, hook.address, custodian, weth)
		}

		require.Nil(t, f.Engine.Multicall(ctx, alice, call))
		got, err := f.Engine.Position(ctx, alice)
		require.Nil(t, err)
		assert.Equal(t, uint64(3), got.EnabledAssetMask.Uint64())
		assert.Equal(t, p.Account, got.Account)
	})
}

func TestRecorderFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.recorder.err = errors.New("database is down")

	_, err := f.Engine.OpenPosition(ctx, alice, alice, u(1000), 500)
	assert.EqualError(t, err, "database is down")
	assert.Equal(t, uint64(10000), f.balance(usdc, alice))
	assert.Equal(t, uint64(1000000), f.balance(usdc, poolAddr))
	assert.True(t, f.Engine.TotalDebt(ctx).Current.IsZero())
	assert.True(t, f.Pool.TotalBorrowed().IsZero())
	assert.Empty(t, f.Engine.Positions(ctx))

	f.recorder.err = nil
	p := f.openA(t)
	// the reverted open did not consume an account
	first, err := f.Engine.Position(ctx, alice)
	require.Nil(t, err)
	assert.Equal(t, uint64(0), first.Nonce)
	assert.Equal(t, uint64(6000), f.balance(usdc, p.Account))
}

func TestAddCollateral(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.openA(t)

	require.Nil(t, f.Fund(ctx, weth, bob, u(100)))

	require.Nil(t, f.Engine.AddCollateral(ctx, bob, alice, weth, u(100)))
	got, err := f.Engine.Position(ctx, alice)
	require.Nil(t, err)
	assert.Equal(t, uint64(3), got.EnabledAssetMask.Uint64())
	assert.Equal(t, uint64(100), f.balance(weth, p.Account))

	err = f.Engine.AddCollateral(ctx, alice, alice, junk, u(1))
	assert.ErrorIs(t, err, core.ErrUnknownAsset)

	err = f.Engine.AddCollateral(ctx, alice, carol, usdc, u(1))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestIncreaseDebt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.openA(t)

	require.Nil(t, f.Engine.IncreaseDebt(ctx, alice, u(500)))
	got, err := f.Engine.Position(ctx, alice)
	require.Nil(t, err)
	assert.Equal(t, uint64(5500), got.BorrowedAmount.Uint64())
	assert.True(t, got.AccrualIndexAtOpen.Eq(leverage.Ray))
	assert.Equal(t, uint64(6500), f.balance(usdc, p.Account))
	assert.Equal(t, uint64(5500), f.Engine.TotalDebt(ctx).Current.Uint64())

	// 10500 * 0.9 < 9500
	err = f.Engine.IncreaseDebt(ctx, alice, u(4000))
	assert.ErrorIs(t, err, core.ErrInsufficientCollateral)
	assert.Equal(t, uint64(5500), f.Engine.TotalDebt(ctx).Current.Uint64())

	err = f.Engine.IncreaseDebt(ctx, alice, new(uint256.Int))
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	err = f.Engine.IncreaseDebt(ctx, bob, u(1))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestTransferOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.openA(t)

	_, err := f.Engine.OpenPosition(ctx, bob, bob, u(1000), 200)
	require.Nil(t, err)

	err = f.Engine.TransferOwnership(ctx, alice, bob)
	assert.ErrorIs(t, err, core.ErrDuplicatePosition)

	err = f.Engine.TransferOwnership(ctx, alice, common.Address{})
	assert.ErrorIs(t, err, core.ErrAccessDenied)

	require.Nil(t, f.Engine.TransferOwnership(ctx, alice, carol))
	got, err := f.Engine.Position(ctx, carol)
	require.Nil(t, err)
	assert.Equal(t, p.Account, got.Account)
	assert.Equal(t, carol, got.Owner)

	_, err = f.Engine.Position(ctx, alice)
	assert.ErrorIs(t, err, core.ErrNotFound)

	change := f.recorder.last()
	assert.Equal(t, []common.Address{alice}, change.DeletedOwners)
	assert.Equal(t, carol, change.SavedPositions[0].Owner)
}

func TestAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.Engine.RegisterAsset(ctx, alice, junk, 1000)
	assert.ErrorIs(t, err, core.ErrAccessDenied)

	_, err = f.Engine.RegisterAsset(ctx, configurator, weth, 1000)
	assert.ErrorIs(t, err, core.ErrAlreadyRegistered)

	_, err = f.Engine.RegisterAsset(ctx, configurator, junk, 10001)
	assert.ErrorIs(t, err, core.ErrInvalidThreshold)
	assert.Len(t, f.Engine.Assets(ctx), 2)

	mask, err := f.Engine.RegisterAsset(ctx, configurator, junk, 1000)
	require.Nil(t, err)
	assert.Equal(t, uint64(4), mask.Uint64())
	require.Len(t, f.recorder.last().Assets, 1)
	assert.Equal(t, uint8(2), f.recorder.last().Assets[0].Index)

	require.Nil(t, f.Engine.SetThreshold(ctx, configurator, junk, 2000))
	assets := f.Engine.Assets(ctx)
	require.Len(t, assets, 3)
	assert.Equal(t, uint16(2000), assets[2].LiquidationThreshold)

	err = f.Engine.SetThreshold(ctx, configurator, carol, 2000)
	assert.ErrorIs(t, err, core.ErrUnknownAsset)

	err = f.Engine.SetThreshold(ctx, bob, junk, 2000)
	assert.ErrorIs(t, err, core.ErrAccessDenied)
}

func TestValuation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openA(t)
	f.tradeB(t)

	v, err := f.Engine.Valuation(ctx, alice)
	require.Nil(t, err)
	assert.Equal(t, uint64(5000), v.DebtWithInterest.Uint64())
	assert.True(t, v.TotalUSD.Eq(dollars(6000)))
	assert.True(t, v.WeightedUSD.Eq(dollars(5150)))
	assert.Equal(t, uint64(6000), v.TotalInUnderlying.Uint64())

	_, err = f.Engine.Valuation(ctx, bob)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

// conservation of the underlying, uniqueness of accounts and mask integrity
// across many owners trading concurrently
func TestConcurrentPositions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	owners := make([]common.Address, 16)
	for i := range owners {
		owners[i] = common.HexToAddress(fmt.Sprintf("0x%040x", 0x100+i))
		require.Nil(t, f.Fund(ctx, usdc, owners[i], u(2000)))
	}

	holders := append([]common.Address{poolAddr, routerAddr}, owners...)
	supply := f.usdcSupply(holders...)
	trade := []*core.Call{swapCall(t, usdc, weth, u(1000))}

	var wg sync.WaitGroup
	for _, owner := range owners {
		wg.Add(1)
		go func(owner common.Address) {
			defer wg.Done()

			_, err := f.Engine.OpenPosition(ctx, owner, owner, u(1000), 300)
			assert.Nil(t, err)
			assert.Nil(t, f.Engine.Multicall(ctx, owner, trade))
		}(owner)
	}
	wg.Wait()

	positions := f.Engine.Positions(ctx)
	require.Len(t, positions, len(owners))

	accounts := map[common.Address]bool{}
	for _, p := range positions {
		assert.False(t, accounts[p.Account])
		accounts[p.Account] = true
		holders = append(holders, p.Account)

		assert.True(t, leverage.HasBit(p.EnabledAssetMask, leverage.UnderlyingMask))
		err := leverage.ForEachBit(p.EnabledAssetMask, func(index uint8) (bool, error) {
			_, _, err := f.Registry.LookupByMask(leverage.MaskFor(index))
			return true, err
		})
		assert.Nil(t, err)
	}

	assert.Equal(t, supply, f.usdcSupply(holders...))
	assert.Equal(t, uint64(16*3000), f.Engine.TotalDebt(ctx).Current.Uint64())
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openA(t)
	f.tradeB(t)

	restored := world.New(world.Options{
		Engine:          engine.Config{Address: engineAddr, Configurator: configurator, MinAmount: u(100), MaxAmount: u(1000000), MaxLeverage: 1000},
		Underlying:      usdc,
		PoolAddress:     poolAddr,
		ExecutorAddress: executorAddr,
		DebtLimit:       u(1000000),
	})

	require.Nil(t, restored.Engine.Restore(ctx, f.Engine.Assets(ctx), f.Engine.Positions(ctx), 0))
	assert.Equal(t, f.Engine.Assets(ctx), restored.Engine.Assets(ctx))
	assert.Equal(t, f.Engine.Positions(ctx), restored.Engine.Positions(ctx))
	assert.Equal(t, uint64(5000), restored.Engine.TotalDebt(ctx).Current.Uint64())

	require.Nil(t, restored.Mint(usdc, poolAddr, u(100000)))
	restored.Static.SetPrice(usdc, dollars(1), 0)
	require.Nil(t, restored.Fund(ctx, usdc, bob, u(1000)))

	p, err := restored.Engine.OpenPosition(ctx, bob, bob, u(1000), 100)
	require.Nil(t, err)
	assert.Equal(t, uint64(1), p.Nonce)
	assert.NotEqual(t, f.account(t, alice), p.Account)

	// a gap in the masks is refused
	gap := world.New(world.Options{Underlying: usdc, DebtLimit: u(1)})
	bad := &core.CollateralAsset{AssetID: weth, Index: 2, Mask: leverage.MaskFor(2), LiquidationThreshold: 1}
	assert.NotNil(t, gap.Engine.Restore(ctx, []*core.CollateralAsset{bad}, nil, 0))
}

func TestRestoreNonce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	closed := f.openA(t)
	_, err := f.Engine.ClosePosition(ctx, alice, alice, nil)
	require.Nil(t, err)

	nonce := f.recorder.last().Operation.Nonce
	assert.Equal(t, uint64(1), nonce)
	assert.Empty(t, f.Engine.Positions(ctx))

	restored := world.New(world.Options{
		Engine:      engine.Config{Address: engineAddr, Configurator: configurator, MinAmount: u(100), MaxAmount: u(1000000), MaxLeverage: 1000},
		Underlying:  usdc,
		PoolAddress: poolAddr,
		DebtLimit:   u(1000000),
	})
	require.Nil(t, restored.Engine.Restore(ctx, f.Engine.Assets(ctx), nil, nonce))

	require.Nil(t, restored.Mint(usdc, poolAddr, u(100000)))
	restored.Static.SetPrice(usdc, dollars(1), 0)
	require.Nil(t, restored.Fund(ctx, usdc, bob, u(1000)))

	p, err := restored.Engine.OpenPosition(ctx, bob, bob, u(1000), 100)
	require.Nil(t, err)
	assert.Equal(t, uint64(1), p.Nonce)
	assert.NotEqual(t, closed.Account, p.Account)
}
