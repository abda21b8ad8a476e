package cmd

import (
	"context"
	"fmt"
	"leverage/core"
	"leverage/internal/world"
	"leverage/pkg/leverage"
	"leverage/service/adapter"
	"leverage/service/engine"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/structs"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

var (
	simUSDC         = common.HexToAddress("0x1000000000000000000000000000000000000001")
	simWETH         = common.HexToAddress("0x1000000000000000000000000000000000000002")
	simOwner        = common.HexToAddress("0xa11ce00000000000000000000000000000000000")
	simLiquidator   = common.HexToAddress("0xb0b0000000000000000000000000000000000000")
	simEngine       = common.HexToAddress("0xe000000000000000000000000000000000000000")
	simConfigurator = common.HexToAddress("0xc000000000000000000000000000000000000000")
	simPool         = common.HexToAddress("0x9000000000000000000000000000000000000000")
	simExecutor     = common.HexToAddress("0x8000000000000000000000000000000000000000")
	simSwap         = common.HexToAddress("0x7000000000000000000000000000000000000001")
	simRouter       = common.HexToAddress("0x7000000000000000000000000000000000000002")
)

// report state after one scenario step, amounts in ledger units
type report struct {
	Scenario     string `structs:"scenario"`
	Step         string `structs:"step"`
	Mask         string `structs:"mask,omitempty"`
	HealthFactor string `structs:"health_factor,omitempty"`
	Underlying   string `structs:"account_underlying,omitempty"`
	Traded       string `structs:"account_traded,omitempty"`
	TotalDebt    string `structs:"total_debt"`
	AmountToPool string `structs:"amount_to_pool,omitempty"`
	Surplus      string `structs:"surplus,omitempty"`
	Remaining    string `structs:"remaining_funds,omitempty"`
	Loss         string `structs:"loss,omitempty"`
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "run the open, trade, close and liquidation scenarios in memory",
	RunE: func(cmd *cobra.Command, args []string) error {
		reports, err := simulate(cmd.Context())
		for _, r := range reports {
			m := structs.Map(r)
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			cmd.Printf("[%s] %s\n", r.Scenario, r.Step)
			for _, k := range keys {
				if k == "scenario" || k == "step" {
					continue
				}
				cmd.Printf("  %-18s %v\n", k, m[k])
			}
		}

		return err
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

type simulation struct {
	*world.World
	scenario string
	reports  []*report
}

func newSimulation() (*simulation, error) {
	ctx := context.Background()
	w := world.New(world.Options{
		Engine: engine.Config{
			Address:      simEngine,
			Configurator: simConfigurator,
			MinAmount:    uint256.NewInt(100),
			MaxAmount:    uint256.NewInt(1000000),
			MaxLeverage:  1000,
		},
		Underlying:          simUSDC,
		UnderlyingThreshold: 9000,
		PoolAddress:         simPool,
		ExecutorAddress:     simExecutor,
		DebtLimit:           uint256.NewInt(1000000),
		LiquidationDiscount: 9500,
	})

	w.Static.SetPrice(simUSDC, uint256.NewInt(100000000), 0)
	w.Static.SetPrice(simWETH, uint256.NewInt(200000000), 0)

	if _, err := w.Engine.RegisterAsset(ctx, simConfigurator, simWETH, 8500); err != nil {
		return nil, err
	}

	if _, err := w.AddSwapAdapter(simSwap, simRouter); err != nil {
		return nil, err
	}

	for _, b := range []*core.Balance{
		{Asset: simUSDC, Holder: simPool, Amount: uint256.NewInt(1000000)},
		{Asset: simUSDC, Holder: simRouter, Amount: uint256.NewInt(100000)},
		{Asset: simWETH, Holder: simRouter, Amount: uint256.NewInt(100000)},
	} {
		if err := w.Mint(b.Asset, b.Holder, b.Amount); err != nil {
			return nil, err
		}
	}

	for _, holder := range []common.Address{simOwner, simLiquidator} {
		if err := w.Fund(ctx, simUSDC, holder, uint256.NewInt(10000)); err != nil {
			return nil, err
		}
	}

	return &simulation{World: w}, nil
}

func (s *simulation) record(ctx context.Context, step string, settlement *core.Settlement) {
	r := &report{
		Scenario:  s.scenario,
		Step:      step,
		TotalDebt: s.Engine.TotalDebt(ctx).Current.Dec(),
	}

	if p, err := s.Engine.Position(ctx, simOwner); err == nil {
		r.Mask = p.EnabledAssetMask.Hex()
		r.Underlying = s.Ledger.BalanceOf(simUSDC, p.Account).Dec()
		r.Traded = s.Ledger.BalanceOf(simWETH, p.Account).Dec()

		if hf, err := s.Engine.HealthFactor(ctx, simOwner); err == nil && !hf.Eq(leverage.Max) {
			r.HealthFactor = hf.Dec()
		}
	}

	if settlement != nil {
		r.AmountToPool = settlement.AmountToPool.Dec()
		r.Surplus = settlement.Surplus.Dec()
		r.Remaining = settlement.RemainingFunds.Dec()
		r.Loss = settlement.Loss.Dec()
	}

	s.reports = append(s.reports, r)
}

// openAndTrade scenarios A and B
func (s *simulation) openAndTrade(ctx context.Context) error {
	s.scenario = "A"
	if _, err := s.Engine.OpenPosition(ctx, simOwner, simOwner, uint256.NewInt(1000), 500); err != nil {
		return fmt.Errorf("open: %w", err)
	}
	s.record(ctx, "open 1000 at 5x", nil)

	s.scenario = "B"
	data, err := adapter.PackSwapExactIn(simUSDC, simWETH, uint256.NewInt(5000), new(uint256.Int))
	if err != nil {
		return err
	}

	if err := s.Engine.Multicall(ctx, simOwner, []*core.Call{{Target: simSwap, Data: data}}); err != nil {
		return fmt.Errorf("multicall: %w", err)
	}
	s.record(ctx, "swap 5000 underlying", nil)
	return nil
}

func simulate(ctx context.Context) ([]*report, error) {
	var reports []*report

	s, err := newSimulation()
	if err != nil {
		return nil, err
	}

	if err := s.openAndTrade(ctx); err != nil {
		return s.reports, err
	}

	s.scenario = "C"
	if err := s.Engine.AddCollateral(ctx, simOwner, simOwner, simUSDC, uint256.NewInt(5000)); err != nil {
		return s.reports, fmt.Errorf("add collateral: %w", err)
	}
	s.record(ctx, "deposit 5000 underlying", nil)

	settlement, err := s.Engine.ClosePosition(ctx, simOwner, simOwner, nil)
	if err != nil {
		return s.reports, fmt.Errorf("close: %w", err)
	}
	s.record(ctx, "close", settlement)
	reports = append(reports, s.reports...)

	if s, err = newSimulation(); err != nil {
		return reports, err
	}

	if err := s.openAndTrade(ctx); err != nil {
		return append(reports, s.reports...), err
	}

	s.scenario = "D"
	s.Static.SetPrice(simWETH, uint256.NewInt(180000000), 0)
	s.record(ctx, "weth drops to 1.8", nil)

	data, err := adapter.PackSwapAll(simWETH, simUSDC, new(uint256.Int))
	if err != nil {
		return append(reports, s.reports...), err
	}

	settlement, err = s.Engine.LiquidatePosition(ctx, simLiquidator, simOwner, simLiquidator, []*core.Call{{Target: simSwap, Data: data}})
	if err != nil {
		return append(reports, s.reports...), fmt.Errorf("liquidate: %w", err)
	}
	s.record(ctx, "liquidate", settlement)

	return append(reports, s.reports...), nil
}
