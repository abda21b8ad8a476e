package cmd

import (
	"context"
	"fmt"
	"leverage/core"
	"leverage/internal/world"
	"leverage/pkg/leverage"
	"leverage/pkg/number"
	"leverage/service/engine"
	"leverage/service/oracle"
	"leverage/service/pool"
	"leverage/store/asset"
	"leverage/store/balance"
	"leverage/store/operation"
	"leverage/store/position"
	"leverage/store/recorder"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/property"
	"github.com/fox-one/pkg/store/db"
	propertystore "github.com/fox-one/pkg/store/property"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

func provideDatabase() *db.DB {
	return db.MustOpen(cfg.DB)
}

func provideConfig() *core.Config {
	return &cfg
}

// ---------------store-----------------------------------------

func providePropertyStore(db *db.DB) property.Store {
	return propertystore.New(db)
}

func provideOperationStore(db *db.DB) core.IOperationStore {
	return operation.New(db)
}

func provideRecorder(db *db.DB) *recorder.Recorder {
	return recorder.New(db, position.New(db), asset.New(db), balance.New(db), provideOperationStore(db))
}

// ------------------service------------------------------------

func amount(d decimal.Decimal, decimals uint8) *uint256.Int {
	v, err := number.FromDecimal(d, int32(decimals))
	if err != nil {
		panic(fmt.Errorf("amount %s: %w", d, err))
	}
	return v
}

func provideOracle() core.PriceOracle {
	c := provideConfig()
	assets := append([]core.Asset{c.Engine.Underlying}, c.Assets...)

	if strings.EqualFold(c.Oracle.Kind, "rest") {
		restAssets := make([]oracle.RestAsset, 0, len(assets))
		for _, a := range assets {
			restAssets = append(restAssets, oracle.RestAsset{
				Asset:    common.HexToAddress(a.Address),
				Symbol:   a.Symbol,
				Decimals: a.Decimals,
			})
		}

		return oracle.NewRest(c.Oracle.EndPoint, restAssets, cast.ToDuration(c.Oracle.CacheTTL))
	}

	prices := oracle.NewStatic()
	for _, a := range assets {
		prices.SetPrice(common.HexToAddress(a.Address), amount(a.Price, leverage.PriceDecimals), a.Decimals)
	}

	return prices
}

func provideWorldOptions(recorder core.StateRecorder) world.Options {
	c := provideConfig()
	underlying := c.Engine.Underlying

	return world.Options{
		Engine: engine.Config{
			Address:      common.HexToAddress(c.Engine.Address),
			Configurator: common.HexToAddress(c.Engine.Configurator),
			MinAmount:    amount(c.Engine.MinAmount, underlying.Decimals),
			MaxAmount:    amount(c.Engine.MaxAmount, underlying.Decimals),
			MaxLeverage:  c.Engine.MaxLeverage,
		},
		Underlying:          common.HexToAddress(underlying.Address),
		UnderlyingThreshold: underlying.Threshold,
		PoolAddress:         common.HexToAddress(c.Engine.PoolAddress),
		ExecutorAddress:     common.HexToAddress(c.Engine.ExecutorAddress),
		RateModel: leverage.RateModel{
			BaseRate:       c.Pool.BaseRate,
			Multiplier:     c.Pool.Multiplier,
			JumpMultiplier: c.Pool.JumpMultiplier,
			Kink:           c.Pool.Kink,
		},
		DebtLimit:           amount(c.Engine.DebtLimit, underlying.Decimals),
		LiquidationDiscount: c.Engine.LiquidationDiscount,
		Oracle:              provideOracle(),
		Recorder:            recorder,
	}
}

// provideWorld builds the engine and loads the recorded state, the first
// start mints the genesis balances and registers the configured assets
func provideWorld(ctx context.Context, database *db.DB) *world.World {
	log := logger.FromContext(ctx)
	rec := provideRecorder(database)

	state, err := rec.Load(ctx)
	if err != nil {
		log.WithError(err).Panicln("load state")
	}

	opts := provideWorldOptions(rec)
	if state.AccrualIndex != nil {
		borrowed := new(uint256.Int)
		for _, p := range state.Positions {
			borrowed.Add(borrowed, p.BorrowedAmount)
		}

		opts.PoolOptions = append(opts.PoolOptions, pool.WithState(state.AccrualIndex, state.AccruedAt, borrowed))
	}

	w := world.New(opts)
	if err := restoreWorld(ctx, w, state, rec); err != nil {
		log.WithError(err).Panicln("restore state")
	}

	for _, def := range provideConfig().Adapters {
		if !strings.EqualFold(def.Kind, "swap") {
			log.Panicf("unknown adapter kind %q", def.Kind)
		}

		if _, err := w.AddSwapAdapter(common.HexToAddress(def.Address), common.HexToAddress(def.Target)); err != nil {
			log.WithError(err).Panicln("add adapter", def.Address)
		}
	}

	return w
}

func restoreWorld(ctx context.Context, w *world.World, state *recorder.State, rec *recorder.Recorder) error {
	c := provideConfig()

	if state.Empty() {
		var genesis []*core.Balance
		for _, g := range c.Balances {
			a, ok := c.AssetByAddress(g.Asset)
			if !ok {
				return fmt.Errorf("genesis balance of unknown asset %s", g.Asset)
			}

			b := &core.Balance{
				Asset:  common.HexToAddress(g.Asset),
				Holder: common.HexToAddress(g.Holder),
				Amount: amount(g.Amount, a.Decimals),
			}

			if err := w.Mint(b.Asset, b.Holder, b.Amount); err != nil {
				return err
			}
			genesis = append(genesis, b)
		}

		if err := rec.Seed(ctx, genesis); err != nil {
			return err
		}
	} else {
		for _, b := range state.Balances {
			if err := w.Ledger.Mint(b.Asset, b.Holder, b.Amount); err != nil {
				return err
			}
		}

		for _, a := range state.Allowances {
			if err := w.Ledger.Approve(ctx, a.Asset, a.Owner, a.Spender, a.Amount); err != nil {
				return err
			}
		}
		w.Ledger.Commit()

		if err := w.Engine.Restore(ctx, state.Assets, state.Positions, state.Nonce); err != nil {
			return err
		}
	}

	configurator := common.HexToAddress(c.Engine.Configurator)
	for _, a := range c.Assets {
		address := common.HexToAddress(a.Address)
		if !w.Registry.MaskOf(address).IsZero() {
			continue
		}

		if _, err := w.Engine.RegisterAsset(ctx, configurator, address, a.Threshold); err != nil {
			return err
		}
	}

	return nil
}
