package config

import (
	"fmt"
	"leverage/core"
	"leverage/pkg/leverage"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

func defaults(cfg *core.Config) {
	if cfg.App.Location == "" {
		cfg.App.Location = "UTC"
	}

	if cfg.Engine.MaxLeverage == 0 {
		cfg.Engine.MaxLeverage = 10 * leverage.LeverageDecimals
	}

	if cfg.Engine.LiquidationDiscount == 0 {
		cfg.Engine.LiquidationDiscount = 9500
	}

	if cfg.Engine.MinAmount.IsZero() {
		cfg.Engine.MinAmount = decimal.NewFromInt(1)
	}

	if cfg.Oracle.Kind == "" {
		cfg.Oracle.Kind = "static"
	}

	if cfg.Oracle.CacheTTL == "" {
		cfg.Oracle.CacheTTL = "30s"
	}

	if cfg.Liquidator.Schedule == "" {
		cfg.Liquidator.Schedule = "@every 10s"
	}
}

// Validate checks addresses and percentages
func Validate(cfg *core.Config) error {
	addresses := map[string]string{
		"engine.address":          cfg.Engine.Address,
		"engine.configurator":     cfg.Engine.Configurator,
		"engine.underlying":       cfg.Engine.Underlying.Address,
		"engine.pool_address":     cfg.Engine.PoolAddress,
		"engine.executor_address": cfg.Engine.ExecutorAddress,
	}

	for i, a := range cfg.Assets {
		addresses[fmt.Sprintf("assets[%d]", i)] = a.Address
	}

	for i, a := range cfg.Adapters {
		addresses[fmt.Sprintf("adapters[%d].address", i)] = a.Address
		addresses[fmt.Sprintf("adapters[%d].target", i)] = a.Target
	}

	if cfg.Liquidator.Enabled {
		addresses["liquidator.address"] = cfg.Liquidator.Address
		addresses["liquidator.recipient"] = cfg.Liquidator.Recipient
	}

	for key, address := range addresses {
		if !core.IsAddress(address) {
			return fmt.Errorf("%s: invalid address %q", key, address)
		}
	}

	if cfg.Engine.LiquidationDiscount > leverage.PercentageFactor {
		return fmt.Errorf("engine.liquidation_discount %d over %d", cfg.Engine.LiquidationDiscount, leverage.PercentageFactor)
	}

	if _, err := cast.ToDurationE(cfg.Oracle.CacheTTL); err != nil {
		return fmt.Errorf("oracle.cache_ttl: %w", err)
	}

	return nil
}
