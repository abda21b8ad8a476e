package core

import (
	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Config leverage config
type Config struct {
	App        App          `json:"app"`
	DB         db.Config    `json:"db"`
	Engine     Engine       `json:"engine"`
	Assets     []Asset      `json:"assets"`
	Adapters   []AdapterDef `json:"adapters"`
	Pool       Pool         `json:"pool"`
	Oracle     Oracle       `json:"oracle"`
	Balances   []Genesis    `json:"balances"`
	Liquidator Liquidator   `json:"liquidator"`
}

// App app config
type App struct {
	Location string `json:"location"`
}

// Engine engine config, amounts are in whole underlying units
type Engine struct {
	Address      string `json:"address"`
	Configurator string `json:"configurator"`
	// Underlying asset, holds bit 0
	Underlying          Asset           `json:"underlying"`
	PoolAddress         string          `json:"pool_address"`
	ExecutorAddress     string          `json:"executor_address"`
	MinAmount           decimal.Decimal `json:"min_amount"`
	MaxAmount           decimal.Decimal `json:"max_amount"`
	MaxLeverage         uint64          `json:"max_leverage"`
	DebtLimit           decimal.Decimal `json:"debt_limit"`
	LiquidationDiscount uint16          `json:"liquidation_discount"`
}

// Asset collateral asset config
type Asset struct {
	Address   string `json:"address"`
	Symbol    string `json:"symbol"`
	Decimals  uint8  `json:"decimals"`
	Threshold uint16 `json:"threshold"`
	// Price usd price used by the static oracle
	Price decimal.Decimal `json:"price"`
}

// AdapterDef approved adapter in front of a target
type AdapterDef struct {
	Kind    string `json:"kind"`
	Address string `json:"address"`
	Target  string `json:"target"`
}

// Pool lending pool config, rates are per year
type Pool struct {
	BaseRate       decimal.Decimal `json:"base_rate"`
	Multiplier     decimal.Decimal `json:"multiplier"`
	JumpMultiplier decimal.Decimal `json:"jump_multiplier"`
	Kink           decimal.Decimal `json:"kink"`
}

// Oracle price oracle config
type Oracle struct {
	// Kind static or rest
	Kind     string `json:"kind"`
	EndPoint string `json:"end_point"`
	// CacheTTL like 30s
	CacheTTL string `json:"cache_ttl"`
}

// Genesis ledger balance minted at the first start
type Genesis struct {
	Asset  string          `json:"asset"`
	Holder string          `json:"holder"`
	Amount decimal.Decimal `json:"amount"`
}

// Liquidator liquidation worker config
type Liquidator struct {
	Enabled   bool   `json:"enabled"`
	Address   string `json:"address"`
	Recipient string `json:"recipient"`
	// Schedule cron spec, default @every 10s
	Schedule string `json:"schedule"`
}

// AssetByAddress the underlying or a configured collateral
func (c *Config) AssetByAddress(address string) (Asset, bool) {
	if equalAddress(c.Engine.Underlying.Address, address) {
		return c.Engine.Underlying, true
	}

	for _, a := range c.Assets {
		if equalAddress(a.Address, address) {
			return a, true
		}
	}

	return Asset{}, false
}
