package oracle

import (
	"context"
	"fmt"
	"leverage/core"
	"leverage/pkg/leverage"
	"leverage/pkg/number"
	"leverage/pkg/resthttp"
	"time"

	"github.com/bluele/gcache"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
	"golang.org/x/sync/singleflight"
)

// RestAsset asset priced by the rest oracle
type RestAsset struct {
	Asset    common.Address
	Symbol   string
	Decimals uint8
}

// Rest pulls price tickers from an http endpoint
type Rest struct {
	endpoint string
	assets   map[common.Address]RestAsset
	ttl      time.Duration
	cache    gcache.Cache
	sf       *singleflight.Group
}

// NewRest new rest oracle, tickers are cached for ttl
func NewRest(endpoint string, assets []RestAsset, ttl time.Duration) *Rest {
	m := make(map[common.Address]RestAsset, len(assets))
	for _, a := range assets {
		m[a.Asset] = a
	}

	return &Rest{
		endpoint: endpoint,
		assets:   m,
		ttl:      ttl,
		cache:    gcache.New(256).LRU().Build(),
		sf:       &singleflight.Group{},
	}
}

// PullPriceTicker pull price ticker
func (o *Rest) PullPriceTicker(ctx context.Context, symbol string) (*core.PriceTicker, error) {
	url := fmt.Sprintf("%s/api/v2/tickers/%s", o.endpoint, symbol)
	logger.FromContext(ctx).Debugln("pull price:", url)

	resp, err := resthttp.Request(ctx).Get(url)
	if err != nil {
		return nil, err
	}

	var ticker core.PriceTicker
	if err := resthttp.ParseResponse(resp, &ticker); err != nil {
		return nil, err
	}

	return &ticker, nil
}

func (o *Rest) ticker(ctx context.Context, symbol string) (*core.PriceTicker, error) {
	key := "ticker:" + symbol
	if v, err := o.cache.Get(key); err == nil {
		if ticker, ok := v.(*core.PriceTicker); ok {
			return ticker, nil
		}
	}

	v, err, _ := o.sf.Do(key, func() (interface{}, error) {
		ticker, err := o.PullPriceTicker(ctx, symbol)
		if err != nil {
			return nil, err
		}

		_ = o.cache.SetWithExpire(key, ticker, o.ttl)
		return ticker, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*core.PriceTicker), nil
}

func (o *Rest) price(ctx context.Context, asset common.Address) (*uint256.Int, uint8, error) {
	a, ok := o.assets[asset]
	if !ok {
		return nil, 0, fmt.Errorf("price of %s: %w", asset.Hex(), core.ErrPriceUnavailable)
	}

	ticker, err := o.ticker(ctx, a.Symbol)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("pull price ticker", a.Symbol)
		return nil, 0, fmt.Errorf("price of %s: %v: %w", a.Symbol, err, core.ErrPriceUnavailable)
	}

	price, err := number.FromDecimal(ticker.Price, leverage.PriceDecimals)
	if err != nil {
		return nil, 0, fmt.Errorf("price of %s: %w", a.Symbol, core.ErrPriceUnavailable)
	}

	return price, a.Decimals, requirePrice(asset, price)
}

func (o *Rest) PriceInUSD(ctx context.Context, asset common.Address) (*uint256.Int, error) {
	price, _, err := o.price(ctx, asset)
	return price, err
}

func (o *Rest) ConvertToUSD(ctx context.Context, amount *uint256.Int, asset common.Address) (*uint256.Int, error) {
	price, decimals, err := o.price(ctx, asset)
	if err != nil {
		return nil, err
	}

	return toUSD(amount, price, decimals)
}

func (o *Rest) ConvertFromUSD(ctx context.Context, usd *uint256.Int, asset common.Address) (*uint256.Int, error) {
	price, decimals, err := o.price(ctx, asset)
	if err != nil {
		return nil, err
	}

	return fromUSD(usd, price, decimals)
}
