package oracle

import (
	"context"
	"fmt"
	"leverage/core"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type staticPrice struct {
	price    *uint256.Int
	decimals uint8
}

// Static prices set by hand
type Static struct {
	mux    sync.RWMutex
	prices map[common.Address]staticPrice
}

// NewStatic new static oracle
func NewStatic() *Static {
	return &Static{prices: map[common.Address]staticPrice{}}
}

// SetPrice sets the usd price (8 decimals) of one whole unit of asset
func (s *Static) SetPrice(asset common.Address, price *uint256.Int, decimals uint8) {
	s.mux.Lock()
	s.prices[asset] = staticPrice{price: new(uint256.Int).Set(price), decimals: decimals}
	s.mux.Unlock()
}

func (s *Static) lookup(asset common.Address) (staticPrice, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	p, ok := s.prices[asset]
	if !ok {
		return p, fmt.Errorf("price of %s: %w", asset.Hex(), core.ErrPriceUnavailable)
	}

	return p, requirePrice(asset, p.price)
}

func (s *Static) PriceInUSD(ctx context.Context, asset common.Address) (*uint256.Int, error) {
	p, err := s.lookup(asset)
	if err != nil {
		return nil, err
	}

	return new(uint256.Int).Set(p.price), nil
}

func (s *Static) ConvertToUSD(ctx context.Context, amount *uint256.Int, asset common.Address) (*uint256.Int, error) {
	p, err := s.lookup(asset)
	if err != nil {
		return nil, err
	}

	return toUSD(amount, p.price, p.decimals)
}

func (s *Static) ConvertFromUSD(ctx context.Context, usd *uint256.Int, asset common.Address) (*uint256.Int, error) {
	p, err := s.lookup(asset)
	if err != nil {
		return nil, err
	}

	return fromUSD(usd, p.price, p.decimals)
}
