package oracle

import (
	"fmt"
	"leverage/core"
	"leverage/pkg/leverage"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func pow10(decimals uint8) *uint256.Int {
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(decimals)))
}

func requirePrice(asset common.Address, price *uint256.Int) error {
	if price == nil || price.IsZero() {
		return fmt.Errorf("price of %s: %w", asset.Hex(), core.ErrPriceUnavailable)
	}
	return nil
}

// toUSD amount * price / 10^decimals
func toUSD(amount, price *uint256.Int, decimals uint8) (*uint256.Int, error) {
	return leverage.MulDiv(amount, price, pow10(decimals))
}

// fromUSD usd * 10^decimals / price
func fromUSD(usd, price *uint256.Int, decimals uint8) (*uint256.Int, error) {
	return leverage.MulDiv(usd, pow10(decimals), price)
}
