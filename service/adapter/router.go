package adapter

import (
	"context"
	"fmt"
	"leverage/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
)

// Router exchange priced by the oracle, its liquidity sits on the ledger at its address
type Router struct {
	address common.Address
	ledger  core.Ledger
	oracle  core.PriceOracle
}

// NewRouter new swap router
func NewRouter(address common.Address, ledger core.Ledger, oracle core.PriceOracle) *Router {
	return &Router{
		address: address,
		ledger:  ledger,
		oracle:  oracle,
	}
}

// Address router address
func (r *Router) Address() common.Address {
	return r.address
}

// BalanceOf ledger balance of holder
func (r *Router) BalanceOf(asset, holder common.Address) *uint256.Int {
	return r.ledger.BalanceOf(asset, holder)
}

// Quote amount of tokenOut worth amountIn of tokenIn
func (r *Router) Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	usd, err := r.oracle.ConvertToUSD(ctx, amountIn, tokenIn)
	if err != nil {
		return nil, err
	}

	return r.oracle.ConvertFromUSD(ctx, usd, tokenOut)
}

// Swap pulls amountIn from caller, which must have approved the router, and pays tokenOut back
func (r *Router) Swap(ctx context.Context, caller, tokenIn, tokenOut common.Address, amountIn, amountOutMin *uint256.Int) (*uint256.Int, error) {
	out, err := r.Quote(ctx, tokenIn, tokenOut, amountIn)
	if err != nil {
		return nil, err
	}

	if out.Lt(amountOutMin) {
		return nil, fmt.Errorf("amount out %s below %s: %w", out.Dec(), amountOutMin.Dec(), core.ErrInvalidCall)
	}

	if err := r.ledger.TransferFrom(ctx, tokenIn, r.address, caller, r.address, amountIn); err != nil {
		return nil, err
	}

	if err := r.ledger.Transfer(ctx, tokenOut, r.address, caller, out); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).WithField("caller", caller.Hex()).
		Debugf("swap %s %s for %s %s", amountIn.Dec(), tokenIn.Hex(), out.Dec(), tokenOut.Hex())
	return out, nil
}
