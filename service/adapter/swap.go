package adapter

import (
	"context"
	"fmt"
	"leverage/core"
	"leverage/pkg/leverage"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const swapABI = `[
	{"type":"function","name":"swapExactIn","inputs":[
		{"name":"tokenIn","type":"address"},
		{"name":"tokenOut","type":"address"},
		{"name":"amountIn","type":"uint256"},
		{"name":"amountOutMin","type":"uint256"}
	],"outputs":[]},
	{"type":"function","name":"swapAll","inputs":[
		{"name":"tokenIn","type":"address"},
		{"name":"tokenOut","type":"address"},
		{"name":"amountOutMin","type":"uint256"}
	],"outputs":[]}
]`

var swapMethods = func() abi.ABI {
	a, err := abi.JSON(strings.NewReader(swapABI))
	if err != nil {
		panic(err)
	}
	return a
}()

// PackSwapExactIn call data swapping amountIn of tokenIn
func PackSwapExactIn(tokenIn, tokenOut common.Address, amountIn, amountOutMin *uint256.Int) ([]byte, error) {
	return swapMethods.Pack("swapExactIn", tokenIn, tokenOut, amountIn.ToBig(), amountOutMin.ToBig())
}

// PackSwapAll call data swapping the whole tokenIn balance but one unit
func PackSwapAll(tokenIn, tokenOut common.Address, amountOutMin *uint256.Int) ([]byte, error) {
	return swapMethods.Pack("swapAll", tokenIn, tokenOut, amountOutMin.ToBig())
}

type swapOrder struct {
	tokenIn, tokenOut common.Address
	// amountIn is nil for swapAll
	amountIn     *uint256.Int
	amountOutMin *uint256.Int
}

func toUint256(v interface{}) (*uint256.Int, error) {
	b, ok := v.(*big.Int)
	if !ok {
		return nil, core.ErrInvalidCall
	}

	u, overflow := uint256.FromBig(b)
	if overflow {
		return nil, core.ErrInvalidCall
	}
	return u, nil
}

func decodeSwap(data []byte) (*swapOrder, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("call data too short: %w", core.ErrInvalidCall)
	}

	method, err := swapMethods.MethodById(data[:4])
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, core.ErrInvalidCall)
	}

	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %v: %w", method.Name, err, core.ErrInvalidCall)
	}

	order := &swapOrder{}
	var ok bool
	if order.tokenIn, ok = args[0].(common.Address); !ok {
		return nil, core.ErrInvalidCall
	}
	if order.tokenOut, ok = args[1].(common.Address); !ok {
		return nil, core.ErrInvalidCall
	}

	switch method.Name {
	case "swapExactIn":
		if order.amountIn, err = toUint256(args[2]); err != nil {
			return nil, err
		}
		order.amountOutMin, err = toUint256(args[3])
	default:
		order.amountOutMin, err = toUint256(args[2])
	}

	return order, err
}

// SwapAdapter adapter of a Router
type SwapAdapter struct {
	address common.Address
	router  *Router
}

// NewSwapAdapter new swap adapter
func NewSwapAdapter(address common.Address, router *Router) *SwapAdapter {
	return &SwapAdapter{
		address: address,
		router:  router,
	}
}

func (a *SwapAdapter) Address() common.Address {
	return a.address
}

func (a *SwapAdapter) Target() common.Address {
	return a.router.Address()
}

func (a *SwapAdapter) Execute(ctx context.Context, operator core.PositionOperator, custodian common.Address, data []byte) error {
	order, err := decodeSwap(data)
	if err != nil {
		return err
	}

	if err := operator.ApproveTarget(ctx, a.address, custodian, order.tokenIn, leverage.Max); err != nil {
		return err
	}

	err = operator.ExecuteOrder(ctx, a.address, custodian, func(account common.Address) error {
		amountIn := order.amountIn
		if amountIn == nil {
			balance := a.router.BalanceOf(order.tokenIn, account)
			if !balance.Gt(leverage.DustAmount) {
				return nil
			}
			amountIn = new(uint256.Int).Sub(balance, leverage.DustAmount)
		}

		_, err := a.router.Swap(ctx, account, order.tokenIn, order.tokenOut, amountIn, order.amountOutMin)
		return err
	})
	if err != nil {
		return err
	}

	if err := operator.ApproveTarget(ctx, a.address, custodian, order.tokenIn, new(uint256.Int)); err != nil {
		return err
	}

	return operator.EnableAsset(ctx, a.address, custodian, order.tokenOut)
}
