package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// IEngine position engine entry points, each one an atomic unit
type IEngine interface {
	OpenPosition(ctx context.Context, caller, onBehalfOf common.Address, amount *uint256.Int, leverageFactor uint64) (*Position, error)
	Multicall(ctx context.Context, caller common.Address, calls []*Call) error
	ClosePosition(ctx context.Context, caller, to common.Address, calls []*Call) (*Settlement, error)
	LiquidatePosition(ctx context.Context, caller, owner, to common.Address, calls []*Call) (*Settlement, error)
	AddCollateral(ctx context.Context, caller, onBehalfOf, asset common.Address, amount *uint256.Int) error
	IncreaseDebt(ctx context.Context, caller common.Address, amount *uint256.Int) error
	TransferOwnership(ctx context.Context, caller, newOwner common.Address) error
	Approve(ctx context.Context, caller, asset, spender common.Address, amount *uint256.Int) error

	RegisterAsset(ctx context.Context, caller, asset common.Address, threshold uint16) (*uint256.Int, error)
	SetThreshold(ctx context.Context, caller, asset common.Address, threshold uint16) error

	HealthFactor(ctx context.Context, owner common.Address) (*uint256.Int, error)
	Valuation(ctx context.Context, owner common.Address) (*Valuation, error)
	Position(ctx context.Context, owner common.Address) (*Position, error)
	Positions(ctx context.Context) []*Position
	Assets(ctx context.Context) []*CollateralAsset
	TotalDebt(ctx context.Context) TotalDebt
	Address() common.Address
}
