package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Call one instruction of a multicall batch
type Call struct {
	Target common.Address `json:"target" msgpack:"t"`
	Data   []byte         `json:"data" msgpack:"d"`
}

// Adapter translates a generic call into a protocol call on the position account
type Adapter interface {
	Address() common.Address
	Target() common.Address
	// Execute runs call data on behalf of the custodian of a position
	Execute(ctx context.Context, operator PositionOperator, custodian common.Address, data []byte) error
}

// AdapterRegistry bidirectional adapter to target mapping
type AdapterRegistry interface {
	IsApprovedAdapter(adapter common.Address) bool
	ResolveTargetForAdapter(adapter common.Address) (common.Address, bool)
	AdapterForTarget(target common.Address) (Adapter, bool)
	Adapter(adapter common.Address) (Adapter, bool)
	Adapters() []Adapter
}

// PositionOperator position primitives adapters call back into,
// only valid while a batch holds custody of the position
type PositionOperator interface {
	// ExecuteOrder runs fn against the position account
	ExecuteOrder(ctx context.Context, adapter, custodian common.Address, fn func(account common.Address) error) error
	// EnableAsset sets the asset bit of the position mask
	EnableAsset(ctx context.Context, adapter, custodian, asset common.Address) error
	// ApproveTarget lets the adapter target spend the account's asset
	ApproveTarget(ctx context.Context, adapter, custodian, asset common.Address, amount *uint256.Int) error
}
