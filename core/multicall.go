package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// BatchState executor custody state
type BatchState struct {
	InBatch   bool           `json:"in_batch"`
	Owner     common.Address `json:"owner"`
	Custodian common.Address `json:"custodian"`
}

// IMulticallExecutor runs batches while holding custody of the position
type IMulticallExecutor interface {
	PositionOperator
	Address() common.Address
	State() BatchState
	Execute(ctx context.Context, owner common.Address, calls []*Call) error
}
