package core

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/store/db"
	"github.com/jmoiron/sqlx/types"
)

// OperationKind operation kind
type OperationKind string

const (
	// OperationOpen open position
	OperationOpen OperationKind = "open"
	// OperationMulticall multicall
	OperationMulticall OperationKind = "multicall"
	// OperationClose close position
	OperationClose OperationKind = "close"
	// OperationLiquidate liquidate position
	OperationLiquidate OperationKind = "liquidate"
	// OperationAddCollateral add collateral
	OperationAddCollateral OperationKind = "add_collateral"
	// OperationIncreaseDebt increase debt
	OperationIncreaseDebt OperationKind = "increase_debt"
	// OperationTransferOwnership transfer ownership
	OperationTransferOwnership OperationKind = "transfer_ownership"
	// OperationApprove ledger approve
	OperationApprove OperationKind = "approve"
	// OperationRegisterAsset register collateral asset
	OperationRegisterAsset OperationKind = "register_asset"
	// OperationSetThreshold set liquidation threshold
	OperationSetThreshold OperationKind = "set_threshold"
)

func (k OperationKind) String() string {
	return string(k)
}

// Operation committed operation log
type Operation struct {
	ID      uint64        `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	TraceID string        `sql:"size:36;unique_index:idx_operations_trace_id" json:"trace_id"`
	Kind    OperationKind `sql:"size:32" json:"kind"`
	Caller  string        `sql:"size:42" json:"caller"`
	Owner   string        `sql:"size:42;index:idx_operations_owner" json:"owner"`
	// Calls msgpack encoded batch
	Calls     []byte `sql:"type:blob" json:"calls,omitempty"`
	TotalDebt string `sql:"size:80" json:"total_debt"`
	// Nonce next position nonce after the operation
	Nonce uint64 `json:"nonce"`
	// AccrualIndex pool checkpoint after the operation
	AccrualIndex string         `sql:"size:80" json:"accrual_index"`
	AccruedAt    time.Time      `json:"accrued_at"`
	Result       types.JSONText `sql:"type:text" json:"result,omitempty"`
	CreatedAt    time.Time      `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// IOperationStore operation store interface
type IOperationStore interface {
	Create(ctx context.Context, tx *db.DB, operation *Operation) error
	ListByOwner(ctx context.Context, owner string, limit int) ([]*Operation, error)
	// Last returns a zero operation when the log is empty
	Last(ctx context.Context) (*Operation, error)
}

// StateChange everything one operation committed
type StateChange struct {
	Operation      *Operation
	SavedPositions []*Position
	DeletedOwners  []common.Address
	Assets         []*CollateralAsset
	Ledger         *LedgerChanges
}

// StateRecorder persists a state change atomically
type StateRecorder interface {
	Record(ctx context.Context, change *StateChange) error
}
