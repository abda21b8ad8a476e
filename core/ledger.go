package core

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/store/db"
	"github.com/holiman/uint256"
)

// Balance ledger balance
type Balance struct {
	Asset  common.Address `json:"asset"`
	Holder common.Address `json:"holder"`
	Amount *uint256.Int   `json:"amount"`
}

// Allowance ledger allowance
type Allowance struct {
	Asset   common.Address `json:"asset"`
	Owner   common.Address `json:"owner"`
	Spender common.Address `json:"spender"`
	Amount  *uint256.Int   `json:"amount"`
}

// LedgerChanges balances and allowances touched since a snapshot
type LedgerChanges struct {
	Balances   []*Balance
	Allowances []*Allowance
}

// Ledger moves asset balances. Every call fails instead of doing a partial move.
type Ledger interface {
	Journal
	BalanceOf(asset, holder common.Address) *uint256.Int
	Allowance(asset, owner, spender common.Address) *uint256.Int
	Transfer(ctx context.Context, asset, from, to common.Address, amount *uint256.Int) error
	// TransferFrom moves funds of from, spending the allowance granted to spender
	TransferFrom(ctx context.Context, asset, spender, from, to common.Address, amount *uint256.Int) error
	Approve(ctx context.Context, asset, owner, spender common.Address, amount *uint256.Int) error
	Changes(snapshot int) *LedgerChanges
}

// BalanceRecord persisted balance
type BalanceRecord struct {
	ID        uint64    `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	Asset     string    `sql:"size:42;unique_index:idx_balances_asset_holder" json:"asset"`
	Holder    string    `sql:"size:42;unique_index:idx_balances_asset_holder" json:"holder"`
	Amount    string    `sql:"size:80" json:"amount"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// AllowanceRecord persisted allowance
type AllowanceRecord struct {
	ID        uint64    `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	Asset     string    `sql:"size:42;unique_index:idx_allowances_key" json:"asset"`
	Owner     string    `sql:"size:42;unique_index:idx_allowances_key" json:"owner"`
	Spender   string    `sql:"size:42;unique_index:idx_allowances_key" json:"spender"`
	Amount    string    `sql:"size:80" json:"amount"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// IBalanceStore balance store interface
type IBalanceStore interface {
	SaveBalance(ctx context.Context, tx *db.DB, balance *BalanceRecord) error
	SaveAllowance(ctx context.Context, tx *db.DB, allowance *AllowanceRecord) error
	AllBalances(ctx context.Context) ([]*BalanceRecord, error)
	AllAllowances(ctx context.Context) ([]*AllowanceRecord, error)
}
