package core

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/store/db"
	"github.com/holiman/uint256"
)

// Position open leveraged position
type Position struct {
	Owner common.Address `json:"owner"`
	// Account holds every asset of the position on the ledger
	Account common.Address `json:"account"`
	// Nonce used to derive Account
	Nonce              uint64       `json:"nonce"`
	BorrowedAmount     *uint256.Int `json:"borrowed_amount"`
	AccrualIndexAtOpen *uint256.Int `json:"accrual_index_at_open"`
	// EnabledAssetMask bit 0 is the underlying and always set
	EnabledAssetMask *uint256.Int `json:"enabled_asset_mask"`
}

// Clone deep copy
func (p *Position) Clone() *Position {
	c := *p
	c.BorrowedAmount = new(uint256.Int).Set(p.BorrowedAmount)
	c.AccrualIndexAtOpen = new(uint256.Int).Set(p.AccrualIndexAtOpen)
	c.EnabledAssetMask = new(uint256.Int).Set(p.EnabledAssetMask)
	return &c
}

// IPositionRegistry owner keyed registry of open positions
type IPositionRegistry interface {
	Journal
	Open(owner common.Address, position *Position) error
	TransferCustody(from, to common.Address) error
	Close(owner common.Address) (*Position, error)
	Get(owner common.Address) (*Position, error)
	Update(owner common.Address, fn func(p *Position) error) error
	All() []*Position
}

// PositionRecord persisted position
type PositionRecord struct {
	ID                 uint64    `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	Owner              string    `sql:"size:42;unique_index:idx_positions_owner" json:"owner"`
	Account            string    `sql:"size:42" json:"account"`
	Nonce              uint64    `json:"nonce"`
	BorrowedAmount     string    `sql:"size:80" json:"borrowed_amount"`
	AccrualIndexAtOpen string    `sql:"size:80" json:"accrual_index_at_open"`
	EnabledAssetMask   string    `sql:"size:80" json:"enabled_asset_mask"`
	CreatedAt          time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// IPositionStore position store interface
type IPositionStore interface {
	Save(ctx context.Context, tx *db.DB, position *PositionRecord) error
	Delete(ctx context.Context, tx *db.DB, owner string) error
	All(ctx context.Context) ([]*PositionRecord, error)
}
