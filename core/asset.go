package core

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/store/db"
	"github.com/holiman/uint256"
)

// CollateralAsset registered collateral asset
type CollateralAsset struct {
	AssetID common.Address `json:"asset_id"`
	// Index bit number, 0 is the underlying
	Index uint8 `json:"index"`
	// Mask single set bit, 1 << Index
	Mask *uint256.Int `json:"mask"`
	// LiquidationThreshold out of leverage.PercentageFactor
	LiquidationThreshold uint16 `json:"liquidation_threshold"`
}

// ICollateralRegistry append-only registry of allowed assets
type ICollateralRegistry interface {
	Journal
	Underlying() common.Address
	RegisterAsset(ctx context.Context, asset common.Address) (*uint256.Int, error)
	SetThreshold(ctx context.Context, asset common.Address, threshold uint16) error
	LookupByMask(mask *uint256.Int) (common.Address, uint16, error)
	// MaskOf returns a zero mask when the asset is not registered
	MaskOf(asset common.Address) *uint256.Int
	Assets() []*CollateralAsset
}

// AssetRecord persisted collateral asset
type AssetRecord struct {
	ID                   uint64    `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	AssetID              string    `sql:"size:42;unique_index:idx_assets_asset_id" json:"asset_id"`
	BitIndex             int       `sql:"unique_index:idx_assets_bit_index" json:"bit_index"`
	LiquidationThreshold int       `json:"liquidation_threshold"`
	CreatedAt            time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// IAssetStore asset store interface
type IAssetStore interface {
	Save(ctx context.Context, tx *db.DB, asset *AssetRecord) error
	All(ctx context.Context) ([]*AssetRecord, error)
}
