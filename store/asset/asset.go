package asset

import (
	"context"
	"leverage/core"
	"leverage/pkg/leverage"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/store/db"
)

type assetStore struct {
	db *db.DB
}

// New new collateral asset store
func New(db *db.DB) core.IAssetStore {
	return &assetStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.AssetRecord{})
		if err := tx.AutoMigrate(core.AssetRecord{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *assetStore) Save(ctx context.Context, tx *db.DB, asset *core.AssetRecord) error {
	updates := map[string]interface{}{
		"bit_index":             asset.BitIndex,
		"liquidation_threshold": asset.LiquidationThreshold,
	}

	return tx.Update().Where("asset_id=?", asset.AssetID).Assign(updates).FirstOrCreate(asset).Error
}

// All assets in bit order
func (s *assetStore) All(ctx context.Context) ([]*core.AssetRecord, error) {
	var assets []*core.AssetRecord
	if err := s.db.View().Order("bit_index").Find(&assets).Error; err != nil {
		return nil, err
	}

	return assets, nil
}

// Record asset as stored
func Record(a *core.CollateralAsset) *core.AssetRecord {
	return &core.AssetRecord{
		AssetID:              a.AssetID.Hex(),
		BitIndex:             int(a.Index),
		LiquidationThreshold: int(a.LiquidationThreshold),
	}
}

// Asset parses a stored record
func Asset(r *core.AssetRecord) *core.CollateralAsset {
	return &core.CollateralAsset{
		AssetID:              common.HexToAddress(r.AssetID),
		Index:                uint8(r.BitIndex),
		Mask:                 leverage.MaskFor(uint8(r.BitIndex)),
		LiquidationThreshold: uint16(r.LiquidationThreshold),
	}
}
