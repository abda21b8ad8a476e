package position

import (
	"context"
	"leverage/core"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/store/db"
	"github.com/holiman/uint256"
)

type positionStore struct {
	db *db.DB
}

// New new position store
func New(db *db.DB) core.IPositionStore {
	return &positionStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.PositionRecord{})
		if err := tx.AutoMigrate(core.PositionRecord{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *positionStore) Save(ctx context.Context, tx *db.DB, position *core.PositionRecord) error {
	updates := map[string]interface{}{
		"account":               position.Account,
		"nonce":                 position.Nonce,
		"borrowed_amount":       position.BorrowedAmount,
		"accrual_index_at_open": position.AccrualIndexAtOpen,
		"enabled_asset_mask":    position.EnabledAssetMask,
	}

	return tx.Update().Where("owner=?", position.Owner).Assign(updates).FirstOrCreate(position).Error
}

func (s *positionStore) Delete(ctx context.Context, tx *db.DB, owner string) error {
	return tx.Update().Where("owner=?", owner).Delete(core.PositionRecord{}).Error
}

func (s *positionStore) All(ctx context.Context) ([]*core.PositionRecord, error) {
	var positions []*core.PositionRecord
	if err := s.db.View().Order("owner").Find(&positions).Error; err != nil {
		return nil, err
	}

	return positions, nil
}

// Record position as stored
func Record(p *core.Position) *core.PositionRecord {
	return &core.PositionRecord{
		Owner:              p.Owner.Hex(),
		Account:            p.Account.Hex(),
		Nonce:              p.Nonce,
		BorrowedAmount:     p.BorrowedAmount.Dec(),
		AccrualIndexAtOpen: p.AccrualIndexAtOpen.Dec(),
		EnabledAssetMask:   p.EnabledAssetMask.Dec(),
	}
}

// Position parses a stored record
func Position(r *core.PositionRecord) (*core.Position, error) {
	p := &core.Position{
		Owner:   common.HexToAddress(r.Owner),
		Account: common.HexToAddress(r.Account),
		Nonce:   r.Nonce,
	}

	var err error
	if p.BorrowedAmount, err = uint256.FromDecimal(r.BorrowedAmount); err != nil {
		return nil, err
	}

	if p.AccrualIndexAtOpen, err = uint256.FromDecimal(r.AccrualIndexAtOpen); err != nil {
		return nil, err
	}

	if p.EnabledAssetMask, err = uint256.FromDecimal(r.EnabledAssetMask); err != nil {
		return nil, err
	}

	return p, nil
}
