package balance

import (
	"context"
	"leverage/core"

	"github.com/fox-one/pkg/store/db"
)

type balanceStore struct {
	db *db.DB
}

// New new ledger balance store
func New(db *db.DB) core.IBalanceStore {
	return &balanceStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.BalanceRecord{})
		if err := tx.AutoMigrate(core.BalanceRecord{}).Error; err != nil {
			return err
		}

		tx = db.Update().Model(core.AllowanceRecord{})
		if err := tx.AutoMigrate(core.AllowanceRecord{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *balanceStore) SaveBalance(ctx context.Context, tx *db.DB, balance *core.BalanceRecord) error {
	return tx.Update().
		Where("asset=? and holder=?", balance.Asset, balance.Holder).
		Assign(map[string]interface{}{"amount": balance.Amount}).
		FirstOrCreate(balance).Error
}

func (s *balanceStore) SaveAllowance(ctx context.Context, tx *db.DB, allowance *core.AllowanceRecord) error {
	return tx.Update().
		Where("asset=? and owner=? and spender=?", allowance.Asset, allowance.Owner, allowance.Spender).
		Assign(map[string]interface{}{"amount": allowance.Amount}).
		FirstOrCreate(allowance).Error
}

func (s *balanceStore) AllBalances(ctx context.Context) ([]*core.BalanceRecord, error) {
	var balances []*core.BalanceRecord
	if err := s.db.View().Find(&balances).Error; err != nil {
		return nil, err
	}

	return balances, nil
}

func (s *balanceStore) AllAllowances(ctx context.Context) ([]*core.AllowanceRecord, error) {
	var allowances []*core.AllowanceRecord
	if err := s.db.View().Find(&allowances).Error; err != nil {
		return nil, err
	}

	return allowances, nil
}
