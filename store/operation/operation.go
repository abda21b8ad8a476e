package operation

import (
	"context"
	"leverage/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
)

type operationStore struct {
	db *db.DB
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Operation{})
		if err := tx.AutoMigrate(core.Operation{}).Error; err != nil {
			return err
		}

		return nil
	})
}

// New new operation log store
func New(db *db.DB) core.IOperationStore {
	return &operationStore{
		db: db,
	}
}

func (s *operationStore) Create(ctx context.Context, tx *db.DB, operation *core.Operation) error {
	return tx.Update().Create(operation).Error
}

func (s *operationStore) ListByOwner(ctx context.Context, owner string, limit int) ([]*core.Operation, error) {
	var operations []*core.Operation
	if err := s.db.View().Where("owner=?", owner).Order("id desc").Limit(limit).Find(&operations).Error; err != nil {
		return nil, err
	}

	return operations, nil
}

// Last the latest operation, empty when none was recorded yet
func (s *operationStore) Last(ctx context.Context) (*core.Operation, error) {
	var operation core.Operation
	if err := s.db.View().Order("id desc").First(&operation).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return &operation, nil
		}

		return nil, err
	}

	return &operation, nil
}
