package recorder

import (
	"context"
	"leverage/core"
	"leverage/store/asset"
	"leverage/store/position"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store/db"
)

// Recorder writes every committed operation within one database transaction
type Recorder struct {
	db         *db.DB
	positions  core.IPositionStore
	assets     core.IAssetStore
	balances   core.IBalanceStore
	operations core.IOperationStore
}

// New new state recorder
func New(
	db *db.DB,
	positions core.IPositionStore,
	assets core.IAssetStore,
	balances core.IBalanceStore,
	operations core.IOperationStore,
) *Recorder {
	return &Recorder{
		db:         db,
		positions:  positions,
		assets:     assets,
		balances:   balances,
		operations: operations,
	}
}

func (r *Recorder) Record(ctx context.Context, change *core.StateChange) error {
	log := logger.FromContext(ctx).WithField("trace", change.Operation.TraceID)

	err := r.db.Tx(func(tx *db.DB) error {
		for _, owner := range change.DeletedOwners {
			if err := r.positions.Delete(ctx, tx, owner.Hex()); err != nil {
				return err
			}
		}

		for _, p := range change.SavedPositions {
			if err := r.positions.Save(ctx, tx, position.Record(p)); err != nil {
				return err
			}
		}

		for _, a := range change.Assets {
			if err := r.assets.Save(ctx, tx, asset.Record(a)); err != nil {
				return err
			}
		}

		if change.Ledger != nil {
			for _, b := range change.Ledger.Balances {
				if err := r.balances.SaveBalance(ctx, tx, &core.BalanceRecord{
					Asset:  b.Asset.Hex(),
					Holder: b.Holder.Hex(),
					Amount: b.Amount.Dec(),
				}); err != nil {
					return err
				}
			}

			for _, a := range change.Ledger.Allowances {
				if err := r.balances.SaveAllowance(ctx, tx, &core.AllowanceRecord{
					Asset:   a.Asset.Hex(),
					Owner:   a.Owner.Hex(),
					Spender: a.Spender.Hex(),
					Amount:  a.Amount.Dec(),
				}); err != nil {
					return err
				}
			}
		}

		return r.operations.Create(ctx, tx, change.Operation)
	})

	if err != nil {
		log.WithError(err).Errorln("record operation")
		return err
	}

	return nil
}

// Seed stores genesis balances minted outside of any operation
func (r *Recorder) Seed(ctx context.Context, balances []*core.Balance) error {
	return r.db.Tx(func(tx *db.DB) error {
		for _, b := range balances {
			if err := r.balances.SaveBalance(ctx, tx, &core.BalanceRecord{
				Asset:  b.Asset.Hex(),
				Holder: b.Holder.Hex(),
				Amount: b.Amount.Dec(),
			}); err != nil {
				return err
			}
		}

		return nil
	})
}
