package collateral

import (
	"context"
	"fmt"
	"leverage/core"
	"leverage/pkg/leverage"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
)

type entry struct {
	asset     common.Address
	threshold uint16
}

// undo log entry, register when registered is true
type change struct {
	registered    bool
	index         uint8
	prevThreshold uint16
}

type registry struct {
	mux     sync.RWMutex
	arena   [leverage.MaxAssets]entry
	size    int
	indexes map[common.Address]uint8
	journal []change
}

// New new collateral registry, the underlying holds bit 0
func New(underlying common.Address, threshold uint16) core.ICollateralRegistry {
	r := &registry{
		indexes: map[common.Address]uint8{underlying: 0},
		size:    1,
	}
	r.arena[0] = entry{asset: underlying, threshold: threshold}
	return r
}

func (r *registry) Underlying() common.Address {
	return r.arena[0].asset
}

func (r *registry) RegisterAsset(ctx context.Context, asset common.Address) (*uint256.Int, error) {
	r.mux.Lock()
	defer r.mux.Unlock()

	if _, ok := r.indexes[asset]; ok {
		return nil, fmt.Errorf("register %s: %w", asset.Hex(), core.ErrAlreadyRegistered)
	}

	if r.size >= leverage.MaxAssets {
		return nil, core.ErrRegistryFull
	}

	index := uint8(r.size)
	r.arena[index] = entry{asset: asset}
	r.indexes[asset] = index
	r.size++
	r.journal = append(r.journal, change{registered: true, index: index})

	logger.FromContext(ctx).WithField("asset", asset.Hex()).Debugf("collateral registered at bit %d", index)
	return leverage.MaskFor(index), nil
}

func (r *registry) SetThreshold(ctx context.Context, asset common.Address, threshold uint16) error {
	r.mux.Lock()
	defer r.mux.Unlock()

	index, ok := r.indexes[asset]
	if !ok {
		return fmt.Errorf("set threshold of %s: %w", asset.Hex(), core.ErrUnknownAsset)
	}

	if threshold > leverage.PercentageFactor {
		return core.ErrInvalidThreshold
	}

	r.journal = append(r.journal, change{index: index, prevThreshold: r.arena[index].threshold})
	r.arena[index].threshold = threshold
	return nil
}

func (r *registry) LookupByMask(mask *uint256.Int) (common.Address, uint16, error) {
	index, ok := leverage.BitIndex(mask)
	if !ok {
		return common.Address{}, 0, core.ErrUnknownAsset
	}

	r.mux.RLock()
	defer r.mux.RUnlock()

	if int(index) >= r.size {
		return common.Address{}, 0, core.ErrUnknownAsset
	}

	e := r.arena[index]
	return e.asset, e.threshold, nil
}

func (r *registry) MaskOf(asset common.Address) *uint256.Int {
	r.mux.RLock()
	defer r.mux.RUnlock()

	index, ok := r.indexes[asset]
	if !ok {
		return new(uint256.Int)
	}

	return leverage.MaskFor(index)
}

func (r *registry) Assets() []*core.CollateralAsset {
	r.mux.RLock()
	defer r.mux.RUnlock()

	assets := make([]*core.CollateralAsset, 0, r.size)
	for i := 0; i < r.size; i++ {
		assets = append(assets, &core.CollateralAsset{
			AssetID:              r.arena[i].asset,
			Index:                uint8(i),
			Mask:                 leverage.MaskFor(uint8(i)),
			LiquidationThreshold: r.arena[i].threshold,
		})
	}

	return assets
}

func (r *registry) Snapshot() int {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return len(r.journal)
}

func (r *registry) RevertToSnapshot(id int) {
	r.mux.Lock()
	defer r.mux.Unlock()

	for i := len(r.journal) - 1; i >= id; i-- {
		c := r.journal[i]
		if c.registered {
			delete(r.indexes, r.arena[c.index].asset)
			r.arena[c.index] = entry{}
			r.size--
			continue
		}

		r.arena[c.index].threshold = c.prevThreshold
	}

	r.journal = r.journal[:id]
}

func (r *registry) Commit() {
	r.mux.Lock()
	r.journal = r.journal[:0]
	r.mux.Unlock()
}
