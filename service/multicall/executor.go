package multicall

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

type executor struct {
	address   common.Address
	positions core.IPositionRegistry
	registry  core.ICollateralRegistry
	adapters  core.AdapterRegistry
	ledger    core.Ledger

	mux   sync.RWMutex
	state core.BatchState
}

// New new multicall executor, address is the custodian identity while a batch runs
func New(
	address common.Address,
	positions core.IPositionRegistry,
	registry core.ICollateralRegistry,
	adapters core.AdapterRegistry,
	ledger core.Ledger,
) core.IMulticallExecutor {
	return &executor{
		address:   address,
		positions: positions,
		registry:  registry,
		adapters:  adapters,
		ledger:    ledger,
	}
}

func (e *executor) Address() common.Address {
	return e.address
}

func (e *executor) State() core.BatchState {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return e.state
}

func (e *executor) begin(owner common.Address) error {
	e.mux.Lock()
	defer e.mux.Unlock()

	if e.state.InBatch {
		return fmt.Errorf("batch of %s in progress: %w", e.state.Owner.Hex(), core.ErrReentrancyDetected)
	}

	if err := e.positions.TransferCustody(owner, e.address); err != nil {
		return err
	}

	e.state = core.BatchState{InBatch: true, Owner: owner, Custodian: e.address}
	return nil
}

func (e *executor) end() error {
	e.mux.Lock()
	defer e.mux.Unlock()

	owner := e.state.Owner
	e.state = core.BatchState{}
	return e.positions.TransferCustody(e.address, owner)
}

func (e *executor) Execute(ctx context.Context, owner common.Address, calls []*core.Call) error {
	log := logger.FromContext(ctx).WithField("owner", owner.Hex())

	if err := e.begin(owner); err != nil {
		return err
	}

	if err := e.run(ctx, calls); err != nil {
		if releaseErr := e.end(); releaseErr != nil {
			log.WithError(releaseErr).Errorln("release custody")
		}
		return err
	}

	if err := e.end(); err != nil {
		return err
	}

	log.Debugf("batch of %d calls executed", len(calls))
	return nil
}

func (e *executor) run(ctx context.Context, calls []*core.Call) error {
	for idx, call := range calls {
		if call.Target == e.address {
			return fmt.Errorf("call %d: %w", idx, core.ErrUnsupported)
		}

		adapter, ok := e.adapters.Adapter(call.Target)
		if !ok || !e.adapters.IsApprovedAdapter(call.Target) {
			return fmt.Errorf("call %d to %s: %w", idx, call.Target.Hex(), core.ErrTargetNotAllowed)
		}

		if err := adapter.Execute(ctx, e, e.address, call.Data); err != nil {
			return fmt.Errorf("call %d: %w", idx, err)
		}
	}

	return nil
}

// requireCustodian only an approved adapter, during a batch, for the current custodian
func (e *executor) requireCustodian(adapter, custodian common.Address) error {
	state := e.State()
	if !state.InBatch || custodian != state.Custodian {
		return fmt.Errorf("custodian %s: %w", custodian.Hex(), core.ErrAccessDenied)
	}

	if !e.adapters.IsApprovedAdapter(adapter) {
		return fmt.Errorf("adapter %s: %w", adapter.Hex(), core.ErrAccessDenied)
	}

	return nil
}

func (e *executor) ExecuteOrder(ctx context.Context, adapter, custodian common.Address, fn func(account common.Address) error) error {
	if err := e.requireCustodian(adapter, custodian); err != nil {
		return err
	}

	p, err := e.positions.Get(custodian)
	if err != nil {
		return err
	}

	return fn(p.Account)
}

func (e *executor) EnableAsset(ctx context.Context, adapter, custodian, asset common.Address) error {
	if err := e.requireCustodian(adapter, custodian); err != nil {
		return err
	}

	mask := e.registry.MaskOf(asset)
	if mask.IsZero() {
		return fmt.Errorf("enable %s: %w", asset.Hex(), core.ErrUnknownAsset)
	}

	return e.positions.Update(custodian, func(p *core.Position) error {
		p.EnabledAssetMask = leverage.WithBit(p.EnabledAssetMask, mask)
		return nil
	})
}

func (e *executor) ApproveTarget(ctx context.Context, adapter, custodian, asset common.Address, amount *uint256.Int) error {
	if err := e.requireCustodian(adapter, custodian); err != nil {
		return err
	}

	target, ok := e.adapters.ResolveTargetForAdapter(adapter)
	if !ok {
		return fmt.Errorf("adapter %s: %w", adapter.Hex(), core.ErrTargetNotAllowed)
	}

	if e.registry.MaskOf(asset).IsZero() {
		return fmt.Errorf("approve %s: %w", asset.Hex(), core.ErrUnknownAsset)
	}

	p, err := e.positions.Get(custodian)
	if err != nil {
		return err
	}

	return e.ledger.Approve(ctx, asset, p.Account, target, amount)
}
