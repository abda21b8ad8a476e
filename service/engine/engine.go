package engine

import (
	"context"
	"encoding/json"
	"leverage/core"
	"leverage/pkg/id"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/msgpack"
	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
	"github.com/jmoiron/sqlx/types"
)

// Config engine parameters
type Config struct {
	// Address engine identity, spends the allowances given by callers
	Address common.Address
	// Configurator may register assets and thresholds
	Configurator common.Address
	MinAmount    *uint256.Int
	MaxAmount    *uint256.Int
	// MaxLeverage in leverage.LeverageDecimals
	MaxLeverage uint64
}

// Engine position engine
type Engine struct {
	cfg        Config
	registry   core.ICollateralRegistry
	positions  core.IPositionRegistry
	ledger     core.Ledger
	pool       core.LendingPool
	debt       core.IDebtTracker
	solvency   core.ISolvencyChecker
	settlement core.ISettlementEngine
	executor   core.IMulticallExecutor
	recorder   core.StateRecorder

	// mux serializes operations, the call scoped lock lives in the context
	mux sync.Mutex
	// holder is the goroutine running the current operation
	holder atomic.Uint64
	nonce  uint64
	clock  func() time.Time
}

// New new engine, recorder may be nil
func New(
	cfg Config,
	registry core.ICollateralRegistry,
	positions core.IPositionRegistry,
	ledger core.Ledger,
	pool core.LendingPool,
	debt core.IDebtTracker,
	solvency core.ISolvencyChecker,
	settlement core.ISettlementEngine,
	executor core.IMulticallExecutor,
	recorder core.StateRecorder,
) *Engine {
	return &Engine{
		cfg:        cfg,
		registry:   registry,
		positions:  positions,
		ledger:     ledger,
		pool:       pool,
		debt:       debt,
		solvency:   solvency,
		settlement: settlement,
		executor:   executor,
		recorder:   recorder,
		clock:      time.Now,
	}
}

func (e *Engine) Address() common.Address {
	return e.cfg.Address
}

func (e *Engine) journals() []core.Journal {
	return []core.Journal{e.registry, e.positions, e.ledger, e.pool, e.debt}
}

type operation struct {
	kind   core.OperationKind
	caller common.Address
	owner  common.Address
	calls  []*core.Call
}

// atomic runs fn as one unit: every journal is reverted when fn or the
// recorder fails, and committed otherwise
func (e *Engine) atomic(ctx context.Context, op operation, fn func(ctx context.Context, change *core.StateChange) (interface{}, error)) error {
	ctx, release, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	log := logger.FromContext(ctx).WithField("op", op.kind.String()).WithField("caller", op.caller.Hex())
	ctx = logger.WithContext(ctx, log)

	ledgerSnapshot := e.ledger.Snapshot()
	journals := e.journals()
	ids := make([]int, len(journals))
	for i, j := range journals {
		ids[i] = j.Snapshot()
	}
	nonce := e.nonce

	revert := func() {
		for i := len(journals) - 1; i >= 0; i-- {
			journals[i].RevertToSnapshot(ids[i])
		}
		e.nonce = nonce
	}

	change := &core.StateChange{
		Operation: &core.Operation{
			TraceID:   id.TraceIDFromContext(ctx),
			Kind:      op.kind,
			Caller:    op.caller.Hex(),
			Owner:     op.owner.Hex(),
			CreatedAt: e.clock(),
		},
	}

	result, err := fn(ctx, change)
	if err != nil {
		revert()
		log.WithError(err).Infoln("operation reverted")
		return err
	}

	if err := e.fillOperation(change, op.calls, result, ledgerSnapshot); err != nil {
		revert()
		return err
	}

	if e.recorder != nil {
		if err := e.recorder.Record(ctx, change); err != nil {
			revert()
			log.WithError(err).Errorln("recorder.Record")
			return err
		}
	}

	for _, j := range journals {
		j.Commit()
	}

	log.WithField("trace", change.Operation.TraceID).Infoln("operation committed")
	return nil
}

func (e *Engine) fillOperation(change *core.StateChange, calls []*core.Call, result interface{}, ledgerSnapshot int) error {
	op := change.Operation

	if len(calls) > 0 {
		data, err := msgpack.Marshal(calls)
		if err != nil {
			return err
		}
		op.Calls = data
	}

	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return err
		}
		op.Result = types.JSONText(data)
	}

	index, at := e.pool.Checkpoint()
	op.AccrualIndex = index.Dec()
	op.AccruedAt = at
	op.TotalDebt = e.debt.Total().Current.Dec()
	op.Nonce = e.nonce
	change.Ledger = e.ledger.Changes(ledgerSnapshot)
	return nil
}

// view runs fn holding the operation lock, unless the caller already holds it
func (e *Engine) view(ctx context.Context, fn func() error) error {
	if holding(ctx, e) || e.owns() {
		return fn()
	}

	e.mux.Lock()
	defer e.mux.Unlock()
	return fn()
}
