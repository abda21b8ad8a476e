package pool

import (
	"context"
	"leverage/core"
	"leverage/pkg/leverage"
	"leverage/pkg/number"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

type state struct {
	index         *uint256.Int
	checkpoint    time.Time
	totalBorrowed *uint256.Int
}

// Pool lending pool of the underlying, the accrual index grows with the jump rate model
type Pool struct {
	mux        sync.RWMutex
	address    common.Address
	underlying common.Address
	ledger     core.Ledger
	model      leverage.RateModel
	clock      func() time.Time
	state      state
	snapshots  []state
}

// Option pool option
type Option func(p *Pool)

// WithClock replaces time.Now
func WithClock(clock func() time.Time) Option {
	return func(p *Pool) {
		p.clock = clock
	}
}

// WithState restores a persisted index checkpoint
func WithState(index *uint256.Int, checkpoint time.Time, totalBorrowed *uint256.Int) Option {
	return func(p *Pool) {
		p.state = state{index: index, checkpoint: checkpoint, totalBorrowed: totalBorrowed}
	}
}

// New new lending pool
func New(ledger core.Ledger, address, underlying common.Address, model leverage.RateModel, opts ...Option) *Pool {
	p := &Pool{
		address:    address,
		underlying: underlying,
		ledger:     ledger,
		model:      model,
		clock:      time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.state.index == nil {
		p.state = state{
			index:         new(uint256.Int).Set(leverage.Ray),
			checkpoint:    p.clock(),
			totalBorrowed: new(uint256.Int),
		}
	}

	return p
}

func (p *Pool) Address() common.Address {
	return p.address
}

func (p *Pool) TotalBorrowed() *uint256.Int {
	p.mux.RLock()
	defer p.mux.RUnlock()
	return new(uint256.Int).Set(p.state.totalBorrowed)
}

// Checkpoint last accrual index and its time
func (p *Pool) Checkpoint() (*uint256.Int, time.Time) {
	p.mux.RLock()
	defer p.mux.RUnlock()
	return new(uint256.Int).Set(p.state.index), p.state.checkpoint
}

// BorrowRate current borrow rate per year
func (p *Pool) BorrowRate() decimal.Decimal {
	p.mux.RLock()
	defer p.mux.RUnlock()
	return p.model.BorrowRate(p.utilizationRate())
}

func (p *Pool) utilizationRate() decimal.Decimal {
	cash := number.ToDecimal(p.ledger.BalanceOf(p.underlying, p.address), 0)
	return leverage.UtilizationRate(cash, number.ToDecimal(p.state.totalBorrowed, 0))
}

func (p *Pool) indexAt(now time.Time) (*uint256.Int, error) {
	seconds := int64(now.Sub(p.state.checkpoint) / time.Second)
	rate := p.model.BorrowRatePerSecond(p.utilizationRate())
	return leverage.GrowIndex(p.state.index, rate, seconds)
}

func (p *Pool) CumulativeIndexNow(ctx context.Context) (*uint256.Int, error) {
	p.mux.RLock()
	defer p.mux.RUnlock()
	return p.indexAt(p.clock())
}

func (p *Pool) accrue() error {
	now := p.clock()
	index, err := p.indexAt(now)
	if err != nil {
		return err
	}

	p.state.index = index
	p.state.checkpoint = now
	return nil
}

func (p *Pool) Lend(ctx context.Context, amount *uint256.Int, account common.Address) error {
	p.mux.Lock()
	defer p.mux.Unlock()

	if err := p.accrue(); err != nil {
		return err
	}

	borrowed, err := leverage.Add(p.state.totalBorrowed, amount)
	if err != nil {
		return err
	}

	if err := p.ledger.Transfer(ctx, p.underlying, p.address, account, amount); err != nil {
		return err
	}

	p.state.totalBorrowed = borrowed
	logger.FromContext(ctx).WithField("account", account.Hex()).Debugf("pool lent %s", amount.Dec())
	return nil
}

func (p *Pool) Repay(ctx context.Context, principal, profit, loss *uint256.Int) error {
	p.mux.Lock()
	defer p.mux.Unlock()

	if err := p.accrue(); err != nil {
		return err
	}

	if principal.Gt(p.state.totalBorrowed) {
		p.state.totalBorrowed = new(uint256.Int)
	} else {
		p.state.totalBorrowed = new(uint256.Int).Sub(p.state.totalBorrowed, principal)
	}

	log := logger.FromContext(ctx).WithField("principal", principal.Dec())
	if !loss.IsZero() {
		log.WithField("loss", loss.Dec()).Warnln("pool repaid with loss")
		return nil
	}

	log.WithField("profit", profit.Dec()).Debugln("pool repaid")
	return nil
}

func (p *Pool) Snapshot() int {
	p.mux.Lock()
	defer p.mux.Unlock()

	p.snapshots = append(p.snapshots, p.state)
	return len(p.snapshots) - 1
}

func (p *Pool) RevertToSnapshot(id int) {
	p.mux.Lock()
	defer p.mux.Unlock()

	p.state = p.snapshots[id]
	p.snapshots = p.snapshots[:id]
}

func (p *Pool) Commit() {
	p.mux.Lock()
	p.snapshots = p.snapshots[:0]
	p.mux.Unlock()
}
