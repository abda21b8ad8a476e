package ledger

import (
	"bytes"
	"context"
	"fmt"
	"leverage/core"
	"leverage/pkg/leverage"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
)

type balanceKey struct {
	asset, holder common.Address
}

type allowanceKey struct {
	asset, owner, spender common.Address
}

// undo log entry, exactly one key is set
type change struct {
	balance   *balanceKey
	allowance *allowanceKey
	prev      *uint256.Int
}

// Ledger in memory journaled ledger
type Ledger struct {
	mux        sync.RWMutex
	balances   map[balanceKey]*uint256.Int
	allowances map[allowanceKey]*uint256.Int
	journal    []change
}

// New new ledger
func New() *Ledger {
	return &Ledger{
		balances:   map[balanceKey]*uint256.Int{},
		allowances: map[allowanceKey]*uint256.Int{},
	}
}

func (l *Ledger) setBalance(k balanceKey, v *uint256.Int) {
	l.journal = append(l.journal, change{balance: &k, prev: l.balances[k]})
	l.balances[k] = v
}

func (l *Ledger) setAllowance(k allowanceKey, v *uint256.Int) {
	l.journal = append(l.journal, change{allowance: &k, prev: l.allowances[k]})
	l.allowances[k] = v
}

func (l *Ledger) balanceOf(asset, holder common.Address) *uint256.Int {
	if v, ok := l.balances[balanceKey{asset, holder}]; ok {
		return v
	}
	return new(uint256.Int)
}

// Mint credits holder, used for genesis balances and the swap router
func (l *Ledger) Mint(asset, holder common.Address, amount *uint256.Int) error {
	l.mux.Lock()
	defer l.mux.Unlock()

	balance, err := leverage.Add(l.balanceOf(asset, holder), amount)
	if err != nil {
		return err
	}

	l.setBalance(balanceKey{asset, holder}, balance)
	return nil
}

func (l *Ledger) BalanceOf(asset, holder common.Address) *uint256.Int {
	l.mux.RLock()
	defer l.mux.RUnlock()
	return new(uint256.Int).Set(l.balanceOf(asset, holder))
}

func (l *Ledger) Allowance(asset, owner, spender common.Address) *uint256.Int {
	l.mux.RLock()
	defer l.mux.RUnlock()

	if v, ok := l.allowances[allowanceKey{asset, owner, spender}]; ok {
		return new(uint256.Int).Set(v)
	}
	return new(uint256.Int)
}

func (l *Ledger) transfer(asset, from, to common.Address, amount *uint256.Int) error {
	fromBalance := l.balanceOf(asset, from)
	if fromBalance.Lt(amount) {
		return fmt.Errorf("%s has %s of %s, needs %s: %w", from.Hex(), fromBalance.Dec(), asset.Hex(), amount.Dec(), core.ErrInsufficientBalance)
	}

	if from == to {
		return nil
	}

	toBalance, err := leverage.Add(l.balanceOf(asset, to), amount)
	if err != nil {
		return err
	}

	l.setBalance(balanceKey{asset, from}, new(uint256.Int).Sub(fromBalance, amount))
	l.setBalance(balanceKey{asset, to}, toBalance)
	return nil
}

func (l *Ledger) Transfer(ctx context.Context, asset, from, to common.Address, amount *uint256.Int) error {
	l.mux.Lock()
	defer l.mux.Unlock()

	if err := l.transfer(asset, from, to, amount); err != nil {
		return err
	}

	logger.FromContext(ctx).WithField("asset", asset.Hex()).Debugf("transfer %s from %s to %s", amount.Dec(), from.Hex(), to.Hex())
	return nil
}

func (l *Ledger) TransferFrom(ctx context.Context, asset, spender, from, to common.Address, amount *uint256.Int) error {
	l.mux.Lock()
	defer l.mux.Unlock()

	k := allowanceKey{asset, from, spender}
	allowance, ok := l.allowances[k]
	if !ok {
		allowance = new(uint256.Int)
	}

	if spender != from {
		if allowance.Lt(amount) {
			return fmt.Errorf("%s allowed %s to spend %s of %s, needs %s: %w", from.Hex(), spender.Hex(), allowance.Dec(), asset.Hex(), amount.Dec(), core.ErrInsufficientAllowance)
		}
	}

	if err := l.transfer(asset, from, to, amount); err != nil {
		return err
	}

	if spender != from {
		l.setAllowance(k, new(uint256.Int).Sub(allowance, amount))
	}

	logger.FromContext(ctx).WithField("asset", asset.Hex()).Debugf("transfer %s from %s to %s by %s", amount.Dec(), from.Hex(), to.Hex(), spender.Hex())
	return nil
}

func (l *Ledger) Approve(ctx context.Context, asset, owner, spender common.Address, amount *uint256.Int) error {
	l.mux.Lock()
	defer l.mux.Unlock()

	l.setAllowance(allowanceKey{asset, owner, spender}, new(uint256.Int).Set(amount))
	return nil
}

// Changes current values of everything touched since snapshot
func (l *Ledger) Changes(snapshot int) *core.LedgerChanges {
	l.mux.RLock()
	defer l.mux.RUnlock()

	balances := map[balanceKey]bool{}
	allowances := map[allowanceKey]bool{}
	for _, c := range l.journal[snapshot:] {
		if c.balance != nil {
			balances[*c.balance] = true
		} else {
			allowances[*c.allowance] = true
		}
	}

	changes := &core.LedgerChanges{}
	for k := range balances {
		changes.Balances = append(changes.Balances, &core.Balance{
			Asset:  k.asset,
			Holder: k.holder,
			Amount: new(uint256.Int).Set(l.balanceOf(k.asset, k.holder)),
		})
	}

	for k := range allowances {
		amount := new(uint256.Int)
		if v, ok := l.allowances[k]; ok {
			amount.Set(v)
		}
		changes.Allowances = append(changes.Allowances, &core.Allowance{
			Asset:   k.asset,
			Owner:   k.owner,
			Spender: k.spender,
			Amount:  amount,
		})
	}

	sort.Slice(changes.Balances, func(i, j int) bool {
		a, b := changes.Balances[i], changes.Balances[j]
		if c := bytes.Compare(a.Asset[:], b.Asset[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(a.Holder[:], b.Holder[:]) < 0
	})

	sort.Slice(changes.Allowances, func(i, j int) bool {
		a, b := changes.Allowances[i], changes.Allowances[j]
		if c := bytes.Compare(a.Asset[:], b.Asset[:]); c != 0 {
			return c < 0
		}
		if c := bytes.Compare(a.Owner[:], b.Owner[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(a.Spender[:], b.Spender[:]) < 0
	})

	return changes
}

func (l *Ledger) Snapshot() int {
	l.mux.RLock()
	defer l.mux.RUnlock()
	return len(l.journal)
}

func (l *Ledger) RevertToSnapshot(id int) {
	l.mux.Lock()
	defer l.mux.Unlock()

	for i := len(l.journal) - 1; i >= id; i-- {
		c := l.journal[i]
		switch {
		case c.balance != nil && c.prev == nil:
			delete(l.balances, *c.balance)
		case c.balance != nil:
			l.balances[*c.balance] = c.prev
		case c.prev == nil:
			delete(l.allowances, *c.allowance)
		default:
			l.allowances[*c.allowance] = c.prev
		}
	}

	l.journal = l.journal[:id]
}

func (l *Ledger) Commit() {
	l.mux.Lock()
	l.journal = l.journal[:0]
	l.mux.Unlock()
}
