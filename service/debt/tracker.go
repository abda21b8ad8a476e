package debt

import (
	"fmt"
	"leverage/core"
	"leverage/pkg/leverage"
	"sync"

	"github.com/holiman/uint256"
)

type tracker struct {
	mux       sync.RWMutex
	current   *uint256.Int
	limit     *uint256.Int
	snapshots []*uint256.Int
}

// New new total debt tracker
func New(current, limit *uint256.Int) core.IDebtTracker {
	return &tracker{
		current: new(uint256.Int).Set(current),
		limit:   new(uint256.Int).Set(limit),
	}
}

func (t *tracker) Total() core.TotalDebt {
	t.mux.RLock()
	defer t.mux.RUnlock()

	return core.TotalDebt{
		Current: new(uint256.Int).Set(t.current),
		Limit:   new(uint256.Int).Set(t.limit),
	}
}

func (t *tracker) Increase(amount *uint256.Int) error {
	t.mux.Lock()
	defer t.mux.Unlock()

	current, err := leverage.Add(t.current, amount)
	if err != nil {
		return err
	}

	if current.Gt(t.limit) {
		return fmt.Errorf("total debt %s over limit %s: %w", current.Dec(), t.limit.Dec(), core.ErrDebtLimitExceeded)
	}

	t.current = current
	return nil
}

func (t *tracker) Decrease(amount *uint256.Int) error {
	t.mux.Lock()
	defer t.mux.Unlock()

	current, err := leverage.Sub(t.current, amount)
	if err != nil {
		return err
	}

	t.current = current
	return nil
}

func (t *tracker) Snapshot() int {
	t.mux.Lock()
	defer t.mux.Unlock()

	t.snapshots = append(t.snapshots, t.current)
	return len(t.snapshots) - 1
}

func (t *tracker) RevertToSnapshot(id int) {
	t.mux.Lock()
	defer t.mux.Unlock()

	t.current = t.snapshots[id]
	t.snapshots = t.snapshots[:id]
}

func (t *tracker) Commit() {
	t.mux.Lock()
	t.snapshots = t.snapshots[:0]
	t.mux.Unlock()
}
