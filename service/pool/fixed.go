package pool

import (
	"context"
	"sync"

	"github.com/holiman/uint256"
)

// Fixed accrual index set by hand
type Fixed struct {
	mux   sync.RWMutex
	index *uint256.Int
}

// NewFixed new fixed index provider
func NewFixed(index *uint256.Int) *Fixed {
	return &Fixed{index: new(uint256.Int).Set(index)}
}

// SetIndex set index
func (f *Fixed) SetIndex(index *uint256.Int) {
	f.mux.Lock()
	f.index = new(uint256.Int).Set(index)
	f.mux.Unlock()
}

func (f *Fixed) CumulativeIndexNow(ctx context.Context) (*uint256.Int, error) {
	f.mux.RLock()
	defer f.mux.RUnlock()
	return new(uint256.Int).Set(f.index), nil
}
