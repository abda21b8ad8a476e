package adapter

import (
	"fmt"
	"leverage/core"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Registry approved adapters, one adapter per target
type Registry struct {
	mux       sync.RWMutex
	byAdapter map[common.Address]core.Adapter
	byTarget  map[common.Address]core.Adapter
}

// NewRegistry new adapter registry
func NewRegistry() *Registry {
	return &Registry{
		byAdapter: map[common.Address]core.Adapter{},
		byTarget:  map[common.Address]core.Adapter{},
	}
}

// Add approves adapter
func (r *Registry) Add(adapter core.Adapter) error {
	r.mux.Lock()
	defer r.mux.Unlock()

	if _, ok := r.byAdapter[adapter.Address()]; ok {
		return fmt.Errorf("adapter %s: %w", adapter.Address().Hex(), core.ErrAlreadyRegistered)
	}

	if _, ok := r.byTarget[adapter.Target()]; ok {
		return fmt.Errorf("target %s: %w", adapter.Target().Hex(), core.ErrAlreadyRegistered)
	}

	r.byAdapter[adapter.Address()] = adapter
	r.byTarget[adapter.Target()] = adapter
	return nil
}

func (r *Registry) IsApprovedAdapter(adapter common.Address) bool {
	r.mux.RLock()
	defer r.mux.RUnlock()

	_, ok := r.byAdapter[adapter]
	return ok
}

func (r *Registry) ResolveTargetForAdapter(adapter common.Address) (common.Address, bool) {
	r.mux.RLock()
	defer r.mux.RUnlock()

	a, ok := r.byAdapter[adapter]
	if !ok {
		return common.Address{}, false
	}
	return a.Target(), true
}

func (r *Registry) AdapterForTarget(target common.Address) (core.Adapter, bool) {
	r.mux.RLock()
	defer r.mux.RUnlock()

	a, ok := r.byTarget[target]
	return a, ok
}

func (r *Registry) Adapter(adapter common.Address) (core.Adapter, bool) {
	r.mux.RLock()
	defer r.mux.RUnlock()

	a, ok := r.byAdapter[adapter]
	return a, ok
}

func (r *Registry) Adapters() []core.Adapter {
	r.mux.RLock()
	defer r.mux.RUnlock()

	adapters := make([]core.Adapter, 0, len(r.byAdapter))
	for _, a := range r.byAdapter {
		adapters = append(adapters, a)
	}

	sort.Slice(adapters, func(i, j int) bool {
		return adapters[i].Address().Cmp(adapters[j].Address()) < 0
	})
	return adapters
}
