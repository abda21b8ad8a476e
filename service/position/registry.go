package position

import (
	"fmt"
	"leverage/core"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// undo log entry, prev is nil when owner held nothing
type change struct {
	owner common.Address
	prev  *core.Position
}

type registry struct {
	mux       sync.RWMutex
	positions map[common.Address]*core.Position
	journal   []change
}

// New new position registry
func New() core.IPositionRegistry {
	return &registry{
		positions: map[common.Address]*core.Position{},
	}
}

func (r *registry) set(owner common.Address, p *core.Position) {
	r.journal = append(r.journal, change{owner: owner, prev: r.positions[owner]})
	if p == nil {
		delete(r.positions, owner)
		return
	}

	r.positions[owner] = p
}

func (r *registry) Open(owner common.Address, p *core.Position) error {
	r.mux.Lock()
	defer r.mux.Unlock()

	if _, ok := r.positions[owner]; ok {
		return fmt.Errorf("open %s: %w", owner.Hex(), core.ErrDuplicatePosition)
	}

	p = p.Clone()
	p.Owner = owner
	r.set(owner, p)
	return nil
}

func (r *registry) TransferCustody(from, to common.Address) error {
	r.mux.Lock()
	defer r.mux.Unlock()

	p, ok := r.positions[from]
	if !ok {
		return fmt.Errorf("transfer from %s: %w", from.Hex(), core.ErrNotFound)
	}

	if _, ok := r.positions[to]; ok {
		return fmt.Errorf("transfer to %s: %w", to.Hex(), core.ErrDuplicatePosition)
	}

	moved := p.Clone()
	moved.Owner = to
	r.set(from, nil)
	r.set(to, moved)
	return nil
}

func (r *registry) Close(owner common.Address) (*core.Position, error) {
	r.mux.Lock()
	defer r.mux.Unlock()

	p, ok := r.positions[owner]
	if !ok {
		return nil, fmt.Errorf("close %s: %w", owner.Hex(), core.ErrNotFound)
	}

	r.set(owner, nil)
	return p.Clone(), nil
}

func (r *registry) Get(owner common.Address) (*core.Position, error) {
	r.mux.RLock()
	defer r.mux.RUnlock()

	p, ok := r.positions[owner]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", owner.Hex(), core.ErrNotFound)
	}

	return p.Clone(), nil
}

func (r *registry) Update(owner common.Address, fn func(p *core.Position) error) error {
	r.mux.Lock()
	defer r.mux.Unlock()

	p, ok := r.positions[owner]
	if !ok {
		return fmt.Errorf("update %s: %w", owner.Hex(), core.ErrNotFound)
	}

	updated := p.Clone()
	if err := fn(updated); err != nil {
		return err
	}

	updated.Owner = owner
	r.set(owner, updated)
	return nil
}

// All positions ordered by owner
func (r *registry) All() []*core.Position {
	r.mux.RLock()
	defer r.mux.RUnlock()

	positions := make([]*core.Position, 0, len(r.positions))
	for _, p := range r.positions {
		positions = append(positions, p.Clone())
	}

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Owner.Cmp(positions[j].Owner) < 0
	})

	return positions
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
		if c.prev == nil {
			delete(r.positions, c.owner)
			continue
		}

		r.positions[c.owner] = c.prev
	}

	r.journal = r.journal[:id]
}

func (r *registry) Commit() {
	r.mux.Lock()
	r.journal = r.journal[:0]
	r.mux.Unlock()
}
