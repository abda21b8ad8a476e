package engine

import (
	"bytes"
	"context"
	"fmt"
	"leverage/core"
	"runtime"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

type lockKey struct{}

func holding(ctx context.Context, e *Engine) bool {
	held, _ := ctx.Value(lockKey{}).(*Engine)
	return held == e
}

// acquire takes the operation lock for the call tree rooted at ctx.
// Re-entering from the holding goroutine or with a context derived from a
// running operation fails, other callers wait for the lock.
func (e *Engine) acquire(ctx context.Context) (context.Context, func(), error) {
	if holding(ctx, e) {
		return ctx, nil, core.ErrReentrancyDetected
	}

	g := goid()
	if g != 0 && e.holder.Load() == g {
		return ctx, nil, core.ErrReentrancyDetected
	}

	e.mux.Lock()
	e.holder.Store(g)

	release := func() {
		e.holder.Store(0)
		e.mux.Unlock()
	}

	return context.WithValue(ctx, lockKey{}, e), release, nil
}

// owns reports whether the current goroutine holds the operation lock
func (e *Engine) owns() bool {
	g := goid()
	return g != 0 && e.holder.Load() == g
}

// goid parses the current goroutine id from the "goroutine N [" stack header
func goid() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}

	id, _ := strconv.ParseUint(string(fields[1]), 10, 64)
	return id
}

func requireNotZero(addr common.Address, name string) error {
	if addr == (common.Address{}) {
		return fmt.Errorf("zero %s: %w", name, core.ErrAccessDenied)
	}
	return nil
}

// requireOwner returns the position of caller
func (e *Engine) requireOwner(caller common.Address) (*core.Position, error) {
	p, err := e.positions.Get(caller)
	if err != nil {
		return nil, err
	}

	if p.Owner != caller {
		return nil, fmt.Errorf("%s: %w", caller.Hex(), core.ErrAccessDenied)
	}

	return p, nil
}

func (e *Engine) requireConfigurator(caller common.Address) error {
	if caller != e.cfg.Configurator {
		return fmt.Errorf("configurator only, got %s: %w", caller.Hex(), core.ErrAccessDenied)
	}
	return nil
}
