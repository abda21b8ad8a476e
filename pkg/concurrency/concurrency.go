package concurrency

import "sync"

const (
	// DefaultMax default max
	DefaultMax = 16
)

// GoLimit go limit
type GoLimit struct {
	ch chan struct{}
	wg sync.WaitGroup
}

// NewGoLimit new go limit
func NewGoLimit(max int) *GoLimit {
	if max <= 0 {
		max = DefaultMax
	}

	return &GoLimit{
		ch: make(chan struct{}, max),
	}
}

// Go runs fn in a goroutine once a slot is free
func (g *GoLimit) Go(fn func()) {
	g.ch <- struct{}{}
	g.wg.Add(1)

	go func() {
		defer func() {
			<-g.ch
			g.wg.Done()
		}()

		fn()
	}()
}

// Wait blocks until every started fn returned
func (g *GoLimit) Wait() {
	g.wg.Wait()
}
