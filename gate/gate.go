// Package gate admits execution units to the scratchpad.
//
// The scratchpad and its accelerator are a singleton. When a platform has
// more than one execution unit, only one of them may drive the offload
// sequence; every other unit stays parked at the gate.
package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrExcluded is returned to a unit that the gate never admits.
var ErrExcluded = errors.New("unit excluded from the scratchpad")

// A Gate decides which execution units may use the scratchpad.
type Gate interface {
	// Enter blocks until unit is admitted or ctx is done. The returned
	// function releases the admission and must be called once the unit is
	// finished; calling it more than once is harmless.
	Enter(ctx context.Context, unit int) (func(), error)
}

// New returns an Open gate for a single-unit platform and a SingleOwner
// gate that admits only designated otherwise.
func New(multicore bool, designated int) Gate {
	if !multicore {
		return Open{}
	}

	return NewSingleOwner(designated)
}

// Open admits every unit immediately.
type Open struct{}

// Enter returns at once.
func (Open) Enter(ctx context.Context, _ int) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return func() {}, nil
}

// SingleOwner admits the designated unit and parks all others until their
// context is done.
type SingleOwner struct {
	designated int
	sem        *semaphore.Weighted
}

// NewSingleOwner creates a gate owned by the designated unit.
func NewSingleOwner(designated int) *SingleOwner {
	return &SingleOwner{
		designated: designated,
		sem:        semaphore.NewWeighted(1),
	}
}

// Designated returns the unit the gate admits.
func (g *SingleOwner) Designated() int {
	return g.designated
}

// Enter admits the designated unit once the scratchpad is free.
func (g *SingleOwner) Enter(ctx context.Context, unit int) (func(), error) {
	if unit != g.designated {
		<-ctx.Done()
		return nil, fmt.Errorf("unit %d: %w", unit, ErrExcluded)
	}

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("unit %d: %w", unit, err)
	}

	return sync.OnceFunc(func() { g.sem.Release(1) }), nil
}
