// Package spin provides a CPU-bound runner, useful for measuring how a frame
// graph spreads over the worker pool.
package spin

import (
	"errors"
	"sync/atomic"

	"github.com/specialistvlad/framesched/internal/registry"
	"github.com/specialistvlad/framesched/internal/scheduler"
)

// ErrNegativeIterations is returned for an iterations argument below zero.
var ErrNegativeIterations = errors.New("iterations must not be negative")

// Module implements the registry.Module interface for this package. It
// counts the iterations spun by every instance it ran.
type Module struct {
	spun atomic.Int64
	sink atomic.Uint64
}

// Input defines the arguments for the spin runner.
type Input struct {
	Iterations int `cty:"iterations"`
}

// Run busy-loops for the requested number of iterations.
func (m *Module) Run(tc scheduler.TaskContext, input *Input) error {
	if input.Iterations < 0 {
		return ErrNegativeIterations
	}

	// xorshift keeps the loop from being optimized away.
	x := uint64(tc.InstanceID)*2654435761 + 1
	for i := 0; i < input.Iterations; i++ {
		x ^= x << 13
		x ^= x >> 7
		x ^= x << 17
	}
	m.sink.Add(x)
	m.spun.Add(int64(input.Iterations))
	return nil
}

// Spun returns the total number of iterations run so far.
func (m *Module) Spun() int64 {
	return m.spun.Load()
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("spin", registry.Typed(m.Run))
}
