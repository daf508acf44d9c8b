// Package sleep provides a runner that blocks its worker for a fixed time.
package sleep

import (
	"fmt"
	"time"

	"github.com/specialistvlad/framesched/internal/registry"
	"github.com/specialistvlad/framesched/internal/scheduler"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the sleep runner.
type Input struct {
	Duration string `cty:"duration"`
}

// Run sleeps for the requested duration, or until the pool's context is done.
func Run(tc scheduler.TaskContext, input *Input) error {
	d, err := time.ParseDuration(input.Duration)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", input.Duration, err)
	}
	if d < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", input.Duration)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	ctx := tc.Context()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("sleep", registry.Typed(Run))
}
