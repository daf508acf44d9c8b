package testutil

import (
	"github.com/specialistvlad/framesched/internal/registry"
	"github.com/specialistvlad/framesched/internal/scheduler"
)

// NoOpModule registers a "noop" runner that takes no arguments and does
// nothing. It is useful for graphs that only exercise structure.
type NoOpModule struct{}

// Register implements the registry.Module interface.
func (m *NoOpModule) Register(r *registry.Registry) {
	r.RegisterRunner("noop", &registry.Runner{
		Fn: func(scheduler.TaskContext, any) error { return nil },
	})
}
