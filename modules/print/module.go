package print

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/specialistvlad/framesched/internal/registry"
	"github.com/specialistvlad/framesched/internal/scheduler"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out receives the printed lines. Nil means os.Stdout.
	Out io.Writer

	mu sync.Mutex
}

// Input defines the arguments for the print runner.
type Input struct {
	Message *string `cty:"message"`
}

// Run prints the message, prefixed with the task, instance and worker that
// printed it. Lines of concurrent instances never interleave.
func (m *Module) Run(tc scheduler.TaskContext, input *Input) error {
	msg := "(null)"
	if input.Message != nil {
		msg = *input.Message
	}
	tc.Logger().Debug("Printing message.")

	out := m.Out
	if out == nil {
		out = os.Stdout
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := fmt.Fprintf(out, "      [%s #%d w%d] %s\n", tc.TaskID, tc.InstanceID, tc.ThreadID, msg)
	return err
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("print", registry.Typed(m.Run))
}
