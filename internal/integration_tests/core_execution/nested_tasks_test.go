package integration_tests

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/framesched/internal/integration_tests/harness"
	"github.com/specialistvlad/framesched/internal/registry"
	"github.com/specialistvlad/framesched/internal/scheduler"
	"github.com/stretchr/testify/require"
)

// mockTraceModule records task labels in execution order.
type mockTraceModule struct {
	mu    sync.Mutex
	trace []string
}

type traceInput struct {
	Label string `cty:"label"`
}

func (m *mockTraceModule) Register(r *registry.Registry) {
	r.RegisterRunner("trace", registry.Typed(func(tc scheduler.TaskContext, in *traceInput) error {
		m.mu.Lock()
		m.trace = append(m.trace, in.Label)
		m.mu.Unlock()
		return nil
	}))
}

// Test for: nested tasks are created by their parent's first instance and run
// in sibling dependency order, on a single worker in FIFO order.
func TestCoreExecution_NestedTasks(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	graphYAML := `
tasks:
  - name: render
    runner: trace
    arguments: {label: render}
    tasks:
      - name: geometry
        runner: trace
        arguments: {label: geometry}
      - name: shading
        runner: trace
        depends_on: geometry
        arguments: {label: shading}
        tasks:
          - name: shadows
            runner: trace
            arguments: {label: shadows}
  - name: present
    runner: trace
    depends_on: render
    arguments: {label: present}
`
	mod := &mockTraceModule{}

	// --- Act ---
	result := harness.Run(t, map[string]string{"main.yaml": graphYAML}, harness.Options{Workers: 1}, mod)

	// --- Assert ---
	require.NoError(t, result.Err)
	want := []string{"render", "geometry", "shading", "shadows", "present"}
	if diff := cmp.Diff(want, mod.trace); diff != "" {
		t.Errorf("execution order mismatch (-want +got):\n%s", diff)
	}
}
