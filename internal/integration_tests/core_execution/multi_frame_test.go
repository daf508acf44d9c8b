package integration_tests

import (
	"strings"
	"testing"

	"github.com/specialistvlad/framesched/internal/integration_tests/harness"
	"github.com/specialistvlad/framesched/modules/spin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test for: every frame runs every instance exactly once, and the arena is
// recycled so a graph that fills it can run any number of frames.
func TestCoreExecution_MultiFrame(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	graphHCL := `
task "particles" {
  runner    = "spin"
  instances = 16
  arguments {
    iterations = 250
  }

  task "collide" {
    runner    = "spin"
    instances = 4
    arguments {
      iterations = 250
    }
  }
}

task "integrate" {
  runner     = "spin"
  depends_on = "particles"
  arguments {
    iterations = 250
  }
}
`
	spinner := &spin.Module{}

	// --- Act ---
	result := harness.Run(t, map[string]string{"main.hcl": graphHCL}, harness.Options{Frames: 25, MaxTasks: 3}, spinner)

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Equal(t, int64(25*21*250), spinner.Spun())
	assert.Equal(t, 25, strings.Count(result.Output, " OK tasks=3 instances=21 "))
}
