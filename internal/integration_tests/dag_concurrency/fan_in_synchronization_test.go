package integration_tests

import (
	"testing"
	"time"

	"github.com/specialistvlad/framesched/internal/integration_tests/harness"
	"github.com/specialistvlad/framesched/internal/testutil"
	"github.com/stretchr/testify/require"
)

// TestDagConcurrency_FanInSynchronization validates that a task depending on
// a parent with several children waits for all of them. A dependency can
// only name one task, so fan-in is expressed by nesting.
func TestDagConcurrency_FanInSynchronization(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	graphHCL := `
task "gather" {
  runner = "record"
  arguments {
    id = "gather"
  }

  task "A" {
    runner = "record"
    arguments {
      id = "A"
    }
  }
  task "B" {
    runner = "record"
    arguments {
      id = "B"
    }
  }
  task "C" {
    runner = "record"
    arguments {
      id = "C"
    }
  }
}

task "D" {
  runner     = "record"
  depends_on = "gather"
  arguments {
    id = "D"
  }
}
`
	rec := testutil.NewRecorderModule(50 * time.Millisecond)

	// --- Act ---
	result := harness.Run(t, map[string]string{"main.hcl": graphHCL}, harness.Options{}, rec)

	// --- Assert ---
	require.NoError(t, result.Err)
	require.Len(t, rec.Records(), 5)

	dStart, _, ok := rec.Span("D")
	require.True(t, ok)
	for _, id := range []string{"gather", "A", "B", "C"} {
		_, end, ok := rec.Span(id)
		require.True(t, ok)
		require.False(t, dStart.Before(end), "D started before %s finished", id)
	}
	if !overlap(t, rec, "A", "B") || !overlap(t, rec, "B", "C") {
		t.Errorf("children of gather did not run in parallel")
	}
}
