// Package harness runs whole frame graphs through the app for the
// integration test suites.
package harness

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/specialistvlad/framesched/internal/app"
	"github.com/specialistvlad/framesched/internal/registry"
	"github.com/specialistvlad/framesched/internal/testutil"
	"github.com/stretchr/testify/require"
)

// Result holds the outcomes of an integration test run.
type Result struct {
	Output string
	Err    error
	App    *app.App
}

// Options tune a run. Zero values pick one frame and four workers.
type Options struct {
	Frames   int
	Workers  int
	MaxTasks int
}

// Run writes files into a temporary directory, builds an app over it with
// modules and runs it. Startup panics are recovered into Result.Err.
func Run(t *testing.T, files map[string]string, opts Options, modules ...registry.Module) *Result {
	t.Helper()
	return RunWithContext(context.Background(), t, files, opts, modules...)
}

// RunWithContext is Run with a caller-provided context.
func RunWithContext(ctx context.Context, t *testing.T, files map[string]string, opts Options, modules ...registry.Module) *Result {
	t.Helper()

	if opts.Frames == 0 {
		opts.Frames = 1
	}
	if opts.Workers == 0 {
		opts.Workers = 4
	}

	dir := testutil.WriteFiles(t, files)
	cfg, err := app.NewConfig(app.Config{
		GraphPath: dir,
		Frames:    opts.Frames,
		Workers:   opts.Workers,
		MaxTasks:  opts.MaxTasks,
		LogLevel:  "debug",
		LogFormat: "text",
	})
	require.NoError(t, err)

	out := &testutil.SafeBuffer{}
	defer func() {
		if os.Getenv(testutil.LogsEnv) == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), out.String())
		}
	}()

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(ctx, out, cfg, modules...)
	}()
	if panicErr != nil {
		return &Result{
			Output: out.String(),
			Err:    fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}
	t.Cleanup(func() { _ = testApp.Close() })

	runErr := testApp.Run(ctx)
	return &Result{
		Output: out.String(),
		Err:    runErr,
		App:    testApp,
	}
}
