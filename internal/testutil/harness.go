package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/framesched/internal/ctxlog"
	"github.com/specialistvlad/framesched/internal/scheduler"
	"github.com/stretchr/testify/require"
)

// LogsEnv is the environment variable that makes helpers dump captured logs.
const LogsEnv = "FRAMESCHED_TEST_LOGS"

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Context returns a context carrying a debug logger that writes into the
// returned buffer. The context is cancelled when the test ends, and the logs
// are dumped to t.Log when FRAMESCHED_TEST_LOGS=true.
func Context(t *testing.T) (context.Context, *SafeBuffer) {
	t.Helper()
	buf := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx, cancel := context.WithCancel(ctxlog.WithLogger(context.Background(), logger))
	t.Cleanup(func() {
		cancel()
		if os.Getenv(LogsEnv) == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), buf.String())
		}
	})
	return ctx, buf
}

// WriteFiles writes files, keyed by slash-separated relative path, into a
// fresh temporary directory and returns the directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// NewPool creates a pool that is closed when the test ends.
func NewPool(t *testing.T, ctx context.Context, maxTasks, threads int) *scheduler.Pool {
	t.Helper()
	pool, err := scheduler.New(ctx, maxTasks, threads)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

// RunTask runs fn as a single task instance on a one-worker pool and
// returns its error. It fails the test if fn does not return within timeout.
func RunTask(t *testing.T, timeout time.Duration, fn func(tc scheduler.TaskContext) error) error {
	t.Helper()
	ctx, _ := Context(t)
	pool := NewPool(t, ctx, 1, 1)

	result := make(chan error, 1)
	_, err := pool.CreateTask(func(tc scheduler.TaskContext) {
		result <- fn(tc)
	})
	require.NoError(t, err)

	select {
	case err := <-result:
		require.NoError(t, pool.WaitForAllTasks())
		return err
	case <-time.After(timeout):
		t.Fatalf("task did not finish within %s", timeout)
		return nil
	}
}
