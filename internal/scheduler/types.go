package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/specialistvlad/framesched/internal/ctxlog"
)

// TaskID is an index into a pool's task arena.
type TaskID int32

// InvalidTaskID is the sentinel returned when a task could not be created,
// and the value used for "no parent" and "no dependency".
const InvalidTaskID TaskID = -1

// Valid reports whether id is not the InvalidTaskID sentinel. It does not
// check that id refers to a live task.
func (id TaskID) Valid() bool {
	return id >= 0
}

// String implements fmt.Stringer.
func (id TaskID) String() string {
	if !id.Valid() {
		return "task(none)"
	}
	return fmt.Sprintf("task(%d)", int32(id))
}

// Func is the body of a task. It is invoked once per instance.
type Func func(tc TaskContext)

// TaskContext is passed to every invocation of a task's Func.
type TaskContext struct {
	// Pool is the pool executing the task. Bodies may use it to create
	// child tasks or to wait on other tasks.
	Pool *Pool
	// ThreadID is the index of the worker running this instance, in [0, ThreadsNumber()).
	ThreadID int
	// InstanceID is the index of this invocation, in [0, instances).
	InstanceID int
	// TaskID identifies the task being executed.
	TaskID TaskID
}

// Logger returns the pool's logger annotated with the task, instance and worker.
func (tc TaskContext) Logger() *slog.Logger {
	return tc.Pool.logger.With("taskID", int32(tc.TaskID), "instanceID", tc.InstanceID, "workerID", tc.ThreadID)
}

// Context returns the context the pool was created with, carrying the
// annotated logger from Logger.
func (tc TaskContext) Context() context.Context {
	return ctxlog.WithLogger(tc.Pool.ctx, tc.Logger())
}

// Stats is a point-in-time snapshot of a pool's counters.
type Stats struct {
	Threads   int `json:"threads"`
	MaxTasks  int `json:"max_tasks"`
	Allocated int `json:"allocated"`
	Pending   int `json:"pending"`
	Queued    int `json:"queued"`

	InstancesExecuted int64 `json:"instances_executed"`
	Panics            int64 `json:"panics"`
}
