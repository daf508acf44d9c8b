// Package scheduler implements a frame-scoped, dependency-aware parallel task
// scheduler: a fixed-capacity task graph executed by a pool of worker
// goroutines.
//
// # Why Scheduler Exists
//
// A frame is a burst of small, related pieces of work (passes, jobs, sub-jobs)
// that must all finish before the next frame starts. The scheduler lets a
// client describe that work as a graph and have it executed in parallel
// without allocating per task:
//   - **Instancing:** one task can run its callback N times concurrently (a parallel-for)
//   - **Parent/child:** a parent is not finished until every child attached to it is
//   - **Dependencies:** a task may wait for one other task (and its whole subtree)
//   - **Frame reset:** WaitForAllTasks recycles the task arena for the next frame
//
// # How It Works
//
// Task records live in a preallocated arena and are addressed by TaskID, a
// plain index. A task that is ready to run is pushed to a single FIFO ready
// queue guarded by a mutex and a condition variable. Every worker runs the
// same loop:
//  1. Wait until the ready queue is not empty
//  2. Peek the head task and claim its next instance
//  3. Pop the task only when the last instance was claimed
//  4. Run the callback, then decrement the remaining-instance counter
//  5. On the last instance, propagate completion to the parent chain and
//     push the task's dependents to the ready queue
//
// A task whose dependency is still running is parked on an intrusive linked
// list stored inside the dependency's own record, so no extra memory is used.
//
// # Limitations
//
// The scheduler performs no cycle detection. The API only lets a task depend
// on a task that already exists, so plain dependency chains cannot loop, but
// a child that depends on its own ancestor, or a task body that waits on its
// own parent, will never finish and blocks WaitForAllTasks forever.
// WaitForAllTasks must not be called from a task body: the calling task is
// itself pending, so the call never returns.
//
// Task bodies may call the Wait functions. Workers blocked in a wait do not
// run other tasks, so if every worker waits on work only another worker could
// run, the pool starves.
//
// # Thread-Safety
//
// All Pool methods are safe for concurrent use, with one exception:
// WaitForAllTasks resets the arena, so no other goroutine may create tasks,
// or hold TaskIDs it intends to use, while it runs.
package scheduler
