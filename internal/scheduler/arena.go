package scheduler

import "sync/atomic"

// task is one arena record. Fields other than the atomics are written by the
// creating goroutine before the task becomes visible to workers, or under the
// pool's dependents lock (head, tail, sibling).
type task struct {
	fn Func

	// tasksLeft counts the task itself plus every unfinished child.
	tasksLeft atomic.Int32
	parent    TaskID

	instancesNum  int32
	nextInstance  atomic.Int32
	instancesLeft atomic.Int32

	dependency TaskID

	// head and tail delimit the list of tasks waiting on this one; sibling
	// links this task into the list of its own dependency.
	head    TaskID
	tail    TaskID
	sibling TaskID

	panicErr atomic.Pointer[PanicError]
}

func (t *task) reset(fn Func, instances int32, parent, dependency TaskID) {
	t.fn = fn
	t.tasksLeft.Store(1)
	t.parent = parent
	t.instancesNum = instances
	t.nextInstance.Store(0)
	t.instancesLeft.Store(instances)
	t.dependency = dependency
	t.head = InvalidTaskID
	t.tail = InvalidTaskID
	t.sibling = InvalidTaskID
	t.panicErr.Store(nil)
}

// arena is fixed-capacity storage for task records. Slots are handed out in
// order and only recycled as a whole by reset.
type arena struct {
	tasks []task
	count atomic.Int32
}

func newArena(capacity int) *arena {
	return &arena{tasks: make([]task, capacity)}
}

// alloc reserves the next free slot. It never overshoots the capacity, so a
// failed allocation leaves the count untouched.
func (a *arena) alloc() (TaskID, bool) {
	for {
		n := a.count.Load()
		if int(n) >= len(a.tasks) {
			return InvalidTaskID, false
		}
		if a.count.CompareAndSwap(n, n+1) {
			return TaskID(n), true
		}
	}
}

func (a *arena) get(id TaskID) *task {
	return &a.tasks[id]
}

// live reports whether id was allocated in the current epoch.
func (a *arena) live(id TaskID) bool {
	return id >= 0 && int32(id) < a.count.Load()
}

// inRange reports whether id could ever address a slot of this arena.
func (a *arena) inRange(id TaskID) bool {
	return id >= 0 && int(id) < len(a.tasks)
}

func (a *arena) len() int {
	return int(a.count.Load())
}

func (a *arena) capacity() int {
	return len(a.tasks)
}

func (a *arena) reset() {
	a.count.Store(0)
}
