package scheduler

import (
	"fmt"
	"math"
)

type taskOptions struct {
	instances  int
	parent     TaskID
	dependency TaskID
}

// TaskOption configures a task created by CreateTask.
type TaskOption func(*taskOptions)

// WithInstances runs the task body n times. The default is 1.
func WithInstances(n int) TaskOption {
	return func(o *taskOptions) {
		o.instances = n
	}
}

// WithParent attaches the task to parent: parent is not finished until this
// task is. InvalidTaskID means no parent.
func WithParent(parent TaskID) TaskOption {
	return func(o *taskOptions) {
		o.parent = parent
	}
}

// WithDependency holds the task back until dependency and all of its
// children have finished. InvalidTaskID means no dependency.
func WithDependency(dependency TaskID) TaskOption {
	return func(o *taskOptions) {
		o.dependency = dependency
	}
}

// CreateTask adds a task running fn to the current frame. On failure it
// returns InvalidTaskID and one of the package's sentinel errors.
//
// The parent, if any, is attached before the task can run, so a parent
// never finishes ahead of a child created from its own body.
func (p *Pool) CreateTask(fn Func, opts ...TaskOption) (TaskID, error) {
	o := taskOptions{instances: 1, parent: InvalidTaskID, dependency: InvalidTaskID}
	for _, opt := range opts {
		opt(&o)
	}

	switch {
	case p.closed.Load():
		return InvalidTaskID, ErrPoolClosed
	case fn == nil:
		return InvalidTaskID, ErrNilFunc
	case o.instances < 1 || o.instances > math.MaxInt32:
		return InvalidTaskID, fmt.Errorf("%w: got %d", ErrInvalidInstanceCount, o.instances)
	case o.parent.Valid() && !p.arena.live(o.parent):
		return InvalidTaskID, fmt.Errorf("%w: parent %s", ErrInvalidTaskID, o.parent)
	case o.dependency.Valid() && !p.arena.live(o.dependency):
		return InvalidTaskID, fmt.Errorf("%w: dependency %s", ErrInvalidTaskID, o.dependency)
	}
	if !o.parent.Valid() {
		o.parent = InvalidTaskID
	}
	if !o.dependency.Valid() {
		o.dependency = InvalidTaskID
	}

	if o.parent.Valid() && !p.attach(o.parent) {
		return InvalidTaskID, fmt.Errorf("%w: %s", ErrParentFinished, o.parent)
	}

	id, ok := p.arena.alloc()
	if !ok {
		if o.parent.Valid() {
			p.finishTask(o.parent)
		}
		p.logger.Warn("Task arena is full.", "maxTasks", p.arena.capacity())
		return InvalidTaskID, ErrCapacityExceeded
	}

	t := p.arena.get(id)
	t.reset(fn, int32(o.instances), o.parent, o.dependency)
	p.pending.Add(1)

	if o.dependency.Valid() && p.park(id, o.dependency) {
		return id, nil
	}
	p.enqueue(id)
	return id, nil
}

// attach counts one more child against parent, unless parent has already finished.
func (p *Pool) attach(parent TaskID) bool {
	pt := p.arena.get(parent)
	for {
		n := pt.tasksLeft.Load()
		if n <= 0 {
			return false
		}
		if pt.tasksLeft.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// park appends id to the dependents of dependency if dependency is still
// running. It reports whether id was parked.
func (p *Pool) park(id, dependency TaskID) bool {
	p.depMu.Lock()
	defer p.depMu.Unlock()

	dt := p.arena.get(dependency)
	if dt.tasksLeft.Load() == 0 {
		return false
	}
	if dt.tail.Valid() {
		p.arena.get(dt.tail).sibling = id
	} else {
		dt.head = id
	}
	dt.tail = id
	return true
}

func (p *Pool) enqueue(id TaskID) {
	p.queueMu.Lock()
	p.queue.push(id)
	p.queueMu.Unlock()
	p.queueCond.Signal()
}
