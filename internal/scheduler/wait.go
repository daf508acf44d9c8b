package scheduler

import "fmt"

// IsTaskFinished reports whether id and all of its children have finished.
// IDs that do not refer to a task of the current frame count as finished.
func (p *Pool) IsTaskFinished(id TaskID) bool {
	if !p.arena.live(id) {
		return true
	}
	return p.arena.get(id).tasksLeft.Load() == 0
}

// WaitForTask blocks until id has finished.
func (p *Pool) WaitForTask(id TaskID) error {
	return p.WaitForTasks(id)
}

// WaitForTasks blocks until every task in ids has finished.
func (p *Pool) WaitForTasks(ids ...TaskID) error {
	for _, id := range ids {
		if !p.arena.inRange(id) {
			return fmt.Errorf("%w: %s", ErrInvalidTaskID, id)
		}
	}
	return p.wait(func() bool {
		for _, id := range ids {
			if !p.IsTaskFinished(id) {
				return false
			}
		}
		return true
	})
}

// WaitForAllTasks blocks until every task created so far has finished, then
// resets the arena so the next frame starts with full capacity. TaskIDs of
// the finished frame must not be used afterwards. Calling it from a task body
// deadlocks, because the calling task is still pending.
func (p *Pool) WaitForAllTasks() error {
	p.waitMu.Lock()
	defer p.waitMu.Unlock()
	p.waiters.Add(1)
	defer p.waiters.Add(-1)

	for p.pending.Load() > 0 {
		if p.closed.Load() {
			return ErrPoolClosed
		}
		p.waitCond.Wait()
	}
	p.arena.reset()
	return nil
}

// TaskErr returns the first panic recovered from id's body as a *PanicError,
// or nil. It must be called before the frame is reset by WaitForAllTasks.
func (p *Pool) TaskErr(id TaskID) error {
	if !p.arena.live(id) {
		return fmt.Errorf("%w: %s", ErrInvalidTaskID, id)
	}
	if perr := p.arena.get(id).panicErr.Load(); perr != nil {
		return perr
	}
	return nil
}

func (p *Pool) wait(done func() bool) error {
	if done() {
		return nil
	}

	p.waitMu.Lock()
	defer p.waitMu.Unlock()
	p.waiters.Add(1)
	defer p.waiters.Add(-1)

	for !done() {
		if p.closed.Load() {
			return ErrPoolClosed
		}
		p.waitCond.Wait()
	}
	return nil
}
