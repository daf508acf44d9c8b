package scheduler

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// worker is the scheduling loop run by every goroutine of the pool.
func (p *Pool) worker(threadID int) {
	defer p.wg.Done()
	logger := p.logger.With("workerID", threadID)
	logger.Debug("Worker started.")

	for {
		id, instance, ok := p.claim()
		if !ok {
			break
		}
		p.execute(logger, threadID, id, instance)
	}
	logger.Debug("Worker finished.")
}

// claim blocks until a ready task is available and takes its next instance.
// The task stays at the head of the queue until its last instance is taken,
// so idle workers can run the remaining instances concurrently.
func (p *Pool) claim() (TaskID, int, bool) {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()

	for p.queue.len() == 0 && p.running {
		p.queueCond.Wait()
	}
	if !p.running {
		return InvalidTaskID, 0, false
	}

	id := p.queue.peek()
	t := p.arena.get(id)
	instance := t.nextInstance.Add(1) - 1
	if instance+1 >= t.instancesNum {
		p.queue.pop()
	}
	if p.queue.len() > 0 {
		p.queueCond.Signal()
	}
	return id, int(instance), true
}

func (p *Pool) execute(logger *slog.Logger, threadID int, id TaskID, instance int) {
	t := p.arena.get(id)
	logger.Debug("Worker picked up task instance.", "taskID", int32(id), "instanceID", instance)

	p.invoke(t, TaskContext{Pool: p, ThreadID: threadID, InstanceID: instance, TaskID: id})
	p.executed.Add(1)

	if t.instancesLeft.Add(-1) == 0 {
		logger.Debug("Task instances completed.", "taskID", int32(id))
		p.finishTask(id)
	}
}

func (p *Pool) invoke(t *task, tc TaskContext) {
	defer func() {
		if r := recover(); r != nil {
			p.recordPanic(t, tc, r, debug.Stack())
		}
	}()
	t.fn(tc)
}

func (p *Pool) recordPanic(t *task, tc TaskContext, value any, stack []byte) {
	p.panics.Add(1)
	perr := &PanicError{
		TaskID:     tc.TaskID,
		InstanceID: tc.InstanceID,
		ThreadID:   tc.ThreadID,
		Value:      value,
		Stack:      stack,
	}
	first := t.panicErr.CompareAndSwap(nil, perr)
	tc.Logger().Error("Task panicked.", "panic", fmt.Sprint(value), "first", first, "stack", string(stack))

	if p.onPanic == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			tc.Logger().Error("Panic handler panicked.", "panic", fmt.Sprint(r))
		}
	}()
	p.onPanic(perr)
}
