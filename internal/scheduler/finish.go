package scheduler

// finishTask releases one reference on id. When the last one goes, the task
// is finished: its dependents become ready, waiters are woken and the parent
// loses a reference in turn.
//
// Arena records are only touched while the task being finished still counts
// as pending, so a concurrent WaitForAllTasks cannot recycle them underneath.
func (p *Pool) finishTask(id TaskID) {
	for id.Valid() {
		t := p.arena.get(id)
		if t.tasksLeft.Add(-1) > 0 {
			return
		}
		parent := t.parent

		p.depMu.Lock()
		head := t.head
		t.head = InvalidTaskID
		t.tail = InvalidTaskID
		p.depMu.Unlock()

		p.enqueueList(head)
		p.pending.Add(-1)
		p.notifyWaiters()

		id = parent
	}
}

// enqueueList pushes a detached dependents chain to the ready queue in list order.
func (p *Pool) enqueueList(head TaskID) {
	if !head.Valid() {
		return
	}

	n := 0
	p.queueMu.Lock()
	for id := head; id.Valid(); {
		next := p.arena.get(id).sibling
		p.queue.push(id)
		n++
		id = next
	}
	p.queueMu.Unlock()

	if n == 1 {
		p.queueCond.Signal()
	} else {
		p.queueCond.Broadcast()
	}
}

func (p *Pool) notifyWaiters() {
	if p.waiters.Load() == 0 {
		return
	}
	p.waitMu.Lock()
	p.waitCond.Broadcast()
	p.waitMu.Unlock()
}
