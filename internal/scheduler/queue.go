package scheduler

// readyQueue is a FIFO ring of task indices. It is not synchronized; the
// pool guards it with queueMu.
//
// A task is pushed at most once per arena epoch and is popped before it can
// finish, so the ring never holds more than the arena capacity. grow only
// exists to keep push total.
type readyQueue struct {
	buf  []TaskID
	head int
	size int
}

func newReadyQueue(capacity int) readyQueue {
	if capacity < 1 {
		capacity = 1
	}
	return readyQueue{buf: make([]TaskID, capacity)}
}

func (q *readyQueue) len() int {
	return q.size
}

func (q *readyQueue) push(id TaskID) {
	if q.size == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.size)%len(q.buf)] = id
	q.size++
}

// peek returns the oldest task without removing it. The queue must not be empty.
func (q *readyQueue) peek() TaskID {
	return q.buf[q.head]
}

// pop removes the oldest task. The queue must not be empty.
func (q *readyQueue) pop() TaskID {
	id := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	if q.size == 0 {
		q.head = 0
	}
	return id
}

func (q *readyQueue) grow() {
	buf := make([]TaskID, 2*len(q.buf))
	for i := 0; i < q.size; i++ {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = buf
	q.head = 0
}
