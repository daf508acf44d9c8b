package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/framesched/internal/ctxlog"
)

// Pool is a fixed-capacity task graph executed by a fixed set of workers.
type Pool struct {
	ctx     context.Context
	logger  *slog.Logger
	threads int
	arena   *arena
	onPanic func(*PanicError)

	// depMu guards the head, tail and sibling fields of every task record.
	depMu sync.Mutex

	queueMu   sync.Mutex
	queueCond *sync.Cond
	queue     readyQueue
	running   bool

	// waitMu and waitCond back the blocking waits. waiters lets completion
	// skip the lock when nobody is blocked.
	waitMu   sync.Mutex
	waitCond *sync.Cond
	waiters  atomic.Int32

	// pending counts tasks of the current epoch whose tasksLeft is not yet 0.
	pending  atomic.Int32
	executed atomic.Int64
	panics   atomic.Int64

	closed    atomic.Bool
	closeOnce sync.Once
	// stopAfter is written once by New and only read by Close. The AfterFunc
	// goroutine calls shutdown and never touches it.
	stopAfter func() bool
	wg        sync.WaitGroup
}

// Option configures a Pool.
type Option func(*Pool)

// WithPanicHandler registers fn to be called with every panic recovered from
// a task body, after it has been logged. fn runs on the worker goroutine and
// must not block for long. A panic inside fn is logged and dropped.
func WithPanicHandler(fn func(*PanicError)) Option {
	return func(p *Pool) {
		p.onPanic = fn
	}
}

// New starts a pool with room for maxTasks tasks per frame and threads
// workers. threads == 0 uses runtime.GOMAXPROCS(0). The logger is taken from
// ctx, and the pool is closed when ctx is done.
func New(ctx context.Context, maxTasks, threads int, opts ...Option) (*Pool, error) {
	if maxTasks < 1 || maxTasks > math.MaxInt32 {
		return nil, fmt.Errorf("%w: maxTasks must be in [1, %d], got %d", ErrInvalidConfig, math.MaxInt32, maxTasks)
	}
	if threads < 0 {
		return nil, fmt.Errorf("%w: threads must not be negative, got %d", ErrInvalidConfig, threads)
	}
	if threads == 0 {
		threads = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		ctx:     ctx,
		logger:  ctxlog.FromContext(ctx),
		threads: threads,
		arena:   newArena(maxTasks),
		queue:   newReadyQueue(maxTasks),
		running: true,
	}
	p.queueCond = sync.NewCond(&p.queueMu)
	p.waitCond = sync.NewCond(&p.waitMu)
	for _, opt := range opts {
		opt(p)
	}

	p.logger.Debug("Starting worker pool.", "workers", threads, "maxTasks", maxTasks)
	p.wg.Add(threads)
	for i := 0; i < threads; i++ {
		go p.worker(i)
	}
	p.stopAfter = context.AfterFunc(ctx, p.shutdown)
	return p, nil
}

// ThreadsNumber returns the number of workers.
func (p *Pool) ThreadsNumber() int {
	return p.threads
}

// MaxTasks returns the arena capacity.
func (p *Pool) MaxTasks() int {
	return p.arena.capacity()
}

// Len returns the number of tasks created since the last arena reset.
func (p *Pool) Len() int {
	return p.arena.len()
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool) Stats() Stats {
	p.queueMu.Lock()
	queued := p.queue.len()
	p.queueMu.Unlock()

	return Stats{
		Threads:           p.threads,
		MaxTasks:          p.arena.capacity(),
		Allocated:         p.arena.len(),
		Pending:           int(p.pending.Load()),
		Queued:            queued,
		InstancesExecuted: p.executed.Load(),
		Panics:            p.panics.Load(),
	}
}

// Close stops the workers and wakes every blocked wait with ErrPoolClosed.
// Instances already running are allowed to return; queued work is
// abandoned. Close is idempotent and must not be called from a task body.
func (p *Pool) Close() {
	if p.stopAfter != nil {
		p.stopAfter()
	}
	p.shutdown()
}

func (p *Pool) shutdown() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)

		p.queueMu.Lock()
		p.running = false
		p.queueCond.Broadcast()
		p.queueMu.Unlock()

		p.waitMu.Lock()
		p.waitCond.Broadcast()
		p.waitMu.Unlock()

		p.wg.Wait()
		p.logger.Debug("Worker pool stopped.", "pending", p.pending.Load())
	})
}
