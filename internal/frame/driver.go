package frame

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/specialistvlad/framesched/internal/ctxlog"
	"github.com/specialistvlad/framesched/internal/events"
	"github.com/specialistvlad/framesched/internal/graph"
	"github.com/specialistvlad/framesched/internal/inmemorystore"
	"github.com/specialistvlad/framesched/internal/registry"
	"github.com/specialistvlad/framesched/internal/scheduler"
)

// ErrGraphTooLarge is returned by New when one frame needs more tasks than
// the pool can hold.
var ErrGraphTooLarge = errors.New("frame graph does not fit the pool")

// Store records per-task outcomes of a frame.
type Store interface {
	SetStatus(ctx context.Context, name string, status inmemorystore.Status) error
	SetError(ctx context.Context, name string, taskErr error) error
	GetError(ctx context.Context, name string) (error, error)
	AddInstance(ctx context.Context, name string) int64
	Instances(ctx context.Context, name string) int64
	Reset(ctx context.Context)
}

// Publisher receives frame lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, topic string, ev events.FrameEvent) error
}

// Report summarizes one frame.
type Report struct {
	Frame     int
	Tasks     int
	Instances int64
	Duration  time.Duration
	// Errors holds the first error of every failed task, by task name.
	Errors map[string]error
}

// Failed returns the names of the failed tasks, sorted.
func (r *Report) Failed() []string {
	names := make([]string, 0, len(r.Errors))
	for name := range r.Errors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Driver runs a frame graph on a pool.
type Driver struct {
	pool    *scheduler.Pool
	model   *graph.Model
	runners map[string]*registry.Runner
	count   int

	store     Store
	publisher Publisher
	runID     string
}

// Option configures a Driver.
type Option func(*Driver)

// WithStore replaces the default in-memory outcome store.
func WithStore(s Store) Option {
	return func(d *Driver) {
		d.store = s
	}
}

// WithPublisher publishes frame.started and frame.finished events tagged
// with runID.
func WithPublisher(p Publisher, runID string) Option {
	return func(d *Driver) {
		d.publisher = p
		d.runID = runID
	}
}

// New prepares model for execution on pool. Every structural, runner and
// argument problem is reported here, before any task is created.
func New(pool *scheduler.Pool, reg *registry.Registry, model *graph.Model, opts ...Option) (*Driver, error) {
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid frame graph: %w", err)
	}
	if _, err := reg.DecodeModel(model); err != nil {
		return nil, fmt.Errorf("invalid frame graph: %w", err)
	}

	runners := make(map[string]*registry.Runner)
	model.Walk(func(t *graph.Task, _ int) {
		// DecodeModel already proved every runner exists.
		runners[t.Name], _ = reg.Runner(t.Runner)
	})

	count := model.Count()
	if count > pool.MaxTasks() {
		return nil, fmt.Errorf("%w: %d tasks per frame, capacity %d", ErrGraphTooLarge, count, pool.MaxTasks())
	}

	d := &Driver{
		pool:    pool,
		model:   model,
		runners: runners,
		count:   count,
		store:   inmemorystore.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Tasks returns the number of scheduler tasks one frame creates.
func (d *Driver) Tasks() int {
	return d.count
}

// createdTasks collects the tasks of a frame as they are created, including
// children created from worker goroutines.
type createdTasks struct {
	mu    sync.Mutex
	names []string
	ids   []scheduler.TaskID
}

func (c *createdTasks) add(name string, id scheduler.TaskID) {
	c.mu.Lock()
	c.names = append(c.names, name)
	c.ids = append(c.ids, id)
	c.mu.Unlock()
}

// Run executes one frame and blocks until every task of it has finished.
// The returned error joins the per-task failures; the report is returned
// whenever the frame completed, failed tasks or not.
func (d *Driver) Run(ctx context.Context, frameNo int) (*Report, error) {
	logger := ctxlog.FromContext(ctx).With("frame", frameNo)
	ctx = ctxlog.WithLogger(ctx, logger)

	d.store.Reset(ctx)
	d.publish(ctx, events.TopicFrameStarted, events.FrameEvent{Frame: frameNo, Tasks: d.count})
	logger.Debug("Frame started.", "tasks", d.count)
	start := time.Now()

	created := &createdTasks{}
	top, submitErr := d.submitScope(ctx, d.model.Tasks, scheduler.InvalidTaskID, created)
	if err := d.pool.WaitForTasks(top...); err != nil {
		return nil, fmt.Errorf("frame %d: %w", frameNo, err)
	}

	created.mu.Lock()
	for i, id := range created.ids {
		if taskErr := d.pool.TaskErr(id); taskErr != nil {
			_ = d.store.SetError(ctx, created.names[i], taskErr)
		}
	}
	created.mu.Unlock()

	if err := d.pool.WaitForAllTasks(); err != nil {
		return nil, fmt.Errorf("frame %d: %w", frameNo, err)
	}
	if submitErr != nil {
		return nil, fmt.Errorf("frame %d: %w", frameNo, submitErr)
	}

	report := &Report{
		Frame:    frameNo,
		Tasks:    d.count,
		Duration: time.Since(start),
		Errors:   make(map[string]error),
	}
	d.model.Walk(func(t *graph.Task, _ int) {
		report.Instances += d.store.Instances(ctx, t.Name)
		taskErr, _ := d.store.GetError(ctx, t.Name)
		if taskErr != nil {
			report.Errors[t.Name] = taskErr
			_ = d.store.SetStatus(ctx, t.Name, inmemorystore.StatusFailed)
			return
		}
		_ = d.store.SetStatus(ctx, t.Name, inmemorystore.StatusCompleted)
	})

	d.publish(ctx, events.TopicFrameFinished, events.FrameEvent{
		Frame:     frameNo,
		Tasks:     report.Tasks,
		Instances: report.Instances,
		Duration:  events.Duration(report.Duration),
		Failed:    report.Failed(),
	})
	logger.Debug("Frame finished.", "instances", report.Instances, "duration", report.Duration, "failed", len(report.Errors))

	if len(report.Errors) == 0 {
		return report, nil
	}
	errs := make([]error, 0, len(report.Errors))
	for _, name := range report.Failed() {
		errs = append(errs, fmt.Errorf("task %q: %w", name, report.Errors[name]))
	}
	return report, errors.Join(errs...)
}

// submitScope creates one scope of sibling tasks under parent. It returns
// the IDs created so far even when it fails part way.
func (d *Driver) submitScope(ctx context.Context, tasks []*graph.Task, parent scheduler.TaskID, created *createdTasks) ([]scheduler.TaskID, error) {
	ids := make([]scheduler.TaskID, 0, len(tasks))
	byName := make(map[string]scheduler.TaskID, len(tasks))

	for _, t := range tasks {
		dep := scheduler.InvalidTaskID
		if t.DependsOn != "" {
			dep = byName[t.DependsOn]
		}
		id, err := d.pool.CreateTask(d.body(ctx, t, created),
			scheduler.WithInstances(t.Instances),
			scheduler.WithParent(parent),
			scheduler.WithDependency(dep),
		)
		if err != nil {
			return ids, fmt.Errorf("failed to create task %q: %w", t.Name, err)
		}
		byName[t.Name] = id
		ids = append(ids, id)
		created.add(t.Name, id)
	}
	return ids, nil
}

func (d *Driver) body(ctx context.Context, t *graph.Task, created *createdTasks) scheduler.Func {
	runner := d.runners[t.Name]

	return func(tc scheduler.TaskContext) {
		d.store.AddInstance(ctx, t.Name)
		_ = d.store.SetStatus(ctx, t.Name, inmemorystore.StatusRunning)

		if tc.InstanceID == 0 && len(t.Children) > 0 {
			if _, err := d.submitScope(ctx, t.Children, tc.TaskID, created); err != nil {
				tc.Logger().Error("Failed to create child tasks.", "task", t.Name, "error", err)
				_ = d.store.SetError(ctx, t.Name, err)
			}
		}

		// Every instance gets its own input, so runners may modify it.
		input, err := runner.Decode(t.Args)
		if err != nil {
			_ = d.store.SetError(ctx, t.Name, fmt.Errorf("instance %d: %w", tc.InstanceID, err))
			return
		}
		if err := runner.Fn(tc, input); err != nil {
			tc.Logger().Debug("Task instance failed.", "task", t.Name, "error", err)
			_ = d.store.SetError(ctx, t.Name, fmt.Errorf("instance %d: %w", tc.InstanceID, err))
		}
	}
}

func (d *Driver) publish(ctx context.Context, topic string, ev events.FrameEvent) {
	if d.publisher == nil {
		return
	}
	ev.RunID = d.runID
	if err := d.publisher.Publish(ctx, topic, ev); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to publish frame event.", "topic", topic, "error", err)
	}
}
