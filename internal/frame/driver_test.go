package frame

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/framesched/internal/ctxlog"
	"github.com/specialistvlad/framesched/internal/events"
	"github.com/specialistvlad/framesched/internal/graph"
	"github.com/specialistvlad/framesched/internal/inmemorystore"
	"github.com/specialistvlad/framesched/internal/registry"
	"github.com/specialistvlad/framesched/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// recorder is a runner that appends the task's "label" argument to a shared
// log on every instance.
type recorder struct {
	mu  sync.Mutex
	log []string
}

type labelInput struct {
	Label string `cty:"label"`
}

func (r *recorder) runner() *registry.Runner {
	return registry.Typed(func(tc scheduler.TaskContext, in *labelInput) error {
		r.mu.Lock()
		r.log = append(r.log, in.Label)
		r.mu.Unlock()
		return nil
	})
}

func (r *recorder) entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log...)
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(ctxlog.WithLogger(context.Background(), ctxlog.Discard()))
	t.Cleanup(cancel)
	return ctx
}

func newTestPool(t *testing.T, ctx context.Context, maxTasks, threads int) *scheduler.Pool {
	t.Helper()
	pool, err := scheduler.New(ctx, maxTasks, threads)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func labelled(name, runner, label string) *graph.Task {
	return &graph.Task{
		Name:      name,
		Runner:    runner,
		Instances: 1,
		Args:      map[string]cty.Value{"label": cty.StringVal(label)},
	}
}

func TestRun_DependenciesAndChildren(t *testing.T) {
	// --- Arrange ---
	ctx := testContext(t)
	rec := &recorder{}
	reg := registry.New()
	reg.RegisterRunner("record", rec.runner())

	// shadows has two children, blur depends on cascade; lighting depends on
	// the whole shadows subtree.
	shadows := labelled("shadows", "record", "shadows")
	cascade := labelled("cascade", "record", "cascade")
	blur := labelled("blur", "record", "blur")
	blur.DependsOn = "cascade"
	shadows.Children = []*graph.Task{cascade, blur}
	lighting := labelled("lighting", "record", "lighting")
	lighting.DependsOn = "shadows"

	model := &graph.Model{Tasks: []*graph.Task{shadows, lighting}}
	pool := newTestPool(t, ctx, model.Count(), 4)
	store := inmemorystore.New()

	d, err := New(pool, reg, model, WithStore(store))
	require.NoError(t, err)
	assert.Equal(t, 4, d.Tasks())

	for frame := 1; frame <= 20; frame++ {
		rec.log = nil

		// --- Act ---
		report, err := d.Run(ctx, frame)

		// --- Assert ---
		require.NoError(t, err)
		assert.Equal(t, frame, report.Frame)
		assert.Equal(t, int64(4), report.Instances)
		assert.Empty(t, report.Failed())

		order := rec.entries()
		require.Len(t, order, 4)
		pos := make(map[string]int)
		for i, label := range order {
			pos[label] = i
		}
		assert.Less(t, pos["cascade"], pos["blur"])
		assert.Equal(t, 3, pos["lighting"], "lighting must wait for the shadows subtree")

		status, _ := store.GetStatus(ctx, "blur")
		assert.Equal(t, inmemorystore.StatusCompleted, status)
	}
	assert.Zero(t, pool.Len(), "every frame resets the arena")
}

func TestRun_Instances(t *testing.T) {
	ctx := testContext(t)
	var calls atomic.Int64
	seen := make([]atomic.Bool, 8)
	reg := registry.New()
	reg.RegisterRunner("count", &registry.Runner{Fn: func(tc scheduler.TaskContext, _ any) error {
		calls.Add(1)
		seen[tc.InstanceID].Store(true)
		return nil
	}})

	model := &graph.Model{Tasks: []*graph.Task{{Name: "particles", Runner: "count", Instances: 8}}}
	d, err := New(newTestPool(t, ctx, 1, 3), reg, model)
	require.NoError(t, err)

	report, err := d.Run(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(8), report.Instances)
	assert.Equal(t, int64(8), calls.Load())
	for i := range seen {
		assert.True(t, seen[i].Load(), "instance %d never ran", i)
	}
}

func TestRun_EveryInstanceGetsItsOwnInput(t *testing.T) {
	// --- Arrange ---
	ctx := testContext(t)
	var stale atomic.Int64
	reg := registry.New()
	reg.RegisterRunner("mutate", registry.Typed(func(tc scheduler.TaskContext, in *labelInput) error {
		if in.Label != "pristine" {
			stale.Add(1)
		}
		in.Label = "touched"
		return nil
	}))
	model := &graph.Model{Tasks: []*graph.Task{{
		Name:      "particles",
		Runner:    "mutate",
		Instances: 6,
		Args:      map[string]cty.Value{"label": cty.StringVal("pristine")},
	}}}
	// One worker runs the instances one after another.
	d, err := New(newTestPool(t, ctx, 1, 1), reg, model)
	require.NoError(t, err)

	// --- Act ---
	for frame := 1; frame <= 2; frame++ {
		_, err := d.Run(ctx, frame)
		require.NoError(t, err)
	}

	// --- Assert ---
	assert.Zero(t, stale.Load(), "an instance saw a previous instance's input")
}

func TestRun_FailuresAreReportedPerTask(t *testing.T) {
	// --- Arrange ---
	ctx := testContext(t)
	errBoom := errors.New("boom")
	rec := &recorder{}
	reg := registry.New()
	reg.RegisterRunner("record", rec.runner())
	reg.RegisterRunner("fail", &registry.Runner{Fn: func(tc scheduler.TaskContext, _ any) error {
		if tc.InstanceID == 1 {
			return errBoom
		}
		return nil
	}})
	reg.RegisterRunner("panic", &registry.Runner{Fn: func(scheduler.TaskContext, any) error {
		panic("kaboom")
	}})

	after := labelled("after", "record", "after")
	after.DependsOn = "broken"
	model := &graph.Model{Tasks: []*graph.Task{
		{Name: "broken", Runner: "fail", Instances: 3},
		{Name: "crashy", Runner: "panic", Instances: 1},
		after,
	}}
	store := inmemorystore.New()
	d, err := New(newTestPool(t, ctx, 3, 2), reg, model, WithStore(store))
	require.NoError(t, err)

	// --- Act ---
	report, err := d.Run(ctx, 7)

	// --- Assert ---
	require.Error(t, err)
	require.NotNil(t, report)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, []string{"broken", "crashy"}, report.Failed())
	assert.Contains(t, err.Error(), `task "broken": instance 1: boom`)

	var perr *scheduler.PanicError
	require.ErrorAs(t, report.Errors["crashy"], &perr)
	assert.Equal(t, "kaboom", perr.Value)

	assert.Equal(t, []string{"after"}, rec.entries(), "dependents of a failed task still run")
	status, _ := store.GetStatus(ctx, "broken")
	assert.Equal(t, inmemorystore.StatusFailed, status)
	status, _ = store.GetStatus(ctx, "after")
	assert.Equal(t, inmemorystore.StatusCompleted, status)

	// The next frame starts clean.
	next, err := d.Run(ctx, 8)
	require.Error(t, err)
	assert.Equal(t, 8, next.Frame)
	assert.Equal(t, int64(5), next.Instances)
}

func TestNew_Errors(t *testing.T) {
	ctx := testContext(t)
	reg := registry.New()
	reg.RegisterRunner("record", (&recorder{}).runner())

	testCases := []struct {
		name    string
		model   *graph.Model
		maxTask int
		wantErr error
	}{
		{
			name:    "unknown runner",
			model:   &graph.Model{Tasks: []*graph.Task{{Name: "a", Runner: "missing", Instances: 1}}},
			maxTask: 4,
			wantErr: registry.ErrUnknownRunner,
		},
		{
			name:    "missing argument",
			model:   &graph.Model{Tasks: []*graph.Task{{Name: "a", Runner: "record", Instances: 1}}},
			maxTask: 4,
			wantErr: registry.ErrMissingArgument,
		},
		{
			name: "invalid structure",
			model: &graph.Model{Tasks: []*graph.Task{
				labelled("a", "record", "a"),
				labelled("a", "record", "again"),
			}},
			maxTask: 4,
			wantErr: graph.ErrDuplicateName,
		},
		{
			name: "too large",
			model: &graph.Model{Tasks: []*graph.Task{
				labelled("a", "record", "a"),
				labelled("b", "record", "b"),
			}},
			maxTask: 1,
			wantErr: ErrGraphTooLarge,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(newTestPool(t, ctx, tc.maxTask, 1), reg, tc.model)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestRun_PublishesEvents(t *testing.T) {
	// --- Arrange ---
	ctx := testContext(t)
	bus := events.NewBus(ctx)
	t.Cleanup(func() { _ = bus.Close() })
	started, err := bus.Subscribe(ctx, events.TopicFrameStarted)
	require.NoError(t, err)
	finished, err := bus.Subscribe(ctx, events.TopicFrameFinished)
	require.NoError(t, err)

	reg := registry.New()
	reg.RegisterRunner("record", (&recorder{}).runner())
	model := &graph.Model{Tasks: []*graph.Task{labelled("a", "record", "a")}}
	d, err := New(newTestPool(t, ctx, 1, 1), reg, model, WithPublisher(bus, "run-1"))
	require.NoError(t, err)

	// --- Act ---
	var got []events.FrameEvent
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2; i++ {
			got = append(got, <-started, <-finished)
		}
	}()
	for frame := 1; frame <= 2; frame++ {
		_, err := d.Run(ctx, frame)
		require.NoError(t, err)
	}

	// --- Assert ---
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("events not received")
	}

	var summary []string
	for _, ev := range got {
		assert.Equal(t, "run-1", ev.RunID)
		summary = append(summary, map[bool]string{true: "finished", false: "started"}[ev.Instances > 0])
	}
	if diff := cmp.Diff([]string{"started", "finished", "started", "finished"}, summary); diff != "" {
		t.Errorf("event sequence mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, got[3].Frame)
}

func TestRun_ClosedPool(t *testing.T) {
	ctx := testContext(t)
	reg := registry.New()
	reg.RegisterRunner("record", (&recorder{}).runner())
	model := &graph.Model{Tasks: []*graph.Task{labelled("a", "record", "a")}}
	pool := newTestPool(t, ctx, 1, 1)
	d, err := New(pool, reg, model)
	require.NoError(t, err)

	pool.Close()

	_, err = d.Run(ctx, 1)
	require.ErrorIs(t, err, scheduler.ErrPoolClosed)
}
