// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// store of per-task frame outcomes.
//
// # Purpose
//
// The frame driver records, for every task name, its status, the first error
// reported by any of its instances and the number of instances executed.
// Workers write concurrently, the driver reads once the frame is over.
//
// # Concurrency Model
//
// The store uses sync.Map because:
//   - **Write-Heavy Workload:** every task instance updates its task's entry
//   - **Independent Keys:** each task's outcome is independent of the others
//   - **Stable Key Space:** the task names of a frame are known upfront
//
// Reset clears the store between frames; it must not race with writers.
package inmemorystore

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
)

// Status is the lifecycle state of a task within one frame.
type Status int32

const (
	StatusPending Status = iota
	StatusRunning
	StatusCompleted
	StatusFailed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Store keeps frame outcomes keyed by task name.
//
// The store maintains three independent sync.Maps:
//   - states: task name to Status
//   - errors: task name to the first error reported for the task
//   - instances: task name to a *atomic.Int64 counting executed instances
type Store struct {
	states    sync.Map
	errors    sync.Map
	instances sync.Map
}

// New creates a new, empty in-memory outcome store.
func New() *Store {
	return &Store{}
}

// SetStatus updates the status of a task.
func (s *Store) SetStatus(ctx context.Context, name string, status Status) error {
	s.states.Store(name, status)
	return nil
}

// GetStatus retrieves the status of a task. Unknown tasks are pending.
func (s *Store) GetStatus(ctx context.Context, name string) (Status, error) {
	status, ok := s.states.Load(name)
	if !ok {
		return StatusPending, nil
	}
	return status.(Status), nil
}

// SetError records a failure of a task. Only the first error of a task is
// kept; later ones are dropped.
func (s *Store) SetError(ctx context.Context, name string, taskErr error) error {
	if taskErr == nil {
		return nil
	}
	s.errors.LoadOrStore(name, taskErr)
	return nil
}

// GetError retrieves the recorded error of a task, or nil.
func (s *Store) GetError(ctx context.Context, name string) (error, error) {
	err, ok := s.errors.Load(name)
	if !ok {
		return nil, nil
	}
	return err.(error), nil
}

// AddInstance counts one executed instance of a task and returns the new total.
func (s *Store) AddInstance(ctx context.Context, name string) int64 {
	counter, _ := s.instances.LoadOrStore(name, new(atomic.Int64))
	return counter.(*atomic.Int64).Add(1)
}

// Instances returns the number of executed instances of a task.
func (s *Store) Instances(ctx context.Context, name string) int64 {
	counter, ok := s.instances.Load(name)
	if !ok {
		return 0
	}
	return counter.(*atomic.Int64).Load()
}

// Failed returns the names of every task with a recorded error, sorted.
func (s *Store) Failed(ctx context.Context) []string {
	var names []string
	s.errors.Range(func(key, _ any) bool {
		names = append(names, key.(string))
		return true
	})
	sort.Strings(names)
	return names
}

// Reset forgets every recorded outcome.
func (s *Store) Reset(ctx context.Context) {
	s.states.Clear()
	s.errors.Clear()
	s.instances.Clear()
}
