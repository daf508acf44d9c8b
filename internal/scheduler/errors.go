package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded is returned by CreateTask when every arena slot has
	// been handed out since the last successful WaitForAllTasks.
	ErrCapacityExceeded = errors.New("scheduler: task capacity exceeded")
	// ErrInvalidInstanceCount is returned by CreateTask for fewer than one instance.
	ErrInvalidInstanceCount = errors.New("scheduler: instance count must be at least 1")
	// ErrInvalidTaskID is returned when a TaskID does not refer to a task of
	// the current arena epoch.
	ErrInvalidTaskID = errors.New("scheduler: invalid task id")
	// ErrParentFinished is returned by CreateTask when the requested parent
	// has already completed.
	ErrParentFinished = errors.New("scheduler: parent task already finished")
	// ErrPoolClosed is returned by operations on a closed pool.
	ErrPoolClosed = errors.New("scheduler: pool closed")
	// ErrNilFunc is returned by CreateTask when the task body is nil.
	ErrNilFunc = errors.New("scheduler: task func is nil")
	// ErrInvalidConfig is returned by New for unusable construction parameters.
	ErrInvalidConfig = errors.New("scheduler: invalid pool configuration")
)

// PanicError records a panic recovered from a task body. Only the first
// panic of a task is kept.
type PanicError struct {
	TaskID     TaskID
	InstanceID int
	ThreadID   int
	Value      any
	Stack      []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("%s instance %d panicked on worker %d: %v", e.TaskID, e.InstanceID, e.ThreadID, e.Value)
}

// Unwrap returns the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
