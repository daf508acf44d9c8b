package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/specialistvlad/framesched/internal/scheduler"
)

// ErrUnknownRunner is returned when a graph refers to a runner nobody registered.
var ErrUnknownRunner = errors.New("unknown runner")

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Runner holds the compiled Go parts of a runner.
type Runner struct {
	// NewInput returns a pointer to a zero input struct, or is nil for
	// runners that take no arguments.
	NewInput func() any
	// Fn is the task body. input is the value built by NewInput and filled
	// from the task's arguments, or nil.
	Fn func(tc scheduler.TaskContext, input any) error
}

// Registry holds all the registered runners for a single application instance.
type Registry struct {
	mu      sync.RWMutex
	runners map[string]*Runner
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		runners: make(map[string]*Runner),
	}
}

// RegisterRunner registers a Go handler under name. Registering the same
// name twice is a programming error and panics.
func (r *Registry) RegisterRunner(name string, runner *Runner) {
	if runner == nil || runner.Fn == nil {
		panic(fmt.Sprintf("runner '%s' has no handler function", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.runners[name]; exists {
		panic(fmt.Sprintf("runner handler with name '%s' already registered", name))
	}
	slog.Debug("Registering runner handler.", "name", name)
	r.runners[name] = runner
}

// Runner returns the runner registered under name.
func (r *Registry) Runner(name string) (*Runner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	runner, ok := r.runners[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownRunner, name)
	}
	return runner, nil
}

// Names returns the registered runner names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.runners))
	for name := range r.runners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Typed adapts a handler with a concrete input type. I must be a struct
// type with `cty` field tags. Callers decode a fresh *I for every call, so
// fn owns its input.
func Typed[I any](fn func(tc scheduler.TaskContext, input *I) error) *Runner {
	return &Runner{
		NewInput: func() any { return new(I) },
		Fn: func(tc scheduler.TaskContext, input any) error {
			return fn(tc, input.(*I))
		},
	}
}
