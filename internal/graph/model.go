package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

var (
	ErrEmptyName         = errors.New("task name must not be empty")
	ErrDuplicateName     = errors.New("duplicate task name")
	ErrMissingRunner     = errors.New("task has no runner")
	ErrInvalidInstances  = errors.New("task instances must be at least 1")
	ErrUnknownDependency = errors.New("depends_on must name an earlier sibling task")
)

// Model is the description of one frame.
type Model struct {
	Tasks []*Task
}

// Task is one node of the frame graph.
type Task struct {
	Name      string
	Runner    string
	Instances int
	// DependsOn is the name of an earlier sibling, or empty.
	DependsOn string
	// Args are the runner arguments, already evaluated.
	Args map[string]cty.Value
	// Children are created as scheduler children of this task.
	Children []*Task
	// Source points back to the declaration, e.g. "main.hcl:12".
	Source string
}

// Loader turns graph files into a Model.
type Loader interface {
	// Extensions lists the file suffixes the loader understands, with the dot.
	Extensions() []string
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Validate checks the structural rules of the model. All violations are
// returned, joined.
func (m *Model) Validate() error {
	seen := make(map[string]string)
	return validateScope(m.Tasks, seen)
}

func validateScope(tasks []*Task, seen map[string]string) error {
	var errs []error
	earlier := make(map[string]bool, len(tasks))

	for _, t := range tasks {
		switch {
		case t.Name == "":
			errs = append(errs, fmt.Errorf("%s: %w", t.Source, ErrEmptyName))
		case seen[t.Name] != "":
			errs = append(errs, fmt.Errorf("%s: %w %q, first declared at %s", t.Source, ErrDuplicateName, t.Name, seen[t.Name]))
		default:
			src := t.Source
			if src == "" {
				src = "unknown"
			}
			seen[t.Name] = src
		}
		if t.Runner == "" {
			errs = append(errs, fmt.Errorf("%s: task %q: %w", t.Source, t.Name, ErrMissingRunner))
		}
		if t.Instances < 1 {
			errs = append(errs, fmt.Errorf("%s: task %q: %w, got %d", t.Source, t.Name, ErrInvalidInstances, t.Instances))
		}
		if t.DependsOn != "" && !earlier[t.DependsOn] {
			errs = append(errs, fmt.Errorf("%s: task %q depends on %q: %w", t.Source, t.Name, t.DependsOn, ErrUnknownDependency))
		}
		earlier[t.Name] = true

		if err := validateScope(t.Children, seen); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Count returns the number of tasks in the model, children included. It is
// the number of scheduler tasks one frame creates.
func (m *Model) Count() int {
	n := 0
	m.Walk(func(*Task, int) { n++ })
	return n
}

// Instances returns the number of task body invocations one frame performs.
func (m *Model) Instances() int {
	n := 0
	m.Walk(func(t *Task, _ int) { n += t.Instances })
	return n
}

// Walk calls fn for every task in declaration order, parents before children.
func (m *Model) Walk(fn func(t *Task, depth int)) {
	var walk func(tasks []*Task, depth int)
	walk = func(tasks []*Task, depth int) {
		for _, t := range tasks {
			fn(t, depth)
			walk(t.Children, depth+1)
		}
	}
	walk(m.Tasks, 0)
}

// Runners returns the set of runner names the model refers to.
func (m *Model) Runners() map[string]bool {
	runners := make(map[string]bool)
	m.Walk(func(t *Task, _ int) { runners[t.Runner] = true })
	return runners
}

// Merge concatenates the top-level tasks of several models, in order.
// Nil models are skipped.
func Merge(models ...*Model) *Model {
	merged := &Model{}
	for _, m := range models {
		if m == nil {
			continue
		}
		merged.Tasks = append(merged.Tasks, m.Tasks...)
	}
	return merged
}
