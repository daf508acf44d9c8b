package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/specialistvlad/framesched/internal/graph"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var (
	ErrUnknownArgument  = errors.New("unsupported argument")
	ErrMissingArgument  = errors.New("missing required argument")
	ErrInvalidInputType = errors.New("input must be a pointer to a struct")
)

// Decode builds the runner's input from a task's arguments.
func (rn *Runner) Decode(args map[string]cty.Value) (any, error) {
	if rn.NewInput == nil {
		if len(args) > 0 {
			return nil, fmt.Errorf("%w: runner takes no arguments, got %s", ErrUnknownArgument, strings.Join(sortedKeys(args), ", "))
		}
		return nil, nil
	}

	input := rn.NewInput()
	rv := reflect.ValueOf(input)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w, got %T", ErrInvalidInputType, input)
	}
	objType, err := gocty.ImpliedType(input)
	if err != nil {
		return nil, fmt.Errorf("could not imply cty type from %T: %w", input, err)
	}

	optional := optionalFields(rv.Elem().Type())
	var errs []error
	for _, name := range sortedKeys(args) {
		if !objType.HasAttribute(name) {
			errs = append(errs, fmt.Errorf("%w %q", ErrUnknownArgument, name))
		}
	}

	attrs := make(map[string]cty.Value, len(objType.AttributeTypes()))
	for name, attrType := range objType.AttributeTypes() {
		val, ok := args[name]
		if !ok || val.IsNull() {
			if !optional[name] {
				errs = append(errs, fmt.Errorf("%w %q", ErrMissingArgument, name))
			}
			attrs[name] = cty.NullVal(attrType)
			continue
		}
		converted, err := convert.Convert(val, attrType)
		if err != nil {
			errs = append(errs, fmt.Errorf("argument %q: %w", name, err))
			continue
		}
		attrs[name] = converted
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := gocty.FromCtyValue(cty.ObjectVal(attrs), input); err != nil {
		return nil, fmt.Errorf("could not decode arguments into %T: %w", input, err)
	}
	return input, nil
}

// DecodeModel checks that every task of m has a registered runner and that
// its arguments decode. The decoded inputs are returned by task name.
func (r *Registry) DecodeModel(m *graph.Model) (map[string]any, error) {
	inputs := make(map[string]any)
	var errs []error
	m.Walk(func(t *graph.Task, _ int) {
		runner, err := r.Runner(t.Runner)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: task %q: %w", t.Source, t.Name, err))
			return
		}
		input, err := runner.Decode(t.Args)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: task %q: %w", t.Source, t.Name, err))
			return
		}
		inputs[t.Name] = input
	})
	return inputs, errors.Join(errs...)
}

// optionalFields returns the cty names of pointer fields.
func optionalFields(st reflect.Type) map[string]bool {
	optional := make(map[string]bool)
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		name, ok := f.Tag.Lookup("cty")
		if !ok {
			continue
		}
		if f.Type.Kind() == reflect.Pointer {
			optional[name] = true
		}
	}
	return optional
}

func sortedKeys(m map[string]cty.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
