package registry

import (
	"errors"
	"testing"

	"github.com/specialistvlad/framesched/internal/graph"
	"github.com/specialistvlad/framesched/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type greetInput struct {
	Message string   `cty:"message"`
	Times   int      `cty:"times"`
	Loud    *bool    `cty:"loud"`
	Tags    []string `cty:"tags"`
}

func greetRunner() *Runner {
	return Typed(func(tc scheduler.TaskContext, in *greetInput) error { return nil })
}

func TestRegisterRunner(t *testing.T) {
	r := New()
	r.RegisterRunner("greet", greetRunner())
	r.RegisterRunner("noop", &Runner{Fn: func(scheduler.TaskContext, any) error { return nil }})

	assert.Equal(t, []string{"greet", "noop"}, r.Names())

	runner, err := r.Runner("greet")
	require.NoError(t, err)
	assert.NotNil(t, runner.NewInput)

	_, err = r.Runner("missing")
	require.ErrorIs(t, err, ErrUnknownRunner)
}

func TestRegisterRunner_Panics(t *testing.T) {
	r := New()
	r.RegisterRunner("greet", greetRunner())

	assert.Panics(t, func() { r.RegisterRunner("greet", greetRunner()) }, "duplicate name")
	assert.Panics(t, func() { r.RegisterRunner("nil", nil) }, "nil runner")
	assert.Panics(t, func() { r.RegisterRunner("nofn", &Runner{}) }, "nil handler")
}

func TestDecode(t *testing.T) {
	// --- Arrange ---
	args := map[string]cty.Value{
		"message": cty.StringVal("hello"),
		"times":   cty.StringVal("3"), // converted
		"tags":    cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")}),
	}

	// --- Act ---
	input, err := greetRunner().Decode(args)

	// --- Assert ---
	require.NoError(t, err)
	in := input.(*greetInput)
	assert.Equal(t, "hello", in.Message)
	assert.Equal(t, 3, in.Times)
	assert.Nil(t, in.Loud, "optional argument left unset")
	assert.Equal(t, []string{"a", "b"}, in.Tags)
}

func TestDecode_OptionalSet(t *testing.T) {
	input, err := greetRunner().Decode(map[string]cty.Value{
		"message": cty.StringVal("hi"),
		"times":   cty.NumberIntVal(1),
		"tags":    cty.ListValEmpty(cty.String),
		"loud":    cty.True,
	})
	require.NoError(t, err)
	in := input.(*greetInput)
	require.NotNil(t, in.Loud)
	assert.True(t, *in.Loud)
}

func TestDecode_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		runner  *Runner
		args    map[string]cty.Value
		wantErr error
	}{
		{
			name:    "unknown argument",
			runner:  greetRunner(),
			args:    map[string]cty.Value{"message": cty.StringVal("x"), "times": cty.NumberIntVal(1), "tags": cty.EmptyTupleVal, "color": cty.StringVal("red")},
			wantErr: ErrUnknownArgument,
		},
		{
			name:    "missing required argument",
			runner:  greetRunner(),
			args:    map[string]cty.Value{"message": cty.StringVal("x"), "tags": cty.EmptyTupleVal},
			wantErr: ErrMissingArgument,
		},
		{
			name:    "arguments for a runner without input",
			runner:  &Runner{Fn: func(scheduler.TaskContext, any) error { return nil }},
			args:    map[string]cty.Value{"x": cty.True},
			wantErr: ErrUnknownArgument,
		},
		{
			name: "input is not a struct pointer",
			runner: &Runner{
				NewInput: func() any { return "oops" },
				Fn:       func(scheduler.TaskContext, any) error { return nil },
			},
			wantErr: ErrInvalidInputType,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.runner.Decode(tc.args)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestDecode_ConversionError(t *testing.T) {
	_, err := greetRunner().Decode(map[string]cty.Value{
		"message": cty.StringVal("x"),
		"times":   cty.StringVal("three"),
		"tags":    cty.EmptyTupleVal,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `argument "times"`)
}

func TestDecode_NoInput(t *testing.T) {
	input, err := (&Runner{Fn: func(scheduler.TaskContext, any) error { return nil }}).Decode(nil)
	require.NoError(t, err)
	assert.Nil(t, input)
}

func TestDecodeModel(t *testing.T) {
	// --- Arrange ---
	r := New()
	r.RegisterRunner("greet", greetRunner())
	good := &graph.Task{Name: "good", Runner: "greet", Instances: 1, Args: map[string]cty.Value{
		"message": cty.StringVal("x"), "times": cty.NumberIntVal(2), "tags": cty.EmptyTupleVal,
	}}
	badArgs := &graph.Task{Name: "bad-args", Runner: "greet", Instances: 1, Source: "f.hcl:9"}
	unknown := &graph.Task{Name: "unknown", Runner: "nope", Instances: 1, Source: "f.hcl:3"}
	good.Children = []*graph.Task{badArgs}
	m := &graph.Model{Tasks: []*graph.Task{good, unknown}}

	// --- Act ---
	inputs, err := r.DecodeModel(m)

	// --- Assert ---
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownRunner)
	assert.ErrorIs(t, err, ErrMissingArgument)
	assert.Contains(t, err.Error(), "f.hcl:9")
	assert.Contains(t, err.Error(), "f.hcl:3")
	require.Contains(t, inputs, "good")
	assert.Equal(t, 2, inputs["good"].(*greetInput).Times)
}

func TestTyped_PassesInput(t *testing.T) {
	var got *greetInput
	sentinel := errors.New("sentinel")
	runner := Typed(func(_ scheduler.TaskContext, in *greetInput) error {
		got = in
		return sentinel
	})

	in := &greetInput{Message: "x"}
	err := runner.Fn(scheduler.TaskContext{}, in)

	require.ErrorIs(t, err, sentinel)
	assert.Same(t, in, got)
}
