package print

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/framesched/internal/registry"
	"github.com/specialistvlad/framesched/internal/scheduler"
	"github.com/specialistvlad/framesched/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestRun_PrintsMessage(t *testing.T) {
	// --- Arrange ---
	out := &bytes.Buffer{}
	m := &Module{Out: out}
	reg := registry.New()
	m.Register(reg)
	runner, err := reg.Runner("print")
	require.NoError(t, err)

	input, err := runner.Decode(map[string]cty.Value{"message": cty.StringVal("hello")})
	require.NoError(t, err)

	// --- Act ---
	err = testutil.RunTask(t, 5*time.Second, func(tc scheduler.TaskContext) error {
		return runner.Fn(tc, input)
	})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "      [task(0) #0 w0] hello\n", out.String())
}

func TestRun_NullMessage(t *testing.T) {
	out := &bytes.Buffer{}
	m := &Module{Out: out}

	err := testutil.RunTask(t, 5*time.Second, func(tc scheduler.TaskContext) error {
		return m.Run(tc, &Input{})
	})

	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out.String(), "(null)\n"))
}
