package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/specialistvlad/framesched/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Flags(t *testing.T) {
	// --- Arrange ---
	out := &bytes.Buffer{}
	args := []string{
		"-g", "graphs/",
		"--frames", "10",
		"-w", "3",
		"--max-tasks", "128",
		"--log-level", "DEBUG",
		"--log-format", "json",
		"--healthcheck-port", "8080",
	}

	// --- Act ---
	cfg, shouldExit, err := Parse(args, out)

	// --- Assert ---
	require.NoError(t, err)
	assert.False(t, shouldExit)
	assert.Equal(t, &app.Config{
		GraphPath:       "graphs/",
		Frames:          10,
		Workers:         3,
		MaxTasks:        128,
		LogLevel:        "debug",
		LogFormat:       "json",
		HealthcheckPort: 8080,
	}, cfg)
}

func TestParse_PositionalPathAndDefaults(t *testing.T) {
	cfg, shouldExit, err := Parse([]string{"main.hcl"}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.False(t, shouldExit)
	assert.Equal(t, "main.hcl", cfg.GraphPath)
	assert.Equal(t, 1, cfg.Frames)
	assert.Equal(t, 0, cfg.Workers)
	assert.Equal(t, app.DefaultMaxTasks, cfg.MaxTasks)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestParse_HelpAndNoPath(t *testing.T) {
	for _, args := range [][]string{{"-h"}, {"--help"}, {}} {
		out := &bytes.Buffer{}

		cfg, shouldExit, err := Parse(args, out)

		require.NoError(t, err, "args %v", args)
		assert.True(t, shouldExit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
		assert.Contains(t, out.String(), "--max-tasks")
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{name: "unknown flag", args: []string{"--nope"}, wantMsg: "unknown flag: --nope"},
		{name: "bad number", args: []string{"--frames", "many", "g.hcl"}, wantMsg: "invalid argument"},
		{name: "too many args", args: []string{"a.hcl", "b.hcl"}, wantMsg: "accepts at most 1 arg"},
		{name: "invalid level", args: []string{"--log-level", "loud", "g.hcl"}, wantMsg: "invalid log-level"},
		{name: "zero frames", args: []string{"--frames", "0", "g.hcl"}, wantMsg: "frames must be at least 1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, shouldExit, err := Parse(tc.args, &bytes.Buffer{})

			require.Error(t, err)
			assert.False(t, shouldExit)
			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}
