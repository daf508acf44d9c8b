package cli

import (
	"errors"
	"io"
	"log/slog"

	"github.com/specialistvlad/framesched/internal/app"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// flags holds the raw flag values before validation.
type flags struct {
	graph           string
	frames          int
	workers         int
	maxTasks        int
	logLevel        string
	logFormat       string
	healthcheckPort int
}

// newRootCmd builds the framesched command. onConfig receives the validated
// configuration when the command runs.
func newRootCmd(output io.Writer, onConfig func(*app.Config)) *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "framesched [flags] [GRAPH_PATH]",
		Short: "framesched - a frame-scoped, dependency-aware parallel task scheduler.",
		Long: `framesched - a frame-scoped, dependency-aware parallel task scheduler.

Runs a frame graph (tasks with instances, dependencies and nested
children) on a fixed worker pool, once per frame.

Arguments:
  GRAPH_PATH
    Path to a single .hcl/.yaml file or a directory containing them.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := f.graph
			if path == "" && len(args) > 0 {
				path = args[0]
			}
			slog.Debug("Graph path determined.", "path", path)

			if path == "" {
				slog.Debug("No graph path provided, printing usage and exiting.")
				return cmd.Help()
			}

			config, err := app.NewConfig(app.Config{
				GraphPath:       path,
				Frames:          f.frames,
				Workers:         f.workers,
				MaxTasks:        f.maxTasks,
				LogLevel:        f.logLevel,
				LogFormat:       f.logFormat,
				HealthcheckPort: f.healthcheckPort,
			})
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			onConfig(config)
			return nil
		},
	}
	cmd.SetOut(output)
	cmd.SetErr(output)

	fs := cmd.Flags()
	fs.StringVarP(&f.graph, "graph", "g", "", "Path to the frame graph file or directory.")
	fs.IntVar(&f.frames, "frames", 1, "Number of frames to run.")
	fs.IntVarP(&f.workers, "workers", "w", 0, "Number of worker goroutines. 0 means GOMAXPROCS.")
	fs.IntVar(&f.maxTasks, "max-tasks", app.DefaultMaxTasks, "Task arena capacity per frame.")
	fs.StringVar(&f.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	fs.StringVar(&f.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	fs.IntVar(&f.healthcheckPort, "healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	return cmd
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var config *app.Config
	cmd := newRootCmd(output, func(c *app.Config) { config = c })
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if config == nil {
		// Help was printed.
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
