package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/specialistvlad/framesched/internal/ctxlog"
	"github.com/specialistvlad/framesched/internal/events"
	"github.com/specialistvlad/framesched/internal/frame"
	"github.com/specialistvlad/framesched/internal/graph"
	"github.com/specialistvlad/framesched/internal/registry"
	"github.com/specialistvlad/framesched/internal/scheduler"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	outW   io.Writer
	logger *slog.Logger
	config *Config
	runID  string

	registry *registry.Registry
	model    *graph.Model
	pool     *scheduler.Pool
	driver   *frame.Driver
	bus      *events.Bus

	httpServer      *http.Server
	framesCompleted atomic.Int64
	framesFailed    atomic.Int64
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, registry and
// pool. Startup failures (an unreadable graph, an unknown runner, bad
// arguments) are unrecoverable and panic; the entrypoint recovers them.
func NewApp(ctx context.Context, outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	runID := uuid.NewString()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, runID, outW)
	ctx, cancel := context.WithCancel(ctxlog.WithLogger(ctx, logger))
	logger.Debug("Logger configured successfully.")

	// Create and populate the registry with Go handlers.
	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules()
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "runners", reg.Names())

	model, err := loadGraph(ctx, cfg.GraphPath)
	if err != nil {
		cancel()
		panic(fmt.Errorf("failed to load frame graph: %w", err))
	}

	pool, err := scheduler.New(ctx, cfg.MaxTasks, cfg.Workers)
	if err != nil {
		cancel()
		panic(fmt.Errorf("failed to create worker pool: %w", err))
	}

	bus := events.NewBus(ctx)
	driver, err := frame.New(pool, reg, model, frame.WithPublisher(bus, runID))
	if err != nil {
		cancel()
		_ = bus.Close()
		panic(err)
	}
	logger.Debug("Frame driver ready.", "tasks", driver.Tasks())

	return &App{
		ctx:      ctx,
		cancel:   cancel,
		outW:     outW,
		logger:   logger,
		config:   cfg,
		runID:    runID,
		registry: reg,
		model:    model,
		pool:     pool,
		driver:   driver,
		bus:      bus,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded frame graph.
func (a *App) Model() *graph.Model {
	return a.model
}

// RunID returns the identifier attached to every log line and event of this app.
func (a *App) RunID() string {
	return a.runID
}

// Close releases the pool, the event bus and the health check server. It is
// safe to call more than once.
func (a *App) Close() error {
	err := a.closeHealthCheckServer()
	a.pool.Close()
	if busErr := a.bus.Close(); busErr != nil && err == nil {
		err = busErr
	}
	a.cancel()
	return err
}
