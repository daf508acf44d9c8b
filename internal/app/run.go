package app

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/framesched/internal/ctxlog"
	"github.com/specialistvlad/framesched/internal/events"
)

// Run executes the configured number of frames, printing a summary line per
// frame. It returns an error when the run was cancelled, the pool failed, or
// any frame had failed tasks; the remaining frames still run in the last case.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.healthCheckServer()

	if a.model.Count() == 0 {
		a.logger.Warn("No tasks found in frame graph, execution not required.")
		return nil
	}

	subCtx, stop := context.WithCancel(ctx)
	defer stop()
	finished, err := a.bus.Subscribe(subCtx, events.TopicFrameFinished)
	if err != nil {
		return err
	}
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		a.printFrames(finished, a.config.Frames)
	}()

	a.logger.Info("🚀 Starting frames...",
		"frames", a.config.Frames,
		"workers", a.pool.ThreadsNumber(),
		"tasks", a.model.Count(),
		"instances", a.model.Instances(),
	)
	start := time.Now()

	var (
		failedFrames int
		instances    int64
		firstErr     error
	)
	for frameNo := 1; frameNo <= a.config.Frames; frameNo++ {
		if err := ctx.Err(); err != nil {
			stop()
			<-printed
			return fmt.Errorf("execution cancelled after %d frames: %w", frameNo-1, err)
		}

		report, err := a.driver.Run(ctx, frameNo)
		if report == nil {
			stop()
			<-printed
			return fmt.Errorf("execution failed: %w", err)
		}

		instances += report.Instances
		a.framesCompleted.Add(1)
		if err != nil {
			a.framesFailed.Add(1)
			failedFrames++
			if firstErr == nil {
				firstErr = err
			}
			a.logger.Warn("Frame finished with failed tasks.", "frame", frameNo, "failed", report.Failed())
		}
	}

	<-printed
	a.printTotals(a.config.Frames, failedFrames, instances, time.Since(start))
	a.logger.Info("🏁 Execution finished.")

	if failedFrames > 0 {
		return fmt.Errorf("%d of %d frames had failed tasks: %w", failedFrames, a.config.Frames, firstErr)
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}
