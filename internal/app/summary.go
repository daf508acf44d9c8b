package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/specialistvlad/framesched/internal/events"
)

var (
	okColor     = color.New(color.FgGreen, color.Bold)
	failColor   = color.New(color.FgRed, color.Bold)
	headerColor = color.New(color.FgCyan, color.Bold)
)

// printFrames prints one line per frame.finished event until n events were
// printed or the channel is closed.
func (a *App) printFrames(ch <-chan events.FrameEvent, n int) {
	for i := 0; i < n; i++ {
		ev, ok := <-ch
		if !ok {
			return
		}
		a.printFrame(ev)
	}
}

func (a *App) printFrame(ev events.FrameEvent) {
	status := okColor.Sprint("OK")
	if len(ev.Failed) > 0 {
		status = failColor.Sprint("FAILED")
	}
	line := fmt.Sprintf("frame %d %s tasks=%d instances=%d duration=%s",
		ev.Frame, status, ev.Tasks, ev.Instances, time.Duration(ev.Duration))
	if len(ev.Failed) > 0 {
		line += " failed=" + strings.Join(ev.Failed, ",")
	}
	fmt.Fprintln(a.outW, line)
}

func (a *App) printTotals(frames, failed int, instances int64, elapsed time.Duration) {
	headerColor.Fprintf(a.outW, "%d frames, %d failed, %d instances in %s\n", frames, failed, instances, elapsed.Round(time.Microsecond))
}
