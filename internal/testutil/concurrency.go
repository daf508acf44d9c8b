package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/specialistvlad/framesched/internal/registry"
	"github.com/specialistvlad/framesched/internal/scheduler"
)

// RecorderModule registers a "record" runner that sleeps for a fixed time
// and records when every instance ran. Tasks using it take an "id" argument.
type RecorderModule struct {
	mu      sync.Mutex
	records []ExecutionRecord
	sleep   time.Duration
}

// NewRecorderModule creates a recorder whose instances sleep for sleep.
func NewRecorderModule(sleep time.Duration) *RecorderModule {
	return &RecorderModule{sleep: sleep}
}

type recorderInput struct {
	ID string `cty:"id"`
}

// Register implements the registry.Module interface.
func (m *RecorderModule) Register(r *registry.Registry) {
	r.RegisterRunner("record", registry.Typed(func(tc scheduler.TaskContext, in *recorderInput) error {
		start := time.Now()
		time.Sleep(m.sleep)
		end := time.Now()

		m.mu.Lock()
		m.records = append(m.records, ExecutionRecord{Task: in.ID, Instance: tc.InstanceID, Start: start, End: end})
		m.mu.Unlock()
		return nil
	}))
}

// Records returns the executions recorded so far, ordered by start time.
func (m *RecorderModule) Records() []ExecutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]ExecutionRecord(nil), m.records...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// Span returns the earliest start and latest end of task's instances.
func (m *RecorderModule) Span(task string) (start, end time.Time, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.Task != task {
			continue
		}
		if !ok || rec.Start.Before(start) {
			start = rec.Start
		}
		if !ok || rec.End.After(end) {
			end = rec.End
		}
		ok = true
	}
	return start, end, ok
}

// Reset forgets every record.
func (m *RecorderModule) Reset() {
	m.mu.Lock()
	m.records = nil
	m.mu.Unlock()
}
