// Package profiler - Operation timing for the pose pipeline.
package profiler

import (
	"sort"
	"sync"
	"time"
)

// Operation names recorded by the estimator and the frame pipeline.
const (
	OperationPreprocess  = "preprocess"
	OperationInference   = "inference"
	OperationPostprocess = "postprocess"
	OperationTotal       = "total"
)

// Stats is a snapshot of one operation's timing statistics.
type Stats struct {
	Name  string        `json:"name"`
	Count int64         `json:"count"`
	Last  time.Duration `json:"last"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	// Average is computed over the sliding window of recent samples.
	Average time.Duration `json:"average"`
	// FPS is the rate implied by Average.
	FPS float64 `json:"fps"`
}

// TimeTracker tracks operation timing statistics.
type TimeTracker struct {
	name       string
	durations  []time.Duration
	maxSamples int
	totalTime  time.Duration
	minTime    time.Duration
	maxTime    time.Duration
	lastTime   time.Duration
	count      int64
}

// NewTimeTracker creates a tracker keeping at most maxSamples durations in its averaging window.
func NewTimeTracker(name string, maxSamples int) *TimeTracker {
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	return &TimeTracker{
		name:       name,
		durations:  make([]time.Duration, 0, maxSamples),
		maxSamples: maxSamples,
	}
}

// Record adds a duration sample.
func (t *TimeTracker) Record(duration time.Duration) {
	if t.count == 0 || duration < t.minTime {
		t.minTime = duration
	}
	if duration > t.maxTime {
		t.maxTime = duration
	}

	t.durations = append(t.durations, duration)
	if len(t.durations) > t.maxSamples {
		// Remove oldest sample
		t.totalTime -= t.durations[0]
		t.durations = t.durations[1:]
	}

	t.totalTime += duration
	t.lastTime = duration
	t.count++
}

// Stats returns the current statistics of the tracker.
func (t *TimeTracker) Stats() Stats {
	s := Stats{
		Name:  t.name,
		Count: t.count,
		Last:  t.lastTime,
		Min:   t.minTime,
		Max:   t.maxTime,
	}
	if n := len(t.durations); n > 0 {
		s.Average = t.totalTime / time.Duration(n)
		if s.Average > 0 {
			s.FPS = float64(time.Second) / float64(s.Average)
		}
	}
	return s
}

// DefaultMaxSamples keeps roughly ten seconds of samples at 30 FPS.
const DefaultMaxSamples = 300

// Profiler collects TimeTrackers by operation name. It is safe for concurrent use.
type Profiler struct {
	mu         sync.Mutex
	maxSamples int
	operations map[string]*TimeTracker
}

// New creates a profiler.
//
// Arguments:
//   - maxSamples: The averaging window per operation; 0 selects DefaultMaxSamples.
//
// Returns:
//   - A ready to use Profiler.
func New(maxSamples int) *Profiler {
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	return &Profiler{
		maxSamples: maxSamples,
		operations: make(map[string]*TimeTracker),
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
//   - name: The name of the operation to track.
//
// Returns:
//   - A function to call when the operation completes. It returns the measured duration.
func (p *Profiler) StartOperation(name string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		duration := time.Since(start)
		p.Record(name, duration)
		return duration
	}
}

// Record records the completion time of an operation.
func (p *Profiler) Record(name string, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.operations[name]
	if !exists {
		tracker = NewTimeTracker(name, p.maxSamples)
		p.operations[name] = tracker
	}
	tracker.Record(duration)
}

// Stats returns the statistics of one operation and whether it has been recorded.
func (p *Profiler) Stats(name string) (Stats, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.operations[name]
	if !exists {
		return Stats{Name: name}, false
	}
	return tracker.Stats(), true
}

// Snapshot returns the statistics of every recorded operation sorted by name.
func (p *Profiler) Snapshot() []Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Stats, 0, len(p.operations))
	for _, tracker := range p.operations {
		out = append(out, tracker.Stats())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
