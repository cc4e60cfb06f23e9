// Package pipeline - Single-slot admission of camera frames into a pose engine.
package pipeline

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-pose/heatmap"
	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/profiler"
)

// OperationEstimate is the profiler operation timing one admitted frame.
const OperationEstimate = "estimate"

// Frame is a single frame of video.
type Frame struct {
	ID        int64
	Image     image.Image
	Timestamp time.Time
}

// Result is the outcome of one admitted frame.
type Result struct {
	FrameID   int64
	Timestamp time.Time
	// Bounds are the bounds of the frame image.
	Bounds    image.Rectangle
	Keypoints heatmap.KeypointSet
	// Err is set when the estimate failed or timed out; Keypoints is nil then.
	Err error
	// Inference is the wall time spent in the engine.
	Inference time.Duration
}

// Handler receives the result of every admitted frame, on the estimating goroutine.
type Handler func(Result)

// Options configures a Dispatcher.
type Options struct {
	// Timeout bounds a single estimate. 0 disables the deadline.
	Timeout time.Duration
	// Logger receives admission and failure logs. Defaults to the logrus standard logger.
	Logger logrus.FieldLogger
}

// Stats are the counters of a Dispatcher.
type Stats struct {
	Submitted int64 `json:"submitted"`
	Admitted  int64 `json:"admitted"`
	Dropped   int64 `json:"dropped"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	// Estimate times the engine call of admitted frames.
	Estimate profiler.Stats `json:"estimate"`
}

// Dispatcher admits at most one frame at a time into an engine. Frames submitted while an
// estimate is in flight are dropped, never queued.
type Dispatcher struct {
	engine  inference.Engine
	handler Handler
	timeout time.Duration
	log     logrus.FieldLogger

	busy atomic.Bool

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	submitted atomic.Int64
	admitted  atomic.Int64
	dropped   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64

	profiler *profiler.Profiler
}

// NewDispatcher creates a dispatcher.
//
// Arguments:
//   - engine: The engine estimating admitted frames.
//   - handler: Receives every result. May be nil.
//   - opts: Timeout and logger.
//
// Returns:
//   - *Dispatcher: The idle dispatcher.
func NewDispatcher(engine inference.Engine, handler Handler, opts Options) *Dispatcher {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	if handler == nil {
		handler = func(Result) {}
	}
	return &Dispatcher{
		engine:   engine,
		handler:  handler,
		timeout:  opts.Timeout,
		log:      log.WithField("component", "dispatcher"),
		profiler: profiler.New(0),
	}
}

// Submit offers a frame. The frame is admitted only when no estimate is in flight and the
// dispatcher is open; the estimate then runs on its own goroutine.
//
// Arguments:
//   - frame: The frame to estimate.
//
// Returns:
//   - bool: True if the frame was admitted, false if it was dropped.
func (d *Dispatcher) Submit(frame Frame) bool {
	d.submitted.Add(1)

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed || !d.busy.CompareAndSwap(false, true) {
		d.dropped.Add(1)
		d.log.WithField("frame", frame.ID).Trace("frame dropped")
		return false
	}

	d.admitted.Add(1)
	d.wg.Add(1)
	go d.estimate(frame)
	return true
}

// Busy reports whether an estimate is in flight.
func (d *Dispatcher) Busy() bool {
	return d.busy.Load()
}

func (d *Dispatcher) estimate(frame Frame) {
	defer d.wg.Done()
	defer d.busy.Store(false)

	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	set, err := d.engine.Estimate(ctx, frame.Image)
	elapsed := time.Since(start)
	d.profiler.Record(OperationEstimate, elapsed)

	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
		set = nil
	}

	if err != nil {
		d.failed.Add(1)
		d.log.WithFields(logrus.Fields{
			"frame": frame.ID,
			"error": err,
		}).Warn("estimate failed")
	} else {
		d.completed.Add(1)
	}

	var bounds image.Rectangle
	if frame.Image != nil {
		bounds = frame.Image.Bounds()
	}

	d.handler(Result{
		FrameID:   frame.ID,
		Timestamp: frame.Timestamp,
		Bounds:    bounds,
		Keypoints: set,
		Err:       err,
		Inference: elapsed,
	})
}

// Stats returns the current counters.
func (d *Dispatcher) Stats() Stats {
	estimate, _ := d.profiler.Stats(OperationEstimate)
	return Stats{
		Submitted: d.submitted.Load(),
		Admitted:  d.admitted.Load(),
		Dropped:   d.dropped.Load(),
		Completed: d.completed.Load(),
		Failed:    d.failed.Load(),
		Estimate:  estimate,
	}
}

// Close stops admitting frames and waits for the in-flight estimate and its handler to finish.
// It is safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.wg.Wait()
}
