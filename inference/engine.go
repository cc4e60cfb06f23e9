package inference

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-pose/heatmap"
	"github.com/nvr-ai/go-pose/models"
	"github.com/nvr-ai/go-pose/models/model"
	"github.com/nvr-ai/go-pose/models/model/preprocess"
	"github.com/nvr-ai/go-pose/profiler"
)

// Engine estimates the keypoints of the dominant subject in a frame.
type Engine interface {
	Estimate(ctx context.Context, img image.Image) (heatmap.KeypointSet, error)
}

// Estimator is the Engine running a pose model: preprocess, one forward pass, batch-0 output
// conversion and heatmap decoding. It is safe for concurrent use.
type Estimator struct {
	model    model.Model
	pre      *preprocess.Preprocessor
	runner   Runner
	log      logrus.FieldLogger
	profiler *profiler.Profiler
	buffers  sync.Pool
}

// Model returns the model the estimator runs.
func (e *Estimator) Model() model.Model {
	return e.model
}

// Profiler returns the per-stage timings of the estimator.
func (e *Estimator) Profiler() *profiler.Profiler {
	return e.profiler
}

// Estimate runs the model over one frame.
//
// Arguments:
//   - ctx: Checked between stages; a cancelled context aborts before the next stage.
//   - img: The frame.
//
// Returns:
//   - heatmap.KeypointSet: One slot per model output channel.
//   - error: ErrInvalidImage, ErrInvalidResults (both wrapped), a runtime error or ctx.Err().
func (e *Estimator) Estimate(ctx context.Context, img image.Image) (heatmap.KeypointSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stopTotal := e.profiler.StartOperation(profiler.OperationTotal)
	defer stopTotal()

	buf := e.buffers.Get().(*[]float32)
	defer e.buffers.Put(buf)

	stop := e.profiler.StartOperation(profiler.OperationPreprocess)
	err := e.pre.Preprocess(img, *buf)
	stop()
	if err != nil {
		return nil, errors.Wrap(err, "preprocess")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stop = e.profiler.StartOperation(profiler.OperationInference)
	data, shape, err := e.runner.Run(*buf)
	elapsed := stop()
	if err != nil {
		return nil, errors.Wrap(err, "inference")
	}

	stop = e.profiler.StartOperation(profiler.OperationPostprocess)
	defer stop()

	confidence, err := ToConfidenceTensor(data, shape)
	if err != nil {
		return nil, err
	}
	set := e.model.PostProcess(confidence)

	e.log.WithFields(logrus.Fields{
		"model":     e.model.Config().Name,
		"shape":     shape,
		"keypoints": set.Count(),
		"inference": elapsed.Round(time.Microsecond),
	}).Debug("estimated pose")

	return set, nil
}

// Close releases the runner.
func (e *Estimator) Close() error {
	return e.runner.Close()
}

// EngineBuilder assembles an Estimator with a fluent API.
type EngineBuilder struct {
	model     model.Model
	runner    Runner
	log       logrus.FieldLogger
	profiler  *profiler.Profiler
	quantized bool
	err       error
}

// NewEngineBuilder creates a new engine builder.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func NewEngineBuilder() *EngineBuilder {
	return &EngineBuilder{}
}

// WithModel sets the model for the engine.
//
// Arguments:
//   - args: The model arguments.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func (b *EngineBuilder) WithModel(args model.NewModelArgs) *EngineBuilder {
	if b.HasError() {
		return b
	}
	m, err := models.NewModel(args)
	if err != nil {
		b.err = err
		return b
	}
	b.model = m
	return b
}

// WithQuantized selects the [-1, 1] input normalization of quantized models.
func (b *EngineBuilder) WithQuantized(quantized bool) *EngineBuilder {
	b.quantized = quantized
	return b
}

// WithSession opens an ONNX Runtime session for the configured model. WithModel must be called
// first.
//
// Arguments:
//   - modelPath: The model file.
//   - opts: Runtime options.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func (b *EngineBuilder) WithSession(modelPath string, opts SessionOptions) *EngineBuilder {
	if b.HasError() {
		return b
	}
	if b.model == nil {
		b.err = errors.New("model must be configured before the session")
		return b
	}
	session, err := NewSession(modelPath, b.model.Config(), opts)
	if err != nil {
		b.err = err
		return b
	}
	b.runner = session
	return b
}

// WithRunner sets the runner directly, replacing any session.
func (b *EngineBuilder) WithRunner(runner Runner) *EngineBuilder {
	b.runner = runner
	return b
}

// WithLogger sets the logger of the engine.
func (b *EngineBuilder) WithLogger(log logrus.FieldLogger) *EngineBuilder {
	b.log = log
	return b
}

// WithProfiler sets the profiler recording per-stage timings.
func (b *EngineBuilder) WithProfiler(p *profiler.Profiler) *EngineBuilder {
	b.profiler = p
	return b
}

// HasError checks if the engine builder has errors.
//
// Returns:
//   - bool: True if there are errors, false otherwise.
func (b *EngineBuilder) HasError() bool {
	return b.err != nil
}

// Build builds the engine.
//
// Returns:
//   - *Estimator: The engine.
//   - error: The error if any. A runner opened by WithSession is closed on failure.
func (b *EngineBuilder) Build() (*Estimator, error) {
	if b.HasError() {
		return nil, b.err
	}
	if b.model == nil {
		return nil, errors.New("model not configured")
	}
	if b.runner == nil {
		return nil, errors.New("runner not configured")
	}

	pre, err := preprocess.NewPreprocessor(preprocess.ConfigFor(b.model.Config(), b.quantized))
	if err != nil {
		b.runner.Close()
		return nil, errors.Wrap(err, "preprocessor")
	}

	log := b.log
	if log == nil {
		log = logrus.StandardLogger()
	}
	prof := b.profiler
	if prof == nil {
		prof = profiler.New(0)
	}

	size := pre.Config().Size()
	e := &Estimator{
		model:    b.model,
		pre:      pre,
		runner:   b.runner,
		log:      log.WithField("component", "estimator"),
		profiler: prof,
	}
	e.buffers.New = func() interface{} {
		buf := make([]float32, size)
		return &buf
	}
	return e, nil
}

// MustBuild builds the engine and panics if there is an error.
//
// Returns:
//   - *Estimator: The engine.
func (b *EngineBuilder) MustBuild() *Estimator {
	e, err := b.Build()
	if err != nil {
		panic(err)
	}
	return e
}
