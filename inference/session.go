// Package inference - Pose inference engine backed by ONNX Runtime.
package inference

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-pose/models/model"
)

// Runner executes one forward pass over a preprocessed input buffer.
type Runner interface {
	// Run copies input into the model input, runs the model and returns a copy of the output
	// with its shape.
	Run(input []float32) ([]float32, []int64, error)
	Close() error
}

// SessionOptions configures an ONNX Runtime session.
type SessionOptions struct {
	// LibraryPath is the ONNX Runtime shared library; see SharedLibPath.
	LibraryPath string `json:"library_path" yaml:"library_path"`
	// IntraOpThreads is the thread count used inside graph nodes. 0 lets the runtime decide.
	IntraOpThreads int `json:"intra_op_threads" yaml:"intra_op_threads"`
	// InterOpThreads is the thread count used across independent graph nodes. 0 lets the
	// runtime decide.
	InterOpThreads int `json:"inter_op_threads" yaml:"inter_op_threads"`
	// InputName and OutputName select the model's tensors. Empty names are read from the model.
	InputName  string `json:"input_name" yaml:"input_name"`
	OutputName string `json:"output_name" yaml:"output_name"`
	// Provider selects the execution provider; empty means CPU.
	Provider Provider `json:"provider" yaml:"provider"`
	// DeviceID is the CUDA device.
	DeviceID int `json:"device_id" yaml:"device_id"`
	// DeviceType is the OpenVINO device type, e.g. "CPU" or "GPU".
	DeviceType string `json:"device_type" yaml:"device_type"`
}

var environmentMu sync.Mutex

// initializeEnvironment loads the shared library and prepares the runtime once per process.
func initializeEnvironment(libPath string) error {
	environmentMu.Lock()
	defer environmentMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if _, err := os.Stat(libPath); err != nil {
		return errors.Wrapf(err, "ONNX Runtime library not found at %s", libPath)
	}
	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "error initializing ORT environment")
	}
	return nil
}

// Session represents a pose model session from the onnxruntime with preallocated NHWC tensors.
// Run is serialized; the tensors are shared between calls.
type Session struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// NewSession creates a new ONNX Runtime session for a pose model.
//
// Order of operations:
//  1. Environment setup: loads the native library once per process.
//  2. Tensor allocation: fixed-shape input/output buffers from the model configuration.
//  3. Session options: threading, graph optimization and the execution provider.
//  4. Session creation: loads the model and binds the tensors.
//
// Arguments:
//   - modelPath: Path to the ONNX model file.
//   - cfg: The model configuration describing the tensor shapes.
//   - opts: Runtime options.
//
// Returns:
//   - *Session: The ready session. The caller must Close it.
//   - error: An error if the library or model cannot be loaded.
func NewSession(modelPath string, cfg model.Config, opts SessionOptions) (*Session, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, errors.Wrapf(err, "model %s not found", modelPath)
	}
	if err := initializeEnvironment(SharedLibPath(opts.LibraryPath)); err != nil {
		return nil, err
	}

	inputName, outputName, err := tensorNames(modelPath, opts)
	if err != nil {
		return nil, err
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(cfg.InputShape()...))
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(cfg.OutputShape()...))
	if err != nil {
		input.Destroy()
		return nil, errors.Wrap(err, "error creating output tensor")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "error creating ORT session options")
	}
	defer options.Destroy()

	if err := options.SetIntraOpNumThreads(opts.IntraOpThreads); err != nil {
		return nil, destroyOnError(errors.Wrap(err, "error setting intra-op threads"), input, output)
	}
	if err := options.SetInterOpNumThreads(opts.InterOpThreads); err != nil {
		return nil, destroyOnError(errors.Wrap(err, "error setting inter-op threads"), input, output)
	}
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		return nil, destroyOnError(errors.Wrap(err, "error setting graph optimization level"), input, output)
	}
	if err := appendProvider(options, opts); err != nil {
		return nil, destroyOnError(err, input, output)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{inputName},
		[]string{outputName},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		options,
	)
	if err != nil {
		return nil, destroyOnError(errors.Wrap(err, "error creating ORT session"), input, output)
	}

	return &Session{
		session: session,
		input:   input,
		output:  output,
	}, nil
}

// tensorNames returns the configured input/output names, reading missing ones from the model.
func tensorNames(modelPath string, opts SessionOptions) (string, string, error) {
	if opts.InputName != "" && opts.OutputName != "" {
		return opts.InputName, opts.OutputName, nil
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return "", "", errors.Wrapf(err, "error reading tensor names of %s", modelPath)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return "", "", errors.Errorf("model %s declares %d inputs and %d outputs", modelPath, len(inputs), len(outputs))
	}

	inputName, outputName := opts.InputName, opts.OutputName
	if inputName == "" {
		inputName = inputs[0].Name
	}
	if outputName == "" {
		outputName = outputs[0].Name
	}
	return inputName, outputName, nil
}

func destroyOnError(err error, tensors ...*ort.Tensor[float32]) error {
	for _, t := range tensors {
		t.Destroy()
	}
	return err
}

// Run executes one forward pass.
//
// Arguments:
//   - input: The preprocessed NHWC input; it must match the input tensor size.
//
// Returns:
//   - The copied output values, the output shape, or an error.
func (s *Session) Run(input []float32) ([]float32, []int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, nil, errors.New("session is closed")
	}

	dst := s.input.GetData()
	if len(input) != len(dst) {
		return nil, nil, errors.Errorf("input holds %d floats, model expects %d", len(input), len(dst))
	}
	copy(dst, input)

	if err := s.session.Run(); err != nil {
		return nil, nil, errors.Wrap(err, "error running ORT session")
	}

	out := make([]float32, len(s.output.GetData()))
	copy(out, s.output.GetData())
	shape := s.output.GetShape()

	return out, []int64(shape.Clone()), nil
}

// Close releases the resources associated with the Session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	if s.output != nil {
		s.output.Destroy()
		s.output = nil
	}
	if s.session != nil {
		err := s.session.Destroy()
		s.session = nil
		if err != nil {
			return errors.Wrap(err, "error destroying ORT session")
		}
	}
	return nil
}
