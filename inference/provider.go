package inference

import (
	"strconv"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// Provider is an ONNX Runtime execution provider.
type Provider string

const (
	// ProviderCPU runs the model on the default CPU provider.
	ProviderCPU Provider = "cpu"
	// ProviderCUDA uses NVIDIA CUDA for GPU acceleration.
	ProviderCUDA Provider = "cuda"
	// ProviderCoreML uses Apple CoreML for macOS/iOS acceleration.
	ProviderCoreML Provider = "coreml"
	// ProviderOpenVINO uses Intel OpenVINO.
	ProviderOpenVINO Provider = "openvino"
)

// Providers lists the supported execution providers.
var Providers = []Provider{ProviderCPU, ProviderCUDA, ProviderCoreML, ProviderOpenVINO}

// ParseProvider resolves a provider name; the empty name selects the CPU.
func ParseProvider(name string) (Provider, error) {
	if name == "" {
		return ProviderCPU, nil
	}
	for _, p := range Providers {
		if string(p) == name {
			return p, nil
		}
	}
	return "", errors.Errorf("unsupported execution provider %q", name)
}

// providerSettings are the provider-specific key/value options handed to ONNX Runtime.
//
// See:
//   - https://onnxruntime.ai/docs/execution-providers/CUDA-ExecutionProvider.html#configuration-options
//   - https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html#summary-of-options
func providerSettings(opts SessionOptions) map[string]string {
	switch opts.Provider {
	case ProviderCUDA:
		return map[string]string{
			"device_id": strconv.Itoa(opts.DeviceID),
		}
	case ProviderOpenVINO:
		deviceType := opts.DeviceType
		if deviceType == "" {
			deviceType = "CPU"
		}
		return map[string]string{
			"device_type": deviceType,
		}
	default:
		return nil
	}
}

// appendProvider enables the configured execution provider on the session options.
// The CPU provider is always available and needs no registration.
func appendProvider(options *ort.SessionOptions, opts SessionOptions) error {
	provider, err := ParseProvider(string(opts.Provider))
	if err != nil {
		return err
	}

	switch provider {
	case ProviderCUDA:
		cuda, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return errors.Wrap(err, "error creating CUDA options")
		}
		defer cuda.Destroy()
		if err := cuda.Update(providerSettings(opts)); err != nil {
			return errors.Wrap(err, "error updating CUDA options")
		}
		if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
			return errors.Wrap(err, "error enabling CUDA")
		}
	case ProviderCoreML:
		if err := options.AppendExecutionProviderCoreML(0); err != nil {
			return errors.Wrap(err, "error enabling CoreML")
		}
	case ProviderOpenVINO:
		if err := options.AppendExecutionProviderOpenVINO(providerSettings(opts)); err != nil {
			return errors.Wrap(err, "error enabling OpenVINO")
		}
	}
	return nil
}
