// Package config - YAML configuration with .env overrides for the pose services.
package config

import (
	"bytes"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-pose/heatmap"
	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/logger"
	"github.com/nvr-ai/go-pose/models/model"
)

// Environment variables overriding file values.
const (
	EnvModel       = "POSE_MODEL"
	EnvModelPath   = "POSE_MODEL_PATH"
	EnvLibraryPath = "POSE_LIBRARY_PATH"
	EnvLogLevel    = "POSE_LOG_LEVEL"
	EnvListen      = "POSE_LISTEN"
)

// Config is the configuration of the pose CLI and service.
type Config struct {
	Model    ModelConfig    `json:"model" yaml:"model"`
	Runtime  RuntimeConfig  `json:"runtime" yaml:"runtime"`
	Pipeline PipelineConfig `json:"pipeline" yaml:"pipeline"`
	Render   RenderConfig   `json:"render" yaml:"render"`
	Server   ServerConfig   `json:"server" yaml:"server"`
	Log      logger.Config  `json:"log" yaml:"log"`
}

// ModelConfig selects the pose model.
type ModelConfig struct {
	Name model.Name `json:"name" yaml:"name" validate:"required,oneof=pefm posenet"`
	// Path is the ONNX model file.
	Path string `json:"path" yaml:"path" validate:"required"`
	// Quantized selects [-1, 1] input normalization.
	Quantized bool `json:"quantized" yaml:"quantized"`
	// FilterNonPositive overrides the model's default decode policy when set.
	FilterNonPositive *bool `json:"filter_non_positive,omitempty" yaml:"filter_non_positive,omitempty"`
}

// RuntimeConfig configures ONNX Runtime.
type RuntimeConfig struct {
	LibraryPath    string `json:"library_path" yaml:"library_path"`
	IntraOpThreads int    `json:"intra_op_threads" yaml:"intra_op_threads" validate:"gte=0"`
	InterOpThreads int    `json:"inter_op_threads" yaml:"inter_op_threads" validate:"gte=0"`
	// Provider is the execution provider: cpu, cuda, coreml or openvino.
	Provider   string `json:"provider" yaml:"provider" validate:"omitempty,oneof=cpu cuda coreml openvino"`
	DeviceID   int    `json:"device_id" yaml:"device_id" validate:"gte=0"`
	DeviceType string `json:"device_type" yaml:"device_type"`
}

// PipelineConfig configures frame admission.
type PipelineConfig struct {
	// Timeout bounds a single estimate; 0 disables it.
	Timeout time.Duration `json:"timeout" yaml:"timeout" validate:"gte=0"`
}

// RenderConfig configures overlays.
type RenderConfig struct {
	// MinConfidence hides keypoints scoring below it. Unset shows every keypoint the decode
	// policy reports, including negative scores.
	MinConfidence *float32 `json:"min_confidence,omitempty" yaml:"min_confidence,omitempty"`
	Radius        int     `json:"radius" yaml:"radius" validate:"gte=1"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Listen string `json:"listen" yaml:"listen" validate:"required"`
	// BodyLimit is the maximum request body in bytes.
	BodyLimit int `json:"body_limit" yaml:"body_limit" validate:"gt=0"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Model: ModelConfig{
			Name: model.ModelNamePEFM,
			Path: "models/model_hourglass.onnx",
		},
		Pipeline: PipelineConfig{Timeout: 2 * time.Second},
		Render:   RenderConfig{Radius: 4},
		Server: ServerConfig{
			Listen:    ":8080",
			BodyLimit: 8 * 1024 * 1024,
		},
		Log: logger.DefaultConfig(),
	}
}

// Load reads the configuration.
//
// Arguments:
//   - path: A YAML file; empty uses Default() only. Unknown keys are rejected.
//   - envFiles: .env files loaded into the environment when present. Variables already set win.
//
// Returns:
//   - Config: The validated configuration with environment overrides applied.
//   - error: An error if a file cannot be read or parsed, or validation fails.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config")
		}
		if err := Decode(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "parse %s", path)
		}
	}

	for _, file := range envFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return Config{}, errors.Wrapf(err, "load %s", file)
		}
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode parses YAML over cfg, keeping values the document does not set.
func Decode(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

// ApplyEnv overrides fields from POSE_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvModel); v != "" {
		c.Model.Name = model.Name(strings.ToLower(v))
	}
	if v := os.Getenv(EnvModelPath); v != "" {
		c.Model.Path = v
	}
	if v := os.Getenv(EnvLibraryPath); v != "" {
		c.Runtime.LibraryPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.Server.Listen = v
	}
}

var validate = validator.New()

// Validate checks the struct tags of the configuration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	return nil
}

// ModelArgs returns the model selection with the optional decode policy override.
func (c Config) ModelArgs() model.NewModelArgs {
	args := model.NewModelArgs{Name: c.Model.Name}
	if c.Model.FilterNonPositive != nil {
		args.Policy = &heatmap.Policy{FilterNonPositive: *c.Model.FilterNonPositive}
	}
	return args
}

// SessionOptions returns the ONNX Runtime options.
func (c Config) SessionOptions() inference.SessionOptions {
	return inference.SessionOptions{
		LibraryPath:    c.Runtime.LibraryPath,
		IntraOpThreads: c.Runtime.IntraOpThreads,
		InterOpThreads: c.Runtime.InterOpThreads,
		Provider:       inference.Provider(c.Runtime.Provider),
		DeviceID:       c.Runtime.DeviceID,
		DeviceType:     c.Runtime.DeviceType,
	}
}
