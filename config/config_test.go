package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-pose/heatmap"
	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/models/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvModel, EnvModelPath, EnvLibraryPath, EnvLogLevel, EnvListen} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, model.ModelNamePEFM, cfg.Model.Name)
	assert.Equal(t, 2*time.Second, cfg.Pipeline.Timeout)
	assert.Nil(t, cfg.ModelArgs().Policy)
	assert.Nil(t, cfg.Render.MinConfidence, "no confidence threshold unless configured")
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "pose.yaml", `
model:
  name: posenet
  path: /models/posenet.onnx
  quantized: true
  filter_non_positive: false
runtime:
  intra_op_threads: 2
  provider: cuda
  device_id: 1
pipeline:
  timeout: 750ms
render:
  min_confidence: 0.25
  radius: 6
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, model.ModelNamePoseNet, cfg.Model.Name)
	assert.Equal(t, "/models/posenet.onnx", cfg.Model.Path)
	assert.True(t, cfg.Model.Quantized)
	assert.Equal(t, 2, cfg.Runtime.IntraOpThreads)
	assert.Equal(t, 750*time.Millisecond, cfg.Pipeline.Timeout)
	require.NotNil(t, cfg.Render.MinConfidence)
	assert.Equal(t, float32(0.25), *cfg.Render.MinConfidence)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.Server.Listen, "unset keys keep their defaults")

	args := cfg.ModelArgs()
	require.NotNil(t, args.Policy)
	assert.Equal(t, heatmap.PolicyAll, *args.Policy)
	opts := cfg.SessionOptions()
	assert.Equal(t, 2, opts.IntraOpThreads)
	assert.Equal(t, inference.ProviderCUDA, opts.Provider)
	assert.Equal(t, 1, opts.DeviceID)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvListen, ":9090")

	env := writeFile(t, ".env", "POSE_MODEL=PoseNet\nPOSE_MODEL_PATH=/env/model.onnx\nPOSE_LISTEN=:7070\nPOSE_LOG_LEVEL=WARN\n")

	cfg, err := Load("", env, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, model.ModelNamePoseNet, cfg.Model.Name)
	assert.Equal(t, "/env/model.onnx", cfg.Model.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, ":9090", cfg.Server.Listen, "variables already set win over .env")
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown model", content: "model:\n  name: openpose\n"},
		{name: "unknown key", content: "model:\n  nmae: pefm\n"},
		{name: "bad level", content: "log:\n  level: loud\n"},
		{name: "negative threads", content: "runtime:\n  inter_op_threads: -1\n"},
		{name: "unknown provider", content: "runtime:\n  provider: tpu\n"},
		{name: "zero radius", content: "render:\n  radius: 0\n"},
		{name: "empty listen", content: "server:\n  listen: \"\"\n"},
		{name: "malformed", content: "model: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "pose.yaml", tt.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadEmptyFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeFile(t, "pose.yaml", "\n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
