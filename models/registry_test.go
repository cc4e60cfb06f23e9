package models

import (
	"testing"

	"github.com/nvr-ai/go-pose/heatmap"
	"github.com/nvr-ai/go-pose/models/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelConfigurations(t *testing.T) {
	tests := []struct {
		name       model.Name
		input      []int64
		output     []int64
		localName  string
		labels     int
		wantPolicy heatmap.Policy
		firstLabel string
	}{
		{
			name:       model.ModelNamePEFM,
			input:      []int64{1, 192, 192, 3},
			output:     []int64{1, 48, 48, 14},
			localName:  "model_hourglass",
			labels:     14,
			wantPolicy: heatmap.PolicyAll,
			firstLabel: "top",
		},
		{
			name:       model.ModelNamePoseNet,
			input:      []int64{1, 224, 224, 3},
			output:     []int64{1, 14, 14, 17},
			localName:  "multi_person_mobilenet_v1_075_float",
			labels:     17,
			wantPolicy: heatmap.PolicyPositive,
			firstLabel: "nose",
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			m, err := NewModel(model.NewModelArgs{Name: tt.name})
			require.NoError(t, err)

			cfg := m.Config()
			assert.Equal(t, tt.name, cfg.Name)
			assert.Equal(t, tt.input, cfg.InputShape())
			assert.Equal(t, tt.output, cfg.OutputShape())
			assert.Equal(t, tt.localName, cfg.LocalModelName)
			assert.Equal(t, tt.localName+".onnx", cfg.FileName())
			assert.Len(t, cfg.Labels, tt.labels)
			assert.Equal(t, cfg.OutputDepth, len(cfg.Labels), "one label per output channel")
			assert.Equal(t, tt.wantPolicy, cfg.Policy)
			assert.Equal(t, tt.firstLabel, model.Labels(cfg.Labels).Name(0))

			fromRegistry, err := DefaultConfig(tt.name)
			require.NoError(t, err)
			assert.Equal(t, cfg, fromRegistry)
		})
	}
}

func TestNewModelPolicyOverride(t *testing.T) {
	override := heatmap.PolicyAll
	m, err := NewModel(model.NewModelArgs{Name: model.ModelNamePoseNet, Policy: &override})
	require.NoError(t, err)
	assert.Equal(t, heatmap.PolicyAll, m.Config().Policy)

	// A single negative cell is reported once filtering is switched off.
	output := heatmap.NewTensor(1, 1, 17)
	for k := 0; k < 17; k++ {
		output.Set(0, 0, k, -1)
	}
	assert.Equal(t, 17, m.PostProcess(output).Count())

	defaults, err := NewModel(model.NewModelArgs{Name: model.ModelNamePoseNet})
	require.NoError(t, err)
	assert.Equal(t, 0, defaults.PostProcess(output).Count())
}

func TestNewModelUnsupported(t *testing.T) {
	_, err := NewModel(model.NewModelArgs{Name: "yolov4"})
	assert.Error(t, err)

	_, err = DefaultConfig("")
	assert.Error(t, err)
}

func TestPostProcessDecodesHeatmap(t *testing.T) {
	m, err := NewModel(model.NewModelArgs{Name: model.ModelNamePEFM})
	require.NoError(t, err)

	output := heatmap.NewTensor(48, 48, 14)
	output.Set(12, 24, 1, 0.9) // neck

	set := m.PostProcess(output)
	require.Len(t, set, 14)

	neck, ok := set.Get(1)
	require.True(t, ok)
	assert.Equal(t, heatmap.Point{X: 0.5, Y: 0.25}, neck.Location)
	assert.Equal(t, float32(0.9), neck.Confidence)

	assert.Empty(t, m.PostProcess(heatmap.Tensor{}))
}

func TestLabels(t *testing.T) {
	labels := model.Labels{"a", "", "c"}
	assert.Equal(t, "a", labels.Name(0))
	assert.Equal(t, "keypoint_1", labels.Name(1))
	assert.Equal(t, "keypoint_7", labels.Name(7))

	i, ok := labels.Index("c")
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	_, ok = labels.Index("z")
	assert.False(t, ok)
}
