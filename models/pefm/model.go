// Package pefm - PoseEstimationForMobile stacked-hourglass model.
//
// See: https://github.com/edvardHua/PoseEstimationForMobile
package pefm

import (
	"github.com/nvr-ai/go-pose/heatmap"
	"github.com/nvr-ai/go-pose/models/model"
)

// Labels are the 14 keypoint channels of the hourglass model, in output order.
var Labels = model.Labels{
	"top", "neck",
	"right_shoulder", "right_elbow", "right_wrist",
	"left_shoulder", "left_elbow", "left_wrist",
	"right_hip", "right_knee", "right_ankle",
	"left_hip", "left_knee", "left_ankle",
}

// Limbs is the skeleton of the hourglass model, rooted at the neck.
var Limbs = []model.Limb{
	{"top", "neck"},
	{"neck", "right_shoulder"}, {"right_shoulder", "right_elbow"}, {"right_elbow", "right_wrist"},
	{"neck", "left_shoulder"}, {"left_shoulder", "left_elbow"}, {"left_elbow", "left_wrist"},
	{"neck", "right_hip"}, {"right_hip", "right_knee"}, {"right_knee", "right_ankle"},
	{"neck", "left_hip"}, {"left_hip", "left_knee"}, {"left_knee", "left_ankle"},
}

// DefaultConfig returns the configuration of the hourglass model:
//   - input: [1, 192, 192, 3]
//   - output: [1, 48, 48, 14]
//
// Hourglass heatmaps are decoded over every cell.
func DefaultConfig() model.Config {
	return model.Config{
		Name:            model.ModelNamePEFM,
		Family:          model.ModelFamilyHourglass,
		LocalModelName:  "model_hourglass",
		Extension:       "onnx",
		BatchSize:       1,
		InputWidth:      192,
		InputHeight:     192,
		InputComponents: 3,
		OutputWidth:     48,
		OutputHeight:    48,
		OutputDepth:     len(Labels),
		Labels:          Labels,
		Limbs:           Limbs,
		Policy:          heatmap.PolicyAll,
	}
}

// PEFM is the instance of the hourglass model.
type PEFM struct {
	config  model.Config
	decoder *heatmap.Decoder
}

// Config returns the configuration of the model.
//
// Returns:
//   - The configuration of the PEFM model.
func (m *PEFM) Config() model.Config {
	return m.config
}

// NewModel creates a new model.
//
// Arguments:
//   - args: The arguments for creating a new model. A non-nil Policy replaces the default.
//
// Returns:
//   - The model.
func NewModel(args model.NewModelArgs) (*PEFM, error) {
	config := DefaultConfig()
	if args.Policy != nil {
		config.Policy = *args.Policy
	}
	return &PEFM{
		config:  config,
		decoder: heatmap.NewDecoder(config.Policy),
	}, nil
}
