// Package posenet - PoseNet MobileNet v1 model.
package posenet

import (
	"github.com/nvr-ai/go-pose/heatmap"
	"github.com/nvr-ai/go-pose/models/model"
)

// Labels are the 17 COCO keypoint channels, in output order.
var Labels = model.Labels{
	"nose",
	"left_eye", "right_eye",
	"left_ear", "right_ear",
	"left_shoulder", "right_shoulder",
	"left_elbow", "right_elbow",
	"left_wrist", "right_wrist",
	"left_hip", "right_hip",
	"left_knee", "right_knee",
	"left_ankle", "right_ankle",
}

// Limbs is the COCO keypoint skeleton.
var Limbs = []model.Limb{
	{"left_ankle", "left_knee"}, {"left_knee", "left_hip"},
	{"right_ankle", "right_knee"}, {"right_knee", "right_hip"},
	{"left_hip", "right_hip"},
	{"left_shoulder", "left_hip"}, {"right_shoulder", "right_hip"},
	{"left_shoulder", "right_shoulder"},
	{"left_shoulder", "left_elbow"}, {"right_shoulder", "right_elbow"},
	{"left_elbow", "left_wrist"}, {"right_elbow", "right_wrist"},
	{"left_eye", "right_eye"},
	{"nose", "left_eye"}, {"nose", "right_eye"},
	{"left_eye", "left_ear"}, {"right_eye", "right_ear"},
	{"left_ear", "left_shoulder"}, {"right_ear", "right_shoulder"},
}

// DefaultConfig returns the configuration of the PoseNet model:
//   - input: [1, 224, 224, 3]
//   - output: [1, 14, 14, 17]
//
// PoseNet heatmaps are logits, so only cells with a positive score (probability above 0.5) are
// considered.
func DefaultConfig() model.Config {
	return model.Config{
		Name:            model.ModelNamePoseNet,
		Family:          model.ModelFamilyMobileNet,
		LocalModelName:  "multi_person_mobilenet_v1_075_float",
		Extension:       "onnx",
		BatchSize:       1,
		InputWidth:      224,
		InputHeight:     224,
		InputComponents: 3,
		OutputWidth:     14,
		OutputHeight:    14,
		OutputDepth:     len(Labels),
		Labels:          Labels,
		Limbs:           Limbs,
		Policy:          heatmap.PolicyPositive,
	}
}

// PoseNet is the instance of the PoseNet model.
type PoseNet struct {
	config  model.Config
	decoder *heatmap.Decoder
}

// Config returns the configuration of the PoseNet model.
func (m *PoseNet) Config() model.Config {
	return m.config
}

// NewModel creates a new model.
//
// Arguments:
//   - args: The arguments for creating a new model. A non-nil Policy replaces the default.
//
// Returns:
//   - The model.
func NewModel(args model.NewModelArgs) (*PoseNet, error) {
	config := DefaultConfig()
	if args.Policy != nil {
		config.Policy = *args.Policy
	}
	return &PoseNet{
		config:  config,
		decoder: heatmap.NewDecoder(config.Policy),
	}, nil
}
