// Package model - Definitions shared by the pose-estimation model families.
package model

import (
	"github.com/nvr-ai/go-pose/heatmap"
)

// Family is the family of models.
type Family string

const (
	// ModelFamilyHourglass is the stacked-hourglass heatmap family.
	ModelFamilyHourglass Family = "hourglass"
	// ModelFamilyMobileNet is the MobileNet-backbone heatmap family.
	ModelFamilyMobileNet Family = "mobilenet"
)

// Name is the unique identifier of a model.
type Name string

const (
	// ModelNamePEFM is the name of the PoseEstimationForMobile hourglass model.
	ModelNamePEFM Name = "pefm"
	// ModelNamePoseNet is the name of the PoseNet model.
	ModelNamePoseNet Name = "posenet"
)

// Names lists every supported model name.
var Names = []Name{ModelNamePEFM, ModelNamePoseNet}

// Config describes the tensor shapes a model expects and produces, plus the decoding metadata
// attached to its output channels.
//
// The shapes are handed to the inference engine. The heatmap decoder never reads them and works on
// whatever shape the output actually has.
type Config struct {
	Name           Name   `json:"name" yaml:"name"`
	Family         Family `json:"family" yaml:"family"`
	LocalModelName string `json:"local_model_name" yaml:"local_model_name"`
	Extension      string `json:"extension" yaml:"extension"`

	BatchSize       int `json:"batch_size" yaml:"batch_size"`
	InputWidth      int `json:"input_width" yaml:"input_width"`
	InputHeight     int `json:"input_height" yaml:"input_height"`
	InputComponents int `json:"input_components" yaml:"input_components"`

	OutputWidth  int `json:"output_width" yaml:"output_width"`
	OutputHeight int `json:"output_height" yaml:"output_height"`
	OutputDepth  int `json:"output_depth" yaml:"output_depth"`

	// Labels names the output channels, in channel order.
	Labels []string `json:"labels" yaml:"labels"`
	// Limbs are the skeleton edges drawn between labelled keypoints.
	Limbs []Limb `json:"limbs" yaml:"limbs"`
	// Policy is the decode policy applied to this model's heatmaps.
	Policy heatmap.Policy `json:"policy" yaml:"policy"`
}

// InputShape returns the NHWC input shape.
func (c Config) InputShape() []int64 {
	return []int64{int64(c.BatchSize), int64(c.InputHeight), int64(c.InputWidth), int64(c.InputComponents)}
}

// OutputShape returns the NHWC output shape.
func (c Config) OutputShape() []int64 {
	return []int64{int64(c.BatchSize), int64(c.OutputHeight), int64(c.OutputWidth), int64(c.OutputDepth)}
}

// FileName returns the model file name, e.g. "model_hourglass.onnx".
func (c Config) FileName() string {
	return c.LocalModelName + "." + c.Extension
}

// Model is a pose-estimation model: its configuration plus the post-processing of its output.
type Model interface {
	Config() Config
	PostProcess(output heatmap.Tensor) heatmap.KeypointSet
}

// NewModelArgs is the arguments for creating a new model.
type NewModelArgs struct {
	Name Name `json:"name" yaml:"name"`
	// Policy overrides the model's default decode policy when set.
	Policy *heatmap.Policy `json:"policy" yaml:"policy"`
}
