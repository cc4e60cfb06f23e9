// Package pefm - postprocess hourglass model outputs.
package pefm

import "github.com/nvr-ai/go-pose/heatmap"

// PostProcess decodes the batch-0 heatmap of the hourglass model into one keypoint slot per
// channel, using the model's decode policy.
//
// Arguments:
//   - output: The [rows][cols][14] heatmap.
//
// Returns:
//   - The decoded keypoints, empty when the heatmap is empty.
func (m *PEFM) PostProcess(output heatmap.Tensor) heatmap.KeypointSet {
	return m.decoder.Decode(output)
}
