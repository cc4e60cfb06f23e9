// Package posenet - postprocess PoseNet model outputs.
package posenet

import "github.com/nvr-ai/go-pose/heatmap"

// PostProcess decodes the PoseNet heatmap. Offsets and displacement outputs are not used: keypoints
// are placed at the arg-max heatmap cell.
func (m *PoseNet) PostProcess(output heatmap.Tensor) heatmap.KeypointSet {
	return m.decoder.Decode(output)
}
