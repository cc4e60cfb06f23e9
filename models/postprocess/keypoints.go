package postprocess

import (
	"image"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-pose/heatmap"
)

// ToPixels maps a normalized location to view space.
//
// Arguments:
//   - p: The normalized location.
//   - width: The view width in pixels.
//   - height: The view height in pixels.
//
// Returns:
//   - The rounded pixel coordinate.
func ToPixels(p heatmap.Point, width, height int) image.Point {
	return image.Point{
		X: int(math32.Round(p.X * float32(width))),
		Y: int(math32.Round(p.Y * float32(height))),
	}
}

// AboveConfidence returns a copy of set in which slots scoring below min are marked absent.
func AboveConfidence(set heatmap.KeypointSet, min float32) heatmap.KeypointSet {
	out := make(heatmap.KeypointSet, len(set))
	for i, slot := range set {
		if slot.Present && slot.Keypoint.Confidence >= min {
			out[i] = slot
		}
	}
	return out
}

// Visible applies an optional confidence threshold. A nil min returns set unchanged, so every
// slot the decode policy reported stays present whatever its score.
func Visible(set heatmap.KeypointSet, min *float32) heatmap.KeypointSet {
	if min == nil {
		return set
	}
	return AboveConfidence(set, *min)
}
