package postprocess

import (
	"image"

	"github.com/nvr-ai/go-pose/heatmap"
	"github.com/nvr-ai/go-pose/models/model"
)

// Joint is a present keypoint mapped to view space.
type Joint struct {
	Index      int
	Point      image.Point
	Confidence float32
}

// Segment is a limb whose two keypoints are both present, mapped to view space.
type Segment struct {
	Limb     model.Limb
	From, To image.Point
}

// Joints maps every present slot of set to view space.
func Joints(set heatmap.KeypointSet, width, height int) []Joint {
	joints := make([]Joint, 0, set.Count())
	for i, slot := range set {
		if !slot.Present {
			continue
		}
		joints = append(joints, Joint{
			Index:      i,
			Point:      ToPixels(slot.Keypoint.Location, width, height),
			Confidence: slot.Keypoint.Confidence,
		})
	}
	return joints
}

// Segments returns the limbs whose endpoints are both present in set, in limb order. Limbs naming
// a label the model does not have are skipped.
//
// Arguments:
//   - set: The decoded keypoints.
//   - labels: The channel labels of the model.
//   - limbs: The skeleton edges.
//   - width, height: The view size in pixels.
//
// Returns:
//   - The drawable segments.
func Segments(set heatmap.KeypointSet, labels model.Labels, limbs []model.Limb, width, height int) []Segment {
	var segments []Segment
	for _, limb := range limbs {
		from, ok := lookup(set, labels, limb[0])
		if !ok {
			continue
		}
		to, ok := lookup(set, labels, limb[1])
		if !ok {
			continue
		}
		segments = append(segments, Segment{
			Limb: limb,
			From: ToPixels(from.Location, width, height),
			To:   ToPixels(to.Location, width, height),
		})
	}
	return segments
}

func lookup(set heatmap.KeypointSet, labels model.Labels, name string) (heatmap.Keypoint, bool) {
	i, ok := labels.Index(name)
	if !ok {
		return heatmap.Keypoint{}, false
	}
	return set.Get(i)
}
