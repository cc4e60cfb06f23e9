// Package postprocess - Presentation helpers for decoded keypoints.
package postprocess

import (
	"github.com/nvr-ai/go-pose/heatmap"
	"github.com/nvr-ai/go-pose/models/model"
)

// Result represents a single labelled keypoint slot.
type Result struct {
	// The channel index of the keypoint.
	Index int `json:"index"`
	// The body-part label of the channel.
	Label string `json:"label"`
	// The decoded keypoint; zero when Present is false.
	Keypoint heatmap.Keypoint `json:"keypoint"`
	// Whether the channel produced a keypoint.
	Present bool `json:"present"`
}

// Labelled attaches channel labels to a keypoint set.
//
// Arguments:
//   - set: The decoded keypoints.
//   - labels: The channel labels of the model; missing entries become "keypoint_<i>".
//
// Returns:
//   - One Result per slot, in channel order.
func Labelled(set heatmap.KeypointSet, labels model.Labels) []Result {
	results := make([]Result, len(set))
	for i, slot := range set {
		results[i] = Result{
			Index:    i,
			Label:    labels.Name(i),
			Keypoint: slot.Keypoint,
			Present:  slot.Present,
		}
	}
	return results
}
