package heatmap

// Point is a location normalized to the heatmap, with X = col/cols and Y = row/rows.
type Point struct {
	X float32 `json:"x" yaml:"x"`
	Y float32 `json:"y" yaml:"y"`
}

// Keypoint is a single detected body landmark.
type Keypoint struct {
	// Location is the normalized position of the arg-max cell.
	Location Point `json:"location" yaml:"location"`
	// Confidence is the raw score found at Location.
	Confidence float32 `json:"confidence" yaml:"confidence"`
}

// Slot holds the optional keypoint decoded for one channel.
type Slot struct {
	Keypoint Keypoint
	// Present is false when the channel produced no keypoint.
	Present bool
}

// KeypointSet is the decoded output of one tensor: one slot per channel, in channel order.
//
// The order carries the model's channel semantics (index 0 = head, ...) and is what presentation
// code uses to attach body-part labels.
type KeypointSet []Slot

// Get returns the keypoint for channel i and whether it is present.
// Out of range indices report absent.
func (s KeypointSet) Get(i int) (Keypoint, bool) {
	if i < 0 || i >= len(s) {
		return Keypoint{}, false
	}
	return s[i].Keypoint, s[i].Present
}

// Count returns the number of present keypoints.
func (s KeypointSet) Count() int {
	n := 0
	for _, slot := range s {
		if slot.Present {
			n++
		}
	}
	return n
}
