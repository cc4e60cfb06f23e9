package model

import "strconv"

// Labels names keypoint channels in channel order.
type Labels []string

// Name returns the label of channel i, or "keypoint_<i>" when the set has no entry for it.
func (l Labels) Name(i int) string {
	if i >= 0 && i < len(l) && l[i] != "" {
		return l[i]
	}
	return "keypoint_" + strconv.Itoa(i)
}

// Index returns the channel carrying the given label.
func (l Labels) Index(name string) (int, bool) {
	for i, label := range l {
		if label == name {
			return i, true
		}
	}
	return -1, false
}

// Limb connects two labelled keypoints of a skeleton.
type Limb [2]string
