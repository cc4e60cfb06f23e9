// Package render - Keypoint overlays drawn with OpenCV.
package render

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-pose/heatmap"
	"github.com/nvr-ai/go-pose/models/model"
	"github.com/nvr-ai/go-pose/models/postprocess"
)

// Style configures an overlay.
type Style struct {
	// Radius of the joint circles in pixels.
	Radius int
	// LineThickness of the skeleton lines in pixels. 0 disables the skeleton.
	LineThickness int
	// MinConfidence hides keypoints scoring below it. Nil draws every present keypoint.
	MinConfidence *float32
	// Labels and Limbs describe the skeleton of the model.
	Labels model.Labels
	Limbs  []model.Limb
}

// StyleFor returns the default style of a model.
func StyleFor(cfg model.Config) Style {
	return Style{
		Radius:        4,
		LineThickness: 2,
		Labels:        cfg.Labels,
		Limbs:         cfg.Limbs,
	}
}

// Keypoints renders the keypoints of one subject onto img, which is drawn in place. Skeleton
// lines are drawn only between keypoints that are both present.
func Keypoints(img *gocv.Mat, set heatmap.KeypointSet, style Style) {
	width, height := img.Cols(), img.Rows()
	visible := postprocess.Visible(set, style.MinConfidence)

	if style.LineThickness > 0 {
		for _, seg := range postprocess.Segments(visible, style.Labels, style.Limbs, width, height) {
			gocv.Line(img, seg.From, seg.To, limbColor, style.LineThickness)
		}
	}

	for _, joint := range postprocess.Joints(visible, width, height) {
		gocv.Circle(img, joint.Point, style.Radius, jointColor(joint.Index), -1)
	}
}

// WriteOverlay draws the keypoints over a copy of img and writes it to path. The file format
// follows the path extension.
//
// Arguments:
//   - path: The output file, e.g. "frame-0001.jpg".
//   - img: The source frame.
//   - set: The decoded keypoints.
//   - style: The overlay style.
//
// Returns:
//   - error: An error if the frame cannot be converted or written.
func WriteOverlay(path string, img image.Image, set heatmap.KeypointSet, style Style) error {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return errors.Wrap(err, "convert frame")
	}
	defer mat.Close()

	Keypoints(&mat, set, style)

	if ok := gocv.IMWrite(path, mat); !ok {
		return errors.Errorf("failed to write overlay to %s", path)
	}
	return nil
}
