package server

import (
	"context"
	"image"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-pose/heatmap"
	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/models/model/preprocess"
	"github.com/nvr-ai/go-pose/models/postprocess"
)

// ImageField is the multipart field carrying the frame.
const ImageField = "image"

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string  `json:"status"`
	Model  string  `json:"model"`
	Uptime float64 `json:"uptime_seconds"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Error     string `json:"error"`
}

// Keypoint is one labelled keypoint slot of a response.
type Keypoint struct {
	Index   int    `json:"index"`
	Label   string `json:"label"`
	Present bool   `json:"present"`
	// X and Y are normalized to [0, 1).
	X          float32 `json:"x"`
	Y          float32 `json:"y"`
	Confidence float32 `json:"confidence"`
	// PixelX and PixelY are X and Y mapped onto the submitted frame.
	PixelX int `json:"pixel_x"`
	PixelY int `json:"pixel_y"`
}

// PoseResponse is returned by POST /v1/pose.
type PoseResponse struct {
	RequestID   string     `json:"request_id"`
	Model       string     `json:"model"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	Keypoints   []Keypoint `json:"keypoints"`
	InferenceMS float64    `json:"inference_ms"`
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "ok",
		Model:  string(s.model.Name),
		Uptime: time.Since(s.started).Seconds(),
	})
}

// estimate handles POST /v1/pose with the frame as multipart "image" field or as the raw body.
func (s *Server) estimate(c *fiber.Ctx) error {
	data, err := frameBytes(c)
	if err != nil {
		return err
	}

	img, _, err := preprocess.DecodeImage(data)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ctx := c.UserContext()
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	set, err := s.engine.Estimate(ctx, img)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, inference.ErrInvalidImage) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		s.log.WithField("request_id", requestIDOf(c)).WithError(err).Error("estimate failed")
		return fiber.NewError(fiber.StatusInternalServerError, "estimate failed")
	}

	bounds := img.Bounds()
	return c.JSON(PoseResponse{
		RequestID:   requestIDOf(c),
		Model:       string(s.model.Name),
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Keypoints:   s.keypoints(set, bounds),
		InferenceMS: float64(elapsed.Microseconds()) / 1000,
	})
}

func frameBytes(c *fiber.Ctx) ([]byte, error) {
	contentType := string(c.Request().Header.ContentType())
	if !strings.HasPrefix(contentType, fiber.MIMEMultipartForm) {
		body := c.Body()
		if len(body) == 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "request body is empty")
		}
		return body, nil
	}

	header, err := c.FormFile(ImageField)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "missing multipart field "+ImageField)
	}
	f, err := header.Open()
	if err != nil {
		return nil, errors.Wrap(err, "open upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "read upload")
	}
	return data, nil
}

// keypoints converts a keypoint set into the labelled response listing.
func (s *Server) keypoints(set heatmap.KeypointSet, bounds image.Rectangle) []Keypoint {
	visible := postprocess.Visible(set, s.opts.MinConfidence)
	labelled := postprocess.Labelled(visible, s.model.Labels)

	out := make([]Keypoint, len(labelled))
	for i, r := range labelled {
		out[i] = Keypoint{
			Index:      r.Index,
			Label:      r.Label,
			Present:    r.Present,
			X:          r.Keypoint.Location.X,
			Y:          r.Keypoint.Location.Y,
			Confidence: r.Keypoint.Confidence,
		}
		if r.Present {
			p := postprocess.ToPixels(r.Keypoint.Location, bounds.Dx(), bounds.Dy())
			out[i].PixelX, out[i].PixelY = p.X, p.Y
		}
	}
	return out
}
