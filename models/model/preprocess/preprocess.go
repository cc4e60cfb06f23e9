// Package preprocess - Conversion of camera frames into pose-model input tensors.
package preprocess

import (
	"bytes"
	"image"
	_ "image/jpeg" // register JPEG decoding
	_ "image/png"  // register PNG decoding

	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-pose/models/model"
)

// ErrInvalidImage is returned for nil, undecodable or zero-size images.
var ErrInvalidImage = errors.New("invalid input image")

// Config defines preprocessing configuration for a specific model.
type Config struct {
	// Name of the model for logging purposes.
	Name string `json:"name" yaml:"name"`
	// InputWidth is the expected width of the model input.
	InputWidth int `json:"input_width" yaml:"input_width"`
	// InputHeight is the expected height of the model input.
	InputHeight int `json:"input_height" yaml:"input_height"`
	// InputChannels is the number of channels (1 for grayscale, 3 for RGB).
	InputChannels int `json:"input_channels" yaml:"input_channels"`
	// Normalization defines how pixel values are scaled.
	Normalization model.Normalization `json:"normalization" yaml:"normalization"`
	// Interpolation is the resampling filter used to reach the input size.
	Interpolation resize.InterpolationFunction `json:"-" yaml:"-"`
}

// ConfigFor returns the preprocessing configuration of a model.
//
// Arguments:
//   - cfg: The model configuration.
//   - quantized: Whether the model expects inputs in [-1, 1].
//
// Returns:
//   - The preprocessing configuration.
func ConfigFor(cfg model.Config, quantized bool) Config {
	return Config{
		Name:          string(cfg.Name),
		InputWidth:    cfg.InputWidth,
		InputHeight:   cfg.InputHeight,
		InputChannels: cfg.InputComponents,
		Normalization: model.NormalizationFor(quantized),
		Interpolation: resize.Bilinear,
	}
}

// Size returns the number of float32 values of one preprocessed frame.
func (c Config) Size() int {
	return c.InputWidth * c.InputHeight * c.InputChannels
}

// Preprocessor handles image preprocessing for the pose models. It is safe for concurrent use.
type Preprocessor struct {
	config Config
}

// NewPreprocessor creates a new preprocessor with the given configuration.
//
// Arguments:
//   - config: The model-specific preprocessing configuration.
//
// Returns:
//   - A configured Preprocessor instance.
//   - An error when the configuration cannot describe an RGB or grayscale input.
func NewPreprocessor(config Config) (*Preprocessor, error) {
	if config.InputWidth <= 0 || config.InputHeight <= 0 {
		return nil, errors.Errorf("invalid input dimensions: %dx%d", config.InputWidth, config.InputHeight)
	}
	if config.InputChannels != 1 && config.InputChannels != 3 {
		return nil, errors.Errorf("unsupported input channel count: %d", config.InputChannels)
	}
	if config.Normalization == "" {
		config.Normalization = model.NormalizeZeroToOne
	}
	return &Preprocessor{config: config}, nil
}

// Config returns the configuration of the preprocessor.
func (p *Preprocessor) Config() Config {
	return p.config
}

// Preprocess resizes img to the model input size and writes it into dst in HWC order.
//
// Arguments:
//   - img: The frame to preprocess.
//   - dst: The destination buffer. It must hold at least Config().Size() values.
//
// Returns:
//   - ErrInvalidImage (wrapped) for nil or empty images, or an error when dst is too small.
func (p *Preprocessor) Preprocess(img image.Image, dst []float32) error {
	if err := validateInput(img); err != nil {
		return err
	}
	if need := p.config.Size(); len(dst) < need {
		return errors.Errorf("destination only holds %d floats, needs %d", len(dst), need)
	}

	resized := p.resizeImage(img)
	p.imageToTensor(resized, dst)
	p.normalize(dst[:p.config.Size()])

	return nil
}

// validateInput validates the input image structure.
func validateInput(img image.Image) error {
	if img == nil {
		return errors.Wrap(ErrInvalidImage, "image is nil")
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return errors.Wrapf(ErrInvalidImage, "invalid image dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}
	return nil
}

// DecodeImage decodes encoded image bytes (JPEG or PNG) into an image.Image.
//
// Arguments:
//   - data: The encoded image.
//
// Returns:
//   - The decoded image and its format name.
//   - ErrInvalidImage (wrapped) when the bytes are empty or cannot be decoded.
func DecodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", errors.Wrap(ErrInvalidImage, "image data is empty")
	}
	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Wrapf(ErrInvalidImage, "decode: %v", err)
	}
	if err := validateInput(decoded); err != nil {
		return nil, "", err
	}
	return decoded, format, nil
}

// resizeImage stretches the image to the model's input dimensions. Keypoints are reported
// relative to the frame, so the aspect ratio is not preserved.
func (p *Preprocessor) resizeImage(img image.Image) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() == p.config.InputWidth && bounds.Dy() == p.config.InputHeight {
		return img
	}
	return resize.Resize(uint(p.config.InputWidth), uint(p.config.InputHeight), img, p.config.Interpolation)
}

// imageToTensor writes raw 0-255 channel values into dst in HWC order.
func (p *Preprocessor) imageToTensor(img image.Image, dst []float32) {
	bounds := img.Bounds()
	idx := 0
	for y := bounds.Min.Y; y < bounds.Min.Y+p.config.InputHeight; y++ {
		for x := bounds.Min.X; x < bounds.Min.X+p.config.InputWidth; x++ {
			r, g, b, _ := img.At(x, y).RGBA()

			r8 := float32(uint8(r >> 8))
			g8 := float32(uint8(g >> 8))
			b8 := float32(uint8(b >> 8))

			if p.config.InputChannels == 1 {
				dst[idx] = 0.299*r8 + 0.587*g8 + 0.114*b8
				idx++
				continue
			}
			dst[idx] = r8
			dst[idx+1] = g8
			dst[idx+2] = b8
			idx += 3
		}
	}
}

// normalize applies normalization to the tensor in place.
func (p *Preprocessor) normalize(tensor []float32) {
	switch p.config.Normalization {
	case model.NormalizeMinusOneToOne:
		for i := range tensor {
			tensor[i] = (tensor[i] - 127.5) / 127.5
		}
	default:
		for i := range tensor {
			tensor[i] /= 255.0
		}
	}
}
