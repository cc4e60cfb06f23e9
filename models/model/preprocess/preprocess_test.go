package preprocess

// Tests for frame preprocessing: input validation, image decoding, resizing, normalization and
// HWC tensor layout for the pose models.

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-pose/models/model"
	"github.com/nvr-ai/go-pose/models/pefm"
	"github.com/nvr-ai/go-pose/models/posenet"
)

// TestPreprocessPEFM validates the complete pipeline for the hourglass model configuration.
//
// A solid-colour frame larger than the model input must come out as a 192x192x3 HWC tensor with
// every value scaled to [0, 1].
func TestPreprocessPEFM(t *testing.T) {
	p, err := NewPreprocessor(ConfigFor(pefm.DefaultConfig(), false))
	require.NoError(t, err)
	require.Equal(t, 192*192*3, p.Config().Size())

	img := solidImage(640, 480, color.RGBA{R: 255, G: 0, B: 51, A: 255})
	dst := make([]float32, p.Config().Size())

	require.NoError(t, p.Preprocess(img, dst))

	for i := 0; i < len(dst); i += 3 {
		require.InDelta(t, 1.0, dst[i], 1e-6, "red channel at %d", i)
		require.InDelta(t, 0.0, dst[i+1], 1e-6, "green channel at %d", i+1)
		require.InDelta(t, 0.2, dst[i+2], 1e-6, "blue channel at %d", i+2)
	}
}

// TestPreprocessQuantized validates the [-1, 1] scaling used by quantized models.
func TestPreprocessQuantized(t *testing.T) {
	p, err := NewPreprocessor(ConfigFor(posenet.DefaultConfig(), true))
	require.NoError(t, err)
	assert.Equal(t, model.NormalizeMinusOneToOne, p.Config().Normalization)

	img := solidImage(224, 224, color.RGBA{R: 255, G: 0, B: 255, A: 255})
	dst := make([]float32, p.Config().Size())
	require.NoError(t, p.Preprocess(img, dst))

	assert.InDelta(t, 1.0, dst[0], 1e-6)
	assert.InDelta(t, -1.0, dst[1], 1e-6)
	assert.InDelta(t, 1.0, dst[2], 1e-6)
}

// TestPreprocessLayout checks that pixels land in row-major HWC order without resampling when
// the frame already has the model's input size.
func TestPreprocessLayout(t *testing.T) {
	p, err := NewPreprocessor(Config{InputWidth: 2, InputHeight: 2, InputChannels: 3})
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 0, color.RGBA{G: 255, A: 255})
	img.Set(0, 1, color.RGBA{B: 255, A: 255})
	img.Set(1, 1, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	dst := make([]float32, 12)
	require.NoError(t, p.Preprocess(img, dst))

	assert.Equal(t, []float32{
		1, 0, 0, 0, 1, 0,
		0, 0, 1, 1, 1, 1,
	}, dst)
}

// TestPreprocessSubImage ensures frames whose bounds do not start at the origin are read from
// their own bounds.
func TestPreprocessSubImage(t *testing.T) {
	p, err := NewPreprocessor(Config{InputWidth: 1, InputHeight: 1, InputChannels: 1})
	require.NoError(t, err)

	full := solidImage(4, 4, color.RGBA{A: 255})
	full.Set(3, 3, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	sub := full.SubImage(image.Rect(3, 3, 4, 4))

	dst := make([]float32, 1)
	require.NoError(t, p.Preprocess(sub, dst))
	assert.InDelta(t, 1.0, dst[0], 1e-5)
}

// TestPreprocessValidation covers the failure paths of Preprocess.
func TestPreprocessValidation(t *testing.T) {
	p, err := NewPreprocessor(ConfigFor(pefm.DefaultConfig(), false))
	require.NoError(t, err)

	tests := []struct {
		name      string
		img       image.Image
		dst       []float32
		wantImage bool
	}{
		{name: "nil image", img: nil, dst: make([]float32, p.Config().Size()), wantImage: true},
		{name: "zero width", img: image.NewRGBA(image.Rect(0, 0, 0, 10)), dst: make([]float32, p.Config().Size()), wantImage: true},
		{name: "zero height", img: image.NewRGBA(image.Rect(0, 0, 10, 0)), dst: make([]float32, p.Config().Size()), wantImage: true},
		{name: "short destination", img: solidImage(10, 10, color.Black), dst: make([]float32, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Preprocess(tt.img, tt.dst)
			require.Error(t, err)
			assert.Equal(t, tt.wantImage, errors.Is(err, ErrInvalidImage))
		})
	}
}

// TestNewPreprocessorValidation rejects configurations that cannot describe an image input.
func TestNewPreprocessorValidation(t *testing.T) {
	_, err := NewPreprocessor(Config{InputWidth: 0, InputHeight: 10, InputChannels: 3})
	assert.Error(t, err)

	_, err = NewPreprocessor(Config{InputWidth: 10, InputHeight: 10, InputChannels: 4})
	assert.Error(t, err)

	p, err := NewPreprocessor(Config{InputWidth: 10, InputHeight: 10, InputChannels: 3})
	require.NoError(t, err)
	assert.Equal(t, model.NormalizeZeroToOne, p.Config().Normalization)
	assert.Equal(t, resize.NearestNeighbor, p.Config().Interpolation)
}

// TestDecodeImage validates decoding of the encoded formats accepted by the service.
func TestDecodeImage(t *testing.T) {
	img, format, err := DecodeImage(createTestJPEGImage(t, 64, 48))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())

	img, format, err = DecodeImage(createTestPNGImage(t, 32, 16))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 32, img.Bounds().Dx())

	_, _, err = DecodeImage(nil)
	assert.True(t, errors.Is(err, ErrInvalidImage))

	_, _, err = DecodeImage([]byte("definitely not an image"))
	assert.True(t, errors.Is(err, ErrInvalidImage))
}

// TestPreprocessIdempotency checks that repeated runs over the same frame produce identical
// tensors.
func TestPreprocessIdempotency(t *testing.T) {
	p, err := NewPreprocessor(ConfigFor(pefm.DefaultConfig(), false))
	require.NoError(t, err)

	img, _, err := DecodeImage(createTestJPEGImage(t, 320, 240))
	require.NoError(t, err)

	first := make([]float32, p.Config().Size())
	second := make([]float32, p.Config().Size())
	require.NoError(t, p.Preprocess(img, first))
	require.NoError(t, p.Preprocess(img, second))
	assert.Equal(t, first, second)

	for _, v := range first {
		require.GreaterOrEqual(t, v, float32(0))
		require.LessOrEqual(t, v, float32(1))
	}
}

func BenchmarkPreprocessPEFM(b *testing.B) {
	p, err := NewPreprocessor(ConfigFor(pefm.DefaultConfig(), false))
	require.NoError(b, err)

	img, _, err := DecodeImage(createTestJPEGImage(b, 640, 480))
	require.NoError(b, err)
	dst := make([]float32, p.Config().Size())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := p.Preprocess(img, dst); err != nil {
			b.Fatal(err)
		}
	}
}

// solidImage creates an RGBA image filled with a single colour.
func solidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createTestJPEGImage creates a JPEG image with a gradient pattern.
//
// Arguments:
//   - t: Testing interface for error reporting (can be testing.T or testing.B).
//   - width: The desired image width in pixels.
//   - height: The desired image height in pixels.
//
// Returns:
//   - []byte: The encoded JPEG image data.
func createTestJPEGImage(t testing.TB, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			b := uint8(((x + y) * 255) / (width + height))
			img.Set(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}), "JPEG encoding should succeed")
	return buf.Bytes()
}

// createTestPNGImage creates a PNG image with a checkerboard pattern.
func createTestPNGImage(t testing.TB, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img), "PNG encoding should succeed")
	return buf.Bytes()
}
