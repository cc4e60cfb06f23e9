package inference

import (
	"github.com/pkg/errors"
	gtensor "gorgonia.org/tensor"

	"github.com/nvr-ai/go-pose/heatmap"
)

// ToConfidenceTensor converts the raw NHWC output of a pose model into the confidence tensor of
// the first batch entry.
//
// Arguments:
//   - data: The flat output buffer.
//   - shape: The output shape, [batch, rows, cols, channels].
//
// Returns:
//   - The [rows][cols][channels] confidence tensor of batch 0. A zero spatial or channel
//     dimension yields an empty tensor.
//   - ErrInvalidResults (wrapped) when the rank is not 4, the batch is empty, a dimension is
//     negative or the buffer length does not match the shape.
func ToConfidenceTensor(data []float32, shape []int64) (heatmap.Tensor, error) {
	if len(shape) != 4 {
		return nil, errors.Wrapf(ErrInvalidResults, "expected rank 4 output, got shape %v", shape)
	}
	for _, d := range shape {
		if d < 0 {
			return nil, errors.Wrapf(ErrInvalidResults, "negative dimension in shape %v", shape)
		}
	}
	if shape[0] < 1 {
		return nil, errors.Wrapf(ErrInvalidResults, "output batch is empty: %v", shape)
	}

	batch, rows, cols, channels := int(shape[0]), int(shape[1]), int(shape[2]), int(shape[3])
	if size := batch * rows * cols * channels; len(data) != size {
		return nil, errors.Wrapf(ErrInvalidResults, "output holds %d values, shape %v needs %d", len(data), shape, size)
	}
	if rows == 0 || cols == 0 || channels == 0 {
		return heatmap.Tensor{}, nil
	}

	dense := gtensor.New(
		gtensor.WithShape(batch, rows, cols, channels),
		gtensor.WithBacking(data),
	)

	out := heatmap.NewTensor(rows, cols, channels)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			for k := 0; k < channels; k++ {
				v, err := dense.At(0, r, c, k)
				if err != nil {
					return nil, errors.Wrapf(ErrInvalidResults, "read (%d, %d, %d): %v", r, c, k, err)
				}
				out[r][c][k] = v.(float32)
			}
		}
	}

	return out, nil
}
