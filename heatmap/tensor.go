// Package heatmap - Arg-max decoding of pose-estimation confidence heatmaps.
//
// A heatmap model emits one score per spatial cell and per body keypoint. Decoding picks, for every
// keypoint channel, the cell with the highest score and reports its location normalized to the
// heatmap size.
package heatmap

// Tensor is a confidence heatmap laid out as [rows][cols][channels].
//
// Rows map to the y axis and columns to the x axis of the model output. Scores carry no range
// guarantee and may be negative.
type Tensor [][][]float32

// NewTensor allocates a zeroed tensor of the given shape backed by a single contiguous slice.
//
// Arguments:
//   - rows: The number of heatmap rows (height).
//   - cols: The number of heatmap columns (width).
//   - channels: The number of keypoint channels per cell.
//
// Returns:
//   - Tensor: The allocated tensor. Non-positive dimensions yield an empty tensor.
func NewTensor(rows, cols, channels int) Tensor {
	if rows <= 0 || cols <= 0 || channels < 0 {
		return Tensor{}
	}

	backing := make([]float32, rows*cols*channels)
	t := make(Tensor, rows)
	for r := range t {
		t[r] = make([][]float32, cols)
		for c := range t[r] {
			offset := (r*cols + c) * channels
			t[r][c] = backing[offset : offset+channels : offset+channels]
		}
	}
	return t
}

// Dims reports the shape of the tensor as established by its first row and first cell.
//
// Returns:
//   - rows: len(t).
//   - cols: The length of the first row, or 0 when there are no rows.
//   - channels: The length of the first cell, or 0 when there are no cells.
func (t Tensor) Dims() (rows, cols, channels int) {
	rows = len(t)
	if rows == 0 {
		return 0, 0, 0
	}
	cols = len(t[0])
	if cols == 0 {
		return rows, 0, 0
	}
	return rows, cols, len(t[0][0])
}

// Set writes the score of one channel of one cell.
func (t Tensor) Set(row, col, channel int, score float32) {
	t[row][col][channel] = score
}
