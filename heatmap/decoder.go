package heatmap

import "github.com/chewxy/math32"

// Policy controls which cells take part in the arg-max search.
type Policy struct {
	// FilterNonPositive excludes cells scoring <= 0. A channel whose cells are all excluded
	// decodes to an absent slot.
	FilterNonPositive bool `json:"filter_non_positive" yaml:"filter_non_positive"`
}

var (
	// PolicyAll considers every score.
	PolicyAll = Policy{}
	// PolicyPositive ignores scores <= 0.
	PolicyPositive = Policy{FilterNonPositive: true}
)

// Decoder decodes tensors with a fixed policy. The zero value uses PolicyAll.
//
// A Decoder holds no mutable state and may be shared between goroutines.
type Decoder struct {
	Policy Policy
}

// NewDecoder creates a decoder for the given policy.
func NewDecoder(policy Policy) *Decoder {
	return &Decoder{Policy: policy}
}

// Decode decodes t with the decoder's policy. See Decode.
func (d *Decoder) Decode(t Tensor) KeypointSet {
	return Decode(t, d.Policy)
}

// peak is the best cell seen so far for one channel.
type peak struct {
	row, col int
	score    float32
	found    bool
}

// Decode converts a confidence tensor into a KeypointSet by taking, per channel, the highest
// scoring cell.
//
// The tensor shape is taken from its first row and first cell. An empty tensor (no rows, no
// columns or no channels) decodes to an empty set rather than an error. Rows that do not match the
// established shape are skipped whole. Cells are scanned row-major and only a strictly greater
// score replaces the current best, so ties resolve to the first cell in scan order.
//
// Under PolicyAll every channel with at least one well-formed, non-NaN cell is present, whatever
// its score. Under PolicyPositive a channel is present only if some cell scores above 0. NaN scores
// are skipped under both policies, so a channel whose cells are all NaN is absent.
//
// Arguments:
//   - t: The confidence tensor. It is never modified.
//   - policy: The cell selection policy.
//
// Returns:
//   - KeypointSet: One slot per channel, in channel order.
func Decode(t Tensor, policy Policy) KeypointSet {
	rows, cols, channels := t.Dims()
	if rows == 0 || cols == 0 || channels == 0 {
		return KeypointSet{}
	}

	best := make([]peak, channels)
	for r, row := range t {
		if !wellFormed(row, cols, channels) {
			continue
		}
		for c, scores := range row {
			for k, score := range scores {
				if math32.IsNaN(score) {
					continue
				}
				if policy.FilterNonPositive && score <= 0 {
					continue
				}
				if !best[k].found || score > best[k].score {
					best[k] = peak{row: r, col: c, score: score, found: true}
				}
			}
		}
	}

	set := make(KeypointSet, channels)
	for k, p := range best {
		if !p.found {
			continue
		}
		set[k] = Slot{
			Keypoint: Keypoint{
				Location: Point{
					X: float32(p.col) / float32(cols),
					Y: float32(p.row) / float32(rows),
				},
				Confidence: p.score,
			},
			Present: true,
		}
	}
	return set
}

// wellFormed reports whether a row has the expected column count and every cell the expected
// channel count.
func wellFormed(row [][]float32, cols, channels int) bool {
	if len(row) != cols {
		return false
	}
	for _, cell := range row {
		if len(cell) != channels {
			return false
		}
	}
	return true
}
