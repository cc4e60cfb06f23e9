// Package model - Model input options.
package model

// Normalization describes how 8-bit pixel values are scaled before they are fed to the model.
type Normalization string

const (
	// NormalizeZeroToOne scales pixel values to [0, 1]. Used by float models.
	NormalizeZeroToOne Normalization = "zero_to_one"
	// NormalizeMinusOneToOne applies (v - 127.5) / 127.5, mapping pixel values to [-1, 1].
	// Used by quantized models.
	NormalizeMinusOneToOne Normalization = "minus_one_to_one"
)

// NormalizationFor returns the normalization matching a model's quantization.
func NormalizationFor(quantized bool) Normalization {
	if quantized {
		return NormalizeMinusOneToOne
	}
	return NormalizeZeroToOne
}
