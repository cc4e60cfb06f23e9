package heatmap

import (
	"math/rand"
	"testing"
)

func benchmarkDecode(b *testing.B, rows, cols, channels int, policy Policy) {
	tensor := randomTensor(rand.New(rand.NewSource(1)), rows, cols, channels)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Decode(tensor, policy)
	}
}

// BenchmarkDecodePEFM decodes a 48x48x14 hourglass heatmap.
func BenchmarkDecodePEFM(b *testing.B) {
	benchmarkDecode(b, 48, 48, 14, PolicyAll)
}

// BenchmarkDecodePoseNet decodes a 14x14x17 PoseNet heatmap.
func BenchmarkDecodePoseNet(b *testing.B) {
	benchmarkDecode(b, 14, 14, 17, PolicyPositive)
}
