package gemini

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Run("Unit Length", func(t *testing.T) {
		v := normalize([]float32{3, 4})
		assert.InDelta(t, 0.6, v[0], 1e-6)
		assert.InDelta(t, 0.8, v[1], 1e-6)

		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
	})

	t.Run("Zero Vector Unchanged", func(t *testing.T) {
		v := normalize([]float32{0, 0, 0})
		assert.Equal(t, []float32{0, 0, 0}, v)
	})

	t.Run("Input Not Mutated", func(t *testing.T) {
		in := []float32{3, 4}
		_ = normalize(in)
		assert.Equal(t, []float32{3, 4}, in)
	})
}
