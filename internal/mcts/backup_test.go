package mcts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpdateMeanConvergesToAverage(t *testing.T) {
	q := 0.0
	samples := []float64{1, 0, 1, 1, 0}
	for i, g := range samples {
		updateMean(&q, i, g)
	}
	require.InDelta(t, 0.6, q, 1e-9)
}

func TestSparsemaxSumsToOneAndIsSparse(t *testing.T) {
	w := sparsemax([]float64{3, 0, -3})
	sum := 0.0
	zeros := 0
	for _, v := range w {
		require.GreaterOrEqual(t, v, 0.0)
		sum += v
		if v == 0 {
			zeros++
		}
	}
	require.InDelta(t, 1.0, sum, 1e-9)
	require.Greater(t, zeros, 0, "sparsemax should zero out at least one low-logit action")
}

func TestSparsemaxUniformLogitsAreUniform(t *testing.T) {
	w := sparsemax([]float64{1, 1, 1})
	for _, v := range w {
		require.InDelta(t, 1.0/3.0, v, 1e-9)
	}
}
