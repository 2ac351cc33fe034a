package mcts

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAliasTableMatchesWeights(t *testing.T) {
	weights := []float64{1, 2, 3, 4}
	table := newAliasTable(weights)

	rng := rand.New(rand.NewSource(42))
	counts := make([]int, len(weights))
	const draws = 200000
	for i := 0; i < draws; i++ {
		counts[table.sample(rng)]++
	}

	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	for i, w := range weights {
		got := float64(counts[i]) / draws
		want := w / sum
		require.InDelta(t, want, got, 0.01)
	}
}

func TestAliasTableDegenerateSumFallsBackToUniform(t *testing.T) {
	table := newAliasTable([]float64{0, 0, 0})
	rng := rand.New(rand.NewSource(1))
	counts := make([]int, 3)
	for i := 0; i < 30000; i++ {
		counts[table.sample(rng)]++
	}
	for _, c := range counts {
		require.InDelta(t, 10000, c, 600)
	}
}

func TestAliasTableEmpty(t *testing.T) {
	table := newAliasTable(nil)
	require.Equal(t, -1, table.sample(rand.New(rand.NewSource(1))))
}
