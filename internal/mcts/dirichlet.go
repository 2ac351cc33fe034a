package mcts

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distmv"
)

// sampleDirichletNoise draws one sample from Dirichlet(beta, ..., beta) in
// R^n, the root-exploration noise mixed into AlphaGo's root prior. gonum's
// distmv.Dirichlet wants a golang.org/x/exp/rand.Source, an interface
// satisfied structurally by *math/rand.Rand (both expose Int63() int64 and
// Seed(int64)), so the manager's own *rand.Rand is handed in directly with
// no adapter type and no separate x/exp/rand dependency.
func sampleDirichletNoise(n int, beta float64, rng *rand.Rand) []float64 {
	if n <= 0 {
		return nil
	}
	alpha := make([]float64, n)
	for i := range alpha {
		alpha[i] = beta
	}
	d, ok := distmv.NewDirichlet(alpha, rng)
	if !ok {
		// NewDirichlet only fails for a malformed alpha (wrong length or a
		// non-positive entry), neither of which can happen here.
		out := make([]float64, n)
		for i := range out {
			out[i] = 1 / float64(n)
		}
		return out
	}
	return d.Rand(nil)
}
