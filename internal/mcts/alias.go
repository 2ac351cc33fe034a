package mcts

import "math/rand"

// aliasTable is a Vose's-algorithm alias table: O(n) to build, O(1) to
// sample. No package in the corpus offers this (a generic discrete
// alias-method sampler), and the algorithm is short and numerically benign,
// so it is hand-rolled on math/rand rather than reached for a dependency
// (see DESIGN.md).
type aliasTable struct {
	prob  []float64
	alias []int
}

// newAliasTable builds an alias table for the (not necessarily normalised)
// weights w. Weights must be non-negative and sum to > 0.
func newAliasTable(w []float64) *aliasTable {
	n := len(w)
	t := &aliasTable{prob: make([]float64, n), alias: make([]int, n)}
	if n == 0 {
		return t
	}
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	if sum <= 0 {
		// Degenerate: fall back to uniform.
		for i := range t.prob {
			t.prob[i] = 1
			t.alias[i] = i
		}
		return t
	}

	scaled := make([]float64, n)
	small := make([]int, 0, n)
	large := make([]int, 0, n)
	for i, v := range w {
		scaled[i] = v * float64(n) / sum
		if scaled[i] < 1 {
			small = append(small, i)
		} else {
			large = append(large, i)
		}
	}

	for len(small) > 0 && len(large) > 0 {
		s := small[len(small)-1]
		small = small[:len(small)-1]
		l := large[len(large)-1]
		large = large[:len(large)-1]

		t.prob[s] = scaled[s]
		t.alias[s] = l

		scaled[l] = scaled[l] + scaled[s] - 1
		if scaled[l] < 1 {
			small = append(small, l)
		} else {
			large = append(large, l)
		}
	}
	for _, l := range large {
		t.prob[l] = 1
		t.alias[l] = l
	}
	for _, s := range small {
		t.prob[s] = 1
		t.alias[s] = s
	}
	return t
}

// sample draws one index in O(1), using rng for its two random draws.
func (t *aliasTable) sample(rng *rand.Rand) int {
	n := len(t.prob)
	if n == 0 {
		return -1
	}
	i := rng.Intn(n)
	if rng.Float64() < t.prob[i] {
		return i
	}
	return t.alias[i]
}
