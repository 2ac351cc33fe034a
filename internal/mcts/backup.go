package mcts

import (
	"math"

	"github.com/parallelmcts/pmcts/internal/config"
	"github.com/parallelmcts/pmcts/internal/env"
)

// backupPolicy implements every algorithm's backup contract through one
// struct configured by flags, rather than eight near-identical types: every
// algorithm always tracks the running mean; puct, alphago, dents and
// (optionally, via use_dp_value) est track the dynamic-programming value;
// ments/rents/tents/dents also track soft_value, and dents alone tracks
// subtree_entropy; dents additionally decays its DP/soft blend through a
// second temperature (handled on the selection side by
// softmaxSelectPolicy.localValue, not here).
type backupPolicy[S env.State, A env.Action, O env.Observation] struct {
	cfg config.Config

	needDP      bool
	needSoft    bool
	needEntropy bool
	kernel      kernelKind
}

// BackupDecision updates the D-node's own stats from the return g observed
// for action actionIdx (d is already locked by the caller).
func (p *backupPolicy[S, A, O]) BackupDecision(m *Manager[S, A, O], d *DNode[S, A, O], actionIdx int, g float64) {
	updateMean(&d.stats.q, d.b, g)

	if !p.needDP && !p.needSoft {
		return
	}
	// Aggregate the DP/soft value directly from the children slice; each
	// child CNode is locked individually, and depth strictly increases
	// child-ward, so this nested locking can never deadlock against a
	// concurrent top-down selection walk.
	if p.needDP {
		d.stats.dpValue = p.aggregateDPOverActions(d)
	}
	if p.needSoft {
		soft, entropy := p.aggregateSoftOverActions(d)
		d.stats.softValue = soft
		if p.needEntropy {
			d.stats.subtreeEntropy = entropy
		}
	}
}

// aggregateDPOverActions computes max_a Q(d,a) over the children that
// exist, i.e. the one-step Bellman backup used by PUCT/AlphaGo/DENTS. A
// DNode's mover always agrees with its owning CNode's, so no sign flip
// happens at this boundary.
func (p *backupPolicy[S, A, O]) aggregateDPOverActions(d *DNode[S, A, O]) float64 {
	best := math.Inf(-1)
	found := false
	for _, c := range d.children {
		if c == nil {
			continue
		}
		c.mu.Lock()
		v := c.stats.dpValue
		c.mu.Unlock()
		if v > best {
			best = v
			found = true
		}
	}
	if !found {
		return d.stats.q
	}
	return best
}

// aggregateSoftOverActions computes T*log(sum_a exp(Q(d,a)/T)) (the soft
// value) and -sum p(a)*log p(a) (the subtree entropy) over the children
// that exist.
func (p *backupPolicy[S, A, O]) aggregateSoftOverActions(d *DNode[S, A, O]) (soft, entropy float64) {
	n := len(d.children)
	if n == 0 {
		return d.stats.q, 0
	}
	qs := make([]float64, 0, n)
	for _, c := range d.children {
		if c == nil {
			continue
		}
		c.mu.Lock()
		qs = append(qs, c.stats.q)
		c.mu.Unlock()
	}
	if len(qs) == 0 {
		return d.stats.q, 0
	}
	// d.mu is already held by the caller (DNode.Backup), so the visit count
	// is read directly off d.n rather than through searchTemperature, which
	// would re-lock d.mu via GetNumVisits and deadlock on sync.Mutex's
	// non-reentrant lock.
	temp := searchTemperatureForVisits(p.cfg, d.IsRoot(), d.n)
	if temp <= 0 {
		temp = 1e-6
	}
	maxQ := math.Inf(-1)
	for _, q := range qs {
		if q > maxQ {
			maxQ = q
		}
	}
	sum := 0.0
	for _, q := range qs {
		sum += math.Exp((q - maxQ) / temp)
	}
	soft = temp*math.Log(sum) + maxQ

	entropy = 0
	for _, q := range qs {
		pi := math.Exp((q-maxQ)/temp) / sum
		if pi > 0 {
			entropy -= pi * math.Log(pi)
		}
	}
	return soft, entropy
}

// BackupChance updates the C-node's own stats from the return g observed
// for one sampled (observation, next-state) outcome (c is already locked by
// the caller).
func (p *backupPolicy[S, A, O]) BackupChance(m *Manager[S, A, O], c *CNode[S, A, O], g float64) {
	updateMean(&c.stats.q, c.b, g)

	if !p.needDP && !p.needSoft {
		return
	}
	if p.needDP {
		c.stats.dpValue = weightedOverChildren(c, func(d *DNode[S, A, O]) float64 { return d.stats.dpValue })
	}
	if p.needSoft {
		c.stats.softValue = weightedOverChildren(c, func(d *DNode[S, A, O]) float64 { return d.stats.softValue })
	}
}

// weightedOverChildren computes the empirical-visitation-weighted
// expectation of f over c's children D-nodes: an approximation of the true
// expectation under the environment's observation distribution, used
// whenever that distribution is unavailable or expensive to enumerate.
// c.mu is already held by the caller (CNode.Backup). A child whose mover
// differs from c's has its value negated into c's frame.
func weightedOverChildren[S env.State, A env.Action, O env.Observation](c *CNode[S, A, O], f func(*DNode[S, A, O]) float64) float64 {
	children := make([]*DNode[S, A, O], 0, len(c.children))
	for _, d := range c.children {
		children = append(children, d)
	}

	totalN := 0
	sum := 0.0
	for _, d := range children {
		d.mu.Lock()
		n := d.n
		v := f(d)
		d.mu.Unlock()
		if d.isOpponent != c.isOpponent {
			v = -v
		}
		sum += float64(n) * v
		totalN += n
	}
	if totalN == 0 {
		return c.stats.q
	}
	return sum / float64(totalN)
}

// updateMean folds g into the running mean q over priorCount prior
// observations: q' = q + (g-q)/(priorCount+1).
func updateMean(q *float64, priorCount int, g float64) {
	*q += (g - *q) / float64(priorCount+1)
}
