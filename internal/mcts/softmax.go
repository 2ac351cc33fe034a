package mcts

import (
	"math"
	"sort"

	"github.com/parallelmcts/pmcts/internal/config"
	"github.com/parallelmcts/pmcts/internal/env"
)

type kernelKind int

const (
	kernelMENTS kernelKind = iota
	kernelRENTS
	kernelTENTS
)

// softmaxSelectPolicy implements the MENTS/RENTS/TENTS/DENTS/EST family:
// sample an action from a temperature-scaled distribution over
// Q-values instead of argmax-ing a bonus term. Because every action (even
// one with no child yet) has a usable Q value (DefaultQValue, via
// DNode.localQ), none of these need an unexplored-first special case.
type softmaxSelectPolicy[S env.State, A env.Action, O env.Observation] struct {
	cfg    config.Config
	kernel kernelKind

	useDecayedValue  bool // DENTS: blend dp_value/soft_value via a decaying value-temperature.
	useEmpiricalMean bool // EST: force the plain empirical mean, ignoring dp_value/soft_value.
}

func (p *softmaxSelectPolicy[S, A, O]) SelectAction(m *Manager[S, A, O], d *DNode[S, A, O], ctx *Context[S, A, O]) int {
	n := len(d.actions)
	if n == 1 {
		return 0
	}

	isRoot := d.IsRoot()
	temp := p.searchTemperature(d, isRoot)
	eps := float64(p.cfg.Epsilon)
	if isRoot {
		eps = float64(p.cfg.RootNodeEpsilon)
	}
	prior := d.effectivePrior()

	qs := make([]float64, n)
	for i := 0; i < n; i++ {
		qs[i] = p.localValue(d, i)
	}

	weights := p.kernelWeights(qs, prior, temp)

	if p.cfg.AvoidSelectingChildrenUnderConstruction {
		maskChildrenUnderConstruction(d, weights)
	}

	for i := range weights {
		weights[i] = (1-eps)*weights[i] + eps*float64(prior[i])
	}

	return d.sampleFromDistribution(m, weights)
}

// maskChildrenUnderConstruction zeroes and renormalises weights for every
// action whose child is already being expanded by another trial (n > b: it
// has been visited but not yet backed up), so concurrent softmax selection
// does not pile multiple trials onto the same in-flight leaf. If every
// action happens to be under construction, every weight is zeroed and
// normalize falls back to a uniform distribution over all actions rather
// than leaving nothing to sample.
func maskChildrenUnderConstruction[S env.State, A env.Action, O env.Observation](d *DNode[S, A, O], weights []float64) {
	masked := false
	for i, c := range d.children {
		if c == nil {
			continue
		}
		c.mu.Lock()
		underConstruction := c.n > c.b
		c.mu.Unlock()
		if underConstruction {
			weights[i] = 0
			masked = true
		}
	}
	if !masked {
		return
	}
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	normalize(weights, sum)
}

func (p *softmaxSelectPolicy[S, A, O]) RecommendAction(m *Manager[S, A, O], d *DNode[S, A, O]) int {
	return recommendByVisitsOrValue(m, d, p.cfg)
}

// localValue returns the Q-like value SelectAction should weight action i
// by: the plain empirical mean for MENTS/RENTS/TENTS/EST, or (DENTS) a
// decayed blend of dp_value and soft_value controlled by a second,
// independently-decaying value temperature.
func (p *softmaxSelectPolicy[S, A, O]) localValue(d *DNode[S, A, O], actionIdx int) float64 {
	if !p.useDecayedValue {
		q, _ := d.localQ(actionIdx)
		return q
	}
	c := d.children[actionIdx]
	if c == nil {
		return float64(d.m.Config.DefaultQValue)
	}
	c.mu.Lock()
	dp, soft := c.stats.dpValue, c.stats.softValue
	c.mu.Unlock()

	visitsScale := float64(p.cfg.ValueTempVisitsScale)
	if d.IsRoot() {
		visitsScale = float64(p.cfg.ValueTempRootVisitsScale)
	}
	vt := temperature(float64(p.cfg.ValueTempInit), float64(p.cfg.ValueTempDecayMin),
		float64(d.GetNumVisits()), visitsScale, toTempDecayFnName(p.cfg.ValueTempDecayFn))
	return vt*soft + (1-vt)*dp
}

func (p *softmaxSelectPolicy[S, A, O]) searchTemperature(d *DNode[S, A, O], isRoot bool) float64 {
	return searchTemperatureForVisits(p.cfg, isRoot, d.GetNumVisits())
}

// searchTemperatureForVisits is the lock-free core of searchTemperature,
// taking the visit count directly instead of fetching it through
// DNode.GetNumVisits. Callers that already hold d.mu (backup runs under the
// node lock) must read d.n themselves and call this instead of
// searchTemperature, or they would deadlock retaking a non-reentrant mutex.
func searchTemperatureForVisits(cfg config.Config, isRoot bool, numVisits int) float64 {
	visitsScale := float64(cfg.VisitsScale)
	if isRoot {
		visitsScale = float64(cfg.RootNodeVisitsScale)
	}
	return temperature(float64(cfg.Temp), float64(cfg.TempDecayMin),
		float64(numVisits), visitsScale, toTempDecayFnName(cfg.TempDecayFn))
}

// kernelWeights computes the unnormalised-then-normalised action
// distribution for the selected kernel. qs and prior are parallel to
// d.actions.
func (p *softmaxSelectPolicy[S, A, O]) kernelWeights(qs []float64, prior []float64, temp float64) []float64 {
	n := len(qs)
	w := make([]float64, n)
	if temp <= 0 {
		temp = 1e-6
	}
	switch p.kernel {
	case kernelRENTS:
		// Relative-entropy regularised policy: proportional to
		// prior(a)*exp(Q(a)/T) (closed form of the RENTS objective).
		maxZ := math.Inf(-1)
		for i := range qs {
			z := qs[i] / temp
			if z > maxZ {
				maxZ = z
			}
		}
		sum := 0.0
		for i := range qs {
			w[i] = float64(prior[i]) * math.Exp(qs[i]/temp-maxZ)
			sum += w[i]
		}
		normalize(w, sum)
	case kernelTENTS:
		// Tsallis-entropy regularised policy: the sparsemax projection of
		// Q/T onto the simplex (closed form of the TENTS objective).
		z := make([]float64, n)
		for i := range qs {
			z[i] = qs[i] / temp
		}
		w = sparsemax(z)
	default: // kernelMENTS
		maxZ := math.Inf(-1)
		for i := range qs {
			z := qs[i] / temp
			if z > maxZ {
				maxZ = z
			}
		}
		sum := 0.0
		for i := range qs {
			w[i] = math.Exp(qs[i]/temp - maxZ)
			sum += w[i]
		}
		normalize(w, sum)
	}
	return w
}

func normalize(w []float64, sum float64) {
	if sum <= 0 {
		for i := range w {
			w[i] = 1 / float64(len(w))
		}
		return
	}
	for i := range w {
		w[i] /= sum
	}
}

// sparsemax projects z onto the probability simplex (Martins & Astudillo
// 2016), the closed form used by TENTS' Tsallis-entropy-regularised policy.
func sparsemax(z []float64) []float64 {
	n := len(z)
	sorted := append([]float64(nil), z...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	cumsum := 0.0
	k := 0
	tau := 0.0
	for i := 0; i < n; i++ {
		cumsum += sorted[i]
		if 1+float64(i+1)*sorted[i] > cumsum {
			k = i + 1
			tau = (cumsum - 1) / float64(k)
		}
	}
	if k == 0 {
		k = n
		tau = (cumsum - 1) / float64(n)
	}
	out := make([]float64, n)
	sum := 0.0
	for i, zi := range z {
		v := zi - tau
		if v < 0 {
			v = 0
		}
		out[i] = v
		sum += v
	}
	normalize(out, sum)
	return out
}

// sampleFromDistribution draws one action index from weights, through the
// node's alias table when alias_use_caching is set (rebuild only every
// alias_recompute_freq * len(weights) selections -- rebuilding costs O(|A|),
// so the cadence is amortised over the action count -- or immediately if
// the support changed by more than a quarter), and through a freshly built
// one-shot table otherwise.
func (d *DNode[S, A, O]) sampleFromDistribution(m *Manager[S, A, O], weights []float64) int {
	if !m.Config.AliasUseCaching {
		return newAliasTable(weights).sample(m.RandSource())
	}

	support := 0
	for _, w := range weights {
		if w > 0 {
			support++
		}
	}

	d.mu.Lock()
	rebuild := d.alias == nil || d.aliasBackupsSinceRebuild >= m.Config.AliasRecomputeFreq*len(weights)
	if !rebuild && d.aliasSupportSize > 0 {
		delta := math.Abs(float64(support-d.aliasSupportSize)) / float64(d.aliasSupportSize)
		rebuild = delta > 0.25
	}
	if rebuild {
		d.alias = newAliasTable(weights)
		d.aliasBackupsSinceRebuild = 0
		d.aliasSupportSize = support
	} else {
		d.aliasBackupsSinceRebuild++
	}
	table := d.alias
	d.mu.Unlock()

	return table.sample(m.RandSource())
}
