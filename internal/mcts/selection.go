package mcts

import (
	"math"

	"github.com/parallelmcts/pmcts/internal/config"
	"github.com/parallelmcts/pmcts/internal/env"
)

type ucbKind int

const (
	ucbUCT ucbKind = iota
	ucbPUCT
	ucbAlphaGo
)

// ucbSelectPolicy implements the UCB family: UCT, PUCT and AlphaGo (PUCT
// plus prior weighting and, at the root, Dirichlet noise mixed in by
// DNode.maybeDrawRootNoise).
type ucbSelectPolicy[S env.State, A env.Action, O env.Observation] struct {
	cfg  config.Config
	kind ucbKind
}

func (p *ucbSelectPolicy[S, A, O]) SelectAction(m *Manager[S, A, O], d *DNode[S, A, O], ctx *Context[S, A, O]) int {
	if p.cfg.EpsilonExploration > 0 && m.RandFloat64() < float64(p.cfg.EpsilonExploration) {
		return int(m.RandFloat64() * float64(len(d.actions)))
	}

	// Unexplored-first rule: an action with no child yet always wins, in
	// insertion order, before any scoring happens.
	for i := range d.actions {
		if !d.HasChild(i) {
			return i
		}
	}

	N := float64(d.GetNumVisits())
	prior := d.effectivePrior()
	bias := float64(m.autoBias())

	best := -1
	bestScore := math.Inf(-1)
	ties := 1
	for i := range d.actions {
		q, n := d.localQ(i)
		if n == 0 {
			// Child object exists (raced into being by another goroutine)
			// but has not been visited yet; treat as
			// maximally attractive, same as no child at all.
			score := math.Inf(1)
			if score > bestScore {
				best, bestScore, ties = i, score, 1
			} else if score == bestScore {
				ties++
				if m.RandFloat64() < 1/float64(ties) {
					best = i
				}
			}
			continue
		}
		var score float64
		switch p.kind {
		case ucbUCT:
			score = q + bias*math.Sqrt(math.Log(N)/float64(n))
		case ucbPUCT:
			score = q + bias*math.Pow(N, float64(p.cfg.PuctPower))/float64(n)
		case ucbAlphaGo:
			score = q + bias*prior[i]*math.Sqrt(N)/(1+float64(n))
		}
		if score > bestScore {
			best, bestScore, ties = i, score, 1
		} else if score == bestScore {
			ties++
			if m.RandFloat64() < 1/float64(ties) {
				best = i
			}
		}
	}
	return best
}

func (p *ucbSelectPolicy[S, A, O]) RecommendAction(m *Manager[S, A, O], d *DNode[S, A, O]) int {
	return recommendByVisitsOrValue(m, d, p.cfg)
}

// recommendByVisitsOrValue is shared by every algorithm's RecommendAction:
// report either the most-visited child, or the child scoring best under
// recommendValue, with a uniform tie-break.
func recommendByVisitsOrValue[S env.State, A env.Action, O env.Observation](m *Manager[S, A, O], d *DNode[S, A, O], cfg config.Config) int {
	best := -1
	bestScore := math.Inf(-1)
	ties := 1
	for i := range d.actions {
		if !d.HasChild(i) {
			continue
		}
		stats, n := d.localStats(i)
		score := recommendValue(cfg, stats)
		if cfg.RecommendMostVisited {
			score = float64(n)
		}
		if score > bestScore {
			best, bestScore, ties = i, score, 1
		} else if score == bestScore {
			ties++
			if m.RandFloat64() < 1/float64(ties) {
				best = i
			}
		}
	}
	if best < 0 {
		best = 0
	}
	return best
}

// recommendValue picks the node-stats field best-value recommendation mode
// should argmax, algorithm- and config-dependent: DENTS/EST honour
// use_dp_value by reporting dp_value; the rest of the softmax family
// (MENTS/RENTS/TENTS, and DENTS without use_dp_value) reports soft_value,
// since that is the value their
// backups actually maintain; PUCT/AlphaGo report dp_value, the one-step
// Bellman backup they maintain instead of a plain mean; UCT and EST without
// use_dp_value fall back to the empirical mean.
func recommendValue(cfg config.Config, stats nodeStats) float64 {
	switch {
	case cfg.UseDPValue && (cfg.Algorithm == config.DENTS || cfg.Algorithm == config.EST):
		return stats.dpValue
	case cfg.Algorithm == config.PUCT || cfg.Algorithm == config.AlphaGo:
		return stats.dpValue
	case cfg.Algorithm == config.MENTS || cfg.Algorithm == config.RENTS ||
		cfg.Algorithm == config.TENTS || cfg.Algorithm == config.DENTS:
		return stats.softValue
	default:
		return stats.q
	}
}
