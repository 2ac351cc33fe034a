// Package mcts implements a concurrent Monte-Carlo tree-search engine: the
// node graph, the selection/backup policy contracts, the trial driver, the
// worker thread pool and the periodic logger. It is built against the
// internal/env Environment contract and is agnostic to the concrete domain.
package mcts

import (
	"math"
	"math/rand"
	"sync"

	"github.com/parallelmcts/pmcts/internal/config"
	"github.com/parallelmcts/pmcts/internal/env"
)

// Manager is process-wide, shared by every worker goroutine of one search.
// Only the RNG and the transposition tables are mutated after construction,
// each under its own discipline.
type Manager[S env.State, A env.Action, O env.Observation] struct {
	Config config.Config
	Env    env.Environment[S, A, O]
	Heur   env.Heuristic[S]
	Prior  env.Prior[S, A]

	rngMu sync.Mutex
	rng   *rand.Rand

	dTable *shardedTable[dKey[S], *DNode[S, A, O]]
	cTable *shardedTable[cKey[S, A], *CNode[S, A, O]]

	// absQMax tracks the running |q|_max over the root subtree, used by
	// the AUTO_BIAS scheme.
	absQMaxMu sync.Mutex
	absQMax   float32

	selectPolicy SelectPolicy[S, A, O]
	backupPolicy BackupPolicy[S, A, O]

	ctxPool sync.Pool
}

// NewManager constructs a Manager for one search run. heuristic and prior
// may be nil, in which case env.ZeroHeuristic / env.UniformPrior are used.
func NewManager[S env.State, A env.Action, O env.Observation](
	cfg config.Config,
	environment env.Environment[S, A, O],
	heuristic env.Heuristic[S],
	prior env.Prior[S, A],
) *Manager[S, A, O] {
	if heuristic == nil {
		heuristic = env.ZeroHeuristic[S]{}
	}
	if prior == nil {
		prior = env.UniformPrior[S, A]{}
	}
	m := &Manager[S, A, O]{
		Config:  cfg,
		Env:     environment,
		Heur:    heuristic,
		Prior:   prior,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		absQMax: config.AutoBiasMin,
	}
	if cfg.UseTranspositionTable {
		m.dTable = newShardedTable[dKey[S], *DNode[S, A, O]](cfg.NumTranspositionTableMutexes)
		m.cTable = newShardedTable[cKey[S, A], *CNode[S, A, O]](cfg.NumTranspositionTableMutexes)
	}
	m.selectPolicy = newSelectPolicy[S, A, O](cfg)
	m.backupPolicy = newBackupPolicy[S, A, O](cfg)
	m.ctxPool.New = func() any { return &Context[S, A, O]{} }
	return m
}

// NewRoot builds the search root from the environment's initial state.
func (m *Manager[S, A, O]) NewRoot() *DNode[S, A, O] {
	return newDNode[S, A, O](m, m.Env.InitialState(), 0, 0, false, nil)
}

// NewContext returns a per-trial, per-goroutine scratchpad. Callers must
// call PutContext when the trial finishes so the pool can reuse it; contexts
// are never shared across goroutines.
func (m *Manager[S, A, O]) NewContext() *Context[S, A, O] {
	ctx := m.ctxPool.Get().(*Context[S, A, O])
	ctx.reset()
	return ctx
}

// PutContext returns ctx to the pool.
func (m *Manager[S, A, O]) PutContext(ctx *Context[S, A, O]) {
	m.ctxPool.Put(ctx)
}

// RandFloat64 draws one uniform in [0,1) under the manager's RNG lock.
func (m *Manager[S, A, O]) RandFloat64() float64 {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return m.rng.Float64()
}

// RandChunk draws n uniforms under a single lock acquisition, amortising
// contention on the RNG lock: selection policies may precompute a chunk of
// draws per acquisition instead of locking per draw.
func (m *Manager[S, A, O]) RandChunk(n int) []float64 {
	out := make([]float64, n)
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	for i := range out {
		out[i] = m.rng.Float64()
	}
	return out
}

// RandSource hands out a *rand.Rand-compatible source seeded from the
// manager's RNG, for callers (environments, Dirichlet draws) that need more
// than a handful of floats and would otherwise contend on the shared lock
// per draw. The returned source is privately seeded and safe to use without
// further locking, at the cost of one lock acquisition to seed it.
func (m *Manager[S, A, O]) RandSource() *rand.Rand {
	m.rngMu.Lock()
	seed := m.rng.Int63()
	m.rngMu.Unlock()
	return rand.New(rand.NewSource(seed))
}

// observeReturn folds |g| into the running AUTO_BIAS estimate.
func (m *Manager[S, A, O]) observeReturn(g float32) {
	if m.Config.Bias >= 0 {
		return // AUTO_BIAS disabled, bias is fixed.
	}
	abs := float32(math.Abs(float64(g)))
	m.absQMaxMu.Lock()
	if abs > m.absQMax {
		m.absQMax = abs
	}
	m.absQMaxMu.Unlock()
}

// autoBias returns the current bias to use for UCB-family scoring.
func (m *Manager[S, A, O]) autoBias() float32 {
	if m.Config.Bias >= 0 {
		return m.Config.Bias
	}
	m.absQMaxMu.Lock()
	defer m.absQMaxMu.Unlock()
	if m.absQMax < config.AutoBiasMin {
		return config.AutoBiasMin
	}
	return m.absQMax
}
