package mcts

import (
	"context"
	"io"
	"runtime"
	"time"

	"github.com/parallelmcts/pmcts/internal/config"
	"github.com/parallelmcts/pmcts/internal/env"
)

// Search ties a Manager, its root and a worker Pool together into the
// one call a caller actually wants: build a tree against one state, then
// read off the recommended action and the induced policy.
type Search[S env.State, A env.Action, O env.Observation] struct {
	Manager *Manager[S, A, O]
	Root    *DNode[S, A, O]
	pool    *Pool[S, A, O]
}

// New builds a Search rooted at the environment's initial state, with a
// worker pool sized numWorkers (0 means runtime.NumCPU()). logWriter may be
// nil to disable periodic logging.
func New[S env.State, A env.Action, O env.Observation](
	cfg config.Config,
	environment env.Environment[S, A, O],
	heuristic env.Heuristic[S],
	prior env.Prior[S, A],
	numWorkers int,
	logWriter io.Writer,
	logEveryTrials int,
	logEvery time.Duration,
) *Search[S, A, O] {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	m := NewManager[S, A, O](cfg, environment, heuristic, prior)
	root := m.NewRoot()

	var logger *Logger[S, A, O]
	if logWriter != nil {
		softFamily := cfg.Algorithm == config.MENTS || cfg.Algorithm == config.RENTS ||
			cfg.Algorithm == config.TENTS || cfg.Algorithm == config.DENTS
		logger = NewLogger[S, A, O](logWriter, logEveryTrials, logEvery, softFamily)
	}

	return &Search[S, A, O]{
		Manager: m,
		Root:    root,
		pool:    NewPool[S, A, O](m, root, numWorkers, logger),
	}
}

// Run blocks until maxTrials trials have completed or maxTime has elapsed
// (whichever first; either may be zero), then returns any folded
// EnvironmentErrors observed along the way.
func (s *Search[S, A, O]) Run(ctx context.Context, maxTrials int, maxTime time.Duration) error {
	if err := s.pool.RunTrials(ctx, maxTrials, maxTime, true); err != nil {
		return err
	}
	return s.pool.Errors()
}

// RecommendAction returns the action index the bound SelectPolicy
// recommends at the root, along with the action itself.
func (s *Search[S, A, O]) RecommendAction() (A, int) {
	idx := s.Manager.selectPolicy.RecommendAction(s.Manager, s.Root)
	return s.Root.actions[idx], idx
}

// Policy returns the root's induced action distribution, normalised visit
// counts over d.actions -- the AlphaZero-style training target.
func (s *Search[S, A, O]) Policy() []float64 {
	n := len(s.Root.actions)
	out := make([]float64, n)
	total := 0
	for i := 0; i < n; i++ {
		_, visits := s.Root.localQ(i)
		out[i] = float64(visits)
		total += visits
	}
	if total == 0 {
		for i := range out {
			out[i] = 1 / float64(n)
		}
		return out
	}
	for i := range out {
		out[i] /= float64(total)
	}
	return out
}

// Value returns the root's current mean return estimate.
func (s *Search[S, A, O]) Value() float64 {
	return s.Root.GetValue()
}
