// Package envtest provides small reference environments used to exercise
// the internal/mcts engine end to end: a chain MDP, a stochastic grid
// (Frozen Lake), a two-player turn-taking game and a transposition-
// coalescing grid world.
package envtest

import (
	"context"

	"github.com/pkg/errors"

	"github.com/parallelmcts/pmcts/internal/env"
)

// Move is a chain-walk action.
type Move int

const (
	Left  Move = -1
	Right Move = 1
)

// ChainEnv is the length-N chain MDP: states 0..N-1 in a line, a single
// optimal path (always move Right) reaches the goal at N-1 for a +1
// terminal reward; every other step is free. It is the simplest possible
// environment with a unique optimal action, useful for checking that
// search converges to it.
type ChainEnv struct {
	Length int
}

var _ env.Environment[int, Move, int] = ChainEnv{}

func (c ChainEnv) InitialState() int { return 0 }

func (c ChainEnv) IsTerminal(s int) bool { return s >= c.Length-1 }

func (c ChainEnv) ValidActions(s int) []Move { return []Move{Left, Right} }

func (c ChainEnv) TransitionDistribution(s int, a Move) (map[int]float64, error) {
	return map[int]float64{c.step(s, a): 1}, nil
}

func (c ChainEnv) SampleTransition(_ context.Context, s int, a Move, _ env.RandSource) (int, error) {
	return c.step(s, a), nil
}

func (c ChainEnv) step(s int, a Move) int {
	next := s + int(a)
	if next < 0 {
		next = 0
	}
	if next > c.Length-1 {
		next = c.Length - 1
	}
	return next
}

func (c ChainEnv) ObservationDistribution(a Move, sPrime int) (map[int]float64, error) {
	return map[int]float64{sPrime: 1}, nil
}

func (c ChainEnv) SampleObservation(_ context.Context, _ Move, sPrime int, _ env.RandSource) (int, error) {
	return sPrime, nil
}

func (c ChainEnv) Reward(s int, a Move, o int) float64 {
	if o == c.Length-1 {
		return 1
	}
	return 0
}

// NewChainEnv validates Length and returns a ChainEnv, matching the
// constructor-level validation style of internal/config.New.
func NewChainEnv(length int) (ChainEnv, error) {
	if length < 2 {
		return ChainEnv{}, errors.Errorf("envtest: chain length must be >= 2, got %d", length)
	}
	return ChainEnv{Length: length}, nil
}
