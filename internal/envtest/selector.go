package envtest

import (
	"context"

	"github.com/parallelmcts/pmcts/internal/env"
)

// NimState is a turn-taking pile game position: Pile counters remain, it is
// one player's turn to remove 1..Take of them.
type NimState struct {
	Pile int
}

// SelectorGameEnv is a two-player alternating-turn subtraction game: from a
// pile of N, each player removes 1..MaxTake counters on their turn; the
// player who removes the last counter wins (+1, from the mover's own
// perspective at the moment they moved). It exists to exercise the
// engine's IsOpponent sign handling, since the reward at a terminal
// transition is from the perspective of whoever just moved and must come
// back negated when read from the other player's node.
type SelectorGameEnv struct {
	InitialPile int
	MaxTake     int
}

var _ env.Environment[NimState, int, NimState] = SelectorGameEnv{}

func (g SelectorGameEnv) InitialState() NimState { return NimState{Pile: g.InitialPile} }

func (g SelectorGameEnv) IsTerminal(s NimState) bool { return s.Pile <= 0 }

func (g SelectorGameEnv) ValidActions(s NimState) []int {
	max := g.MaxTake
	if s.Pile < max {
		max = s.Pile
	}
	actions := make([]int, max)
	for i := range actions {
		actions[i] = i + 1
	}
	return actions
}

func (g SelectorGameEnv) TransitionDistribution(s NimState, a int) (map[NimState]float64, error) {
	return map[NimState]float64{{Pile: s.Pile - a}: 1}, nil
}

func (g SelectorGameEnv) SampleTransition(_ context.Context, s NimState, a int, _ env.RandSource) (NimState, error) {
	return NimState{Pile: s.Pile - a}, nil
}

func (g SelectorGameEnv) ObservationDistribution(_ int, sPrime NimState) (map[NimState]float64, error) {
	return map[NimState]float64{sPrime: 1}, nil
}

func (g SelectorGameEnv) SampleObservation(_ context.Context, _ int, sPrime NimState, _ env.RandSource) (NimState, error) {
	return sPrime, nil
}

// Reward returns +1 for the mover who empties the pile, 0 otherwise; the
// engine negates this when folding it into the opponent's local frame.
func (g SelectorGameEnv) Reward(s NimState, a int, o NimState) float64 {
	if o.Pile <= 0 {
		return 1
	}
	return 0
}
