package envtest

import (
	"context"

	"github.com/parallelmcts/pmcts/internal/env"
)

// GridCell is a deterministic grid-world position.
type GridCell struct {
	Row, Col int
}

// GridWorldEnv is a deterministic NxN grid with a single goal cell,
// specifically sized so that two distinct action sequences (e.g.
// Right-then-Down and Down-then-Right) land on the same intermediate cell.
// With UseTranspositionTable set, the engine must coalesce both paths into
// one DNode, which this environment's determinism makes easy to assert
// against: every cell reached by more than one path should show combined
// visit counts.
type GridWorldEnv struct {
	Size int
	Goal GridCell
}

var _ env.Environment[GridCell, Direction, GridCell] = GridWorldEnv{}

func (w GridWorldEnv) InitialState() GridCell { return GridCell{0, 0} }

func (w GridWorldEnv) IsTerminal(s GridCell) bool { return s == w.Goal }

func (w GridWorldEnv) ValidActions(s GridCell) []Direction {
	return []Direction{Down, RightDir}
}

func (w GridWorldEnv) clamp(c GridCell) GridCell {
	if c.Row >= w.Size {
		c.Row = w.Size - 1
	}
	if c.Col >= w.Size {
		c.Col = w.Size - 1
	}
	return c
}

func (w GridWorldEnv) step(s GridCell, a Direction) GridCell {
	delta := directionDeltas[a]
	return w.clamp(GridCell{Row: s.Row + delta[0], Col: s.Col + delta[1]})
}

func (w GridWorldEnv) TransitionDistribution(s GridCell, a Direction) (map[GridCell]float64, error) {
	return map[GridCell]float64{w.step(s, a): 1}, nil
}

func (w GridWorldEnv) SampleTransition(_ context.Context, s GridCell, a Direction, _ env.RandSource) (GridCell, error) {
	return w.step(s, a), nil
}

func (w GridWorldEnv) ObservationDistribution(_ Direction, sPrime GridCell) (map[GridCell]float64, error) {
	return map[GridCell]float64{sPrime: 1}, nil
}

func (w GridWorldEnv) SampleObservation(_ context.Context, _ Direction, sPrime GridCell, _ env.RandSource) (GridCell, error) {
	return sPrime, nil
}

func (w GridWorldEnv) Reward(s GridCell, a Direction, o GridCell) float64 {
	if o == w.Goal {
		return 1
	}
	return 0
}
