package envtest

import (
	"context"

	"github.com/parallelmcts/pmcts/internal/env"
)

// Direction is a Frozen Lake action.
type Direction int

const (
	Up Direction = iota
	Down
	LeftDir
	RightDir
)

var directionDeltas = map[Direction][2]int{
	Up:       {-1, 0},
	Down:     {1, 0},
	LeftDir:  {0, -1},
	RightDir: {0, 1},
}

// perpendicular returns the two directions orthogonal to d, the ones slip
// can deflect into.
func perpendicular(d Direction) [2]Direction {
	switch d {
	case Up, Down:
		return [2]Direction{LeftDir, RightDir}
	default:
		return [2]Direction{Up, Down}
	}
}

// Cell is a Frozen Lake grid position, encoded row-major.
type Cell struct {
	Row, Col int
}

// FrozenLakeEnv is the classic stochastic 8x8 grid: intended moves slip
// sideways with probability SlipProb (split evenly between the two
// perpendicular directions), holes end the episode with zero reward, and
// the goal ends it with +1.
type FrozenLakeEnv struct {
	Size     int
	Holes    map[Cell]bool
	Goal     Cell
	SlipProb float64
}

var _ env.Environment[Cell, Direction, Cell] = FrozenLakeEnv{}

// NewClassicFrozenLake8x8 returns the standard 8x8 layout used by scenario
// 2, with the canonical hole placement and a 2/3 chance of slipping.
func NewClassicFrozenLake8x8() FrozenLakeEnv {
	layout := []string{
		"SFFFFFFF",
		"FFFFFFFF",
		"FFFHFFFF",
		"FFFFFHFF",
		"FFFHFFFF",
		"FHHFFFHF",
		"FHFFHFHF",
		"FFFHFFFG",
	}
	holes := map[Cell]bool{}
	var goal Cell
	for r, row := range layout {
		for c, ch := range row {
			switch ch {
			case 'H':
				holes[Cell{r, c}] = true
			case 'G':
				goal = Cell{r, c}
			}
		}
	}
	return FrozenLakeEnv{Size: 8, Holes: holes, Goal: goal, SlipProb: 2.0 / 3.0}
}

func (f FrozenLakeEnv) InitialState() Cell { return Cell{0, 0} }

func (f FrozenLakeEnv) IsTerminal(s Cell) bool { return f.Holes[s] || s == f.Goal }

func (f FrozenLakeEnv) ValidActions(s Cell) []Direction {
	return []Direction{Up, Down, LeftDir, RightDir}
}

func (f FrozenLakeEnv) clampedMove(s Cell, d Direction) Cell {
	delta := directionDeltas[d]
	next := Cell{Row: s.Row + delta[0], Col: s.Col + delta[1]}
	if next.Row < 0 {
		next.Row = 0
	}
	if next.Row >= f.Size {
		next.Row = f.Size - 1
	}
	if next.Col < 0 {
		next.Col = 0
	}
	if next.Col >= f.Size {
		next.Col = f.Size - 1
	}
	return next
}

func (f FrozenLakeEnv) TransitionDistribution(s Cell, a Direction) (map[Cell]float64, error) {
	dist := map[Cell]float64{}
	perp := perpendicular(a)
	dist[f.clampedMove(s, a)] += 1 - f.SlipProb
	dist[f.clampedMove(s, perp[0])] += f.SlipProb / 2
	dist[f.clampedMove(s, perp[1])] += f.SlipProb / 2
	return dist, nil
}

func (f FrozenLakeEnv) SampleTransition(_ context.Context, s Cell, a Direction, rng env.RandSource) (Cell, error) {
	if rng.Float64() >= f.SlipProb {
		return f.clampedMove(s, a), nil
	}
	perp := perpendicular(a)
	if rng.Intn(2) == 0 {
		return f.clampedMove(s, perp[0]), nil
	}
	return f.clampedMove(s, perp[1]), nil
}

func (f FrozenLakeEnv) ObservationDistribution(_ Direction, sPrime Cell) (map[Cell]float64, error) {
	return map[Cell]float64{sPrime: 1}, nil
}

func (f FrozenLakeEnv) SampleObservation(_ context.Context, _ Direction, sPrime Cell, _ env.RandSource) (Cell, error) {
	return sPrime, nil
}

func (f FrozenLakeEnv) Reward(s Cell, a Direction, o Cell) float64 {
	if o == f.Goal {
		return 1
	}
	return 0
}
