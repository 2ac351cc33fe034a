package mcts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parallelmcts/pmcts/internal/config"
	"github.com/parallelmcts/pmcts/internal/envtest"
)

func TestTranspositionTableCoalescesConvergingPaths(t *testing.T) {
	world := envtest.GridWorldEnv{Size: 3, Goal: envtest.GridCell{Row: 2, Col: 2}}
	cfg := config.Default(config.UCT)
	cfg.UseTranspositionTable = true
	cfg.NumTranspositionTableMutexes = 4

	s := New[envtest.GridCell, envtest.Direction, envtest.GridCell](cfg, world, nil, nil, 1, nil, 0, 0)
	require.NoError(t, s.Run(context.Background(), 200, 0))

	require.NotNil(t, s.Manager.dTable)

	// (1,1) is reachable via Right-then-Down and Down-then-Right; both paths
	// must resolve to the exact same DNode object.
	rightChild := s.Root.GetChild(indexOf(s.Root.actions, envtest.RightDir))
	downChild := s.Root.GetChild(indexOf(s.Root.actions, envtest.Down))

	rightCell := rightChild.GetChild(envtest.GridCell{Row: 0, Col: 1})
	downCell := downChild.GetChild(envtest.GridCell{Row: 1, Col: 0})

	viaRightThenDown := rightCell.GetChild(indexOf(rightCell.actions, envtest.Down)).GetChild(envtest.GridCell{Row: 1, Col: 1})
	viaDownThenRight := downCell.GetChild(indexOf(downCell.actions, envtest.RightDir)).GetChild(envtest.GridCell{Row: 1, Col: 1})

	require.Same(t, viaRightThenDown, viaDownThenRight)
}

func indexOf[A comparable](actions []A, a A) int {
	for i, x := range actions {
		if x == a {
			return i
		}
	}
	return -1
}
