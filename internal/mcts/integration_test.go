package mcts

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/parallelmcts/pmcts/internal/config"
	"github.com/parallelmcts/pmcts/internal/envtest"
)

func TestSearchFindsUniqueOptimalActionOnChain(t *testing.T) {
	chain, err := envtest.NewChainEnv(8)
	require.NoError(t, err)

	cfg := config.Default(config.UCT)
	cfg.Seed = 7
	s := New[int, envtest.Move, int](cfg, chain, nil, nil, 4, nil, 0, 0)

	require.NoError(t, s.Run(context.Background(), 4000, 0))

	action, _ := s.RecommendAction()
	require.Equal(t, envtest.Right, action)
}

func TestSearchRootVisitCountMatchesBackups(t *testing.T) {
	chain, err := envtest.NewChainEnv(6)
	require.NoError(t, err)

	cfg := config.Default(config.UCT)
	s := New[int, envtest.Move, int](cfg, chain, nil, nil, 1, nil, 0, 0)
	require.NoError(t, s.Run(context.Background(), 500, 0))

	require.Equal(t, 500, s.Root.NumBackups())
	require.Equal(t, 500, s.Root.GetNumVisits())
}

func TestSearchHonorsTrialBudgetUnderConcurrency(t *testing.T) {
	chain, err := envtest.NewChainEnv(20)
	require.NoError(t, err)

	cfg := config.Default(config.PUCT)
	s := New[int, envtest.Move, int](cfg, chain, nil, nil, 8, nil, 0, 0)
	require.NoError(t, s.Run(context.Background(), 2000, 0))

	require.Equal(t, 2000, s.Root.NumBackups())
}

func TestSearchHonorsWallClockDeadline(t *testing.T) {
	chain, err := envtest.NewChainEnv(4)
	require.NoError(t, err)

	cfg := config.Default(config.UCT)
	s := New[int, envtest.Move, int](cfg, chain, nil, nil, 2, nil, 0, 0)

	start := time.Now()
	require.NoError(t, s.Run(context.Background(), 0, 50*time.Millisecond))
	require.Less(t, time.Since(start), 2*time.Second)
	require.Greater(t, s.Root.NumBackups(), 0)
}

func TestSoftmaxFamilyProducesFiniteValue(t *testing.T) {
	chain, err := envtest.NewChainEnv(10)
	require.NoError(t, err)

	for _, algo := range []config.Algorithm{config.MENTS, config.RENTS, config.TENTS, config.DENTS, config.EST} {
		algo := algo
		t.Run(string(algo), func(t *testing.T) {
			cfg := config.Default(algo)
			s := New[int, envtest.Move, int](cfg, chain, nil, nil, 2, nil, 0, 0)
			require.NoError(t, s.Run(context.Background(), 500, 0))
			require.False(t, math.IsNaN(s.Value()))
		})
	}
}

func TestTwoPlayerSelectorGameBackupsStaySignConsistent(t *testing.T) {
	game := envtest.SelectorGameEnv{InitialPile: 10, MaxTake: 3}
	cfg := config.Default(config.UCT)
	cfg.IsTwoPlayerGame = true
	s := New[envtest.NimState, int, envtest.NimState](cfg, game, nil, nil, 2, nil, 0, 0)
	require.NoError(t, s.Run(context.Background(), 1000, 0))

	require.GreaterOrEqual(t, s.Value(), -1.0)
	require.LessOrEqual(t, s.Value(), 1.0)
}

func TestAlphaGoRootNoiseLeavesNonRootPriorUntouched(t *testing.T) {
	game := envtest.SelectorGameEnv{InitialPile: 15, MaxTake: 3}
	cfg := config.Default(config.AlphaGo)
	cfg.IsTwoPlayerGame = true
	s := New[envtest.NimState, int, envtest.NimState](cfg, game, nil, nil, 1, nil, 0, 0)
	require.NoError(t, s.Run(context.Background(), 300, 0))

	require.NotNil(t, s.Root.rootPrior)
	for i, c := range s.Root.children {
		if c == nil {
			continue
		}
		for _, grandchild := range c.children {
			require.Nil(t, grandchild.rootPrior, "non-root node %d must not carry Dirichlet-mixed prior", i)
		}
	}
}
