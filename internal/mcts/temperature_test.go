package mcts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTemperatureNoDecayIsConstant(t *testing.T) {
	require.Equal(t, 1.0, temperature(1.0, 0.01, 0, 1, tempNone))
	require.Equal(t, 1.0, temperature(1.0, 0.01, 1e6, 1, tempNone))
}

func TestTemperatureDecaysTowardMin(t *testing.T) {
	early := temperature(1.0, 0.01, 1, 10, tempInvSqrt)
	late := temperature(1.0, 0.01, 1e9, 10, tempInvSqrt)
	require.Greater(t, early, late)
	require.GreaterOrEqual(t, late, 0.01)
	require.InDelta(t, 0.01, late, 1e-6)
}

func TestTemperatureNeverBelowMin(t *testing.T) {
	for _, fn := range []tempDecayFnName{tempNone, tempInvSqrt, tempInvLog, tempSigmoid} {
		got := temperature(1.0, 0.05, 1e12, 1, fn)
		require.GreaterOrEqual(t, got, 0.05)
	}
}
