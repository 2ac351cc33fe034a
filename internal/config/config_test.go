package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToUCT(t *testing.T) {
	cfg, err := New(Params{})
	require.NoError(t, err)
	require.Equal(t, UCT, cfg.Algorithm)
	require.Equal(t, AutoBias, cfg.Bias)
}

func TestNewOverridesRecognisedKeys(t *testing.T) {
	cfg, err := New(Params{
		"algorithm": "puct",
		"max_depth": "50",
		"bias":      "1.5",
	})
	require.NoError(t, err)
	require.Equal(t, PUCT, cfg.Algorithm)
	require.Equal(t, 50, cfg.MaxDepth)
	require.Equal(t, float32(1.5), cfg.Bias)
}

func TestNewRejectsUnknownAlgorithm(t *testing.T) {
	_, err := New(Params{"algorithm": "not-a-real-algorithm"})
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestNewRejectsLeftoverKeys(t *testing.T) {
	_, err := New(Params{"totally_unknown_key": "1"})
	require.Error(t, err)
}

func TestNewRejectsNonPositiveMaxDepth(t *testing.T) {
	_, err := New(Params{"max_depth": "0"})
	require.Error(t, err)
}

func TestNewRejectsTranspositionTableWithZeroMutexes(t *testing.T) {
	_, err := New(Params{
		"use_transposition_table":         "true",
		"num_transposition_table_mutexes": "0",
	})
	require.Error(t, err)
}

func TestNewRejectsEpsilonOutOfRange(t *testing.T) {
	_, err := New(Params{"epsilon": "1.5"})
	require.Error(t, err)
}
