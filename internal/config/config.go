package config

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/parallelmcts/pmcts/internal/generics"
)

// Algorithm selects the node-local selection/backup contract a search uses.
// See internal/mcts for the selection and backup policies bound to each value.
type Algorithm string

const (
	UCT     Algorithm = "uct"
	PUCT    Algorithm = "puct"
	AlphaGo Algorithm = "alphago"
	MENTS   Algorithm = "ments"
	RENTS   Algorithm = "rents"
	TENTS   Algorithm = "tents"
	DENTS   Algorithm = "dents"
	EST     Algorithm = "est"
)

// TempDecayFn names a decayed-temperature schedule, see internal/mcts/temperature.go.
type TempDecayFn string

const (
	NoDecay TempDecayFn = "none"
	InvSqrt TempDecayFn = "sqrt"
	InvLog  TempDecayFn = "log"
	Sigmoid TempDecayFn = "sigmoid"
)

// AutoBias is the sentinel value of Bias that requests the AUTO_BIAS scheme:
// c = max(AutoBiasMin, running |q|_max over the root subtree).
const AutoBias = float32(-1)

// AutoBiasMin is the floor used by the AUTO_BIAS scheme.
const AutoBiasMin = float32(1e-2)

// ConfigError reports an unknown algorithm or a contradictory combination of
// flags. It is fatal at pool construction, per the error taxonomy.
type ConfigError struct {
	cause error
}

func (e *ConfigError) Error() string { return "config: " + e.cause.Error() }
func (e *ConfigError) Unwrap() error { return e.cause }

func configErrorf(format string, args ...any) error {
	return &ConfigError{cause: errors.Errorf(format, args...)}
}

// Config is the typed form of the algorithm configuration table. It is built
// once, at search construction, from a Params map via New.
type Config struct {
	Algorithm Algorithm

	MaxDepth                     int
	MCTSMode                     bool
	UseTranspositionTable        bool
	NumTranspositionTableMutexes int
	IsTwoPlayerGame              bool
	Seed                         int64

	// UCB family.
	Bias                  float32
	PuctPower             float32
	HeuristicPseudoTrials int
	EpsilonExploration    float32
	RecommendMostVisited  bool

	// Search-temperature schedule (softmax family).
	Temp                float32
	TempDecayFn         TempDecayFn
	TempDecayMin        float32
	VisitsScale         float32
	RootNodeVisitsScale float32

	// Value-temperature schedule (DENTS only).
	ValueTempInit            float32
	ValueTempDecayFn         TempDecayFn
	ValueTempDecayMin        float32
	ValueTempVisitsScale     float32
	ValueTempRootVisitsScale float32
	UseDPValue               bool

	// Softmax epsilon-mixing and kernel shaping.
	Epsilon                 float32
	RootNodeEpsilon         float32
	PriorPolicySearchWeight float32
	ShiftPseudoQValues      bool
	DefaultQValue           float32

	// Alias-method sampling.
	AliasUseCaching    bool
	AliasRecomputeFreq int

	// Concurrency-aware masking.
	AvoidSelectingChildrenUnderConstruction bool

	// AlphaGo root Dirichlet noise.
	DirichletNoiseCoeff        float32
	DirichletNoiseParam        float32
	DirichletNoiseOncePerTrial bool
}

// Default returns the canonical default configuration for algorithm a.
func Default(a Algorithm) Config {
	return Config{
		Algorithm:                               a,
		MaxDepth:                                1000,
		MCTSMode:                                true,
		UseTranspositionTable:                   false,
		NumTranspositionTableMutexes:            64,
		IsTwoPlayerGame:                         false,
		Seed:                                    0,
		Bias:                                    AutoBias,
		PuctPower:                               0.5,
		HeuristicPseudoTrials:                   0,
		EpsilonExploration:                      0,
		RecommendMostVisited:                    true,
		Temp:                                    1.0,
		TempDecayFn:                             NoDecay,
		TempDecayMin:                            0.01,
		VisitsScale:                             1.0,
		RootNodeVisitsScale:                     1.0,
		ValueTempInit:                           1.0,
		ValueTempDecayFn:                        NoDecay,
		ValueTempDecayMin:                       0.01,
		ValueTempVisitsScale:                    1.0,
		ValueTempRootVisitsScale:                1.0,
		UseDPValue:                              false,
		Epsilon:                                 0.25,
		RootNodeEpsilon:                         0.25,
		PriorPolicySearchWeight:                 1.0,
		ShiftPseudoQValues:                      true,
		DefaultQValue:                           0,
		AliasUseCaching:                         false,
		AliasRecomputeFreq:                      4,
		AvoidSelectingChildrenUnderConstruction: false,
		DirichletNoiseCoeff:                     0.25,
		DirichletNoiseParam:                     0.03,
		DirichletNoiseOncePerTrial:              false,
	}
}

// New builds a Config from params, starting from Default(algorithm) and
// overriding every recognised key present in params. Every popped key is
// removed from params, so callers can detect leftover unrecognised keys.
func New(params Params) (cfg Config, err error) {
	algoStr, err := PopParamOr(params, "algorithm", string(UCT))
	if err != nil {
		return cfg, &ConfigError{cause: err}
	}
	algo := Algorithm(strings.ToLower(algoStr))
	switch algo {
	case UCT, PUCT, AlphaGo, MENTS, RENTS, TENTS, DENTS, EST:
	default:
		return cfg, configErrorf("unknown algorithm %q", algoStr)
	}
	cfg = Default(algo)

	if err = popInt(params, "max_depth", &cfg.MaxDepth); err != nil {
		return cfg, err
	}
	if err = popBool(params, "mcts_mode", &cfg.MCTSMode); err != nil {
		return cfg, err
	}
	if err = popBool(params, "use_transposition_table", &cfg.UseTranspositionTable); err != nil {
		return cfg, err
	}
	if err = popInt(params, "num_transposition_table_mutexes", &cfg.NumTranspositionTableMutexes); err != nil {
		return cfg, err
	}
	if err = popBool(params, "is_two_player_game", &cfg.IsTwoPlayerGame); err != nil {
		return cfg, err
	}
	var seed int
	seed, err = PopParamOr(params, "seed", int(cfg.Seed))
	if err != nil {
		return cfg, &ConfigError{cause: err}
	}
	cfg.Seed = int64(seed)

	if err = popFloat(params, "bias", &cfg.Bias); err != nil {
		return cfg, err
	}
	if err = popFloat(params, "puct_power", &cfg.PuctPower); err != nil {
		return cfg, err
	}
	if err = popInt(params, "heuristic_pseudo_trials", &cfg.HeuristicPseudoTrials); err != nil {
		return cfg, err
	}
	if err = popFloat(params, "epsilon_exploration", &cfg.EpsilonExploration); err != nil {
		return cfg, err
	}
	if err = popBool(params, "recommend_most_visited", &cfg.RecommendMostVisited); err != nil {
		return cfg, err
	}

	if err = popFloat(params, "temp", &cfg.Temp); err != nil {
		return cfg, err
	}
	var tempDecay string
	tempDecay, err = PopParamOr(params, "temp_decay_fn", string(cfg.TempDecayFn))
	if err != nil {
		return cfg, &ConfigError{cause: err}
	}
	cfg.TempDecayFn = TempDecayFn(tempDecay)
	if err = popFloat(params, "temp_decay_min", &cfg.TempDecayMin); err != nil {
		return cfg, err
	}
	if err = popFloat(params, "visits_scale", &cfg.VisitsScale); err != nil {
		return cfg, err
	}
	if err = popFloat(params, "root_node_visits_scale", &cfg.RootNodeVisitsScale); err != nil {
		return cfg, err
	}

	if err = popFloat(params, "value_temp_init", &cfg.ValueTempInit); err != nil {
		return cfg, err
	}
	var valueTempDecay string
	valueTempDecay, err = PopParamOr(params, "value_temp_decay_fn", string(cfg.ValueTempDecayFn))
	if err != nil {
		return cfg, &ConfigError{cause: err}
	}
	cfg.ValueTempDecayFn = TempDecayFn(valueTempDecay)
	if err = popFloat(params, "value_temp_decay_min", &cfg.ValueTempDecayMin); err != nil {
		return cfg, err
	}
	if err = popFloat(params, "value_temp_visits_scale", &cfg.ValueTempVisitsScale); err != nil {
		return cfg, err
	}
	if err = popFloat(params, "value_temp_root_visits_scale", &cfg.ValueTempRootVisitsScale); err != nil {
		return cfg, err
	}
	if err = popBool(params, "use_dp_value", &cfg.UseDPValue); err != nil {
		return cfg, err
	}

	if err = popFloat(params, "epsilon", &cfg.Epsilon); err != nil {
		return cfg, err
	}
	if err = popFloat(params, "root_node_epsilon", &cfg.RootNodeEpsilon); err != nil {
		return cfg, err
	}
	if err = popFloat(params, "prior_policy_search_weight", &cfg.PriorPolicySearchWeight); err != nil {
		return cfg, err
	}
	if err = popBool(params, "shift_pseudo_q_values", &cfg.ShiftPseudoQValues); err != nil {
		return cfg, err
	}

	if err = popBool(params, "alias_use_caching", &cfg.AliasUseCaching); err != nil {
		return cfg, err
	}
	if err = popInt(params, "alias_recompute_freq", &cfg.AliasRecomputeFreq); err != nil {
		return cfg, err
	}

	if err = popBool(params, "avoid_selecting_children_under_construction", &cfg.AvoidSelectingChildrenUnderConstruction); err != nil {
		return cfg, err
	}

	if err = popFloat(params, "dirichlet_noise_coeff", &cfg.DirichletNoiseCoeff); err != nil {
		return cfg, err
	}
	if err = popFloat(params, "dirichlet_noise_param", &cfg.DirichletNoiseParam); err != nil {
		return cfg, err
	}
	if err = popBool(params, "dirichlet_noise_once_per_trial", &cfg.DirichletNoiseOncePerTrial); err != nil {
		return cfg, err
	}

	if err = cfg.validate(); err != nil {
		return cfg, err
	}
	if len(params) > 0 {
		// Every recognised key was popped above; anything left over is
		// either a typo or a key this version doesn't know about yet.
		// Sorted so repeated runs produce identical log output.
		for key := range generics.SortedKeys(params) {
			return cfg, configErrorf("unrecognised configuration key %q=%q", key, params[key])
		}
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if cfg.MaxDepth <= 0 {
		return configErrorf("max_depth must be positive, got %d", cfg.MaxDepth)
	}
	if cfg.NumTranspositionTableMutexes <= 0 && cfg.UseTranspositionTable {
		return configErrorf("num_transposition_table_mutexes must be positive when use_transposition_table is set")
	}
	isSoftmax := cfg.Algorithm == MENTS || cfg.Algorithm == RENTS || cfg.Algorithm == TENTS || cfg.Algorithm == DENTS || cfg.Algorithm == EST
	if isSoftmax && cfg.TempDecayFn != NoDecay && cfg.Temp <= 0 {
		return configErrorf("temp_decay_fn=%s requires a positive temp, got %f", cfg.TempDecayFn, cfg.Temp)
	}
	if cfg.Algorithm == DENTS && cfg.ValueTempDecayFn != NoDecay && cfg.ValueTempInit <= 0 {
		return configErrorf("value_temp_decay_fn=%s requires a positive value_temp_init, got %f", cfg.ValueTempDecayFn, cfg.ValueTempInit)
	}
	if cfg.EpsilonExploration < 0 || cfg.EpsilonExploration > 1 {
		return configErrorf("epsilon_exploration must be in [0,1], got %f", cfg.EpsilonExploration)
	}
	if cfg.Epsilon < 0 || cfg.Epsilon > 1 || cfg.RootNodeEpsilon < 0 || cfg.RootNodeEpsilon > 1 {
		return configErrorf("epsilon and root_node_epsilon must be in [0,1]")
	}
	return nil
}

func popInt(params Params, key string, dst *int) error {
	v, err := PopParamOr(params, key, *dst)
	if err != nil {
		return &ConfigError{cause: err}
	}
	*dst = v
	return nil
}

func popBool(params Params, key string, dst *bool) error {
	v, err := PopParamOr(params, key, *dst)
	if err != nil {
		return &ConfigError{cause: err}
	}
	*dst = v
	return nil
}

func popFloat(params Params, key string, dst *float32) error {
	v, err := PopParamOr(params, key, *dst)
	if err != nil {
		return &ConfigError{cause: err}
	}
	*dst = v
	return nil
}
