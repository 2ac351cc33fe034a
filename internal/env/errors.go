package env

import "github.com/pkg/errors"

// ErrInvalidAction is wrapped and returned (or used with errors.Is) whenever
// an Environment is asked to act on an action outside ValidActions(s).
var ErrInvalidAction = errors.New("action not valid for this state")

// ErrDistributionUnavailable signals TransitionDistribution/
// ObservationDistribution cannot materialize the full distribution (support
// too large or infinite); callers must fall back to the sampler.
var ErrDistributionUnavailable = errors.New("distribution not available, use the sampler")

// ErrProbabilitiesDoNotSumToOne is returned by environments (or detected by
// the engine) when a distribution map's probabilities do not sum to ~1.
var ErrProbabilitiesDoNotSumToOne = errors.New("probabilities do not sum to 1")
