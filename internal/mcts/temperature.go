package mcts

import "math"

// decaySchedule implements one of: no_decay, inv_sqrt, inv_log, sigmoid,
// each a function of n_hat = visits/visits_scale.
type decaySchedule func(nHat float64) float64

func noDecaySchedule(float64) float64 { return 1 }

func invSqrtSchedule(nHat float64) float64 { return 1 / math.Sqrt(1+nHat) }

func invLogSchedule(nHat float64) float64 { return 1 / math.Log(math.E+nHat) }

func sigmoidSchedule(nHat float64) float64 { return 2 * logistic(-nHat) }

func logistic(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func scheduleFor(name tempDecayFnName) decaySchedule {
	switch name {
	case tempInvSqrt:
		return invSqrtSchedule
	case tempInvLog:
		return invLogSchedule
	case tempSigmoid:
		return sigmoidSchedule
	default:
		return noDecaySchedule
	}
}

// tempDecayFnName mirrors config.TempDecayFn to avoid an import cycle
// concern; see toTempDecayFnName for the conversion.
type tempDecayFnName int

const (
	tempNone tempDecayFnName = iota
	tempInvSqrt
	tempInvLog
	tempSigmoid
)

// temperature computes T = max(T_min, T_init * schedule(visits/visitsScale)),
// the composition used by both the search-temperature and (DENTS)
// value-temperature schedules.
func temperature(tInit, tMin, visits, visitsScale float64, fn tempDecayFnName) float64 {
	if visitsScale <= 0 {
		visitsScale = 1
	}
	nHat := visits / visitsScale
	t := tInit * scheduleFor(fn)(nHat)
	if t < tMin {
		return tMin
	}
	return t
}
