package mcts

import "github.com/parallelmcts/pmcts/internal/config"

func toTempDecayFnName(f config.TempDecayFn) tempDecayFnName {
	switch f {
	case config.InvSqrt:
		return tempInvSqrt
	case config.InvLog:
		return tempInvLog
	case config.Sigmoid:
		return tempSigmoid
	default:
		return tempNone
	}
}
