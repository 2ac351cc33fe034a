package mcts

import (
	"github.com/parallelmcts/pmcts/internal/env"
)

// RunTrial executes one full selection -> expansion -> rollout-heuristic ->
// backup trial from root. It returns a non-nil error only
// for an EnvironmentError raised mid-trial; the trial is then abandoned
// without any backup (the path observed so far is not a consistent sample
// of any return) and the caller is expected to fold the error and move on
// to the next trial.
func RunTrial[S env.State, A env.Action, O env.Observation](m *Manager[S, A, O], root *DNode[S, A, O], ctx *Context[S, A, O]) error {
	d := root
	for {
		d.Visit(ctx)
		if d.IsLeaf() || d.depth >= m.Config.MaxDepth {
			break
		}
		if m.Config.MCTSMode && ctx.newDecisionNodeThisTrial {
			// MCTS mode allows at most one new decision node per trial: the
			// freshly expanded leaf was just visited above; stop descending
			// and evaluate it with the heuristic instead of sampling further.
			break
		}

		actionIdx := m.selectPolicy.SelectAction(m, d, ctx)
		c := d.CreateChild(ctx, actionIdx)
		c.Visit(ctx)

		o, nextState, reward, err := c.SampleObservation(ctx)
		if err != nil {
			return err
		}
		child := c.CreateChild(ctx, o, nextState)

		ctx.hops = append(ctx.hops, trialHop[S, A, O]{d: d, actionIdx: actionIdx, c: c, reward: reward})
		d = child
	}

	leafValueLocal := 0.0
	if !d.terminal {
		leafValueLocal = localHeuristic(m, d.state, d.isOpponent)
	}
	d.Backup(-1, leafValueLocal)

	// G always holds the current partial return converted to the root's
	// frame (root.isOpponent is always false); every node's own backup
	// value is G converted back into that node's local frame, since each
	// node keeps stats from its own mover's perspective.
	g := toGlobalFrame(d.isOpponent, leafValueLocal)
	for i := len(ctx.hops) - 1; i >= 0; i-- {
		hop := ctx.hops[i]
		g += toGlobalFrame(hop.d.isOpponent, hop.reward)

		hop.c.Backup(fromGlobalFrame(hop.c.isOpponent, g))
		hop.d.Backup(hop.actionIdx, fromGlobalFrame(hop.d.isOpponent, g))
	}
	return nil
}

func toGlobalFrame(isOpponent bool, localValue float64) float64 {
	if isOpponent {
		return -localValue
	}
	return localValue
}

func fromGlobalFrame(isOpponent bool, global float64) float64 {
	if isOpponent {
		return -global
	}
	return global
}
