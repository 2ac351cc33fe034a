package mcts

import (
	"context"

	"github.com/parallelmcts/pmcts/internal/env"
)

// Context is a per-trial, per-goroutine scratchpad: never shared across
// trials or threads. It is recycled
// through Manager's sync.Pool across trials on the same goroutine to avoid
// reallocating its scratch buffers every trial.
type Context[S env.State, A env.Action, O env.Observation] struct {
	// goCtx is the caller-supplied context.Context for this trial, used to
	// let environment calls observe pool shutdown/cancellation.
	goCtx context.Context

	// hops accumulates the trial's path of (decision node, action index,
	// chance node, reward) hops, in forward order, for the backward backup
	// pass.
	hops []trialHop[S, A, O]

	// newDecisionNodeThisTrial is set by CreateChild when it allocates a
	// brand-new DNode, so the trial driver can implement mcts_mode's
	// stop-on-first-new-D-node rule.
	newDecisionNodeThisTrial bool

	// err is cleared by reset; the trial driver does not read it, since
	// RunTrial returns an EnvironmentError directly and abandons the trial.
	err error
}

type trialHop[S env.State, A env.Action, O env.Observation] struct {
	d         *DNode[S, A, O]
	actionIdx int
	c         *CNode[S, A, O]
	reward    float64
}

func (c *Context[S, A, O]) reset() {
	c.hops = c.hops[:0]
	c.newDecisionNodeThisTrial = false
	c.err = nil
	c.goCtx = context.Background()
}
