package mcts

import (
	"sync"

	"github.com/parallelmcts/pmcts/internal/config"
	"github.com/parallelmcts/pmcts/internal/env"
)

// nodeStats holds the policy-family fields shared by D-nodes and C-nodes:
// empirical mean return, DP value and the softmax family's soft value /
// subtree entropy. Kept as one small value type composed into each node
// rather than modelled through inheritance.
type nodeStats struct {
	q              float64 // empirical mean return, local to the node's own mover frame.
	dpValue        float64
	softValue      float64
	subtreeEntropy float64
}

// DNode is a decision node: a state at a specific (depth, timestep).
type DNode[S env.State, A env.Action, O env.Observation] struct {
	m  *Manager[S, A, O]
	mu sync.Mutex

	state      S
	depth      int
	timestep   int
	isOpponent bool
	terminal   bool

	parent *CNode[S, A, O] // non-owning; nil for the root.

	actions  []A
	children []*CNode[S, A, O] // parallel to actions; nil entry means not yet created.
	prior    []float64         // cached base prior over actions.

	rootPrior      []float64 // Dirichlet-mixed prior, root only.
	rootNoiseDrawn bool

	n, b  int
	stats nodeStats

	alias                    *aliasTable
	aliasBackupsSinceRebuild int
	aliasSupportSize         int
}

func newDNode[S env.State, A env.Action, O env.Observation](
	m *Manager[S, A, O], state S, depth, timestep int, isOpponent bool, parent *CNode[S, A, O],
) *DNode[S, A, O] {
	d := &DNode[S, A, O]{
		m:          m,
		state:      state,
		depth:      depth,
		timestep:   timestep,
		isOpponent: isOpponent,
		parent:     parent,
		terminal:   m.Env.IsTerminal(state),
	}
	if !d.terminal {
		d.actions = m.Env.ValidActions(state)
		d.children = make([]*CNode[S, A, O], len(d.actions))
		d.prior = m.Prior.Evaluate(state, d.actions)
	}
	if m.Config.HeuristicPseudoTrials > 0 {
		h := localHeuristic(m, d.state, d.isOpponent)
		d.n = m.Config.HeuristicPseudoTrials
		d.b = m.Config.HeuristicPseudoTrials
		d.stats.q = h
		d.stats.dpValue = h
		d.stats.softValue = h
	}
	return d
}

func localHeuristic[S env.State, A env.Action, O env.Observation](m *Manager[S, A, O], s S, isOpponent bool) float64 {
	h := m.Heur.Evaluate(s)
	if isOpponent {
		return -h
	}
	return h
}

// IsLeaf reports whether the node's state is terminal.
func (d *DNode[S, A, O]) IsLeaf() bool { return d.terminal }

// IsRoot reports whether d has no parent.
func (d *DNode[S, A, O]) IsRoot() bool { return d.parent == nil }

// GetNumVisits returns the current visit counter n.
func (d *DNode[S, A, O]) GetNumVisits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.n
}

// NumBackups returns the current completed-backups counter b.
func (d *DNode[S, A, O]) NumBackups() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.b
}

// State exposes the underlying domain state.
func (d *DNode[S, A, O]) State() S { return d.state }

// GetValue returns the node's current mean-return estimate.
func (d *DNode[S, A, O]) GetValue() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats.q
}

// Actions returns the cached legal-action list.
func (d *DNode[S, A, O]) Actions() []A { return d.actions }

// Visit increments n under the node lock before selection returns. For the
// AlphaGo root, it also drives the Dirichlet-noise redraw.
func (d *DNode[S, A, O]) Visit(ctx *Context[S, A, O]) {
	d.mu.Lock()
	d.n++
	d.mu.Unlock()
	if d.IsRoot() && d.m.Config.Algorithm == config.AlphaGo && d.m.Config.DirichletNoiseCoeff > 0 {
		d.maybeDrawRootNoise()
	}
}

// maybeDrawRootNoise mixes a Dirichlet draw into the root's prior.
// DirichletNoiseOncePerTrial=false (the default) redraws the mixed prior on
// every call; =true draws it once and caches it for the rest of the search.
func (d *DNode[S, A, O]) maybeDrawRootNoise() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.m.Config.DirichletNoiseOncePerTrial && d.rootNoiseDrawn {
		return
	}
	if len(d.actions) == 0 {
		return
	}
	if d.rootPrior == nil {
		d.rootPrior = make([]float64, len(d.prior))
	}
	eta := sampleDirichletNoise(len(d.actions), float64(d.m.Config.DirichletNoiseParam), d.m.RandSource())
	alpha := float64(d.m.Config.DirichletNoiseCoeff)
	for i, p := range d.prior {
		d.rootPrior[i] = (1-alpha)*p + alpha*eta[i]
	}
	d.rootNoiseDrawn = true
}

// effectivePrior returns the root-mixed prior at the root (when AlphaGo
// noise is active) and the plain cached prior everywhere else; the prior
// observed at any non-root node always matches the base prior exactly.
func (d *DNode[S, A, O]) effectivePrior() []float64 {
	if d.IsRoot() && d.rootPrior != nil {
		return d.rootPrior
	}
	return d.prior
}

// HasChild reports whether a child exists for the action at actionIdx.
func (d *DNode[S, A, O]) HasChild(actionIdx int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.children[actionIdx] != nil
}

// GetChild returns the existing child for actionIdx, or raises a
// TreeInvariantError if it does not exist.
func (d *DNode[S, A, O]) GetChild(actionIdx int) *CNode[S, A, O] {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := d.children[actionIdx]
	if c == nil {
		panicInvariant("get_child(%d) on decision node with no such child", actionIdx)
	}
	return c
}

// CreateChild guarantees at most one CNode object exists per (depth, state,
// action) key at a time, even under many concurrent selectors.
func (d *DNode[S, A, O]) CreateChild(ctx *Context[S, A, O], actionIdx int) *CNode[S, A, O] {
	d.mu.Lock()
	if c := d.children[actionIdx]; c != nil {
		d.mu.Unlock()
		return c
	}
	action := d.actions[actionIdx]

	if d.m.dTable == nil { // transposition table disabled: always allocate fresh.
		c := newCNode(d.m, d.state, action, d.depth, d.timestep, d.isOpponent, d)
		d.children[actionIdx] = c
		d.mu.Unlock()
		return c
	}
	d.mu.Unlock()

	key := cKey[S, A]{depth: d.depth, state: d.state, action: action}
	candidate := newCNode(d.m, d.state, action, d.depth, d.timestep, d.isOpponent, d)
	installed, _ := d.m.cTable.lookupOrStore(key, candidate)

	d.mu.Lock()
	if existing := d.children[actionIdx]; existing != nil {
		d.mu.Unlock()
		return existing
	}
	d.children[actionIdx] = installed
	d.mu.Unlock()
	return installed
}

// Backup applies the node's bound BackupPolicy under the node lock.
func (d *DNode[S, A, O]) Backup(actionIdx int, g float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.m.backupPolicy.BackupDecision(d.m, d, actionIdx, g)
	d.b++
	d.m.observeReturn(float32(g))
}

// localQ returns the mean-view value of child at actionIdx, as seen by this
// node (i.e. negated if the child's mover differs from this node's mover;
// in this engine C-nodes always share their owning D-node's mover, so no
// negation ever applies at that boundary -- negation only happens across a
// D-node/D-node alternation, handled by the backup/selection policies that
// read dp/soft values directly off child DNode structs).
func (d *DNode[S, A, O]) localQ(actionIdx int) (q float64, n int) {
	c := d.children[actionIdx]
	if c == nil {
		return float64(d.m.Config.DefaultQValue), 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats.q, c.n
}

// localStats returns the full nodeStats of the child at actionIdx (so
// callers can read dp_value/soft_value, not just the empirical mean), along
// with its visit count. A non-existent child reports the default Q value
// with every other field zero.
func (d *DNode[S, A, O]) localStats(actionIdx int) (stats nodeStats, n int) {
	c := d.children[actionIdx]
	if c == nil {
		return nodeStats{q: float64(d.m.Config.DefaultQValue)}, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats, c.n
}

// CNode is a chance node: a (state, action) pair at (depth, timestep).
type CNode[S env.State, A env.Action, O env.Observation] struct {
	m  *Manager[S, A, O]
	mu sync.Mutex

	state      S // the state this action is taken from.
	action     A
	depth      int
	timestep   int
	isOpponent bool

	parent *DNode[S, A, O]

	children map[O]*DNode[S, A, O]

	n, b  int
	stats nodeStats

	alias                    *aliasTable
	aliasBackupsSinceRebuild int
}

func newCNode[S env.State, A env.Action, O env.Observation](
	m *Manager[S, A, O], state S, action A, depth, timestep int, isOpponent bool, parent *DNode[S, A, O],
) *CNode[S, A, O] {
	return &CNode[S, A, O]{
		m:          m,
		state:      state,
		action:     action,
		depth:      depth,
		timestep:   timestep,
		isOpponent: isOpponent,
		parent:     parent,
		children:   make(map[O]*DNode[S, A, O]),
	}
}

// Visit increments n under the node lock.
func (c *CNode[S, A, O]) Visit(*Context[S, A, O]) {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

// GetNumVisits returns n.
func (c *CNode[S, A, O]) GetNumVisits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// SampleObservation draws one (observation, next-state, reward) triple from
// the environment. The reward is returned as the environment reports it,
// from the perspective of the player to move at c's state, i.e. in c's (and
// its owning D-node's) local frame; the trial driver converts it to the
// root's frame.
func (c *CNode[S, A, O]) SampleObservation(ctx *Context[S, A, O]) (o O, nextState S, reward float64, err error) {
	rngSrc := c.m.RandSource()
	nextState, err = c.m.Env.SampleTransition(ctx.goCtx, c.state, c.action, rngSrc)
	if err != nil {
		return o, nextState, 0, wrapEnvironmentError(err)
	}
	o, err = c.m.Env.SampleObservation(ctx.goCtx, c.action, nextState, rngSrc)
	if err != nil {
		return o, nextState, 0, wrapEnvironmentError(err)
	}
	reward = c.m.Env.Reward(c.state, c.action, o)
	return o, nextState, reward, nil
}

// HasChild reports whether a DNode exists for observation o.
func (c *CNode[S, A, O]) HasChild(o O) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.children[o]
	return ok
}

// GetChild returns the existing child for o, or panics with a
// TreeInvariantError.
func (c *CNode[S, A, O]) GetChild(o O) *DNode[S, A, O] {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.children[o]
	if !ok {
		panicInvariant("get_child(%v) on chance node with no such child", o)
	}
	return d
}

// CreateChild is the C-node analogue of DNode.CreateChild's child-creation
// algorithm, keyed by observation (or the resolved next state, when
// transposition tables are enabled).
func (c *CNode[S, A, O]) CreateChild(ctx *Context[S, A, O], o O, nextState S) *DNode[S, A, O] {
	c.mu.Lock()
	if d := c.children[o]; d != nil {
		c.mu.Unlock()
		return d
	}
	childIsOpponent := c.isOpponent
	if c.m.Config.IsTwoPlayerGame {
		childIsOpponent = !c.isOpponent
	}

	if c.m.dTable == nil {
		d := newDNode(c.m, nextState, c.depth+1, c.timestep+1, childIsOpponent, c)
		c.children[o] = d
		c.mu.Unlock()
		ctx.newDecisionNodeThisTrial = true
		return d
	}
	c.mu.Unlock()

	key := dKey[S]{depth: c.depth + 1, state: nextState}
	candidate := newDNode(c.m, nextState, c.depth+1, c.timestep+1, childIsOpponent, c)
	installed, created := c.m.dTable.lookupOrStore(key, candidate)

	c.mu.Lock()
	if existing := c.children[o]; existing != nil {
		c.mu.Unlock()
		return existing
	}
	c.children[o] = installed
	c.mu.Unlock()
	ctx.newDecisionNodeThisTrial = created
	return installed
}

// Backup applies the node's bound BackupPolicy under the node lock.
func (c *CNode[S, A, O]) Backup(g float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m.backupPolicy.BackupChance(c.m, c, g)
	c.b++
}
