package mcts

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/parallelmcts/pmcts/internal/env"
)

// Pool runs a fixed-size worker group of goroutines, each repeatedly
// calling RunTrial against a shared root, until a trial budget or a wall
// clock deadline is reached. Workers dispatch off one
// sync.Cond-guarded control block rather than a work channel, since there
// is no per-trial payload to hand out -- every worker does the same thing
// (run one more trial) until told to stop.
type Pool[S env.State, A env.Action, O env.Observation] struct {
	m    *Manager[S, A, O]
	root *DNode[S, A, O]

	numWorkers int
	logger     *Logger[S, A, O]

	workLeftLock   sync.Mutex
	workLeftCV     *sync.Cond
	trialsLeft     int // <0 means "unbounded, stop only on deadline/ctx".
	deadline       time.Time
	alive          bool
	threadsWorking int

	errMu sync.Mutex
	errs  *multierror.Error
}

// NewPool constructs a pool of numWorkers goroutines sharing root.
func NewPool[S env.State, A env.Action, O env.Observation](m *Manager[S, A, O], root *DNode[S, A, O], numWorkers int, logger *Logger[S, A, O]) *Pool[S, A, O] {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	p := &Pool[S, A, O]{m: m, root: root, numWorkers: numWorkers, logger: logger, alive: true}
	p.workLeftCV = sync.NewCond(&p.workLeftLock)
	return p
}

// RunTrials runs up to maxTrials trials (0 means unbounded) bounded by
// maxTime (0 means unbounded); at least one of the two must be positive. If
// blocking is true, RunTrials waits for every worker to finish before
// returning; otherwise it launches the workers and returns immediately,
// and the caller must call Join.
func (p *Pool[S, A, O]) RunTrials(ctx context.Context, maxTrials int, maxTime time.Duration, blocking bool) error {
	if maxTrials <= 0 && maxTime <= 0 {
		return errors.New("mcts: RunTrials requires a positive maxTrials or maxTime")
	}

	p.workLeftLock.Lock()
	if maxTrials > 0 {
		p.trialsLeft = maxTrials
	} else {
		p.trialsLeft = -1
	}
	if maxTime > 0 {
		p.deadline = time.Now().Add(maxTime)
	} else {
		p.deadline = time.Time{}
	}
	p.alive = true
	p.workLeftLock.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	start := time.Now()
	for i := 0; i < p.numWorkers; i++ {
		g.Go(func() error {
			return p.workerLoop(gctx, start)
		})
	}

	if !blocking {
		go func() {
			if err := g.Wait(); err != nil {
				klog.Errorf("mcts: worker group returned: %v", err)
			}
		}()
		return nil
	}
	return g.Wait()
}

// workerLoop is the body run by every pool goroutine: grab one unit of
// trial budget under the control-block lock, run a trial against the
// shared root outside the lock, fold any EnvironmentError, repeat.
func (p *Pool[S, A, O]) workerLoop(ctx context.Context, start time.Time) error {
	for {
		p.workLeftLock.Lock()
		for p.alive && p.trialsLeft == 0 {
			p.workLeftCV.Wait()
		}
		if !p.alive || ctx.Err() != nil {
			p.workLeftLock.Unlock()
			return nil
		}
		if !p.deadline.IsZero() && time.Now().After(p.deadline) {
			p.alive = false
			p.workLeftLock.Unlock()
			p.workLeftCV.Broadcast()
			return nil
		}
		if p.trialsLeft > 0 {
			p.trialsLeft--
		}
		p.threadsWorking++
		p.workLeftLock.Unlock()

		trialCtx := p.m.NewContext()
		trialCtx.goCtx = ctx
		err := RunTrial(p.m, p.root, trialCtx)
		p.m.PutContext(trialCtx)

		if err != nil {
			p.foldError(err)
		}
		if p.logger != nil {
			p.logger.observe(p.m, p.root, time.Since(start))
		}

		p.workLeftLock.Lock()
		p.threadsWorking--
		if p.trialsLeft == 0 {
			p.alive = false
			p.workLeftCV.Broadcast()
		}
		p.workLeftLock.Unlock()
	}
}

// foldError appends err as-is (RunTrial only returns EnvironmentErrors) into
// the pool's running multierror, under its own lock shared by every worker
// goroutine.
func (p *Pool[S, A, O]) foldError(err error) {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	p.errs = multierror.Append(p.errs, err)
	klog.Warningf("mcts: trial aborted: %v", err)
}

// Errors returns the folded EnvironmentErrors observed so far, or nil if
// none occurred.
func (p *Pool[S, A, O]) Errors() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	if p.errs == nil {
		return nil
	}
	return p.errs.ErrorOrNil()
}

// Join stops accepting new trials and wakes every blocked worker so a
// non-blocking RunTrials can be cleanly shut down.
func (p *Pool[S, A, O]) Join() {
	p.workLeftLock.Lock()
	p.alive = false
	p.workLeftLock.Unlock()
	p.workLeftCV.Broadcast()
}
