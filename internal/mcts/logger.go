package mcts

import (
	"encoding/csv"
	"fmt"
	"io"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/parallelmcts/pmcts/internal/env"
)

// Logger writes periodic CSV snapshots of the root's search progress, one
// row per trigger, gated by whichever of a trial-count delta or a
// wall-time delta fires first -- it snapshots the current state rather than
// replaying history, so missed triggers are never batched up.
type Logger[S env.State, A env.Action, O env.Observation] struct {
	w          *csv.Writer
	mu         sync.Mutex
	headerDone bool
	softFamily bool

	everyTrials int
	everyTime   time.Duration

	lastTrials int
	lastTime   time.Time
}

// NewLogger writes CSV rows to w, snapshotting at most once per
// everyTrials completed backups or everyTime elapsed, whichever comes
// first. Either limit may be zero to disable that trigger; both zero
// disables logging entirely (observe becomes a no-op). softFamily adds the
// soft_value/subtree_entropy columns emitted by the MENTS/RENTS/TENTS/DENTS
// family.
func NewLogger[S env.State, A env.Action, O env.Observation](w io.Writer, everyTrials int, everyTime time.Duration, softFamily bool) *Logger[S, A, O] {
	return &Logger[S, A, O]{
		w:           csv.NewWriter(w),
		everyTrials: everyTrials,
		everyTime:   everyTime,
		softFamily:  softFamily,
		lastTime:    time.Time{},
	}
}

// observe is called by every pool worker after a trial completes; it is a
// no-op unless a trigger has fired since the last row was written.
func (l *Logger[S, A, O]) observe(m *Manager[S, A, O], root *DNode[S, A, O], elapsed time.Duration) {
	if l.everyTrials <= 0 && l.everyTime <= 0 {
		return
	}
	root.mu.Lock()
	trials := root.b
	root.mu.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	trialsFired := l.everyTrials > 0 && trials-l.lastTrials >= l.everyTrials
	timeFired := l.everyTime > 0 && (l.lastTime.IsZero() || time.Since(l.lastTime) >= l.everyTime)
	if !trialsFired && !timeFired {
		return
	}
	l.lastTrials = trials
	l.lastTime = time.Now()

	if !l.headerDone {
		header := []string{"runtime_seconds", "num_trials", "num_backups", "avg_return"}
		if l.softFamily {
			header = append(header, "soft_value", "subtree_entropy")
		}
		if err := l.w.Write(header); err != nil {
			klog.Errorf("mcts: logger header write failed: %v", err)
		}
		l.headerDone = true
	}
	root.mu.Lock()
	row := []string{
		fmt.Sprintf("%.3f", elapsed.Seconds()),
		fmt.Sprintf("%d", root.n),
		fmt.Sprintf("%d", root.b),
		fmt.Sprintf("%.6f", root.stats.q),
	}
	if l.softFamily {
		row = append(row,
			fmt.Sprintf("%.6f", root.stats.softValue),
			fmt.Sprintf("%.6f", root.stats.subtreeEntropy))
	}
	root.mu.Unlock()
	if err := l.w.Write(row); err != nil {
		klog.Errorf("mcts: logger row write failed: %v", err)
	}
	l.w.Flush()
}
