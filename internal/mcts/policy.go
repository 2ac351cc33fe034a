package mcts

import (
	"github.com/parallelmcts/pmcts/internal/config"
	"github.com/parallelmcts/pmcts/internal/env"
)

// SelectPolicy picks the action a decision node descends into. Node
// creation, locking and visit-counting are the node's own concern; the
// policy only scores and argmax-selects.
type SelectPolicy[S env.State, A env.Action, O env.Observation] interface {
	// SelectAction returns the index into d.actions to descend into. d must
	// not be terminal. The node is not locked by the caller; the policy
	// takes whatever locks it needs, tolerating stale-but-consistent reads
	// during concurrent descents.
	SelectAction(m *Manager[S, A, O], d *DNode[S, A, O], ctx *Context[S, A, O]) int

	// RecommendAction returns the index to report as the search result,
	// called once after the search completes.
	RecommendAction(m *Manager[S, A, O], d *DNode[S, A, O]) int
}

// BackupPolicy updates a node's statistics after a trial returns through it.
// All methods run under the node's own lock (d.mu / c.mu already held by
// DNode.Backup / CNode.Backup).
type BackupPolicy[S env.State, A env.Action, O env.Observation] interface {
	BackupDecision(m *Manager[S, A, O], d *DNode[S, A, O], actionIdx int, g float64)
	BackupChance(m *Manager[S, A, O], c *CNode[S, A, O], g float64)
}

func newSelectPolicy[S env.State, A env.Action, O env.Observation](cfg config.Config) SelectPolicy[S, A, O] {
	switch cfg.Algorithm {
	case config.UCT:
		return &ucbSelectPolicy[S, A, O]{cfg: cfg, kind: ucbUCT}
	case config.PUCT:
		return &ucbSelectPolicy[S, A, O]{cfg: cfg, kind: ucbPUCT}
	case config.AlphaGo:
		return &ucbSelectPolicy[S, A, O]{cfg: cfg, kind: ucbAlphaGo}
	case config.MENTS:
		return &softmaxSelectPolicy[S, A, O]{cfg: cfg, kernel: kernelMENTS}
	case config.RENTS:
		return &softmaxSelectPolicy[S, A, O]{cfg: cfg, kernel: kernelRENTS}
	case config.TENTS:
		return &softmaxSelectPolicy[S, A, O]{cfg: cfg, kernel: kernelTENTS}
	case config.DENTS:
		return &softmaxSelectPolicy[S, A, O]{cfg: cfg, kernel: kernelMENTS, useDecayedValue: true}
	case config.EST:
		return &softmaxSelectPolicy[S, A, O]{cfg: cfg, kernel: kernelMENTS, useEmpiricalMean: true}
	default:
		return &ucbSelectPolicy[S, A, O]{cfg: cfg, kind: ucbUCT}
	}
}

func newBackupPolicy[S env.State, A env.Action, O env.Observation](cfg config.Config) BackupPolicy[S, A, O] {
	switch cfg.Algorithm {
	case config.UCT:
		return &backupPolicy[S, A, O]{cfg: cfg}
	case config.PUCT, config.AlphaGo:
		return &backupPolicy[S, A, O]{cfg: cfg, needDP: true}
	case config.MENTS:
		return &backupPolicy[S, A, O]{cfg: cfg, needSoft: true, kernel: kernelMENTS}
	case config.RENTS:
		return &backupPolicy[S, A, O]{cfg: cfg, needSoft: true, kernel: kernelRENTS}
	case config.TENTS:
		return &backupPolicy[S, A, O]{cfg: cfg, needSoft: true, kernel: kernelTENTS}
	case config.DENTS:
		return &backupPolicy[S, A, O]{cfg: cfg, needSoft: true, needDP: true, needEntropy: true, kernel: kernelMENTS}
	case config.EST:
		return &backupPolicy[S, A, O]{cfg: cfg, needDP: cfg.UseDPValue}
	default:
		return &backupPolicy[S, A, O]{cfg: cfg}
	}
}
