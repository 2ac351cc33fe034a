package mcts

import (
	"hash/fnv"
	"sync"
)

// dKey identifies a decision node for transposition-table coalescing:
// identical (depth, state) share one DNode object.
type dKey[S comparable] struct {
	depth int
	state S
}

// cKey identifies a chance node: identical (depth, state, action) share one
// CNode object.
type cKey[S comparable, A comparable] struct {
	depth  int
	state  S
	action A
}

// shardedTable is a transposition table guarded by a fixed number of lock
// shards selected by hashing the key. Go's builtin map lacks a stable hash
// function exposed to callers, so keys are hashed through fmt.Sprintf into
// an fnv64a digest; this is adequate since lookups are already dominated by
// the map's own hashing, and the shard count is small (tens, not millions).
type shardedTable[K comparable, V any] struct {
	shards []tableShard[K, V]
}

type tableShard[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]V
}

func newShardedTable[K comparable, V any](numShards int) *shardedTable[K, V] {
	if numShards < 1 {
		numShards = 1
	}
	t := &shardedTable[K, V]{shards: make([]tableShard[K, V], numShards)}
	for i := range t.shards {
		t.shards[i].m = make(map[K]V)
	}
	return t
}

func (t *shardedTable[K, V]) shardFor(key K) *tableShard[K, V] {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fmtKey(key)))
	idx := int(h.Sum64() % uint64(len(t.shards)))
	return &t.shards[idx]
}

// lookupOrStore returns the existing value for key if present; otherwise it
// stores and returns newValue. The returned bool is true if newValue was the
// one stored (a miss): callers must compute newValue before calling, but
// only the winner of a race gets to keep it installed, guaranteeing at most
// one object per key.
func (t *shardedTable[K, V]) lookupOrStore(key K, newValue V) (V, bool) {
	shard := t.shardFor(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if existing, ok := shard.m[key]; ok {
		return existing, false
	}
	shard.m[key] = newValue
	return newValue, true
}

func (t *shardedTable[K, V]) size() int {
	n := 0
	for i := range t.shards {
		t.shards[i].mu.Lock()
		n += len(t.shards[i].m)
		t.shards[i].mu.Unlock()
	}
	return n
}

// fmtKey renders a comparable key into bytes suitable for hashing. Struct
// keys made only of comparable domain values print deterministically via
// fmt, which is sufficient here since it only needs to be stable within one
// process lifetime, not portable.
func fmtKey[K comparable](key K) string {
	return sprintKey(key)
}
