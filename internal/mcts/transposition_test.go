package mcts

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShardedTableLookupOrStoreDedups(t *testing.T) {
	table := newShardedTable[dKey[int], *int](4)
	key := dKey[int]{depth: 1, state: 7}

	a := 1
	b := 2
	got1, created1 := table.lookupOrStore(key, &a)
	got2, created2 := table.lookupOrStore(key, &b)

	require.True(t, created1)
	require.False(t, created2)
	require.Same(t, got1, got2)
	require.Equal(t, 1, table.size())
}

func TestShardedTableConcurrentInsertOneWinner(t *testing.T) {
	table := newShardedTable[dKey[int], *int](8)
	key := dKey[int]{depth: 0, state: 1}

	const n = 100
	results := make([]*int, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			v := i
			installed, _ := table.lookupOrStore(key, &v)
			results[i] = installed
		}()
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		require.Same(t, results[0], results[i])
	}
}
