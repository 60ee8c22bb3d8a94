package proxycore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextStreamIDDistinctConcurrent(t *testing.T) {
	streamIDCounter = -1

	const n = 2000
	ids := make([]int16, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = nextStreamID()
		}(i)
	}
	wg.Wait()

	seen := make(map[int16]bool, n)
	for _, id := range ids {
		require.False(t, seen[id], "duplicate stream id %d", id)
		require.GreaterOrEqual(t, id, int16(0))
		require.LessOrEqual(t, id, int16(maxStreamID))
		seen[id] = true
	}
}

func TestNextStreamIDWrapsAfterMax(t *testing.T) {
	streamIDCounter = maxStreamID - 1
	require.Equal(t, int16(maxStreamID), nextStreamID())
	require.Equal(t, int16(0), nextStreamID())
}
