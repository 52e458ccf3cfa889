// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package shuffle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewOnEmptyWeightsProducesEmptyIterator(t *testing.T) {
	ws, err := New(nil)
	require.NoError(t, err)
	require.Equal(t, 0, ws.Len())
	require.Empty(t, ws.All(NewRng(Seed{1})))
	_, ok := ws.First(NewRng(Seed{1}))
	require.False(t, ok)
}

func TestNewRejectsOverflow(t *testing.T) {
	_, err := New([]uint64{1<<63 + 1, 1 << 63})
	require.ErrorIs(t, err, ErrWeightsOverflow)
}

func TestAllIsAPermutation(t *testing.T) {
	weights := []uint64{10, 0, 5, 100, 1, 0, 7}
	ws, err := New(weights)
	require.NoError(t, err)

	rng := NewRng(Seed{1, 2, 3})
	out := ws.All(rng)

	seen := make(map[int]bool)
	for _, idx := range out {
		require.False(t, seen[idx], "index %d produced twice", idx)
		seen[idx] = true
		require.NotZero(t, weights[idx], "zero-weight index %d should never be drawn", idx)
	}
	require.Len(t, out, 5) // five nonzero-weight entries
}

func TestShuffleIsDeterministic(t *testing.T) {
	weights := []uint64{3, 1, 4, 1, 5, 9, 2, 6}
	ws1, err := New(weights)
	require.NoError(t, err)
	ws2, err := New(weights)
	require.NoError(t, err)

	seed := Seed{9, 9, 9, 9}
	require.Equal(t, ws1.All(NewRng(seed)), ws2.All(NewRng(seed)))
}

func TestDifferentSeedsDiffer(t *testing.T) {
	weights := make([]uint64, 64)
	for i := range weights {
		weights[i] = uint64(i + 1)
	}
	ws, err := New(weights)
	require.NoError(t, err)

	a := ws.All(NewRng(Seed{1}))
	b := ws.All(NewRng(Seed{2}))
	require.NotEqual(t, a, b)
}

func TestRemoveIndexExcludesFromShuffle(t *testing.T) {
	ws, err := New([]uint64{5, 5, 5, 5})
	require.NoError(t, err)
	require.NoError(t, ws.RemoveIndex(2))

	out := ws.All(NewRng(Seed{7}))
	require.NotContains(t, out, 2)
	require.Len(t, out, 3)
}

func TestRemoveIndexOutOfRange(t *testing.T) {
	ws, err := New([]uint64{1, 2, 3})
	require.NoError(t, err)
	require.ErrorIs(t, ws.RemoveIndex(-1), ErrIndexOutOfRange)
	require.ErrorIs(t, ws.RemoveIndex(3), ErrIndexOutOfRange)
}

func TestFirstReturnsOneOfTheNonzeroIndices(t *testing.T) {
	weights := []uint64{0, 0, 42, 0}
	ws, err := New(weights)
	require.NoError(t, err)

	idx, ok := ws.First(NewRng(Seed{5}))
	require.True(t, ok)
	require.Equal(t, 2, idx)
}

func TestNewRejectsAllZeroWeights(t *testing.T) {
	_, err := New([]uint64{0, 0, 0})
	require.ErrorIs(t, err, ErrInvalidWeights)
}

func TestConcurrentIteratorsAreIndependent(t *testing.T) {
	weights := []uint64{1, 2, 3, 4, 5}
	ws, err := New(weights)
	require.NoError(t, err)

	seed := Seed{42}
	a := ws.Shuffle(NewRng(seed))
	b := ws.Shuffle(NewRng(seed))

	idxA, _ := a.Next()
	idxB, _ := b.Next()
	require.Equal(t, idxA, idxB)
}
