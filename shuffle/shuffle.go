// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package shuffle

import (
	"errors"

	safemath "github.com/luxfi/turbine/utils/math"
)

var (
	// ErrInvalidWeights is returned when New is given a non-empty weight
	// slice whose weights are all zero.
	ErrInvalidWeights = errors.New("shuffle: all weights are zero")
	// ErrWeightsOverflow is returned when the weights sum past
	// math.MaxUint64, mirroring the overflow check turbine's leader
	// schedule performs over raw stake amounts.
	ErrWeightsOverflow = errors.New("shuffle: total weight overflows uint64")
	// ErrIndexOutOfRange is returned by RemoveIndex for an out-of-bounds
	// index.
	ErrIndexOutOfRange = errors.New("shuffle: index out of range")
)

// fenwick is a binary indexed tree over weights, supporting O(log n)
// prefix-sum queries and point updates. It backs WeightedShuffle's
// without-replacement sampling: drawing an index and then zeroing its
// weight is an O(log n) update instead of an O(n) rebuild.
type fenwick struct {
	tree []uint64
}

func newFenwick(weights []uint64) *fenwick {
	f := &fenwick{tree: make([]uint64, len(weights)+1)}
	for i, w := range weights {
		f.add(i, w)
	}
	return f
}

func (f *fenwick) clone() *fenwick {
	c := &fenwick{tree: make([]uint64, len(f.tree))}
	copy(c.tree, f.tree)
	return c
}

func (f *fenwick) add(i int, delta uint64) {
	for i++; i < len(f.tree); i += i & (-i) {
		f.tree[i] += delta
	}
}

// prefixSum returns the sum of weights over [0, i].
func (f *fenwick) prefixSum(i int) uint64 {
	var sum uint64
	for i++; i > 0; i -= i & (-i) {
		sum += f.tree[i]
	}
	return sum
}

func (f *fenwick) total() uint64 {
	return f.prefixSum(len(f.tree) - 2)
}

// weightAt returns the weight currently held at index i (zero if it has
// already been drawn or removed).
func (f *fenwick) weightAt(i int) uint64 {
	return f.prefixSum(i) - f.prefixSum(i-1)
}

// findByPrefixSum returns the smallest index whose prefix sum exceeds
// target, i.e. the index that target (drawn uniformly from [0, total))
// falls into.
func (f *fenwick) findByPrefixSum(target uint64) int {
	idx := 0
	n := len(f.tree) - 1
	logN := 1
	for logN<<1 <= n {
		logN <<= 1
	}
	for bitMask := logN; bitMask != 0; bitMask >>= 1 {
		next := idx + bitMask
		if next <= n && f.tree[next] <= target {
			idx = next
			target -= f.tree[next]
		}
	}
	return idx // 0-based index of the element following the prefix consumed
}

// WeightedShuffle produces a deterministic permutation of [0, n) where
// the probability an index is drawn next is proportional to its
// remaining weight, exactly mirroring stake-weighted leader/turbine
// selection: heavier stake draws earlier, on average, without ever
// being guaranteed first.
type WeightedShuffle struct {
	weights []uint64
	tree    *fenwick
}

// New builds a WeightedShuffle over weights. An empty weights slice is
// valid and produces a shuffle with nothing to draw (every Iterator
// immediately reports done). A non-empty slice whose weights all sum
// to zero has nothing to draw either, but unlike the empty case every
// one of its indices was a real candidate that can never be selected,
// so it is rejected with ErrInvalidWeights instead of silently
// degrading to an empty iterator.
func New(weights []uint64) (*WeightedShuffle, error) {
	var total uint64
	var err error
	for _, w := range weights {
		total, err = safemath.Add64(total, w)
		if err != nil {
			return nil, ErrWeightsOverflow
		}
	}
	if len(weights) > 0 && total == 0 {
		return nil, ErrInvalidWeights
	}
	cp := make([]uint64, len(weights))
	copy(cp, weights)
	return &WeightedShuffle{
		weights: cp,
		tree:    newFenwick(cp),
	}, nil
}

// Len returns the number of indices, including any already removed.
func (ws *WeightedShuffle) Len() int {
	return len(ws.weights)
}

// Clone returns an independent copy of ws, including any indices
// already removed via RemoveIndex. Mutating the clone (further
// RemoveIndex calls) never affects ws.
func (ws *WeightedShuffle) Clone() *WeightedShuffle {
	return &WeightedShuffle{
		weights: append([]uint64(nil), ws.weights...),
		tree:    ws.tree.clone(),
	}
}

// RemoveIndex excludes index from all future shuffles drawn from ws,
// e.g. to drop the local node before computing peers for itself.
func (ws *WeightedShuffle) RemoveIndex(index int) error {
	if index < 0 || index >= len(ws.weights) {
		return ErrIndexOutOfRange
	}
	w := ws.tree.weightAt(index)
	if w != 0 {
		ws.tree.add(index, negate(w))
	}
	return nil
}

// negate computes the two's complement delta that zeroes out w when
// added to a Fenwick tree storing unsigned sums.
func negate(w uint64) uint64 {
	return ^w + 1
}

// Iterator draws indices one at a time without replacement. It owns a
// private copy of the remaining-weight tree and the rng that seeded it,
// so concurrent shuffles over the same WeightedShuffle never interfere
// with each other.
type Iterator struct {
	tree      *fenwick
	rng       *Rng
	remaining int
}

// Shuffle starts a fresh without-replacement draw sequence seeded by
// rng. The returned Iterator is independent of ws and of any other
// Iterator derived from it; rng is consumed only as Next is called.
func (ws *WeightedShuffle) Shuffle(rng *Rng) *Iterator {
	remaining := 0
	for i := range ws.weights {
		if ws.tree.weightAt(i) > 0 {
			remaining++
		}
	}
	return &Iterator{tree: ws.tree.clone(), rng: rng, remaining: remaining}
}

// Next draws the next index. The second return value is false once
// every nonzero-weight index has been produced.
func (it *Iterator) Next() (int, bool) {
	total := it.tree.total()
	if total == 0 {
		return 0, false
	}
	target := it.rng.Uint64() % total
	idx := it.tree.findByPrefixSum(target)
	w := it.tree.weightAt(idx)
	it.tree.add(idx, negate(w))
	it.remaining--
	return idx, true
}

// First is a convenience for the common case of wanting only the
// highest-priority draw, e.g. selecting a single broadcast peer.
func (ws *WeightedShuffle) First(rng *Rng) (int, bool) {
	return ws.Shuffle(rng).Next()
}

// All drains a full permutation of the remaining (non-removed,
// nonzero-weight) indices.
func (ws *WeightedShuffle) All(rng *Rng) []int {
	it := ws.Shuffle(rng)
	out := make([]int, 0, it.remaining)
	for {
		idx, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, idx)
	}
	return out
}
