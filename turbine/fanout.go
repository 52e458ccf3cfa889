// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package turbine

// The fanout tree treats a shuffled node slice as a flattened, self-similar
// k-ary tree (k = fanout): positions [0, fanout) are the root neighborhood,
// and each node's children occupy a block further down the same flat slice.
// parentIndex and computeRetransmitPeers are inverse operations of each
// other, ported from original_source's get_parent_index/get_neighborhood_stake
// and the compute_retransmit_peers arithmetic it implies.

// parentIndex returns the index of the node whose neighborhood produced
// index's child block, or false for a root-neighborhood member (index <
// fanout has no parent).
func parentIndex(index, fanout int) (int, bool) {
	if index < fanout {
		return 0, false
	}
	offset := index % fanout
	anchor := index - offset
	neighborhood := anchor/fanout - 1
	neighborhoodOffset := neighborhood % fanout
	parentAnchor := neighborhood - neighborhoodOffset
	return parentAnchor + offset, true
}

// neighborhoodAnchor returns the first index of index's own neighborhood.
func neighborhoodAnchor(index, fanout int) int {
	return index - index%fanout
}

// neighborhoodStake sums the stake of every node sharing index's
// neighborhood, ported directly from original_source's
// get_neighborhood_stake.
func neighborhoodStake[T any](index, fanout int, nodes []T, stake func(T) uint64) uint64 {
	anchor := neighborhoodAnchor(index, fanout)
	var sum uint64
	for i := anchor; i < anchor+fanout && i < len(nodes); i++ {
		sum += stake(nodes[i])
	}
	return sum
}

// computeRetransmitPeers splits a shuffled node slice into index's
// neighbors (its own fanout-sized peer block) and children (the
// fanout-sized blocks of the next layer that this index, specifically,
// is responsible for forwarding to).
func computeRetransmitPeers[T any](fanout, index int, nodes []T) (neighbors, children []T) {
	offset := index % fanout
	anchor := index - offset
	end := anchor + fanout
	if end > len(nodes) {
		end = len(nodes)
	}
	neighbors = append(neighbors, nodes[anchor:end]...)

	q := anchor / fanout
	for k := 0; k < fanout; k++ {
		childIdx := (q*fanout+k+1)*fanout + offset
		if childIdx >= len(nodes) {
			continue
		}
		children = append(children, nodes[childIdx])
	}
	return neighbors, children
}
