// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package turbine

import (
	"github.com/luxfi/ids"
	"github.com/luxfi/turbine/clusternodes"
	"github.com/luxfi/turbine/shuffle"
)

// NeighborhoodStakes reports the aggregate stake of a shred's own
// turbine neighborhood, its parent node's stake, and the parent's
// neighborhood stake. It is diagnostic instrumentation for turbine
// health dashboards, not on the broadcast hot path — ported from
// original_source's ShredDistributionStakes, which the distilled
// specification dropped.
func (r *Resolver) NeighborhoodStakes(table *clusternodes.Table, self, slotLeader ids.NodeID, shred ShredIdentity, bank RootBankView) (neighborhoodStakeOut, parentStake, parentNeighborhoodStakeOut uint64) {
	seed := deriveSeed(slotLeader, shred.Slot(), shred.Index())
	ws := table.Shuffle()
	if self != slotLeader {
		if leaderIdx, ok := table.IndexOf(slotLeader); ok {
			ws = ws.Clone()
			_ = ws.RemoveIndex(leaderIdx)
		}
	}

	rng := shuffle.NewRng(seed)
	order := ws.All(rng)
	nodes := make([]clusternodes.Node, len(order))
	idToPos := make(map[int]int, len(order))
	for i, idx := range order {
		nodes[i] = table.Node(idx)
		idToPos[idx] = i
	}

	selfTablePos, ok := table.IndexOf(self)
	if !ok {
		return 0, 0, 0
	}
	selfIndex, ok := idToPos[selfTablePos]
	if !ok {
		return 0, 0, 0
	}

	stakeOf := func(n clusternodes.Node) uint64 { return n.Stake }
	neighborhoodStakeOut = neighborhoodStake(selfIndex, r.Fanout, nodes, stakeOf)

	parentIdx, hasParent := parentIndex(selfIndex, r.Fanout)
	if !hasParent {
		return neighborhoodStakeOut, 0, 0
	}
	parentStake = nodes[parentIdx].Stake
	parentNeighborhoodStakeOut = neighborhoodStake(parentIdx, r.Fanout, nodes, stakeOf)
	return neighborhoodStakeOut, parentStake, parentNeighborhoodStakeOut
}
