// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package turbine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/turbine/clusternodes"
	"github.com/luxfi/turbine/shuffle"
	"github.com/luxfi/turbine/turbinetest"
)

type fakeBank struct {
	active bool
}

func (b fakeBank) FeatureActive(uint64) bool         { return b.active }
func (b fakeBank) MaxTickHeight() uint64             { return 64 }
func (b fakeBank) TicksPerSlot() uint64              { return 64 }
func (b fakeBank) LeaderScheduleEpoch(slot uint64) uint64 { return slot / 432000 }

type fakeShred struct {
	slot  uint64
	index uint32
}

func (s fakeShred) Slot() uint64  { return s.slot }
func (s fakeShred) Index() uint32 { return s.index }

func newTestResolver(fanout int) *Resolver {
	return New(fanout, nil, nil)
}

// TestRetransmitPeersAgreeAcrossIndependentTables exercises spec scenario
// S3: the leader resolves a non-empty broadcast root for the shred, and
// two independently constructed Retransmit tables for the same relaying
// peer over the same cluster compute the same position and the same
// fanout-tree neighbors/children, since both derive from the same seed
// and the same shuffled order.
func TestRetransmitPeersAgreeAcrossIndependentTables(t *testing.T) {
	self, stakes, contacts := turbinetest.Cluster(10)
	leaderTable, err := clusternodes.New(self, stakes, contacts, clusternodes.Broadcast)
	require.NoError(t, err)

	peerID := turbinetest.NodeID(3)
	peerTable, err := clusternodes.New(peerID, stakes, contacts, clusternodes.Retransmit)
	require.NoError(t, err)

	bank := fakeBank{active: true}
	shred := fakeShred{slot: 100, index: 7}
	r := newTestResolver(2)

	rootAddrs := r.BroadcastAddrs(leaderTable, self, shred, bank)
	require.NotEmpty(t, rootAddrs)

	neighbors1, children1, idx1 := r.RetransmitPeers(peerTable, peerID, self, shred, bank)
	require.GreaterOrEqual(t, idx1, 0)

	otherTable, err := clusternodes.New(peerID, stakes, contacts, clusternodes.Retransmit)
	require.NoError(t, err)
	neighbors2, children2, idx2 := r.RetransmitPeers(otherTable, peerID, self, shred, bank)

	require.Equal(t, idx1, idx2)
	require.Equal(t, len(neighbors1), len(neighbors2))
	for i := range neighbors1 {
		require.Equal(t, neighbors1[i].ID, neighbors2[i].ID)
	}
	require.Equal(t, len(children1), len(children2))
	for i := range children1 {
		require.Equal(t, children1[i].ID, children2[i].ID)
	}
}

// TestBroadcastAddrsFallsBackWhenRootStale exercises scenario S5: the
// shuffle-preferred root has no contact record, which BroadcastAddrs
// handles the same way as a stale one, so it must fall through to the
// fanout-tree fallback at position 0 rather than returning a dead
// address.
func TestBroadcastAddrsFallsBackWhenRootStale(t *testing.T) {
	self, stakes, contacts := turbinetest.Cluster(12)

	bank := fakeBank{active: true}
	r := newTestResolver(3)

	var staleShred ShredIdentity
	var staleTable *clusternodes.Table
	for slot := uint64(0); slot < 64; slot++ {
		table, err := clusternodes.New(self, stakes, contacts, clusternodes.Broadcast)
		require.NoError(t, err)
		shred := fakeShred{slot: slot, index: 0}
		seed := deriveSeed(self, shred.Slot(), shred.Index())
		rng := shuffle.NewRng(seed)
		idx, ok := table.Shuffle().First(rng)
		require.True(t, ok)
		node := table.Node(idx)
		if node.Contact == nil {
			staleShred, staleTable = shred, table
			break
		}
	}
	require.NotNil(t, staleTable, "expected a shred whose preferred root has no contact info")

	addrs := r.BroadcastAddrs(staleTable, self, staleShred, bank)
	require.NotNil(t, addrs)
}

// TestRetransmitPeersLogsAnomalyWhenSelfIsLeader exercises scenario S6:
// a node computing retransmit peers for a shred it itself led should
// still produce a result (over the full table, since it can't remove
// itself as the excluded leader) rather than panicking.
func TestRetransmitPeersLogsAnomalyWhenSelfIsLeader(t *testing.T) {
	self, stakes, contacts := turbinetest.Cluster(8)
	table, err := clusternodes.New(self, stakes, contacts, clusternodes.Retransmit)
	require.NoError(t, err)

	bank := fakeBank{active: true}
	shred := fakeShred{slot: 5, index: 1}
	r := newTestResolver(2)

	neighbors, _, idx := r.RetransmitPeers(table, self, self, shred, bank)
	require.GreaterOrEqual(t, idx, 0)
	require.NotEmpty(t, neighbors)
}

// TestRetransmitTreePartitionsNonLeaderNodes exercises invariant 3: over
// a cluster with the leader excluded, every remaining node's computed
// position agrees with the single fanout-tree position implied by the
// shuffled order; no node is assigned to two different neighborhoods.
func TestRetransmitTreePartitionsNonLeaderNodes(t *testing.T) {
	self, stakes, contacts := turbinetest.Cluster(40)
	bank := fakeBank{active: true}
	shred := fakeShred{slot: 900, index: 2}
	r := newTestResolver(4)

	leaderID := self
	seenAtIndex := make(map[int]int)
	for i := 0; i < 40; i++ {
		id := turbinetest.NodeID(byte(i))
		if id == leaderID {
			continue
		}
		table, err := clusternodes.New(id, stakes, contacts, clusternodes.Retransmit)
		require.NoError(t, err)
		_, _, idx := r.RetransmitPeers(table, id, leaderID, shred, bank)
		require.GreaterOrEqual(t, idx, 0)
		seenAtIndex[idx]++
	}
	for idx, count := range seenAtIndex {
		require.Equal(t, 1, count, "index %d claimed by more than one node", idx)
	}
}
