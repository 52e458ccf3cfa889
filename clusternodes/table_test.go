// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package clusternodes_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ids"
	"github.com/luxfi/turbine/clusternodes"
	"github.com/luxfi/turbine/shuffle"
	"github.com/luxfi/turbine/turbinetest"
)

func TestNewDefaultsUnknownSelfToZeroStake(t *testing.T) {
	self, stakes, contacts := turbinetest.Cluster(3)
	delete(stakes, self)
	table, err := clusternodes.New(self, stakes, contacts, clusternodes.Retransmit)
	require.NoError(t, err)

	node, ok := table.NodeByID(self)
	require.True(t, ok)
	require.Zero(t, node.Stake)
}

func TestTableIsSortedByRawStakeDescending(t *testing.T) {
	self, stakes, contacts := turbinetest.Cluster(5)
	table, err := clusternodes.New(self, stakes, contacts, clusternodes.Retransmit)
	require.NoError(t, err)
	require.Equal(t, 5, table.Len())

	for i := 1; i < table.Len(); i++ {
		prev, cur := table.Node(i-1), table.Node(i)
		require.GreaterOrEqual(t, prev.Stake, cur.Stake, "node %d should not sort before node %d", i, i-1)
	}
}

// TestShuffleWeightsUseRawStakeNotFloor locks in that a zero-stake node
// mixed into an otherwise-staked table gets true zero weight in the
// main weighted-shuffle handle (spec.md §4.2 step 5), not the
// compat-index's floor-to-1. A zero-weight index must never be drawn.
func TestShuffleWeightsUseRawStakeNotFloor(t *testing.T) {
	self := turbinetest.NodeID(0)
	stakes := turbinetest.StakeMap{
		self: 1000,
		turbinetest.NodeID(1): 500,
		turbinetest.NodeID(2): 0,
	}
	contacts := turbinetest.ContactMap{
		turbinetest.NodeID(2): turbinetest.Contact("127.0.0.1:9000", "127.0.0.1:9001"),
	}

	table, err := clusternodes.New(self, stakes, contacts, clusternodes.Retransmit)
	require.NoError(t, err)

	zeroIdx, ok := table.IndexOf(turbinetest.NodeID(2))
	require.True(t, ok)
	require.Zero(t, table.Node(zeroIdx).Stake)

	for seedByte := 0; seedByte < 64; seedByte++ {
		seed := shuffle.Seed{byte(seedByte)}
		for _, idx := range table.Shuffle().All(shuffle.NewRng(seed)) {
			require.NotEqual(t, zeroIdx, idx, "zero-stake node must never be drawn from the raw-stake shuffle")
		}
	}
}

func TestTableDeduplicatesByIdentity(t *testing.T) {
	self, stakes, contacts := turbinetest.Cluster(4)
	table, err := clusternodes.New(self, stakes, contacts, clusternodes.Retransmit)
	require.NoError(t, err)

	seen := make(map[ids.NodeID]bool)
	for i := 0; i < table.Len(); i++ {
		n := table.Node(i)
		require.False(t, seen[n.ID])
		seen[n.ID] = true
	}
}

func TestTableConstructionIsDeterministic(t *testing.T) {
	self, stakes, contacts := turbinetest.Cluster(10)
	a, err := clusternodes.New(self, stakes, contacts, clusternodes.Retransmit)
	require.NoError(t, err)
	b, err := clusternodes.New(self, stakes, contacts, clusternodes.Retransmit)
	require.NoError(t, err)

	require.Equal(t, a.Len(), b.Len())
	for i := 0; i < a.Len(); i++ {
		require.Equal(t, a.Node(i).ID, b.Node(i).ID)
		require.Equal(t, a.Node(i).Stake, b.Node(i).Stake)
	}
}

func TestBroadcastStrategyExcludesSelfFromCompatIndex(t *testing.T) {
	self, stakes, contacts := turbinetest.Cluster(6)
	table, err := clusternodes.New(self, stakes, contacts, clusternodes.Broadcast)
	require.NoError(t, err)

	selfIdx := table.SelfIndex()
	for _, idx := range table.CompatIndex() {
		require.NotEqual(t, selfIdx, idx, "broadcast compat index must exclude self")
	}
}

func TestRetransmitStrategyRetainsSelf(t *testing.T) {
	self, stakes, contacts := turbinetest.Cluster(6)
	table, err := clusternodes.New(self, stakes, contacts, clusternodes.Retransmit)
	require.NoError(t, err)

	found := false
	for _, idx := range table.CompatIndex() {
		if idx == table.SelfIndex() {
			found = true
		}
	}
	require.True(t, found || !table.Self().HasContact())
}

func TestBareIdentityKeptWhenNoContact(t *testing.T) {
	self, stakes, contacts := turbinetest.Cluster(4)
	table, err := clusternodes.New(self, stakes, contacts, clusternodes.Retransmit)
	require.NoError(t, err)

	lastNode, ok := table.NodeByID(turbinetest.NodeID(3))
	require.True(t, ok)
	require.False(t, lastNode.HasContact())
}
