// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package clusternodes

import (
	"errors"
	"sort"

	"github.com/luxfi/ids"
	"github.com/luxfi/turbine/shuffle"
	"github.com/luxfi/turbine/utils/set"
)

// Strategy selects which of the two downstream consumers a Table is
// built for. The construction algorithm is identical for both; only
// self-inclusion in the shuffle and the compat index differs.
type Strategy int

const (
	// Broadcast tables exclude self from the weighted-shuffle handle: a
	// leader never picks itself as the root recipient of its own shred.
	Broadcast Strategy = iota
	// Retransmit tables retain self: a relaying validator must find its
	// own position in the shuffled order to compute its fanout-tree
	// neighbors and children.
	Retransmit
)

// StakeProvider supplies the epoch's stake distribution. Implementations
// typically wrap a leader-schedule/bank snapshot; no gossip or stake
// history is modeled here (Non-goal).
type StakeProvider interface {
	Stakes() map[ids.NodeID]uint64
}

// ContactProvider supplies known contact records, typically backed by a
// gossip cluster-info view. A node with no entry here is still included
// in the Table (it may still be owed shreds once its address is
// learned) but is skipped by address resolution until then.
type ContactProvider interface {
	Contacts() map[ids.NodeID]ContactInfo
}

// Table is a sorted, deduplicated, point-in-time snapshot of the
// cluster's staked peers for one epoch. It is immutable once built;
// epochcache.Cache owns refreshing it on a schedule.
type Table struct {
	self        ids.NodeID
	strategy    Strategy
	nodes       []Node
	index       map[ids.NodeID]int
	shuffle     *shuffle.WeightedShuffle
	compatIndex []int
}

// New builds a Table for self out of the given stake and contact
// snapshots. The local node is always present, with stake from the map
// or 0 if self is absent from it — a node is never required to be
// staked to see its own cluster view, per original_source's
// `get_nodes` (`stakes.get(&self_pubkey).copied().unwrap_or_default()`).
// Nodes are sorted by descending (Stake, identity) and deduplicated by
// NodeID, mirroring original_source's `new_cluster_nodes`/`get_nodes`.
func New(self ids.NodeID, stakes StakeProvider, contacts ContactProvider, strategy Strategy) (*Table, error) {
	stakeMap := stakes.Stakes()

	var contactMap map[ids.NodeID]ContactInfo
	if contacts != nil {
		contactMap = contacts.Contacts()
	}

	seen := set.NewSet[ids.NodeID](len(stakeMap) + 1)
	nodes := make([]Node, 0, len(stakeMap)+len(contactMap)+1)

	selfNode := Node{ID: self, Stake: stakeMap[self]}
	if c, ok := contactMap[self]; ok {
		ci := c
		selfNode.Contact = &ci
	}
	seen.Add(self)
	nodes = append(nodes, selfNode)

	for id, stake := range stakeMap {
		if id == self {
			continue
		}
		seen.Add(id)
		n := Node{ID: id, Stake: stake}
		if c, ok := contactMap[id]; ok {
			ci := c
			n.Contact = &ci
		}
		nodes = append(nodes, n)
	}
	// Peers present only in the contact map (stake unknown/zero) still
	// get a Table entry so they can be reached once staked.
	for id, c := range contactMap {
		if seen.Contains(id) {
			continue
		}
		seen.Add(id)
		ci := c
		nodes = append(nodes, Node{ID: id, Contact: &ci})
	}

	sort.Slice(nodes, func(i, j int) bool {
		return rawStakeLess(nodes[i], nodes[j])
	})

	index := make(map[ids.NodeID]int, len(nodes))
	weights := make([]uint64, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
		weights[i] = n.Stake
	}

	ws, err := shuffle.New(weights)
	if errors.Is(err, shuffle.ErrInvalidWeights) {
		// Every node in the table carries zero stake: the epoch's whole
		// stake view is missing (spec's MissingEpochStakes fallback),
		// not one degenerate entry among a real distribution. Per spec
		// §7, the peer set still becomes usable, just contact-only with
		// weight 1 per node, rather than failing Table construction.
		uniform := make([]uint64, len(weights))
		for i := range uniform {
			uniform[i] = 1
		}
		ws, err = shuffle.New(uniform)
	}
	if err != nil {
		return nil, err
	}
	if strategy == Broadcast {
		// RemoveIndex never fails here: index[self] is always in range.
		_ = ws.RemoveIndex(index[self])
	}

	t := &Table{self: self, strategy: strategy, nodes: nodes, index: index, shuffle: ws}
	t.compatIndex = t.buildCompatIndex()
	return t, nil
}

// buildCompatIndex collects the positions of contact-bearing peers
// (excluding self for a Broadcast table), sorted descending by
// (max(1, stake), identity) — the legacy "weighted best" sampling base
// used when the turbine-shuffle feature is inactive for a shred's epoch.
func (t *Table) buildCompatIndex() []int {
	out := make([]int, 0, len(t.nodes))
	for i, n := range t.nodes {
		if !n.HasContact() {
			continue
		}
		if t.strategy == Broadcast && n.ID == t.self {
			continue
		}
		out = append(out, i)
	}
	sort.Slice(out, func(i, j int) bool {
		return CompatLess(t.nodes[out[i]], t.nodes[out[j]])
	})
	return out
}

// CompatLess reports whether a sorts before b under the compat index:
// descending by floored stake, then descending by identity. Exported so
// callers building their own diagnostics can match Table's ordering.
func CompatLess(a, b Node) bool {
	as, bs := a.compatStake(), b.compatStake()
	if as != bs {
		return as > bs
	}
	return a.ID.Compare(b.ID) > 0
}

// rawStakeLess reports whether a sorts before b under the Table's
// primary ordering: descending by raw (unfloored) stake, then
// descending by identity. Unlike CompatLess, an unstaked node sorts by
// its true zero stake here — flooring is a compat-index-only concern.
func rawStakeLess(a, b Node) bool {
	if a.Stake != b.Stake {
		return a.Stake > b.Stake
	}
	return a.ID.Compare(b.ID) > 0
}

// Self returns this table's own node entry.
func (t *Table) Self() Node {
	return t.nodes[t.index[t.self]]
}

// Len returns the number of nodes in the table.
func (t *Table) Len() int {
	return len(t.nodes)
}

// Node returns the node at table position i, in rawStakeLess order.
func (t *Table) Node(i int) Node {
	return t.nodes[i]
}

// NodeByID looks up a node by identity.
func (t *Table) NodeByID(id ids.NodeID) (Node, bool) {
	i, ok := t.index[id]
	if !ok {
		return Node{}, false
	}
	return t.nodes[i], true
}

// IndexOf returns the table position of id.
func (t *Table) IndexOf(id ids.NodeID) (int, bool) {
	i, ok := t.index[id]
	return i, ok
}

// SelfIndex returns self's table position.
func (t *Table) SelfIndex() int {
	return t.index[t.self]
}

// Shuffle returns the table's stake-weighted shuffle handle, aligned
// positionally with Node(i). turbine.Resolver draws from it with a
// seed derived from the leader/slot so every validator computes the
// same peer assignment independently. For a Broadcast table self has
// already been removed; for a Retransmit table self is still present.
func (t *Table) Shuffle() *shuffle.WeightedShuffle {
	return t.shuffle
}

// CompatIndex returns the positions (into Node(i)) of contact-bearing
// peers eligible for legacy weighted-best sampling, already sorted by
// CompatLess.
func (t *Table) CompatIndex() []int {
	return t.compatIndex
}
