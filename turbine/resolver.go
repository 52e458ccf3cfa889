// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package turbine computes, for a single shred, which peers should
// receive it directly from the leader (the broadcast root) and which
// peers a relaying validator should forward it to (retransmit). Both
// are pure functions of a clusternodes.Table snapshot, the shred's
// identity, and a deterministic seed, so independent validators agree
// without exchanging the computation itself.
package turbine

import (
	"net"
	"time"

	"github.com/luxfi/ids"
	"github.com/luxfi/turbine/clusternodes"
	"github.com/luxfi/turbine/log"
	"github.com/luxfi/turbine/shuffle"
)

// RootBankView is the epoch/slot context the resolver reads feature
// activation and leader-schedule information from. No bank/ledger
// implementation lives here (Non-goal); callers supply their own.
type RootBankView interface {
	FeatureActive(slot uint64) bool
	MaxTickHeight() uint64
	TicksPerSlot() uint64
	LeaderScheduleEpoch(slot uint64) uint64
}

// ShredIdentity is the minimal shape the resolver needs from a shred,
// kept as its own small interface so this package doesn't import the
// shred wire-format package for a handful of fields.
type ShredIdentity interface {
	Slot() uint64
	Index() uint32
}

// AddressFilter vets a candidate address after peer selection, the Go
// analogue of Solana's SocketAddrSpace. New replaces a nil filter with
// AllowAll; Resolver's methods call Filter as set, with no nil check.
type AddressFilter func(net.Addr) bool

// AllowAll is the default filter: every resolved address is accepted.
// Production deployments inject a stricter filter (e.g. reject
// loopback/unspecified) without this package needing to know about it.
func AllowAll(net.Addr) bool { return true }

// Resolver implements both broadcast-root and retransmit-peer
// resolution over a single clusternodes.Table snapshot.
type Resolver struct {
	Fanout int
	Filter AddressFilter
	Logger log.Logger
}

// New constructs a Resolver. A nil logger defaults to a no-op logger
// and a nil filter defaults to AllowAll.
func New(fanout int, filter AddressFilter, logger log.Logger) *Resolver {
	if filter == nil {
		filter = AllowAll
	}
	if logger == nil {
		logger = log.NewNoOp()
	}
	return &Resolver{Fanout: fanout, Filter: filter, Logger: logger}
}

// BroadcastAddrs implements spec 4.3: resolve the wire address(es) this
// node (the leader) should hand the shred to directly. table must have
// been built with clusternodes.Broadcast so self is excluded from the
// shuffle.
func (r *Resolver) BroadcastAddrs(table *clusternodes.Table, self ids.NodeID, shred ShredIdentity, bank RootBankView) []net.Addr {
	seed := deriveSeed(self, shred.Slot(), shred.Index())

	if !bank.FeatureActive(shred.Slot()) {
		node, ok := r.broadcastPeerCompat(table, seed)
		if !ok {
			return nil
		}
		if node.Contact == nil || !r.Filter(node.Contact.Tvu) {
			return nil
		}
		return []net.Addr{node.Contact.Tvu}
	}

	rng := shuffle.NewRng(seed)
	index, ok := table.Shuffle().First(rng)
	if ok {
		node := table.Node(index)
		if node.Contact != nil && !node.Contact.Stale(time.Now()) && node.Contact.Tvu != nil {
			if r.Filter(node.Contact.Tvu) {
				return []net.Addr{node.Contact.Tvu}
			}
			return nil
		}
	}

	// Fallback: the preferred root is stale or addressless. Re-derive the
	// full order from the same seed and fall back to the fanout tree's
	// position 0, matching the non-leader retransmit computation.
	rng = shuffle.NewRng(seed)
	order := table.Shuffle().All(rng)
	if len(order) == 0 {
		return nil
	}
	nodes := make([]clusternodes.Node, len(order))
	for i, idx := range order {
		nodes[i] = table.Node(idx)
	}
	neighbors, children := computeRetransmitPeers(r.Fanout, 0, nodes)
	return r.collectFallbackAddrs(neighbors, children)
}

func (r *Resolver) collectFallbackAddrs(neighbors, children []clusternodes.Node) []net.Addr {
	var out []net.Addr
	if len(neighbors) > 0 && neighbors[0].Contact != nil && neighbors[0].Contact.Tvu != nil {
		if r.Filter(neighbors[0].Contact.Tvu) {
			out = append(out, neighbors[0].Contact.Tvu)
		}
	}
	for _, n := range neighbors[minOne(len(neighbors)):] {
		if n.Contact == nil || n.Contact.TvuForwards == nil {
			continue
		}
		if r.Filter(n.Contact.TvuForwards) {
			out = append(out, n.Contact.TvuForwards)
		}
	}
	for _, n := range children {
		if n.Contact == nil || n.Contact.Tvu == nil {
			continue
		}
		if r.Filter(n.Contact.Tvu) {
			out = append(out, n.Contact.Tvu)
		}
	}
	return out
}

func minOne(n int) int {
	if n == 0 {
		return 0
	}
	return 1
}

// broadcastPeerCompat implements the legacy (pre-shuffle-patch) root
// selection: a single weighted-best pick over the compat index.
func (r *Resolver) broadcastPeerCompat(table *clusternodes.Table, seed shuffle.Seed) (clusternodes.Node, bool) {
	compat := table.CompatIndex()
	if len(compat) == 0 {
		return clusternodes.Node{}, false
	}
	weights := make([]uint64, len(compat))
	for i, pos := range compat {
		weights[i] = table.Node(pos).Stake
		if weights[i] == 0 {
			weights[i] = 1
		}
	}
	ws, err := shuffle.New(weights)
	if err != nil {
		return clusternodes.Node{}, false
	}
	rng := shuffle.NewRng(seed)
	i, ok := ws.First(rng)
	if !ok {
		return clusternodes.Node{}, false
	}
	return table.Node(compat[i]), true
}

// RetransmitAddrs implements spec 4.4: the set of addresses this
// (non-leader) validator should re-forward the shred to. table must
// have been built with clusternodes.Retransmit so self remains present.
func (r *Resolver) RetransmitAddrs(table *clusternodes.Table, self, slotLeader ids.NodeID, shred ShredIdentity, bank RootBankView) []net.Addr {
	neighbors, children, selfIndex := r.RetransmitPeers(table, self, slotLeader, shred, bank)
	if len(neighbors) == 0 {
		return nil
	}
	onCriticalPath := neighbors[0].ID == self
	var out []net.Addr
	if !onCriticalPath {
		for _, n := range children {
			if n.Contact == nil || n.Contact.TvuForwards == nil {
				continue
			}
			if r.Filter(n.Contact.TvuForwards) {
				out = append(out, n.Contact.TvuForwards)
			}
		}
		return out
	}
	// First neighbor is this node itself; skip it.
	for _, n := range neighbors[1:] {
		if n.Contact == nil || n.Contact.TvuForwards == nil {
			continue
		}
		if r.Filter(n.Contact.TvuForwards) {
			out = append(out, n.Contact.TvuForwards)
		}
	}
	for _, n := range children {
		if n.Contact == nil || n.Contact.Tvu == nil {
			continue
		}
		if r.Filter(n.Contact.Tvu) {
			out = append(out, n.Contact.Tvu)
		}
	}
	_ = selfIndex
	return out
}

// RetransmitPeers computes the fanout-tree neighbors and children for
// self within the shuffled node order, along with self's position in
// that order. If self equals slotLeader an anomaly is logged (the
// leader should never be retransmitting its own shred), the leader is
// not removed from the shuffle, and the computation proceeds over the
// full table. A self with zero shuffle weight never appears in the
// shuffled order; then nothing is computed and selfIndex is -1.
func (r *Resolver) RetransmitPeers(table *clusternodes.Table, self, slotLeader ids.NodeID, shred ShredIdentity, bank RootBankView) (neighbors, children []clusternodes.Node, selfIndex int) {
	seed := deriveSeed(slotLeader, shred.Slot(), shred.Index())
	ws := table.Shuffle()

	if self == slotLeader {
		r.Logger.Warn("retransmit from slot leader", "nodeID", slotLeader)
	} else if leaderIdx, ok := table.IndexOf(slotLeader); ok {
		ws = ws.Clone()
		_ = ws.RemoveIndex(leaderIdx)
	}

	rng := shuffle.NewRng(seed)
	order := ws.All(rng)
	nodes := make([]clusternodes.Node, len(order))
	idToPos := make(map[int]int, len(order))
	for i, idx := range order {
		nodes[i] = table.Node(idx)
		idToPos[idx] = i
	}

	selfTablePos, inTable := table.IndexOf(self)
	if !inTable {
		// self genuinely absent from the table: nothing to compute.
		return nil, nil, -1
	}
	selfIndex, ok := idToPos[selfTablePos]
	if !ok {
		// self has zero weight in the shuffle, so it is never drawn:
		// nothing to compute.
		return nil, nil, -1
	}

	neighbors, children = computeRetransmitPeers(r.Fanout, selfIndex, nodes)
	return neighbors, children, selfIndex
}
