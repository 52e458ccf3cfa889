// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package clusternodes builds a point-in-time snapshot of the cluster's
// stake-weighted peer set: one sorted, deduplicated table per epoch,
// handed to the turbine resolver for broadcast-root and retransmit-peer
// computation.
package clusternodes

import (
	"net"
	"time"

	"github.com/luxfi/ids"
)

// MaxContactInfoAge is how long a gossiped contact record is trusted
// before the resolver treats it as stale and falls through to the
// fanout-tree fallback.
const MaxContactInfoAge = 2 * time.Minute

// ContactInfo is a peer's reachable addresses and the gossip timestamp
// they were last seen at. Tvu receives freshly shredded data; TvuForwards
// receives shreds being relayed sideways within a turbine neighborhood.
type ContactInfo struct {
	Tvu         net.Addr
	TvuForwards net.Addr
	Wallclock   time.Time
}

// Stale reports whether this contact record is older than
// MaxContactInfoAge as of now.
func (c ContactInfo) Stale(now time.Time) bool {
	return now.Sub(c.Wallclock) > MaxContactInfoAge
}

// Node is a single entry in a Table: an identity, its stake for the
// epoch the table was built for, and an optional contact record. A node
// with no Contact is stake-only — present in the leader schedule but
// not yet seen on gossip.
type Node struct {
	ID      ids.NodeID
	Stake   uint64
	Contact *ContactInfo
}

// HasContact reports whether this node has a usable address to send
// shreds to.
func (n Node) HasContact() bool {
	return n.Contact != nil
}

// compatStake floors Stake at 1 for the legacy compat-index sort key
// only (buildCompatIndex/CompatLess), so an unstaked node still
// participates in "weighted best" sampling there. The Table's primary
// ordering and its main weighted-shuffle handle use raw Stake, never
// this floor. Mirrors original_source's `stake.max(1)`.
func (n Node) compatStake() uint64 {
	if n.Stake == 0 {
		return 1
	}
	return n.Stake
}
