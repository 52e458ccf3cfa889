// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package turbinetest provides deterministic node/stake fixtures shared
// across the turbine pipeline's test suites, in the shape of the
// teacher's validatorstest/consensustest helper packages.
package turbinetest

import (
	"net"
	"strconv"
	"time"

	"github.com/luxfi/ids"
	"github.com/luxfi/turbine/clusternodes"
)

// NodeID returns a deterministic NodeID for index i, stable across runs
// so table-ordering assertions don't depend on map iteration order.
func NodeID(i byte) ids.NodeID {
	return ids.BuildTestNodeID([]byte{i})
}

// StakeMap implements clusternodes.StakeProvider over a fixed map,
// letting tests construct a Table without a live bank/gossip view.
type StakeMap map[ids.NodeID]uint64

func (s StakeMap) Stakes() map[ids.NodeID]uint64 {
	return s
}

// ContactMap implements clusternodes.ContactProvider over a fixed map.
type ContactMap map[ids.NodeID]clusternodes.ContactInfo

func (c ContactMap) Contacts() map[ids.NodeID]clusternodes.ContactInfo {
	return c
}

// Contact builds a fresh (non-stale) ContactInfo for host:port pairs,
// using an in-memory net.Addr so tests don't touch the network stack.
func Contact(tvu, tvuForwards string) clusternodes.ContactInfo {
	return clusternodes.ContactInfo{
		Tvu:         udpAddr(tvu),
		TvuForwards: udpAddr(tvuForwards),
		Wallclock:   time.Now(),
	}
}

// StaleContact builds a ContactInfo already older than
// clusternodes.MaxContactInfoAge.
func StaleContact(tvu, tvuForwards string) clusternodes.ContactInfo {
	c := Contact(tvu, tvuForwards)
	c.Wallclock = time.Now().Add(-clusternodes.MaxContactInfoAge - time.Second)
	return c
}

func udpAddr(s string) net.Addr {
	addr, err := net.ResolveUDPAddr("udp", s)
	if err != nil {
		panic(err)
	}
	return addr
}

// Cluster is a convenience bundle of N deterministic nodes with
// descending stake (node 0 has the most stake) and contact info for
// all but the last node, useful for exercising the dedup/bare-identity
// path in clusternodes.New.
func Cluster(n int) (ids.NodeID, StakeMap, ContactMap) {
	stakes := make(StakeMap, n)
	contacts := make(ContactMap, n)
	for i := 0; i < n; i++ {
		id := NodeID(byte(i))
		stakes[id] = uint64((n - i) * 100)
		if i != n-1 {
			contacts[id] = Contact(
				"127.0.0.1:"+itoa(8000+i),
				"127.0.0.1:"+itoa(8100+i),
			)
		}
	}
	return NodeID(0), stakes, contacts
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
