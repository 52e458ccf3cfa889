// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"net"
	"time"

	"github.com/luxfi/ids"
	"github.com/luxfi/turbine/clusternodes"
)

// syntheticCluster builds n nodes with descending stake and UDP
// loopback contact addresses, for local experimentation only.
func syntheticCluster(n int) (ids.NodeID, clusternodes.StakeProvider, clusternodes.ContactProvider) {
	stakes := make(stakeMap, n)
	contacts := make(contactMap, n)
	nodeIDs := make([]ids.NodeID, n)
	for i := 0; i < n; i++ {
		id := ids.BuildTestNodeID([]byte(fmt.Sprintf("turbine-sim-%d", i)))
		nodeIDs[i] = id
		stakes[id] = uint64((n - i) * 1000)
		contacts[id] = clusternodes.ContactInfo{
			Tvu:         udpAddr(20000 + i*2),
			TvuForwards: udpAddr(20000 + i*2 + 1),
			Wallclock:   time.Now(),
		}
	}
	return nodeIDs[0], stakes, contacts
}

func udpAddr(port int) net.Addr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
}

type stakeMap map[ids.NodeID]uint64

func (s stakeMap) Stakes() map[ids.NodeID]uint64 { return s }

type contactMap map[ids.NodeID]clusternodes.ContactInfo

func (c contactMap) Contacts() map[ids.NodeID]clusternodes.ContactInfo { return c }
