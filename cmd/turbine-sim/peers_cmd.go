// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luxfi/turbine/clusternodes"
	"github.com/luxfi/turbine/turbine"
)

type simBank struct {
	tickHeight, ticksPerSlot uint64
}

func (b simBank) FeatureActive(uint64) bool             { return true }
func (b simBank) MaxTickHeight() uint64                 { return b.tickHeight }
func (b simBank) TicksPerSlot() uint64                  { return b.ticksPerSlot }
func (b simBank) LeaderScheduleEpoch(slot uint64) uint64 { return slot / 432000 }

type simShred struct {
	slot  uint64
	index uint32
}

func (s simShred) Slot() uint64  { return s.slot }
func (s simShred) Index() uint32 { return s.index }

func peersCmd() *cobra.Command {
	var nodes, fanout int
	var slot uint64
	var index uint32

	cmd := &cobra.Command{
		Use:   "peers",
		Short: "Resolve the broadcast-root address(es) for one synthetic shred",
		RunE: func(cmd *cobra.Command, args []string) error {
			self, stakes, contacts := syntheticCluster(nodes)
			table, err := clusternodes.New(self, stakes, contacts, clusternodes.Broadcast)
			if err != nil {
				return err
			}

			resolver := turbine.New(fanout, turbine.AllowAll, nil)
			bank := simBank{tickHeight: 64, ticksPerSlot: 64}
			shred := simShred{slot: slot, index: index}

			addrs := resolver.BroadcastAddrs(table, self, shred, bank)
			fmt.Printf("broadcast root(s) for slot=%d index=%d:\n", slot, index)
			for _, a := range addrs {
				fmt.Printf("  %s\n", a)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&nodes, "nodes", 50, "synthetic cluster size")
	cmd.Flags().IntVar(&fanout, "fanout", 8, "turbine fanout")
	cmd.Flags().Uint64Var(&slot, "slot", 1, "shred slot")
	cmd.Flags().Uint32Var(&index, "index", 0, "shred index within slot")
	return cmd
}
