// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"crypto/ed25519"
	crand "crypto/rand"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luxfi/turbine/config"
	"github.com/luxfi/turbine/shredder"
)

func shredCmd() *cobra.Command {
	var entries int
	var payloadSize int
	var slot uint64

	cmd := &cobra.Command{
		Use:   "shred",
		Short: "Run the shredding state machine over a burst of synthetic entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Mainnet()
			if err := cfg.Validate(); err != nil {
				return err
			}
			_, priv, err := ed25519.GenerateKey(crand.Reader)
			if err != nil {
				return err
			}
			m := shredder.New(cfg, priv, nil)

			batch := make([]shredder.Entry, entries)
			for i := range batch {
				batch[i] = shredder.Entry{Data: make([]byte, payloadSize)}
			}

			batches, err := m.Entries(slot, slot-1, 0, batch, true)
			if err != nil {
				return err
			}
			for i, b := range batches {
				fmt.Printf("batch %d: slot=%d data=%d coding=%d slot_end=%v interrupted=%v expected=%d\n",
					i, b.Slot, len(b.DataShreds), len(b.CodingShreds), b.IsSlotEnd, b.WasInterrupted, b.NumExpectedBatches)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&entries, "entries", 40, "number of synthetic entries to shred")
	cmd.Flags().IntVar(&payloadSize, "payload-size", 256, "bytes per synthetic entry")
	cmd.Flags().Uint64Var(&slot, "slot", 1, "leader slot to shred entries into")
	return cmd
}
