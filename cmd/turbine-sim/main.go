// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command turbine-sim exercises parts of the turbine broadcast pipeline
// over a synthetic, in-memory cluster: "shred" runs the shredding state
// machine over a burst of synthetic entries and prints a summary of
// each resulting batch, "peers" builds a node table and prints the
// broadcast-root address(es) for one synthetic shred, and "config"
// prints the built-in presets. No command resolves peers for the
// shreds that "shred" produces.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "turbine-sim",
	Short: "Simulate the turbine broadcast pipeline over a synthetic cluster",
	Long: `turbine-sim exercises the shredding state machine and turbine resolver
without a live validator: "shred" feeds a burst of synthetic ledger entries to
the shredding state machine and reports the resulting batches, and "peers"
generates a stake-weighted cluster and reports the broadcast root for one
synthetic shred.`,
}

func main() {
	rootCmd.AddCommand(shredCmd(), peersCmd(), configCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
