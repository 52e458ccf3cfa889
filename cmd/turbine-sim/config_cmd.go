// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luxfi/turbine/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the built-in configuration presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := map[string]config.Config{
				"mainnet": config.Mainnet(),
				"testnet": config.Testnet(),
				"local":   config.Local(),
			}
			for _, name := range []string{"mainnet", "testnet", "local"} {
				c := presets[name]
				fmt.Printf("%s: shred_version=%d fanout=%d max_data_shreds_per_fec_block=%d epoch_cache_capacity=%d epoch_cache_ttl=%s\n",
					name, c.ShredVersion, c.Fanout, c.MaxDataShredsPerFECBlock, c.EpochCacheCapacity, c.EpochCacheTTL)
			}
			return nil
		},
	}
	return cmd
}
