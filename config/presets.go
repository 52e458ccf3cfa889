// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import "time"

// Mainnet returns the parameters used by the production cluster: a wide
// fanout to keep retransmit tree depth shallow at full validator-set
// size, and a generous epoch cache since stake tables there change only
// once per epoch boundary.
func Mainnet() Config {
	return Config{
		ShredVersion:             1,
		Fanout:                   200,
		MaxDataShredsPerFECBlock: 32,
		EpochCacheCapacity:       8,
		EpochCacheTTL:            5 * time.Minute,
	}
}

// Testnet mirrors Mainnet's shape at a smaller fanout, matching its
// smaller validator set.
func Testnet() Config {
	return Config{
		ShredVersion:             2,
		Fanout:                   64,
		MaxDataShredsPerFECBlock: 32,
		EpochCacheCapacity:       4,
		EpochCacheTTL:            2 * time.Minute,
	}
}

// Local is tuned for a single-process simulation or integration test: a
// tiny fanout, a short cache TTL so test clocks don't need to wait out
// a production-sized refresh window, and a one-entry cache since tests
// typically drive a single epoch.
func Local() Config {
	return Config{
		ShredVersion:             0xffff,
		Fanout:                   8,
		MaxDataShredsPerFECBlock: 32,
		EpochCacheCapacity:       1,
		EpochCacheTTL:            5 * time.Second,
	}
}
