// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds the tunables of the turbine broadcast pipeline:
// fanout, FEC sizing, and epoch-cache lifetime. Presets mirror known
// cluster deployments; Validate reports every violation at once instead
// of failing fast on the first one.
package config

import (
	"time"

	"github.com/luxfi/turbine/utils/wrappers"
)

// MaxDataShredsPerFECBlockCeiling is the protocol's hard upper bound on
// data shreds per FEC set: a Reed-Solomon block cannot mix more than 32
// data shreds with 32 coding shreds and still fit inside a single UDP
// datagram's erasure-coding budget.
const MaxDataShredsPerFECBlockCeiling = 32

// Config parameterizes shredding, turbine fanout, and epoch caching.
type Config struct {
	// ShredVersion is stamped into every shred this node produces and is
	// used by peers to drop shreds from a different cluster/fork.
	ShredVersion uint16

	// Fanout bounds the branching factor of the retransmit tree. Every
	// interior node forwards to at most Fanout children.
	Fanout int

	// MaxDataShredsPerFECBlock is the number of data shreds accumulated
	// before a FEC set is closed and its coding shreds generated.
	MaxDataShredsPerFECBlock int

	// EpochCacheCapacity bounds the number of epochs' node tables held
	// in memory at once (an LRU evicts the least recently used entry).
	EpochCacheCapacity int

	// EpochCacheTTL is how long a cached node table is served; the first
	// lookup after it expires rebuilds the table before returning.
	EpochCacheTTL time.Duration
}

// Validate reports every field that is out of range, aggregated into a
// single error, rather than stopping at the first violation.
func (c Config) Validate() error {
	var errs wrappers.Errs
	if c.ShredVersion == 0 {
		errs.Add(ErrShredVersionZero)
	}
	if c.Fanout < 1 {
		errs.Add(ErrFanoutTooLow)
	}
	if c.MaxDataShredsPerFECBlock < 1 {
		errs.Add(ErrMaxDataShredsTooLow)
	}
	if c.MaxDataShredsPerFECBlock > MaxDataShredsPerFECBlockCeiling {
		errs.Add(ErrMaxDataShredsTooHigh)
	}
	if c.EpochCacheCapacity < 1 {
		errs.Add(ErrEpochCacheCapacityTooLow)
	}
	if c.EpochCacheTTL <= 0 {
		errs.Add(ErrEpochCacheTTLNonPositive)
	}
	return errs.Err()
}
