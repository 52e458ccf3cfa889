// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import "errors"

var (
	ErrFanoutTooLow                = errors.New("fanout must be at least 1")
	ErrMaxDataShredsTooLow          = errors.New("max data shreds per FEC block must be at least 1")
	ErrMaxDataShredsTooHigh         = errors.New("max data shreds per FEC block exceeds the protocol ceiling")
	ErrEpochCacheCapacityTooLow     = errors.New("epoch cache capacity must be at least 1")
	ErrEpochCacheTTLNonPositive     = errors.New("epoch cache TTL must be positive")
	ErrShredVersionZero             = errors.New("shred version must be nonzero")
)
