// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package math adapts the teacher's safe-arithmetic idiom
// (utils/math/safe_math.go) down to the single operation shuffle needs:
// an overflow-checked uint64 add for summing a weight vector.
package math

import (
	"errors"
	"math"
)

var ErrOverflow = errors.New("overflow")

// Add64 returns a + b with overflow detection
func Add64(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}