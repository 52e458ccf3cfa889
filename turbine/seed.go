// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package turbine

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/luxfi/ids"
	"github.com/luxfi/turbine/shuffle"
)

// deriveSeed hashes (identity, slot, index) into a 32-byte chacha20 key.
// Every validator computing the same inputs derives the same seed, and
// sha256's fixed 32-byte output happens to match shuffle.SeedSize
// exactly, so no truncation or expansion step is needed.
func deriveSeed(identity ids.NodeID, slot uint64, index uint32) shuffle.Seed {
	h := sha256.New()
	idBytes := identity[:]
	h.Write(idBytes)
	var buf [12]byte
	binary.LittleEndian.PutUint64(buf[0:8], slot)
	binary.LittleEndian.PutUint32(buf[8:12], index)
	h.Write(buf[:])

	var seed shuffle.Seed
	sum := h.Sum(nil)
	copy(seed[:], sum)
	return seed
}
