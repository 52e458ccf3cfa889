// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package shuffle implements a deterministic, stake-weighted
// without-replacement shuffle. Given the same seed and weights every
// validator derives the same permutation, which is what lets turbine
// peers compute each other's place in the retransmit tree without
// exchanging it over the wire.
package shuffle

import (
	"encoding/binary"

	"golang.org/x/crypto/chacha20"
)

// SeedSize is the width of the seed fed to the underlying stream
// cipher, matching a chacha20 key.
const SeedSize = chacha20.KeySize

// Seed is the deterministic input to Rng. The turbine resolver derives
// it from a node identity and the shred's slot and index.
type Seed [SeedSize]byte

// Rng is a deterministic source of uniformly distributed uint64s. Two
// Rngs constructed from the same Seed draw the same sequence, which is
// the property the weighted shuffle depends on for cross-validator
// agreement.
type Rng struct {
	cipher *chacha20.Cipher
	buf    [8]byte
}

// NewRng builds a stream-cipher-backed Rng from seed. The nonce is
// fixed at zero: a chacha20 key is already 256 bits of entropy and each
// Rng is used for exactly one shuffle, so nonce reuse across calls is
// not a concern here the way it would be for encrypting unrelated
// messages under the same key.
func NewRng(seed Seed) *Rng {
	var nonce [chacha20.NonceSize]byte
	c, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce[:])
	if err != nil {
		// chacha20.NewUnauthenticatedCipher only errors on bad key/nonce
		// length, both of which are fixed-size arrays here.
		panic(err)
	}
	return &Rng{cipher: c}
}

// Uint64 returns the next pseudo-random value in the stream.
func (r *Rng) Uint64() uint64 {
	var zero [8]byte
	r.cipher.XORKeyStream(r.buf[:], zero[:])
	return binary.LittleEndian.Uint64(r.buf[:])
}
