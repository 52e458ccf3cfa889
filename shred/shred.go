// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package shred implements the bit-exact wire format for the atomic
// unit of dissemination: a fixed-length, signed frame carrying either a
// slice of entry bytes (a data shred) or a Reed-Solomon parity block
// (a coding shred).
package shred

import (
	"crypto/ed25519"
	"encoding/binary"
	"errors"
)

// Kind distinguishes a data shred (carries entry bytes) from a coding
// shred (carries FEC parity bytes).
type Kind uint8

const (
	Data Kind = iota
	Coding
)

const (
	// SignatureSize is the Ed25519 signature length over
	// header-after-signature || payload.
	SignatureSize = ed25519.SignatureSize

	// commonHeaderSize: kind(1) + slot(8) + index(4) + shredVersion(2) + fecSetIndex(4).
	commonHeaderSize = 1 + 8 + 4 + 2 + 4

	// dataHeaderSize: parentOffset(2) + flags(1) + size(2).
	dataHeaderSize = 2 + 1 + 2

	// codingHeaderSize: position(2) + numData(2) + numCode(2).
	codingHeaderSize = 2 + 2 + 2

	// Size is the fixed frame length every shred marshals to and
	// unmarshals from, regardless of kind. Chosen to sit comfortably
	// under a typical UDP MTU after signature and headers.
	Size = 1203

	// maxKindHeaderSize is the larger of the two kind-specific header
	// sizes. Both payload maxima are derived from it rather than from
	// each kind's own (smaller) header, so a maximal data payload
	// always fits within a coding shred's payload capacity too —
	// EncodeFEC pads every data shard up to the group's largest
	// payload before Reed-Solomon encoding, which would otherwise
	// overflow MaxCodingPayload for a max-size data shred.
	maxKindHeaderSize = codingHeaderSize

	// MaxDataPayload is the largest entry-byte slice a data shred's
	// fixed-size frame can carry.
	MaxDataPayload = Size - SignatureSize - commonHeaderSize - maxKindHeaderSize

	// MaxCodingPayload is the largest parity-byte slice a coding
	// shred's fixed-size frame can carry.
	MaxCodingPayload = Size - SignatureSize - commonHeaderSize - maxKindHeaderSize

	flagReferenceTickMask = 0x3f
	flagLastInFECSet      = 1 << 6
	flagLastInSlot        = 1 << 7
)

var (
	ErrPayloadTooLarge  = errors.New("shred: payload exceeds max size for kind")
	ErrFrameWrongSize   = errors.New("shred: frame is not exactly Size bytes")
	ErrUnknownKind      = errors.New("shred: unknown kind tag")
	ErrReferenceTickOOR = errors.New("shred: reference tick does not fit in 6 bits")
)

// Shred is the decoded, in-memory form of one wire frame.
type Shred struct {
	Slot          uint64
	Index         uint32
	FECSetIndex   uint32
	ShredVersion  uint16
	Kind          Kind
	Signature     [SignatureSize]byte
	Payload       []byte

	// Data-kind fields.
	ParentOffset  uint16
	ReferenceTick uint8
	LastInFECSet  bool
	LastInSlot    bool

	// Coding-kind fields.
	Position uint16
	NumData  uint16
	NumCode  uint16
}

// signedBytes returns the bytes the signature covers: every field after the
// signature itself, plus the payload.
func (s *Shred) signedBytes() ([]byte, error) {
	buf := make([]byte, Size-SignatureSize)
	off := 0
	buf[off] = byte(s.Kind)
	off++
	binary.LittleEndian.PutUint64(buf[off:], s.Slot)
	off += 8
	binary.LittleEndian.PutUint32(buf[off:], s.Index)
	off += 4
	binary.LittleEndian.PutUint16(buf[off:], s.ShredVersion)
	off += 2
	binary.LittleEndian.PutUint32(buf[off:], s.FECSetIndex)
	off += 4

	switch s.Kind {
	case Data:
		if len(s.Payload) > MaxDataPayload {
			return nil, ErrPayloadTooLarge
		}
		if s.ReferenceTick&^flagReferenceTickMask != 0 {
			return nil, ErrReferenceTickOOR
		}
		binary.LittleEndian.PutUint16(buf[off:], s.ParentOffset)
		off += 2
		flags := s.ReferenceTick & flagReferenceTickMask
		if s.LastInFECSet {
			flags |= flagLastInFECSet
		}
		if s.LastInSlot {
			flags |= flagLastInSlot
		}
		buf[off] = flags
		off++
		binary.LittleEndian.PutUint16(buf[off:], uint16(len(s.Payload)))
		off += 2
		copy(buf[off:], s.Payload)
	case Coding:
		if len(s.Payload) > MaxCodingPayload {
			return nil, ErrPayloadTooLarge
		}
		binary.LittleEndian.PutUint16(buf[off:], s.Position)
		off += 2
		binary.LittleEndian.PutUint16(buf[off:], s.NumData)
		off += 2
		binary.LittleEndian.PutUint16(buf[off:], s.NumCode)
		off += 2
		copy(buf[off:], s.Payload)
	default:
		return nil, ErrUnknownKind
	}
	return buf, nil
}

// Sign computes and stores the Ed25519 signature over this shred's
// header-after-signature and payload.
func (s *Shred) Sign(priv ed25519.PrivateKey) error {
	signed, err := s.signedBytes()
	if err != nil {
		return err
	}
	sig := ed25519.Sign(priv, signed)
	copy(s.Signature[:], sig)
	return nil
}

// Verify reports whether Signature is a valid Ed25519 signature over
// this shred's current contents under pub.
func (s *Shred) Verify(pub ed25519.PublicKey) bool {
	signed, err := s.signedBytes()
	if err != nil {
		return false
	}
	return ed25519.Verify(pub, signed, s.Signature[:])
}

// MarshalBinary encodes s into its fixed Size-byte wire frame,
// zero-padding any unused payload tail.
func (s *Shred) MarshalBinary() ([]byte, error) {
	signed, err := s.signedBytes()
	if err != nil {
		return nil, err
	}
	out := make([]byte, Size)
	copy(out[:SignatureSize], s.Signature[:])
	copy(out[SignatureSize:], signed)
	return out, nil
}

// UnmarshalBinary decodes a fixed Size-byte wire frame into s. The
// payload is sized from the data header's explicit length field (data
// shreds) or fills the remainder of the frame (coding shreds, whose
// parity length is implied by the FEC group's shard size).
func (s *Shred) UnmarshalBinary(data []byte) error {
	if len(data) != Size {
		return ErrFrameWrongSize
	}
	copy(s.Signature[:], data[:SignatureSize])
	body := data[SignatureSize:]
	off := 0
	s.Kind = Kind(body[off])
	off++
	s.Slot = binary.LittleEndian.Uint64(body[off:])
	off += 8
	s.Index = binary.LittleEndian.Uint32(body[off:])
	off += 4
	s.ShredVersion = binary.LittleEndian.Uint16(body[off:])
	off += 2
	s.FECSetIndex = binary.LittleEndian.Uint32(body[off:])
	off += 4

	switch s.Kind {
	case Data:
		s.ParentOffset = binary.LittleEndian.Uint16(body[off:])
		off += 2
		flags := body[off]
		off++
		s.ReferenceTick = flags & flagReferenceTickMask
		s.LastInFECSet = flags&flagLastInFECSet != 0
		s.LastInSlot = flags&flagLastInSlot != 0
		size := binary.LittleEndian.Uint16(body[off:])
		off += 2
		if int(size) > len(body)-off {
			return ErrFrameWrongSize
		}
		s.Payload = append([]byte(nil), body[off:off+int(size)]...)
	case Coding:
		s.Position = binary.LittleEndian.Uint16(body[off:])
		off += 2
		s.NumData = binary.LittleEndian.Uint16(body[off:])
		off += 2
		s.NumCode = binary.LittleEndian.Uint16(body[off:])
		off += 2
		s.Payload = append([]byte(nil), body[off:]...)
	default:
		return ErrUnknownKind
	}
	return nil
}
